package workspace

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jsvensson/docspace/internal/text"
)

type recorder struct {
	mu   sync.Mutex
	ids  []DocumentID
	text []string
}

func (r *recorder) record(id DocumentID, t text.SourceText) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	r.text = append(r.text, t.String())
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.text...)
}

func TestBridge_ForwardsEdits(t *testing.T) {
	buf := text.NewBuffer("a")
	id := NewDocumentID("a.hcl")
	var rec recorder

	b := NewBridge(id, buf, rec.record)
	buf.Replace("before connect")
	if err := b.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	buf.Replace("ab")
	buf.Replace("abc")

	if diff := cmp.Diff([]string{"ab", "abc"}, rec.texts()); diff != "" {
		t.Errorf("forwarded text mismatch (-want +got):\n%s", diff)
	}
	for _, got := range rec.ids {
		if got != id {
			t.Errorf("callback id = %s, want %s", got, id)
		}
	}
}

func TestBridge_DoubleConnect(t *testing.T) {
	buf := text.NewBuffer("")
	b := NewBridge(NewDocumentID("a"), buf, func(DocumentID, text.SourceText) {})

	if err := b.Connect(); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if err := b.Connect(); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect: got %v, want ErrAlreadyConnected", err)
	}
	if buf.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", buf.Subscribers())
	}
}

func TestBridge_DisconnectIdempotent(t *testing.T) {
	buf := text.NewBuffer("")
	var rec recorder
	b := NewBridge(NewDocumentID("a"), buf, rec.record)

	// Never connected.
	b.Disconnect()

	if err := b.Connect(); err != nil {
		t.Fatal(err)
	}
	buf.Replace("one")
	b.Disconnect()
	b.Disconnect()
	buf.Replace("two")

	if diff := cmp.Diff([]string{"one"}, rec.texts()); diff != "" {
		t.Errorf("forwarded text mismatch (-want +got):\n%s", diff)
	}
	if b.Connected() {
		t.Error("Connected() after Disconnect")
	}
	if buf.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", buf.Subscribers())
	}

	// Reconnecting after a disconnect is allowed.
	if err := b.Connect(); err != nil {
		t.Errorf("reconnect: %v", err)
	}
	b.Disconnect()
}

func TestBridge_DisconnectWaitsForInFlight(t *testing.T) {
	buf := text.NewBuffer("")
	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu       sync.Mutex
		finished bool
	)
	b := NewBridge(NewDocumentID("a"), buf, func(DocumentID, text.SourceText) {
		close(entered)
		<-release
		mu.Lock()
		finished = true
		mu.Unlock()
	})
	if err := b.Connect(); err != nil {
		t.Fatal(err)
	}

	go buf.Replace("x")
	<-entered

	disconnected := make(chan struct{})
	go func() {
		b.Disconnect()
		close(disconnected)
	}()

	select {
	case <-disconnected:
		t.Fatal("Disconnect returned while a callback was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-disconnected:
	case <-time.After(5 * time.Second):
		t.Fatal("Disconnect did not return")
	}
	mu.Lock()
	defer mu.Unlock()
	if !finished {
		t.Error("Disconnect returned before the callback finished")
	}
}

func TestBridge_Retarget(t *testing.T) {
	buf := text.NewBuffer("")
	var rec recorder
	oldID, newID := NewDocumentID("old"), NewDocumentID("new")
	b := NewBridge(oldID, buf, rec.record)
	if err := b.Connect(); err != nil {
		t.Fatal(err)
	}
	defer b.Disconnect()

	buf.Replace("1")
	b.exclusive(func() { b.retarget(newID) })
	buf.Replace("2")

	if b.Target() != newID {
		t.Errorf("Target() = %s, want %s", b.Target(), newID)
	}
	if diff := cmp.Diff([]DocumentID{oldID, newID}, rec.ids, cmp.Comparer(func(a, b DocumentID) bool { return a == b })); diff != "" {
		t.Errorf("callback ids mismatch (-want +got):\n%s", diff)
	}
}
