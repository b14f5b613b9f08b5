package text

import (
	"github.com/sasha-s/go-deadlock"
	"github.com/segmentio/ksuid"
)

type subscriber struct {
	id uint64
	fn func(SourceText)
}

// Buffer is a mutable text surface owned by a host (an editor, the language
// server). Each committed edit replaces the current snapshot and is reported
// to subscribers on the goroutine that made the edit.
type Buffer struct {
	identity string

	// edit serializes Replace so subscribers see edits in commit order.
	edit deadlock.Mutex

	mu      deadlock.RWMutex
	current SourceText
	subs    []subscriber
	nextSub uint64
}

// NewBuffer creates a buffer holding content.
func NewBuffer(content string) *Buffer {
	b := &Buffer{identity: ksuid.New().String()}
	b.current = SourceText{content: content, buffer: b}
	return b
}

// Identity returns a string that uniquely identifies this buffer.
func (b *Buffer) Identity() string {
	return b.identity
}

// Current returns the latest committed snapshot.
func (b *Buffer) Current() SourceText {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Replace commits content as the new text and notifies subscribers.
// Subscribers must not call Replace on the same buffer.
func (b *Buffer) Replace(content string) SourceText {
	b.edit.Lock()
	defer b.edit.Unlock()

	b.mu.Lock()
	snapshot := SourceText{content: content, buffer: b}
	b.current = snapshot
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(snapshot)
	}
	return snapshot
}

// Subscribe registers fn for every edit committed after it returns. The
// returned cancel func removes the subscription and may be called more than
// once.
func (b *Buffer) Subscribe(fn func(SourceText)) (cancel func()) {
	b.mu.Lock()
	b.nextSub++
	id := b.nextSub
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Buffer) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
