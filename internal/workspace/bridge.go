package workspace

import (
	"fmt"
	"sync/atomic"

	"github.com/jsvensson/docspace/internal/text"
	"github.com/sasha-s/go-deadlock"
)

// Surface is an externally owned, mutable text surface such as an editor
// buffer. *text.Buffer implements it.
type Surface interface {
	// Subscribe registers fn for every committed edit and returns a func that
	// removes the subscription.
	Subscribe(fn func(text.SourceText)) (cancel func())

	// Current returns the surface's latest text.
	Current() text.SourceText

	// Identity distinguishes surfaces, so that documents sharing one can be found.
	Identity() string
}

// Bridge forwards edits from one Surface to a change callback for the
// document it targets.
type Bridge struct {
	surface  Surface
	onChange func(DocumentID, text.SourceText)
	target   atomic.Pointer[DocumentID]

	// mu is held for reading while a callback runs, so Disconnect waits for
	// in-flight callbacks before returning.
	mu        deadlock.RWMutex
	connected bool
	cancel    func()
}

// NewBridge returns a disconnected bridge from surface to onChange for id.
func NewBridge(id DocumentID, surface Surface, onChange func(DocumentID, text.SourceText)) *Bridge {
	b := &Bridge{surface: surface, onChange: onChange}
	b.target.Store(&id)
	return b
}

// Target returns the id edits are currently reported for.
func (b *Bridge) Target() DocumentID {
	return *b.target.Load()
}

// Surface returns the bridged surface.
func (b *Bridge) Surface() Surface {
	return b.surface
}

func (b *Bridge) retarget(id DocumentID) {
	b.target.Store(&id)
}

// exclusive runs fn while no callback is in flight.
func (b *Bridge) exclusive(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}

// Connected reports whether the bridge is listening to its surface.
func (b *Bridge) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// Connect starts listening to the surface. Connecting a bridge that is
// already connected returns ErrAlreadyConnected.
func (b *Bridge) Connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connected {
		return fmt.Errorf("connecting %s: %w", b.Target(), ErrAlreadyConnected)
	}
	b.cancel = b.surface.Subscribe(b.forward)
	b.connected = true
	return nil
}

// Disconnect stops listening. Once it returns no further callbacks are made.
// It is safe to call on a bridge that was never connected, and more than once.
// It must not be called from inside the bridge's own callback.
func (b *Bridge) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return
	}
	b.cancel()
	b.cancel = nil
	b.connected = false
}

func (b *Bridge) forward(t text.SourceText) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.connected {
		return
	}
	b.onChange(b.Target(), t)
}
