package workspace

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/benbjohnson/immutable"
	"github.com/jsvensson/docspace/internal/queue"
)

// EventKind names a workspace notification.
type EventKind uint8

const (
	DocumentOpened EventKind = iota + 1
	DocumentClosed
	DocumentRenamed
	DocumentChanged
)

func (k EventKind) String() string {
	switch k {
	case DocumentOpened:
		return "DocumentOpened"
	case DocumentClosed:
		return "DocumentClosed"
	case DocumentRenamed:
		return "DocumentRenamed"
	case DocumentChanged:
		return "DocumentChanged"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is delivered to subscribers from the workspace queue.
type Event struct {
	Kind EventKind
	ID   DocumentID

	// OldID is set for DocumentRenamed.
	OldID DocumentID

	// Document is the document as of the change. For DocumentClosed it is the
	// removed value, and Found is false if the id was not open.
	Document Document
	Found    bool
}

// Subscription identifies one Subscribe call.
type Subscription uint64

type observer struct {
	kind EventKind
	fn   func(Event)
}

type observerMap = immutable.SortedMap[Subscription, observer]

type subComparer struct{}

func (subComparer) Compare(a, b Subscription) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// observers is a copy-on-write list ordered by subscription.
type observers struct {
	next atomic.Uint64
	ptr  atomic.Pointer[observerMap]
}

func newObservers() *observers {
	o := &observers{}
	o.ptr.Store(immutable.NewSortedMap[Subscription, observer](subComparer{}))
	return o
}

func (o *observers) add(kind EventKind, fn func(Event)) Subscription {
	sub := Subscription(o.next.Add(1))
	for {
		cur := o.ptr.Load()
		if o.ptr.CompareAndSwap(cur, cur.Set(sub, observer{kind: kind, fn: fn})) {
			return sub
		}
	}
}

func (o *observers) remove(sub Subscription) bool {
	for {
		cur := o.ptr.Load()
		if _, ok := cur.Get(sub); !ok {
			return false
		}
		if o.ptr.CompareAndSwap(cur, cur.Delete(sub)) {
			return true
		}
	}
}

func (o *observers) has(kind EventKind) bool {
	itr := o.ptr.Load().Iterator()
	for !itr.Done() {
		_, obs, _ := itr.Next()
		if obs.kind == kind {
			return true
		}
	}
	return false
}

// deliver calls every observer of ev.Kind in subscription order. A panicking
// observer does not stop the others; all failures are joined.
func (o *observers) deliver(ev Event) error {
	var errs []error
	itr := o.ptr.Load().Iterator()
	for !itr.Done() {
		sub, obs, _ := itr.Next()
		if obs.kind != ev.Kind {
			continue
		}
		if err := call(obs.fn, ev); err != nil {
			errs = append(errs, fmt.Errorf("subscription %d: %w", sub, err))
		}
	}
	return errors.Join(errs...)
}

func call(fn func(Event), ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s observer: %v", queue.ErrPanic, ev.Kind, r)
		}
	}()
	fn(ev)
	return nil
}

// Subscribe registers fn for events of kind. fn runs on the workspace queue
// and should return promptly.
func (w *Workspace) Subscribe(kind EventKind, fn func(Event)) Subscription {
	return w.observers.add(kind, fn)
}

// Unsubscribe removes a subscription. It reports whether sub was registered.
// Observers are resolved when an event is delivered, so an unsubscribed fn
// receives nothing further, even for events raised before Unsubscribe.
func (w *Workspace) Unsubscribe(sub Subscription) bool {
	return w.observers.remove(sub)
}

// raise queues ev for delivery. It returns nil when nobody listens for ev.Kind.
func (w *Workspace) raise(ev Event) *queue.Handle {
	if !w.observers.has(ev.Kind) {
		return nil
	}
	return w.queue.Schedule(ev.Kind.String(), func() error {
		return w.observers.deliver(ev)
	})
}
