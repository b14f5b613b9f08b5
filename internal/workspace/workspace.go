package workspace

import (
	"context"
	"fmt"
	"slices"

	"github.com/jsvensson/docspace/internal/cow"
	"github.com/jsvensson/docspace/internal/dirconfig"
	"github.com/jsvensson/docspace/internal/queue"
	"github.com/jsvensson/docspace/internal/text"
	"github.com/tliron/commonlog"
)

// DocumentFactory builds the Document published when a host creates one.
type DocumentFactory func(id DocumentID, language string, t text.SourceText) Document

// Workspace coordinates open documents, their text surfaces and the
// notifications raised about them. Create one per hosting session with New
// and pass it to whatever needs it.
type Workspace struct {
	log     commonlog.Logger
	hooks   Hooks
	factory DocumentFactory

	store     *Store
	configs   *dirconfig.Cache
	queue     *queue.Queue
	observers *observers

	// bridges and surfaces are only changed by Open, Close and Rename. Callers
	// must not race those on the same id.
	bridges  *cow.Map[DocumentID, *Bridge]
	surfaces *cow.Map[string, []DocumentID]
}

// Option configures a Workspace.
type Option func(*options)

type options struct {
	log     commonlog.Logger
	hooks   Hooks
	factory DocumentFactory
	loader  dirconfig.Loader
}

// WithHooks sets the synchronous hooks.
func WithHooks(h Hooks) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = h
		}
	}
}

// WithDocumentFactory overrides CreateDocument.
func WithDocumentFactory(f DocumentFactory) Option {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithConfigLoader sets the loader behind LoadConfig. The default reads
// dirconfig.FileName from the directory.
func WithConfigLoader(l dirconfig.Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithLogger sets the logger for the workspace and its queue.
func WithLogger(log commonlog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// New creates a Workspace and starts its notification queue. Call Shutdown
// when done.
func New(opts ...Option) *Workspace {
	o := options{
		log:     commonlog.GetLogger("docspace.workspace"),
		hooks:   NopHooks{},
		factory: NewDocument,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Workspace{
		log:       o.log,
		hooks:     o.hooks,
		factory:   o.factory,
		store:     NewStore(),
		configs:   dirconfig.NewCache(o.loader),
		queue:     queue.New(queue.WithLogger(o.log)),
		observers: newObservers(),
		bridges:   cow.NewMap[DocumentID, *Bridge](idHasher{}),
		surfaces:  cow.NewMap[string, []DocumentID](nil),
	}
}

// CreateDocument builds a Document through the configured factory. It does
// not open it.
func (w *Workspace) CreateDocument(id DocumentID, language string, t text.SourceText) Document {
	return w.factory(id, language, t)
}

// List returns all open documents in one consistent snapshot.
func (w *Workspace) List() []Document {
	return w.store.List()
}

// Get returns the open document for id.
func (w *Workspace) Get(id DocumentID) (Document, bool) {
	return w.store.Get(id)
}

// IsOpen reports whether id is open.
func (w *Workspace) IsOpen(id DocumentID) bool {
	_, ok := w.store.Get(id)
	return ok
}

// DocumentsForSurface returns the open documents fed by surface.
func (w *Workspace) DocumentsForSurface(surface Surface) []DocumentID {
	ids, _ := w.surfaces.Get(surface.Identity())
	return slices.Clone(ids)
}

// LoadConfig returns the memoized config for dir.
func (w *Workspace) LoadConfig(dir string) (*dirconfig.ConfigFile, error) {
	return w.configs.Load(dir)
}

// Schedule runs fn on the workspace queue, after everything this goroutine
// scheduled or raised before.
func (w *Workspace) Schedule(name string, fn func() error) *queue.Handle {
	return w.queue.Schedule(name, fn)
}

// Open publishes doc and starts following surface for edits. The surface's
// current text wins over the text in doc. Opening an id that is already open
// returns ErrAlreadyOpen.
func (w *Workspace) Open(doc Document, surface Surface) error {
	id := doc.ID()

	b := NewBridge(id, surface, w.surfaceChanged)
	claimed := false
	w.bridges.Swap(func(cur *bridgeMap) *bridgeMap {
		if _, ok := cur.Get(id); ok {
			claimed = false
			return cur
		}
		claimed = true
		return cur.Set(id, b)
	})
	if !claimed {
		return fmt.Errorf("opening %s: %w", id, ErrAlreadyOpen)
	}

	doc = doc.WithText(surface.Current())
	w.store.Add(doc)

	// Seed and announce before any edit can arrive, so DocumentOpened is the
	// first event for id and the hook sees the initial text first.
	w.hooks.TextChanged(doc)
	w.raise(Event{Kind: DocumentOpened, ID: id, Document: doc, Found: true})

	if err := b.Connect(); err != nil {
		w.store.Remove(id)
		w.bridges.Swap(func(cur *bridgeMap) *bridgeMap { return cur.Delete(id) })
		w.raise(Event{Kind: DocumentClosed, ID: id, Document: doc, Found: true})
		return fmt.Errorf("opening %s: %w", id, err)
	}

	// Edits committed between reading the surface and connecting reached
	// nobody. Pick them up through the changed path, unless a callback already
	// published something newer. No callback runs meanwhile, so hook calls
	// never overlap.
	b.exclusive(func() {
		latest := surface.Current()
		if latest.Equal(doc.Text()) {
			return
		}
		if updated, ok := w.store.replaceText(id, doc.Text(), latest); ok {
			doc = updated
			w.hooks.TextChanged(updated)
			w.raise(Event{Kind: DocumentChanged, ID: id, Document: updated, Found: true})
		}
	})

	w.trackSurface(surface.Identity(), id)

	w.log.Debugf("opened %s (%s, %d bytes)", id, doc.Language(), doc.Text().Len())
	return nil
}

// Close removes id and stops following its surface. The returned document
// is the removed value; ok is false if id was not open. A DocumentClosed
// event is raised either way.
func (w *Workspace) Close(id DocumentID) (Document, bool) {
	if w.IsOpen(id) {
		w.hooks.Closing(id)
	}
	doc, found := w.store.Remove(id)

	var b *Bridge
	w.bridges.Swap(func(cur *bridgeMap) *bridgeMap {
		b, _ = cur.Get(id)
		return cur.Delete(id)
	})
	if b != nil {
		b.Disconnect()
		w.untrackSurface(b.Surface().Identity(), id)
	}

	w.raise(Event{Kind: DocumentClosed, ID: id, Document: doc, Found: found})

	w.log.Debugf("closed %s (found: %t)", id, found)
	return doc, found
}

// Rename moves the open document oldID to newID and points its surface at
// newID. Renaming an id that is not open does nothing. Renaming onto an open
// id returns ErrAlreadyOpen.
func (w *Workspace) Rename(oldID, newID DocumentID) error {
	if oldID == newID {
		return nil
	}
	if w.IsOpen(newID) {
		return fmt.Errorf("renaming %s to %s: %w", oldID, newID, ErrAlreadyOpen)
	}

	var (
		doc   Document
		found bool
	)
	b, tracked := w.bridges.Get(oldID)
	move := func() {
		doc, found = w.store.Rename(oldID, newID)
		if found && tracked {
			b.retarget(newID)
		}
	}
	if tracked {
		// Hold edits back so none is reported against an id that just vanished.
		b.exclusive(move)
	} else {
		move()
	}
	if !found {
		return nil
	}

	if tracked {
		w.bridges.Swap(func(cur *bridgeMap) *bridgeMap {
			return cur.Delete(oldID).Set(newID, b)
		})
		w.retargetSurface(b.Surface().Identity(), oldID, newID)
	}

	w.raise(Event{Kind: DocumentRenamed, ID: newID, OldID: oldID, Document: doc, Found: true})

	w.log.Debugf("renamed %s to %s", oldID, newID)
	return nil
}

// Shutdown disconnects every surface and waits for queued notifications to
// be delivered. Work scheduled afterwards fails with queue.ErrClosed.
func (w *Workspace) Shutdown(ctx context.Context) error {
	for _, b := range w.bridges.Values() {
		b.Disconnect()
	}
	if err := w.queue.Close(ctx); err != nil {
		return fmt.Errorf("draining notifications: %w", err)
	}
	return nil
}

// textChanged publishes t for id and runs the hook. It raises no event.
func (w *Workspace) textChanged(id DocumentID, t text.SourceText) (Document, error) {
	doc, err := w.store.UpdateText(id, t)
	if err != nil {
		return Document{}, err
	}
	w.hooks.TextChanged(doc)
	return doc, nil
}

// surfaceChanged is the bridge callback.
func (w *Workspace) surfaceChanged(id DocumentID, t text.SourceText) {
	doc, err := w.textChanged(id, t)
	if err != nil {
		w.log.Warningf("dropping edit: %s", err)
		return
	}
	w.raise(Event{Kind: DocumentChanged, ID: id, Document: doc, Found: true})
}

func (w *Workspace) trackSurface(key string, id DocumentID) {
	w.surfaces.Swap(func(cur *surfaceMap) *surfaceMap {
		ids, _ := cur.Get(key)
		next := make([]DocumentID, 0, len(ids)+1)
		next = append(next, ids...)
		return cur.Set(key, append(next, id))
	})
}

func (w *Workspace) untrackSurface(key string, id DocumentID) {
	w.surfaces.Swap(func(cur *surfaceMap) *surfaceMap {
		ids, ok := cur.Get(key)
		if !ok {
			return cur
		}
		next := slices.DeleteFunc(slices.Clone(ids), func(d DocumentID) bool { return d == id })
		if len(next) == 0 {
			return cur.Delete(key)
		}
		return cur.Set(key, next)
	})
}

func (w *Workspace) retargetSurface(key string, oldID, newID DocumentID) {
	w.surfaces.Swap(func(cur *surfaceMap) *surfaceMap {
		ids, ok := cur.Get(key)
		if !ok {
			return cur
		}
		next := slices.Clone(ids)
		for i, d := range next {
			if d == oldID {
				next[i] = newID
			}
		}
		return cur.Set(key, next)
	})
}
