package workspace

import (
	"fmt"

	"github.com/benbjohnson/immutable"
	"github.com/jsvensson/docspace/internal/cow"
	"github.com/jsvensson/docspace/internal/text"
)

type (
	docMap     = immutable.Map[DocumentID, Document]
	bridgeMap  = immutable.Map[DocumentID, *Bridge]
	surfaceMap = immutable.Map[string, []DocumentID]
)

// Store holds open documents keyed by id. Every change publishes a new
// immutable map; readers never see a half-applied change.
type Store struct {
	docs *cow.Map[DocumentID, Document]
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{docs: cow.NewMap[DocumentID, Document](idHasher{})}
}

// List returns every document in one consistent snapshot.
func (s *Store) List() []Document {
	return s.docs.Values()
}

// Len returns the number of open documents.
func (s *Store) Len() int {
	return s.docs.Len()
}

// Get returns the document for id.
func (s *Store) Get(id DocumentID) (Document, bool) {
	return s.docs.Get(id)
}

// Add inserts doc, replacing any document with the same id.
func (s *Store) Add(doc Document) {
	s.docs.Swap(func(cur *docMap) *docMap {
		return cur.Set(doc.ID(), doc)
	})
}

// UpdateText replaces the text of id and returns the new document.
func (s *Store) UpdateText(id DocumentID, t text.SourceText) (Document, error) {
	var (
		updated Document
		found   bool
	)
	s.docs.Swap(func(cur *docMap) *docMap {
		doc, ok := cur.Get(id)
		found = ok
		if !ok {
			return cur
		}
		updated = doc.WithText(t)
		return cur.Set(id, updated)
	})
	if !found {
		return Document{}, fmt.Errorf("updating %s: %w", id, ErrNotFound)
	}
	return updated, nil
}

// replaceText sets the text of id to t only if its current text equals old.
func (s *Store) replaceText(id DocumentID, old, t text.SourceText) (Document, bool) {
	var (
		updated Document
		ok      bool
	)
	s.docs.Swap(func(cur *docMap) *docMap {
		doc, found := cur.Get(id)
		ok = found && doc.Text().Equal(old)
		if !ok {
			return cur
		}
		updated = doc.WithText(t)
		return cur.Set(id, updated)
	})
	return updated, ok
}

// Remove deletes id and returns the document it held.
func (s *Store) Remove(id DocumentID) (Document, bool) {
	prev, _ := s.docs.Swap(func(cur *docMap) *docMap {
		return cur.Delete(id)
	})
	return prev.Get(id)
}

// Rename moves the document under oldID to newID, replacing anything already
// stored under newID. It does nothing if oldID is absent.
func (s *Store) Rename(oldID, newID DocumentID) (Document, bool) {
	var (
		moved Document
		found bool
	)
	s.docs.Swap(func(cur *docMap) *docMap {
		doc, ok := cur.Get(oldID)
		found = ok
		if !ok || oldID == newID {
			moved = doc
			return cur
		}
		moved = doc.WithID(newID)
		return cur.Delete(oldID).Set(newID, moved)
	})
	return moved, found
}
