package lsp

import (
	"github.com/jsvensson/docspace/internal/text"
	"github.com/jsvensson/docspace/internal/workspace"
	"github.com/sasha-s/go-deadlock"
)

// openDocument is the host-side half of an open document: the workspace id
// and the buffer the client's edits are applied to.
type openDocument struct {
	id     workspace.DocumentID
	buffer *text.Buffer
}

// DocumentStore maps client URIs to open documents.
type DocumentStore struct {
	mu   deadlock.RWMutex
	docs map[string]openDocument
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]openDocument)}
}

func (s *DocumentStore) Open(uri string, doc openDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = doc
}

func (s *DocumentStore) Close(uri string) (openDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	delete(s.docs, uri)
	return doc, ok
}

// Rename moves the entry for oldURI to newURI under a new id.
func (s *DocumentStore) Rename(oldURI, newURI string, id workspace.DocumentID) (openDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[oldURI]
	if !ok {
		return openDocument{}, false
	}
	delete(s.docs, oldURI)
	s.docs[newURI] = openDocument{id: id, buffer: doc.buffer}
	return doc, true
}

func (s *DocumentStore) Get(uri string) (openDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}
