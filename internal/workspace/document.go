package workspace

import (
	"encoding/binary"

	"github.com/jsvensson/docspace/internal/text"
	"github.com/segmentio/ksuid"
)

// DocumentID identifies an open document. Ids are compared by value and two
// calls to NewDocumentID never return equal ids. A rename replaces the id.
type DocumentID struct {
	id   ksuid.KSUID
	name string
}

// NewDocumentID returns a fresh id. name is only used for display.
func NewDocumentID(name string) DocumentID {
	return DocumentID{id: ksuid.New(), name: name}
}

// IsZero reports whether id is the zero DocumentID.
func (id DocumentID) IsZero() bool {
	return id.id.IsNil()
}

// Name returns the display name given to NewDocumentID.
func (id DocumentID) Name() string {
	return id.name
}

func (id DocumentID) String() string {
	if id.name == "" {
		return id.id.String()
	}
	return id.name + " (" + id.id.String() + ")"
}

// idHasher hashes DocumentIDs for the persistent maps. The ksuid payload is
// random, so its first four bytes are already well distributed.
type idHasher struct{}

func (idHasher) Hash(id DocumentID) uint32 {
	return binary.BigEndian.Uint32(id.id.Payload()[:4])
}

func (idHasher) Equal(a, b DocumentID) bool {
	return a == b
}

// Document is an immutable view of one open document.
type Document struct {
	id       DocumentID
	language string
	text     text.SourceText
}

// NewDocument builds a Document value.
func NewDocument(id DocumentID, language string, t text.SourceText) Document {
	return Document{id: id, language: language, text: t}
}

// ID returns the document id.
func (d Document) ID() DocumentID { return d.id }

// Language returns the language tag, such as "hcl".
func (d Document) Language() string { return d.language }

// Text returns the text snapshot.
func (d Document) Text() text.SourceText { return d.text }

// WithText returns a copy of d holding t.
func (d Document) WithText(t text.SourceText) Document {
	d.text = t
	return d
}

// WithID returns a copy of d under id.
func (d Document) WithID(id DocumentID) Document {
	d.id = id
	return d
}
