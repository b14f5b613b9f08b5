package workspace

// Hooks are called synchronously by the workspace, on the goroutine that
// caused the change. They run before the matching event is queued, never
// concurrently for the same document, and must not open, close or rename it.
type Hooks interface {
	// TextChanged is called after a document's text was published, and once
	// with the initial text when the document is opened.
	TextChanged(doc Document)

	// Closing is called before a document is removed, while Get still finds it.
	Closing(id DocumentID)
}

// NopHooks does nothing.
type NopHooks struct{}

func (NopHooks) TextChanged(Document) {}
func (NopHooks) Closing(DocumentID)   {}

// HookFuncs adapts plain funcs to Hooks. Nil fields are skipped.
type HookFuncs struct {
	OnTextChanged func(Document)
	OnClosing     func(DocumentID)
}

func (h HookFuncs) TextChanged(doc Document) {
	if h.OnTextChanged != nil {
		h.OnTextChanged(doc)
	}
}

func (h HookFuncs) Closing(id DocumentID) {
	if h.OnClosing != nil {
		h.OnClosing(id)
	}
}
