package workspace

import "errors"

var (
	// ErrNotFound is returned by operations that need an open document.
	ErrNotFound = errors.New("document not found")

	// ErrAlreadyOpen is returned when opening, or renaming onto, an id that is open.
	ErrAlreadyOpen = errors.New("document already open")

	// ErrAlreadyConnected is returned by a second Bridge.Connect without Disconnect.
	ErrAlreadyConnected = errors.New("bridge already connected")
)
