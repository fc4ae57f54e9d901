package docstore

import "errors"

var (
	// ErrLockTimeout is returned when a path lock cannot be acquired
	// within the retry budget.
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrCorruptDocument is returned when a document file exists and is
	// non-empty but does not contain valid JSON.
	ErrCorruptDocument = errors.New("document is not valid JSON")

	// ErrDocumentShape is returned when a document parses as JSON but does
	// not match the expected type, e.g. an object where a list is stored.
	ErrDocumentShape = errors.New("document has unexpected shape")
)
