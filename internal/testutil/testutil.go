// Package testutil provides helpers for tests that need a file-backed
// document store.
package testutil

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/streavmin/streavmin/internal/audit"
	"github.com/streavmin/streavmin/internal/docstore"
)

// TestStore bundles a temp-dir document store with an audit logger.
type TestStore struct {
	Store  *docstore.Store
	Audit  *audit.Logger
	Dir    string
	Logger zerolog.Logger
}

// NewTestStore creates a document store rooted in a fresh temp directory.
// Cleanup is handled by t.TempDir.
func NewTestStore(t *testing.T) *TestStore {
	t.Helper()

	dir := t.TempDir()
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)

	return &TestStore{
		Store:  docstore.New(dir, logger),
		Audit:  audit.New(dir, logger),
		Dir:    dir,
		Logger: logger,
	}
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a discarding logger for code that may still be
// logging after the test body returns, where a t-bound writer would race
// test completion.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// StringPtr returns a pointer to a string.
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to a bool.
func BoolPtr(b bool) *bool {
	return &b
}
