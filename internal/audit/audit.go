// Package audit appends mutation records to a single append-only log
// file shared by all repositories.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const logFileName = "audit.log"

// Entry is one parsed line of the audit log.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
}

// Logger appends tab-separated audit lines to audit.log under the data
// directory. Entries are never mutated or deleted; insertion order is the
// only ordering guarantee.
type Logger struct {
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

// New creates an audit logger writing under dataDir.
func New(dataDir string, logger zerolog.Logger) *Logger {
	return &Logger{
		path:   filepath.Join(dataDir, logFileName),
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Append writes one line: timestamp, actor (or "system"), action.
// Failures propagate; audit writes are not best-effort.
func (l *Logger) Append(actor, action string) error {
	if actor == "" {
		actor = "system"
	}
	line := fmt.Sprintf("%s\t%s\t%s\n", time.Now().UTC().Format(time.RFC3339), actor, action)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Tail returns up to n most recent entries, oldest first. Malformed lines
// are skipped.
func (l *Logger) Tail(n int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			l.logger.Debug().Str("line", line).Msg("skipping malformed audit line")
			continue
		}
		entries = append(entries, Entry{Timestamp: ts, Actor: parts[1], Action: parts[2]})
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
