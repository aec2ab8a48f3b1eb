// Package dispatchlog records per-recipient delivery outcomes and persists
// them as a downloadable plain text artifact.
//
// Each recorded line is appended to a journal file in the spool directory as
// soon as it is known, so a crash mid-batch leaves a partial log behind. The
// complete log is written to storage exactly once by Persist.
package dispatchlog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dmitrymomot/bulkmail/pkg/storage"
)

// Outcome is the result of one delivery attempt. Err is nil for a sent message.
type Outcome struct {
	Email string
	Err   error
}

// Sent reports whether the message was accepted.
func (o Outcome) Sent() bool { return o.Err == nil }

// Line renders the outcome as a log line without the trailing newline.
func (o Outcome) Line() string {
	if o.Err == nil {
		return "✅ Sent to " + o.Email
	}
	reason := strings.ReplaceAll(o.Err.Error(), "\n", " ")
	return "❌ Failed to " + o.Email + ": " + reason
}

// Log is an append-only outcome list for one batch. It is safe for concurrent use,
// though the dispatch loop only appends from a single goroutine.
type Log struct {
	id    string
	store *Store

	mu        sync.Mutex
	outcomes  []Outcome
	sent      int
	journal   *os.File
	persisted bool
}

// ID returns the artifact ID, e.g. "log_20260102150405_7QK2M9XA.txt".
func (l *Log) ID() string { return l.id }

// Record appends an outcome and flushes its line to the journal.
// A journal write failure is reported but the outcome is kept in memory.
func (l *Log) Record(o Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.persisted {
		return ErrPersisted
	}
	l.outcomes = append(l.outcomes, o)
	if o.Sent() {
		l.sent++
	}

	if l.journal == nil {
		return nil
	}
	if _, err := l.journal.WriteString(o.Line() + "\n"); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Len returns the number of recorded outcomes.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.outcomes)
}

// Counts returns the number of sent and failed outcomes.
func (l *Log) Counts() (sent, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sent, len(l.outcomes) - l.sent
}

// Outcomes returns a copy of the recorded outcomes in order.
func (l *Log) Outcomes() []Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Outcome(nil), l.outcomes...)
}

// Text renders the full log.
func (l *Log) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text()
}

func (l *Log) text() string {
	var b strings.Builder
	for _, o := range l.outcomes {
		b.WriteString(o.Line())
		b.WriteByte('\n')
	}
	return b.String()
}

// Persist writes the log to storage and removes the journal. After a
// successful Persist the log is frozen. On failure the journal is kept and
// Persist may be retried.
func (l *Log) Persist(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.persisted {
		return "", ErrPersisted
	}

	body := l.text()
	if _, err := l.store.storage.Put(ctx, strings.NewReader(body), int64(len(body)),
		storage.WithKey(l.id),
		storage.WithContentType(storage.MIMETextPlain),
	); err != nil {
		return "", fmt.Errorf("persist %s: %w", l.id, err)
	}

	l.persisted = true
	l.closeJournal(true)
	return l.id, nil
}

// Abandon closes the journal and leaves it on disk as the partial log.
func (l *Log) Abandon() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeJournal(false)
}

func (l *Log) closeJournal(remove bool) {
	if l.journal == nil {
		return
	}
	name := l.journal.Name()
	_ = l.journal.Close()
	l.journal = nil
	if remove {
		_ = os.Remove(name)
	}
}
