package dispatchlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrymomot/bulkmail/pkg/id"
	"github.com/dmitrymomot/bulkmail/pkg/storage"
)

// JournalSuffix is appended to the artifact ID for the spool journal file.
const JournalSuffix = ".partial"

// idPattern matches generated IDs. The suffix is optional so logs written
// with a bare timestamp name stay downloadable.
var idPattern = regexp.MustCompile(`^log_[0-9]{14}(_[0-9A-Z]{8})?\.txt$`)

// ValidID reports whether s is a well-formed artifact ID.
func ValidID(s string) bool {
	return idPattern.MatchString(s)
}

// IDFor returns the artifact ID for a batch ID made by id.NewBatchID.
func IDFor(batchID string) string {
	return "log_" + batchID + ".txt"
}

// Config configures a Store.
type Config struct {
	// SpoolDir holds journal files of batches in progress. Empty disables journaling.
	SpoolDir string

	// URLPrefix is the path the HTTP layer serves logs under, default "/logs".
	URLPrefix string
}

// Store creates logs and reads persisted artifacts.
type Store struct {
	storage storage.Storage
	cfg     Config
}

// NewStore creates a Store on top of artifact storage. The spool directory is created if missing.
func NewStore(st storage.Storage, cfg Config) (*Store, error) {
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/logs"
	}
	cfg.URLPrefix = "/" + strings.Trim(cfg.URLPrefix, "/")
	if cfg.SpoolDir != "" {
		if err := os.MkdirAll(cfg.SpoolDir, 0o755); err != nil {
			return nil, fmt.Errorf("create spool dir: %w", err)
		}
	}
	return &Store{storage: st, cfg: cfg}, nil
}

// Begin creates an empty log for a batch. An empty batchID gets a fresh one.
func (s *Store) Begin(_ context.Context, batchID string) (*Log, error) {
	if batchID == "" {
		batchID = id.NewBatchID(time.Now())
	}
	logID := IDFor(batchID)
	if !ValidID(logID) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, logID)
	}
	l := &Log{id: logID, store: s}
	if s.cfg.SpoolDir == "" {
		return l, nil
	}

	f, err := os.OpenFile(filepath.Join(s.cfg.SpoolDir, l.id+JournalSuffix),
		os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	l.journal = f
	return l, nil
}

// Open returns the persisted artifact. The caller closes the reader.
func (s *Store) Open(ctx context.Context, logID string) (io.ReadCloser, error) {
	if !ValidID(logID) {
		return nil, ErrInvalidID
	}
	rc, err := s.storage.Get(ctx, logID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, logID)
		}
		return nil, err
	}
	return rc, nil
}

// URL returns the download path for an artifact ID.
func (s *Store) URL(logID string) string {
	return s.cfg.URLPrefix + "/" + logID
}

// Partials lists journal files left behind by interrupted batches.
func (s *Store) Partials() ([]string, error) {
	if s.cfg.SpoolDir == "" {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(s.cfg.SpoolDir, "log_*"+JournalSuffix))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Ping checks the artifact storage.
func (s *Store) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}
