package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalConfig configures LocalStorage.
type LocalConfig struct {
	Dir     string `yaml:"dir"`      // root directory, created if missing
	BaseURL string `yaml:"base_url"` // URL prefix under which files are served, e.g. "/logs"
}

// LocalStorage implements Storage on the local filesystem.
type LocalStorage struct {
	root string
	cfg  LocalConfig
}

// NewLocal creates the root directory if needed and returns a LocalStorage.
func NewLocal(cfg LocalConfig) (*LocalStorage, error) {
	if cfg.Dir == "" {
		return nil, ErrInvalidConfig
	}
	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &LocalStorage{root: root, cfg: cfg}, nil
}

// Put writes the file atomically: data goes to a temp file that is renamed into place.
func (s *LocalStorage) Put(_ context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error) {
	o := &putOptions{}
	for _, opt := range opts {
		opt(o)
	}

	contentType := o.contentType
	if contentType == "" {
		var rs io.ReadSeeker
		contentType, rs = detectMIMEWithReader(r)
		r = rs
	}

	key := o.key
	if key == "" {
		key = buildKey(o.prefix, contentType)
	}
	dst, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	n, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if size > 0 && n != size {
		return nil, fmt.Errorf("%w: wrote %d of %d bytes", ErrUploadFailed, n, size)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return &FileInfo{Key: key, Size: n, ContentType: contentType, ACL: ACLPrivate}, nil
}

// Get opens a stored file.
func (s *LocalStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return f, nil
}

// Delete removes a stored file.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

// URL joins BaseURL and key. Without BaseURL it returns ErrNoURL.
func (s *LocalStorage) URL(_ context.Context, key string, _ ...URLOption) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if s.cfg.BaseURL == "" {
		return "", ErrNoURL
	}
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + "/" + key, nil
}

// Ping checks that the root directory is still a writable directory.
func (s *LocalStorage) Ping(_ context.Context) error {
	f, err := os.CreateTemp(s.root, ".ping-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// Root returns the absolute root directory.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

var _ Storage = (*LocalStorage)(nil)
