package storage

import (
	"context"
	"io"
)

// Storage defines the interface for artifact storage operations.
type Storage interface {
	// Put uploads data from a reader. size is used for the content length.
	Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error)

	// Get retrieves a file. The caller closes the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for fetching the file directly from the backend, if it has one.
	URL(ctx context.Context, key string, opts ...URLOption) (string, error)

	// Ping reports whether the backend is reachable and writable.
	Ping(ctx context.Context) error
}

// FileInfo contains metadata about a stored file.
type FileInfo struct {
	Key         string
	ContentType string
	ACL         ACL
	Size        int64
}

// ACL represents access control levels for stored files.
type ACL string

const (
	// ACLPrivate makes the file accessible only via signed URLs.
	ACLPrivate ACL = "private"

	// ACLPublicRead makes the file publicly readable.
	ACLPublicRead ACL = "public-read"
)

// Config holds S3-compatible storage configuration.
type Config struct {
	Bucket    string `yaml:"bucket"`     // required
	AccessKey string `yaml:"access_key"` // required
	SecretKey string `yaml:"secret_key"` // required
	Endpoint  string `yaml:"endpoint"`   // optional, for MinIO and other S3-compatible services
	Region    string `yaml:"region"`     // default: us-east-1
	Prefix    string `yaml:"prefix"`     // key prefix for every object, e.g. "bulkmail/logs"
	PublicURL string `yaml:"public_url"` // CDN or public URL prefix
	PathStyle bool   `yaml:"path_style"` // required for MinIO

	DefaultACL ACL `yaml:"acl"` // default: private
}

// Default configuration values.
const (
	DefaultRegion = "us-east-1"
)

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.DefaultACL == "" {
		c.DefaultACL = ACLPrivate
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}
