// Package storage persists delivery-log artifacts.
//
// Two backends implement Storage: LocalStorage writes into a directory on disk
// (the default, matching a single-host deployment) and S3Storage writes to any
// S3-compatible bucket. Both are addressed by key:
//
//	store, err := storage.NewLocal(storage.LocalConfig{Dir: "logs"})
//	info, err := store.Put(ctx, strings.NewReader(text), int64(len(text)),
//		storage.WithKey("log_20261017093015_7KQ2M9XA.txt"),
//		storage.WithContentType("text/plain; charset=utf-8"),
//	)
//	rc, err := store.Get(ctx, info.Key)
//
// The package also owns MIME inference helpers used for outgoing attachments:
// MIMEFromFilename maps an extension to a content type without touching the bytes.
package storage
