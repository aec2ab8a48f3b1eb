package dispatchlog

import "errors"

var (
	// ErrPersisted is returned by Record and Persist once the log has been persisted.
	ErrPersisted = errors.New("dispatch log already persisted")

	// ErrInvalidID indicates an artifact ID that was not generated by Store.Begin.
	ErrInvalidID = errors.New("invalid dispatch log id")

	// ErrNotFound indicates no artifact exists for the ID.
	ErrNotFound = errors.New("dispatch log not found")
)
