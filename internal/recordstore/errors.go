package recordstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoDocument is returned by a Backend when nothing has been persisted yet.
	ErrNoDocument = errors.New("recordstore: no document")
	// ErrMissingKey is returned when a record has no precinct_id.
	ErrMissingKey = errors.New("recordstore: record has no " + KeyField)
	// ErrKeyChange is returned when an update tries to rewrite precinct_id.
	ErrKeyChange = errors.New("recordstore: " + KeyField + " cannot be changed")
	// ErrInvalidRecord is returned for values that are not JSON objects.
	ErrInvalidRecord = errors.New("recordstore: record is not a JSON object")
	// ErrUnsupportedVersion is returned when a document carries an unknown version tag.
	ErrUnsupportedVersion = errors.New("recordstore: unsupported document version")
	// ErrCanceled wraps context cancellation and deadline expiry. It is retryable.
	ErrCanceled = errors.New("recordstore: operation canceled")
)

// InitError reports that the backing document exists but could not be read
// or decoded. It is fatal: the store never starts empty in that case.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("recordstore: initialize: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// PersistError reports that rewriting the backing document failed. The
// in-memory sequence is left as it was before the mutation.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("recordstore: persist after %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return nil
}
