package catalog

import (
	"errors"
	"fmt"
)

// ErrSyncInProgress guards against two synchronization runs racing
// each other and double-writing.
var ErrSyncInProgress = errors.New("catalog sync already running")

// ParseError means the catalog answered with something that is not
// the expected listing shape.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unexpected catalog response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
