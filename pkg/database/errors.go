package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ForeignKeyError is returned when a write references a row that does
// not exist. The driver reports these as constraint failures; we keep
// the operation name so callers can tell which write broke.
type ForeignKeyError struct {
	Op  string
	Err error
}

func (e *ForeignKeyError) Error() string {
	return fmt.Sprintf("%s: foreign key violation: %v", e.Op, e.Err)
}

func (e *ForeignKeyError) Unwrap() error { return e.Err }

// WrapWriteError converts sqlite foreign-key constraint failures into
// *ForeignKeyError and leaves every other error untouched.
func WrapWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		if se.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return &ForeignKeyError{Op: op, Err: err}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
