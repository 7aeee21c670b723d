package ledger

import "fmt"

// NotFoundError names which entity failed to resolve so the transport
// layer can tell the user what exactly was wrong with the submission.
type NotFoundError struct {
	Entity string
	Query  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Query)
}
