package identity

import (
	"errors"
	"fmt"
)

// ErrRejected means the login itself worked but the user does not hold
// the required guild role. Kept distinct from exchange failures so the
// transport layer can answer 403 instead of 502.
var ErrRejected = errors.New("required guild role missing")

// ExchangeError covers failures of the code-for-token exchange:
// invalid or expired codes, provider outages, malformed responses.
type ExchangeError struct {
	Status int
	Err    error
}

func (e *ExchangeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("token exchange failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// InvalidTokenError means the provider rejected a previously issued
// access token.
type InvalidTokenError struct {
	Status int
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("provider rejected access token (status %d)", e.Status)
}
