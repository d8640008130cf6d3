package fortlev

import (
	"errors"
	"fmt"
)

// ErrConfiguration is returned when a required partner credential is absent.
// It is never retried.
var ErrConfiguration = errors.New("fortlev: missing configuration")

// AuthenticationError is returned when the partner login endpoint rejects the
// credentials or answers with a non-success status. Every caller waiting on
// the same login exchange receives the same error value.
type AuthenticationError struct {
	StatusCode int
	Body       string
}

func (e *AuthenticationError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("fortlev: login failed (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("fortlev: login failed (HTTP %d): %s", e.StatusCode, e.Body)
}
