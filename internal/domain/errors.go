package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrCredentialMissing   = errors.New("api key not configured")
	ErrSessionNotRunning   = errors.New("no tracking session running")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrUnsuccessfulPayload = errors.New("upstream reported success=false")
)

// NetworkError covers timeouts, non-2xx responses and malformed bodies.
// The polling loop recovers from it with a backoff.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s returned status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RecipeNotFoundError is fatal to starting a session.
type RecipeNotFoundError struct {
	ItemID ItemID
	Err    error
}

func (e *RecipeNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recipe not found for %s: %v", e.ItemID, e.Err)
	}
	return fmt.Sprintf("recipe not found for %s", e.ItemID)
}

func (e *RecipeNotFoundError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrRecipeNotFound) match.
func (e *RecipeNotFoundError) Is(target error) bool {
	return target == ErrRecipeNotFound
}

// LookupError is returned when a username has no identity or no profiles.
type LookupError struct {
	Username string
	Reason   string
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %q: %s", e.Username, e.Reason)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// ParseError is returned for budget text that is not a number.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
