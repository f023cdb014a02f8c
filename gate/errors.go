package gate

import "errors"

// Sentinel errors returned by Gate.Authorize. Callers match them with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoProfile    = errors.New("no profile for subject")
)
