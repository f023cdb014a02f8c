package services

import "errors"

// Sentinel errors; handlers map them to HTTP status codes with errors.Is.
var (
	ErrNotFound        = errors.New("not_found")
	ErrDuplicate       = errors.New("already_exists")
	ErrInvalidRole     = errors.New("invalid_role")
	ErrInvalidSchedule = errors.New("invalid_schedule")
	ErrNotResendable   = errors.New("notification_not_failed")
)
