package errs

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("illegal state transition")
	ErrConcurrency    = errors.New("concurrent modification")
	ErrTransient      = errors.New("transient infrastructure error")
)
