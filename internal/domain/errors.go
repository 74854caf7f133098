package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to the transport layer. Use cases wrap them with
// fmt.Errorf("%w: ...") so errors.Is keeps working.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrValidation       = errors.New("validation error")
)

var (
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrUserAlreadyExists  = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrAlreadyEnrolled    = fmt.Errorf("%w: already enrolled in this course", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
)
