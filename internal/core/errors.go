package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the services. Callers match them with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateEmail      = errors.New("email is already in use")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrForbidden           = errors.New("forbidden")

	// ErrInvalid is wrapped by every validation error below.
	ErrInvalid = errors.New("invalid input")
)

var (
	ErrInvalidDay         = fmt.Errorf("%w: invalid day", ErrInvalid)
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrInvalid)
	ErrInvalidMonth       = fmt.Errorf("%w: invalid month, expected YYYY-MM", ErrInvalid)
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrInvalid)
	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrInvalid)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max 255 characters)", ErrInvalid)
	ErrEmptyName          = fmt.Errorf("%w: empty name", ErrInvalid)
	ErrNameTooLong        = fmt.Errorf("%w: name too long (max 100 characters)", ErrInvalid)
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email", ErrInvalid)
	ErrEmailTooLong       = fmt.Errorf("%w: email too long (max 255 characters)", ErrInvalid)
	ErrEmptyPassword      = fmt.Errorf("%w: empty password", ErrInvalid)
	ErrPasswordTooLong    = fmt.Errorf("%w: password too long (max 72 bytes)", ErrInvalid)
	ErrInvalidCurrency    = fmt.Errorf("%w: invalid currency, expected a 3-letter code", ErrInvalid)
	ErrInvalidKind        = fmt.Errorf("%w: invalid category kind, expected EXPENSE or INCOME", ErrInvalid)
	ErrInvalidColor       = fmt.Errorf("%w: invalid color, expected #rrggbb", ErrInvalid)
	ErrMissingCategory    = fmt.Errorf("%w: missing category", ErrInvalid)
	ErrInvalidRange       = fmt.Errorf("%w: range start is after range end", ErrInvalid)
)
