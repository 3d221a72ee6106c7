package check

import "errors"

var (
	// ErrUnknownType indicates no checker is registered for a type tag.
	ErrUnknownType = errors.New("check: unknown check type")

	// ErrDuplicateType indicates a type tag is already registered.
	ErrDuplicateType = errors.New("check: type already registered")

	// ErrNilChecker indicates a nil checker was passed to Register.
	ErrNilChecker = errors.New("check: nil checker")
)
