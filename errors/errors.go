// Package errors defines the exported error sentinels of the jsonhash library.
//
// Generation-time failures wrap these values so errors.Is works across
// package boundaries.
package errors

import "errors"

// Descriptor errors
var (
	ErrInvalidDescriptor = errors.New("jsonhash: invalid descriptor")
	ErrNoConstructor     = errors.New("jsonhash: descriptor has no usable constructor")
	ErrDuplicateAlias    = errors.New("jsonhash: alias bound to more than one binding")
	ErrEmptyAlias        = errors.New("jsonhash: empty alias")
	ErrArity             = errors.New("jsonhash: parameter count mismatch")
	ErrUnsupportedType   = errors.New("jsonhash: unsupported value type")
)

// Decode errors
var (
	ErrUnknownField   = errors.New("jsonhash: unknown field")
	ErrNilDestination = errors.New("jsonhash: nil destination")
	ErrNotPointer     = errors.New("jsonhash: destination must be a non-nil pointer")
	ErrTypeMismatch   = errors.New("jsonhash: decoded value does not match destination")
)
