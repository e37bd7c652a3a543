package datacore

import "errors"

// Sentinel errors, checked with errors.Is. Each is wrapped with
// offending-record/offset context by the caller that first observes it,
// per the propagation policy in the spec's error-handling design.
var (
	ErrIO            = errors.New("datacore: io error")
	ErrTruncated     = errors.New("datacore: truncated file")
	ErrOutOfBounds   = errors.New("datacore: out of bounds")
	ErrInvalidString = errors.New("datacore: invalid string")
	ErrInvalidUTF8   = errors.New("datacore: invalid utf-8")
	ErrBadSignature  = errors.New("datacore: bad signature")
	ErrSchemaError   = errors.New("datacore: schema error")
	ErrSchemaCycle   = errors.New("datacore: schema cycle")
)
