package cryxml

import "errors"

// Sentinel errors, checked with errors.Is.
var (
	ErrBadSignature  = errors.New("cryxml: bad signature")
	ErrTruncated     = errors.New("cryxml: truncated file")
	ErrOutOfBounds   = errors.New("cryxml: out of bounds")
	ErrInvalidString = errors.New("cryxml: invalid string")
)
