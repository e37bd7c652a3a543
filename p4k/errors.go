package p4k

import "errors"

// Sentinel errors, checked with errors.Is.
var (
	ErrIO               = errors.New("p4k: io error")
	ErrTruncatedArchive = errors.New("p4k: truncated archive")
	ErrBadLocalHeader   = errors.New("p4k: bad local header")
	ErrUnsupportedFlag  = errors.New("p4k: unsupported flag")
	ErrDecryptError     = errors.New("p4k: decrypt error")
	ErrDecompressError  = errors.New("p4k: decompress error")
)
