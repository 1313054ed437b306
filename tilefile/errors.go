// Package tilefile implements a single-file binary tile store for 2-D/3-D
// float64 array data with row-range access, usable as a blockreduce store.
package tilefile

import "errors"

// Common errors
var (
	ErrNotTileFile        = errors.New("not a tile file")
	ErrUnsupportedVersion = errors.New("unsupported tile file version")
	ErrChecksum           = errors.New("header checksum mismatch")
	ErrClosed             = errors.New("file is closed")
	ErrReadOnly           = errors.New("file is opened read-only")
	ErrInvalidShape       = errors.New("invalid shape")
)
