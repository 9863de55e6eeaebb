package bao

import "fmt"

var (
	// ErrHashMismatch is returned by a decoder when a parent or leaf hash
	// does not match the value expected from its parent in the tree. The
	// decoder that returns this stops; no further items are produced.
	ErrHashMismatch = fmt.Errorf("bao: hash mismatch")

	// ErrUnexpectedEOF is returned when an underlying reader returns fewer
	// bytes than the tree shape requires.
	ErrUnexpectedEOF = fmt.Errorf("bao: unexpected end of stream")

	// ErrInvalidSize is returned at descriptor or outboard-reader
	// construction time when the caller-supplied parameters are
	// inconsistent with the data they describe, and by EncodeRanges when
	// the outboard's size does not match the data's length.
	ErrInvalidSize = fmt.Errorf("bao: invalid size")

	// ErrTruncatedOutboard is returned when an outboard byte slice is
	// shorter than the length implied by its own trailing size field.
	ErrTruncatedOutboard = fmt.Errorf("bao: truncated outboard")
)
