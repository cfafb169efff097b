package stream

import "errors"

var (
	// ErrMalformedEvent marks a data frame whose payload could not be decoded
	// or whose type is not a known event kind.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrTruncatedFrame marks a stream that ended with a partial frame buffered.
	ErrTruncatedFrame = errors.New("truncated frame")
)
