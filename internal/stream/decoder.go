// Package stream turns a chunked server-sent event body into typed workflow events.
//
// The Decoder reassembles newline-delimited frames from arbitrary chunk
// boundaries and Parse turns a single frame into an Event.
package stream

import (
	"fmt"
	"strings"
)

// Decoder splits a byte stream into newline-terminated frames.
// It holds exactly the unconsumed tail of the stream between calls.
// A Decoder is owned by one session and is not safe for concurrent use.
type Decoder struct {
	buf strings.Builder
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the buffer and returns every frame completed by it,
// in arrival order. The trailing piece after the last newline stays buffered.
func (d *Decoder) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	d.buf.Write(chunk)

	data := d.buf.String()
	if !strings.Contains(string(chunk), "\n") {
		return nil
	}

	pieces := strings.Split(data, "\n")
	tail := pieces[len(pieces)-1]
	frames := pieces[:len(pieces)-1]
	for i, f := range frames {
		frames[i] = strings.TrimSuffix(f, "\r")
	}

	d.buf.Reset()
	d.buf.WriteString(tail)
	return frames
}

// Pending returns the number of buffered bytes that do not yet form a frame.
func (d *Decoder) Pending() int {
	return d.buf.Len()
}

// Finish ends the stream. A non-empty tail is an incomplete frame: it is
// discarded and reported as ErrTruncatedFrame.
func (d *Decoder) Finish() error {
	n := d.buf.Len()
	d.buf.Reset()
	if n > 0 {
		return fmt.Errorf("%w: discarded %d bytes", ErrTruncatedFrame, n)
	}
	return nil
}
