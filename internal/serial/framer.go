package serial

import (
	"errors"
	"fmt"
)

// ErrTruncatedTail reports a stream that ended with fewer buffered bytes
// than one frame. The tail is discarded.
var ErrTruncatedTail = errors.New("serial: stream ended mid-frame")

// Result is one framing outcome: either a decoded frame or the decode
// error for that frame-length run of bytes.
type Result struct {
	Frame Frame
	Err   error
}

// Framer reassembles fixed-length frames from an arbitrarily-chunked byte
// stream. One Framer serves one transport endpoint; it is not safe for
// concurrent use, matching the one-goroutine-per-endpoint processing model.
//
// The frame length is fixed and known, so no delimiter or length prefix is
// needed — but there is also no resynchronization signal. The framer trusts
// the transport (TCP) for ordering and completeness; lost or injected bytes
// upstream would misalign every following frame.
type Framer struct {
	codec Codec
	buf   []byte
}

// NewFramer returns a framer for one endpoint using the given codec.
func NewFramer(codec Codec) *Framer {
	return &Framer{codec: codec}
}

// Push appends chunk to the internal buffer and returns one Result per
// complete frame now available, in arrival order. Leftover bytes shorter
// than a frame are retained for the next Push. The chunk boundaries chosen
// by the transport never affect the emitted sequence.
func (f *Framer) Push(chunk []byte) []Result {
	f.buf = append(f.buf, chunk...)
	n := f.codec.Len()

	var out []Result
	for len(f.buf) >= n {
		frame, err := f.codec.Decode(f.buf[:n])
		out = append(out, Result{Frame: frame, Err: err})
		f.buf = f.buf[n:]
	}
	// Re-anchor the retained tail so the consumed prefix can be collected.
	if len(f.buf) > 0 && len(out) > 0 {
		f.buf = append([]byte(nil), f.buf...)
	}
	return out
}

// Pending returns the number of buffered bytes awaiting a full frame.
func (f *Framer) Pending() int { return len(f.buf) }

// Close reports the end of the stream. A non-empty partial buffer is a
// framing error; the tail is discarded either way, so a framer may be
// reused for a fresh connection on the same endpoint.
func (f *Framer) Close() error {
	pending := len(f.buf)
	f.buf = nil
	if pending > 0 {
		return fmt.Errorf("%w: %d byte(s) discarded", ErrTruncatedTail, pending)
	}
	return nil
}
