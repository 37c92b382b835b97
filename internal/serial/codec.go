// Package serial implements the aggregator→gateway frame format and the
// stream framer that recovers whole frames from a byte-oriented transport.
//
// A frame always carries both fields for its cluster, so every frame is
// self-contained and the gateway needs no per-cluster history to interpret
// it. The format has no presence bit: a field that has never been sampled
// is carried as raw 0 and is indistinguishable on the wire from a genuine
// zero reading.
package serial

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// FrameLen is the plain-variant frame size in bytes.
	FrameLen = 4
	// MuxFrameLen is the multiplexed-variant frame size in bytes.
	MuxFrameLen = 5
)

var (
	ErrWrongLength    = errors.New("serial: wrong frame length")
	ErrUnknownCluster = errors.New("serial: cluster tag out of range")
)

// Frame is the composite unit emitted by an aggregator: the latest known
// raw value for each field of one cluster.
type Frame struct {
	Cluster uint8 // multiplexed variant only
	TempRaw uint16
	HumRaw  uint16
}

// Codec packs and unpacks serial frames for one deployment variant.
type Codec struct {
	// Multiplexed selects the 5-byte layout carrying a cluster tag.
	Multiplexed bool
	// MaxCluster bounds the valid tag range 1..MaxCluster in multiplexed
	// deployments; tags outside it are rejected at decode time.
	MaxCluster uint8
}

// Len returns the fixed frame length for this variant.
func (c Codec) Len() int {
	if c.Multiplexed {
		return MuxFrameLen
	}
	return FrameLen
}

// Encode packs f into its wire form.
func (c Codec) Encode(f Frame) ([]byte, error) {
	if c.Multiplexed && (f.Cluster == 0 || f.Cluster > c.MaxCluster) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, f.Cluster)
	}
	buf := make([]byte, c.Len())
	i := 0
	if c.Multiplexed {
		buf[0] = f.Cluster
		i = 1
	}
	binary.BigEndian.PutUint16(buf[i:], f.TempRaw)
	binary.BigEndian.PutUint16(buf[i+2:], f.HumRaw)
	return buf, nil
}

// Decode unpacks a whole frame, checking length before field extraction.
func (c Codec) Decode(b []byte) (Frame, error) {
	if len(b) != c.Len() {
		return Frame{}, fmt.Errorf("%w: got %d, want %d", ErrWrongLength, len(b), c.Len())
	}
	var f Frame
	i := 0
	if c.Multiplexed {
		f.Cluster = b[0]
		if f.Cluster == 0 || f.Cluster > c.MaxCluster {
			return Frame{}, fmt.Errorf("%w: %d", ErrUnknownCluster, f.Cluster)
		}
		i = 1
	}
	f.TempRaw = binary.BigEndian.Uint16(b[i:])
	f.HumRaw = binary.BigEndian.Uint16(b[i+2:])
	return f, nil
}
