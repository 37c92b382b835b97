// Package radio implements the fixed-layout leaf→aggregator packet format.
//
// Plain deployments use a 3-byte packet: kind discriminant followed by the
// raw value, big-endian. Multiplexed deployments prepend a one-byte cluster
// tag. The radio transport delivers whole packets, so decoding is
// all-or-nothing on an already-delimited byte slice.
package radio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sensormesh/pipeline/internal/model"
)

const (
	// PacketLen is the plain-variant packet size in bytes.
	PacketLen = 3
	// MuxPacketLen is the multiplexed-variant packet size in bytes.
	MuxPacketLen = 4
)

var (
	ErrUnsupportedKind = errors.New("radio: unsupported sample kind")
	ErrWrongLength     = errors.New("radio: wrong packet length")
	ErrUnknownKind     = errors.New("radio: unknown kind discriminant")
)

// Codec packs and unpacks radio packets for one deployment variant.
type Codec struct {
	// Multiplexed selects the 4-byte layout carrying a cluster tag.
	Multiplexed bool
}

// Len returns the fixed packet length for this variant.
func (c Codec) Len() int {
	if c.Multiplexed {
		return MuxPacketLen
	}
	return PacketLen
}

// Encode packs s into its wire form.
func (c Codec) Encode(s model.Sample) ([]byte, error) {
	if !s.Kind.Valid() {
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnsupportedKind, uint8(s.Kind))
	}
	buf := make([]byte, c.Len())
	i := 0
	if c.Multiplexed {
		buf[0] = s.Cluster
		i = 1
	}
	buf[i] = byte(s.Kind)
	binary.BigEndian.PutUint16(buf[i+1:], s.Raw)
	return buf, nil
}

// Decode unpacks a whole packet. Length is checked before any field is
// touched; a short or long slice never yields a partial sample.
func (c Codec) Decode(b []byte) (model.Sample, error) {
	if len(b) != c.Len() {
		return model.Sample{}, fmt.Errorf("%w: got %d, want %d", ErrWrongLength, len(b), c.Len())
	}
	var s model.Sample
	i := 0
	if c.Multiplexed {
		s.Cluster = b[0]
		i = 1
	}
	s.Kind = model.SampleKind(b[i])
	if !s.Kind.Valid() {
		return model.Sample{}, fmt.Errorf("%w: 0x%02x", ErrUnknownKind, b[i])
	}
	s.Raw = binary.BigEndian.Uint16(b[i+1:])
	return s, nil
}
