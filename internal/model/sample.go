package model

import "time"

// SampleKind discriminates the scalar quantity carried by a radio packet.
type SampleKind uint8

const (
	KindTemperature SampleKind = 0x01
	KindHumidity    SampleKind = 0x02
)

// Valid reports whether k is one of the deployed sample kinds.
func (k SampleKind) Valid() bool {
	return k == KindTemperature || k == KindHumidity
}

func (k SampleKind) String() string {
	switch k {
	case KindTemperature:
		return "temperature"
	case KindHumidity:
		return "humidity"
	default:
		return "unknown"
	}
}

// RawMax is the top of the 10-bit ADC domain the leaf sensors report in.
const RawMax = 1023

// Normalize scales a raw ADC reading onto the 0..100 range the upstream
// channels expect. The scale factor is fixed at deployment time.
func Normalize(raw uint16) float64 {
	return float64(raw) * 100.0 / RawMax
}

// Sample is one reading produced by a leaf node. Immutable once created.
type Sample struct {
	Kind    SampleKind
	Raw     uint16 // 0..RawMax
	Cluster uint8  // set only in multiplexed deployments
}

// DecodedSample is what the gateway hands to the publisher: one serial
// frame resolved to its destination channel, with both fields normalized.
type DecodedSample struct {
	ChannelID   int
	Temperature float64
	Humidity    float64
	ReceivedAt  time.Time
}

// ChannelRoute binds a destination channel to its upstream write credential.
// The route table is built once at startup and read-only afterwards.
type ChannelRoute struct {
	ChannelID int
	WriteKey  string
}
