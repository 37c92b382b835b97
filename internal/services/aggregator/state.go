package aggregator

import (
	"github.com/sensormesh/pipeline/internal/model"
	"github.com/sensormesh/pipeline/internal/serial"
)

// FillState reports which fields of an aggregate have ever been set.
// Informational only: emission never waits for Complete.
type FillState int

const (
	Empty FillState = iota
	PartialTemp
	PartialHum
	Complete
)

func (f FillState) String() string {
	switch f {
	case Empty:
		return "empty"
	case PartialTemp:
		return "partial-temp"
	case PartialHum:
		return "partial-hum"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// AggregateState holds the latest raw value per field for one cluster.
// It lives for the whole process run and is owned by exactly one
// aggregator; a never-set field reads as raw 0 in emitted frames.
type AggregateState struct {
	lastTemp uint16
	lastHum  uint16
	hasTemp  bool
	hasHum   bool
	lastKind model.SampleKind
}

// Apply folds one accepted sample into the state.
func (st *AggregateState) Apply(s model.Sample) {
	switch s.Kind {
	case model.KindTemperature:
		st.lastTemp = s.Raw
		st.hasTemp = true
	case model.KindHumidity:
		st.lastHum = s.Raw
		st.hasHum = true
	}
	st.lastKind = s.Kind
}

// Fill returns the current fill state.
func (st *AggregateState) Fill() FillState {
	switch {
	case st.hasTemp && st.hasHum:
		return Complete
	case st.hasTemp:
		return PartialTemp
	case st.hasHum:
		return PartialHum
	}
	return Empty
}

// Frame snapshots the state as a self-contained serial frame for cluster.
func (st *AggregateState) Frame(cluster uint8) serial.Frame {
	return serial.Frame{
		Cluster: cluster,
		TempRaw: st.lastTemp,
		HumRaw:  st.lastHum,
	}
}
