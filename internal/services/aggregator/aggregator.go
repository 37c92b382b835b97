// Package aggregator fuses the radio streams of a cluster's leaf nodes
// into composite serial frames for the gateway. Emission cadence is one
// frame per accepted radio packet — no batching — so end-to-end latency
// stays bounded at one hop and every frame is self-contained.
package aggregator

import (
	"context"
	"log"
	"sync"

	"github.com/sensormesh/pipeline/internal/radio"
	"github.com/sensormesh/pipeline/internal/serial"
	"github.com/sensormesh/pipeline/pkg/radiolink"
)

// Service consumes radio packets and emits serial frames over the uplink.
//
// In the per-cluster variant it serves exactly one cluster (its configured
// tag) and packets carry no cluster byte. In the multiplexed variant one
// service holds independent state per cluster tag and stamps each outbound
// frame with the tag of the packet that triggered it.
type Service struct {
	consumer    radiolink.IConsumer
	uplink      FrameWriter
	radioCodec  radio.Codec
	serialCodec serial.Codec
	cluster     uint8 // assigned cluster in the per-cluster variant

	mu     sync.Mutex
	states map[uint8]*AggregateState
}

// NewService assembles an aggregator. For the per-cluster variant pass the
// assigned cluster tag; in the multiplexed variant the tag comes from each
// packet and the argument is ignored.
func NewService(consumer radiolink.IConsumer, uplink FrameWriter, radioCodec radio.Codec, serialCodec serial.Codec, cluster uint8) *Service {
	return &Service{
		consumer:    consumer,
		uplink:      uplink,
		radioCodec:  radioCodec,
		serialCodec: serialCodec,
		cluster:     cluster,
		states:      make(map[uint8]*AggregateState),
	}
}

// handlePacket is invoked once per received radio packet, in arrival order.
func (s *Service) handlePacket(topic string, packet []byte) error {
	sample, err := s.radioCodec.Decode(packet)
	if err != nil {
		// Corrupt or foreign packet: drop before it can touch state.
		log.Printf("aggregator: dropping packet from %s: %v", topic, err)
		return nil
	}

	cluster := s.cluster
	if s.radioCodec.Multiplexed {
		if sample.Cluster == 0 || sample.Cluster > s.serialCodec.MaxCluster {
			// Reject before the tag can create state for a phantom cluster.
			log.Printf("aggregator: dropping packet from %s: cluster tag %d out of range", topic, sample.Cluster)
			return nil
		}
		cluster = sample.Cluster
	}

	s.mu.Lock()
	st, ok := s.states[cluster]
	if !ok {
		st = &AggregateState{}
		s.states[cluster] = st
	}
	st.Apply(sample)
	frame := st.Frame(cluster)
	fill := st.Fill()
	s.mu.Unlock()

	wire, err := s.serialCodec.Encode(frame)
	if err != nil {
		log.Printf("aggregator: frame encode error for cluster %d: %v", cluster, err)
		return nil
	}
	if err := s.uplink.WriteFrame(wire); err != nil {
		// Frame dropped; the next packet produces a fresh, superseding one.
		log.Printf("aggregator: uplink write failed, frame dropped: %v", err)
		return nil
	}
	log.Printf("aggregator: cluster=%d fill=%s temp=%d hum=%d", cluster, fill, frame.TempRaw, frame.HumRaw)
	return nil
}

// Start wires the handler and blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.consumer.SetHandler(s.handlePacket)
	go s.consumer.Consume(ctx)

	<-ctx.Done()
	if err := s.uplink.Close(); err != nil {
		log.Printf("aggregator: uplink close: %v", err)
	}
}
