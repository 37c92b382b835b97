// Package leaf implements a sensor node: a timer-driven sample source
// that emits one radio packet per tick. A node is single-threaded and
// event-driven; it never blocks on send beyond the radio publish itself.
package leaf

import (
	"context"
	"log"
	"time"

	"github.com/sensormesh/pipeline/internal/radio"
	"github.com/sensormesh/pipeline/pkg/radiolink"
)

// Node periodically samples its generator and transmits the encoded packet.
type Node struct {
	cluster   uint8
	generator *Generator
	publisher radiolink.IPublisher
	codec     radio.Codec
}

// NewNode assembles a leaf node for one cluster.
func NewNode(publisher radiolink.IPublisher, gen *Generator, codec radio.Codec, cluster uint8) *Node {
	return &Node{
		cluster:   cluster,
		generator: gen,
		publisher: publisher,
		codec:     codec,
	}
}

// Start runs the sampling loop until ctx is cancelled.
func (n *Node) Start(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			n.publisher.Close()
			return
		case <-time.After(interval):
			s := n.generator.Next(n.cluster)
			packet, err := n.codec.Encode(s)
			if err != nil {
				// Only reachable with a misbuilt generator; worth a loud log.
				log.Printf("leaf: encode error: %v", err)
				continue
			}
			log.Printf("leaf: tx cluster=%d kind=%s raw=%d", n.cluster, s.Kind, s.Raw)
			if err := n.publisher.PublishPacket(packet); err != nil {
				log.Printf("leaf: publish error: %v", err)
			}
		}
	}
}
