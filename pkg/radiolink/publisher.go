package radiolink

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher is the send side of the radio link.
type IPublisher interface {
	PublishPacket(packet []byte) error
	Close()
}

// Publisher sends whole packets to a fixed topic over the shared client.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// NewPublisher binds the shared client to one outbound topic.
func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// PublishPacket sends one already-encoded packet. QoS 0: a send is
// fire-and-forget, mirroring a radio burst.
func (p *Publisher) PublishPacket(packet []byte) error {
	token := p.client.Publish(p.topic, 0, false, packet)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("radiolink: publish to %s failed: %w", p.topic, token.Error())
	}
	return nil
}

// Close disconnects the underlying client.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
