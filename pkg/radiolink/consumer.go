package radiolink

import (
	"context"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one received packet payload.
type Handler func(topic string, packet []byte) error

// IConsumer is the receive side of the radio link.
type IConsumer interface {
	Consume(ctx context.Context)
	SetHandler(h Handler)
}

// Consumer subscribes to one topic and feeds whole packet payloads to the
// handler. Handler errors are logged and the next packet is processed
// normally; one bad packet never stops the subscription.
type Consumer struct {
	client  mqtt.Client
	topic   string
	handler Handler
}

// NewConsumer binds the shared client to one inbound topic. The handler
// may be nil at construction and injected later via SetHandler.
func NewConsumer(client mqtt.Client, topic string, handler Handler) *Consumer {
	return &Consumer{client: client, topic: topic, handler: handler}
}

func (c *Consumer) SetHandler(h Handler) { c.handler = h }

// Consume subscribes and blocks until ctx is cancelled, then unsubscribes.
func (c *Consumer) Consume(ctx context.Context) {
	token := c.client.Subscribe(c.topic, 0, func(_ mqtt.Client, m mqtt.Message) {
		if c.handler == nil {
			log.Printf("radiolink: no handler set for topic %s", c.topic)
			return
		}
		if err := c.handler(m.Topic(), m.Payload()); err != nil {
			log.Printf("radiolink: handler error on %s: %v", m.Topic(), err)
		}
	})
	if token.Wait() && token.Error() != nil {
		log.Printf("radiolink: subscribe to %s failed: %v", c.topic, token.Error())
		return
	}
	log.Printf("radiolink: subscribed to %s", c.topic)

	<-ctx.Done()

	unsub := c.client.Unsubscribe(c.topic)
	unsub.Wait()
}
