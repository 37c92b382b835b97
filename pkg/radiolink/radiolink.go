// Package radiolink wraps the MQTT client used as the radio transport
// between leaf nodes and aggregators. Packets travel as whole binary
// message payloads at QoS 0: at-most-once matches the radio contract
// (packets may be lost, never duplicated or reordered).
package radiolink

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Config holds the broker connection settings for one node.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string
}

// Connect establishes the MQTT connection with exponential backoff and
// ties its lifetime to ctx.
func Connect(ctx context.Context, cfg *Config) (mqtt.Client, error) {
	connAddr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(connAddr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	const maxRetries = 5

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("radiolink: broker connect failed: %v", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithMaxRetries(bo, uint64(maxRetries-1)))
	if err != nil {
		return nil, fmt.Errorf("radiolink: could not reach broker after retries: %w", err)
	}

	log.Printf("radiolink: connected to broker at %s", connAddr)

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		log.Println("radiolink: connection closed")
	}()

	return client, nil
}

// Close disconnects the shared client if it is still up.
func Close(client mqtt.Client) {
	if client.IsConnected() {
		client.Disconnect(250)
	}
}
