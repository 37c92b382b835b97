package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sensormesh/pipeline/internal/radio"
	"github.com/sensormesh/pipeline/internal/serial"
	"github.com/sensormesh/pipeline/internal/services/aggregator"
	"github.com/sensormesh/pipeline/pkg/radiolink"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func main() {
	multiplexed := envBool("MULTIPLEXED", false)
	cluster := envInt("CLUSTER", 1)
	maxCluster := envInt("MAX_CLUSTER", 2)
	if cluster < 1 || cluster > 255 {
		log.Fatalf("aggregator: CLUSTER out of range: %d", cluster)
	}
	if maxCluster < 1 || maxCluster > 255 {
		log.Fatalf("aggregator: MAX_CLUSTER out of range: %d", maxCluster)
	}

	cfg := &radiolink.Config{
		Host:     envStr("RADIO_HOST", "localhost"),
		Port:     envInt("RADIO_PORT", 1883),
		User:     envStr("RADIO_USER", "guest"),
		Password: envStr("RADIO_PASSWORD", "guest"),
		ClientID: envStr("HOSTNAME", "aggregator-"+strconv.Itoa(cluster)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := radiolink.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("aggregator: broker connection error: %v", err)
	}
	defer radiolink.Close(client)

	// Per-cluster mode listens on its own cluster topic; the shared
	// multiplexed aggregator hears every cluster.
	topic := "radio/" + strconv.Itoa(cluster)
	if multiplexed {
		topic = "radio/+"
	}
	consumer := radiolink.NewConsumer(client, topic, nil)

	uplink, err := aggregator.DialUplink(envStr("GATEWAY_ADDR", "localhost:7101"))
	if err != nil {
		log.Fatalf("aggregator: %v", err)
	}

	svc := aggregator.NewService(
		consumer,
		uplink,
		radio.Codec{Multiplexed: multiplexed},
		serial.Codec{Multiplexed: multiplexed, MaxCluster: uint8(maxCluster)},
		uint8(cluster),
	)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	log.Printf("aggregator: running (multiplexed=%v cluster=%d topic=%s)", multiplexed, cluster, topic)
	svc.Start(ctx)
}
