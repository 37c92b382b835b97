package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sensormesh/pipeline/internal/model"
	"github.com/sensormesh/pipeline/internal/radio"
	"github.com/sensormesh/pipeline/internal/services/leaf"
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
	cluster := envInt("CLUSTER", 1)
	if cluster < 1 || cluster > 255 {
		log.Fatalf("leaf: CLUSTER out of range: %d", cluster)
	}

	var kind model.SampleKind
	switch k := envStr("SAMPLE_KIND", "temperature"); k {
	case "temperature":
		kind = model.KindTemperature
	case "humidity":
		kind = model.KindHumidity
	default:
		log.Fatalf("leaf: unknown SAMPLE_KIND %q", k)
	}

	cfg := &radiolink.Config{
		Host:     envStr("RADIO_HOST", "localhost"),
		Port:     envInt("RADIO_PORT", 1883),
		User:     envStr("RADIO_USER", "guest"),
		Password: envStr("RADIO_PASSWORD", "guest"),
		ClientID: envStr("HOSTNAME", "leaf-"+kind.String()),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := radiolink.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("leaf: broker connection error: %v", err)
	}
	defer radiolink.Close(client)

	topic := "radio/" + strconv.Itoa(cluster)
	publisher := radiolink.NewPublisher(client, topic)
	gen := leaf.NewGenerator(kind, time.Now().UnixNano())
	codec := radio.Codec{Multiplexed: envBool("MULTIPLEXED", false)}

	node := leaf.NewNode(publisher, gen, codec, uint8(cluster))

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	interval := time.Duration(envInt("SAMPLE_INTERVAL_S", 15)) * time.Second
	log.Printf("leaf: sampling %s every %s on cluster %d", kind, interval, cluster)
	node.Start(ctx, interval)
}
