package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sensormesh/pipeline/internal/model"
	"github.com/sensormesh/pipeline/internal/services/gateway"
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

type config struct {
	Mode string // "endpoint" (two-sink) or "tag" (single-sink multiplexed)

	Endpoints  map[string]int // endpoint mode: listen addr -> channel
	ListenAddr string         // tag mode: the one shared endpoint
	TagRoutes  map[uint8]int  // tag mode: cluster tag -> channel
	MaxCluster int

	Routes      []model.ChannelRoute
	MinInterval time.Duration

	UpstreamURL     string
	UpstreamTimeout time.Duration
	CBFails         int
	CBOpenMs        int
	CBIntervalMs    int

	InfluxURL     string
	InfluxToken   string
	InfluxOrg     string
	InfluxBucket  string
	BatchSize     int
	FlushInterval time.Duration

	HTTPPort       int
	ReadinessGrace time.Duration
}

// loadConfig reads the static deployment table from the environment.
// Anything malformed here is a startup-fatal error: the route table is
// immutable for the life of the process.
func loadConfig() (config, error) {
	cfg := config{
		Mode:            envStr("GATEWAY_MODE", "endpoint"),
		MaxCluster:      envInt("MAX_CLUSTER", 2),
		MinInterval:     time.Duration(envInt("MIN_PUBLISH_INTERVAL_S", 15)) * time.Second,
		UpstreamURL:     envStr("UPSTREAM_URL", "https://api.thingspeak.com/update"),
		UpstreamTimeout: time.Duration(envInt("UPSTREAM_TIMEOUT_MS", 3000)) * time.Millisecond,
		CBFails:         envInt("CB_FAILS", 3),
		CBOpenMs:        envInt("CB_OPEN_MS", 10000),
		CBIntervalMs:    envInt("CB_INTERVAL_MS", 60000),
		InfluxURL:       os.Getenv("INFLUX_URL"),
		InfluxToken:     os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:       envStr("INFLUX_ORG", "sensormesh"),
		InfluxBucket:    envStr("INFLUX_BUCKET", "environment"),
		BatchSize:       envInt("WRITE_BATCH_SIZE", 10),
		FlushInterval:   time.Duration(envInt("WRITE_FLUSH_INTERVAL_MS", 200)) * time.Millisecond,
		HTTPPort:        envInt("HTTP_PORT", 8080),
		ReadinessGrace:  5 * time.Second,
	}

	var routedChannels []int
	switch cfg.Mode {
	case "endpoint":
		m, err := gateway.ParseRouteMap(envStr("ENDPOINT_ROUTES", "0.0.0.0:7101=1,0.0.0.0:7102=2"))
		if err != nil {
			return config{}, err
		}
		cfg.Endpoints = m
		for _, ch := range m {
			routedChannels = append(routedChannels, ch)
		}
	case "tag":
		cfg.ListenAddr = envStr("LISTEN_ADDR", "0.0.0.0:7101")
		m, err := gateway.ParseTagRoutes(envStr("TAG_ROUTES", "1=1,2=2"))
		if err != nil {
			return config{}, err
		}
		cfg.TagRoutes = m
		for tag, ch := range m {
			if int(tag) > cfg.MaxCluster {
				return config{}, fmt.Errorf("tag %d beyond MAX_CLUSTER %d", tag, cfg.MaxCluster)
			}
			routedChannels = append(routedChannels, ch)
		}
	default:
		return config{}, fmt.Errorf("unknown GATEWAY_MODE %q", cfg.Mode)
	}

	keys, err := parseChannelKeys(envStr("CHANNEL_KEYS", ""))
	if err != nil {
		return config{}, err
	}
	for _, ch := range routedChannels {
		key, ok := keys[ch]
		if !ok {
			return config{}, fmt.Errorf("no write key configured for channel %d", ch)
		}
		cfg.Routes = append(cfg.Routes, model.ChannelRoute{ChannelID: ch, WriteKey: key})
	}
	return cfg, nil
}

// parseChannelKeys parses "channel=writeKey,channel=writeKey".
func parseChannelKeys(raw string) (map[int]string, error) {
	out := make(map[int]string)
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid CHANNEL_KEYS entry: %q", p)
		}
		ch, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		key := strings.TrimSpace(kv[1])
		if err != nil || key == "" {
			return nil, fmt.Errorf("invalid CHANNEL_KEYS entry: %q", p)
		}
		out[ch] = key
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("CHANNEL_KEYS is required")
	}
	return out, nil
}
