package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sensormesh/pipeline/internal/serial"
	"github.com/sensormesh/pipeline/internal/services/gateway"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("gateway: config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Mirror (optional) ===
	var mirror *gateway.Mirror
	if cfg.InfluxURL != "" {
		opts := influxdb2.DefaultOptions().
			SetBatchSize(uint(cfg.BatchSize)).
			SetFlushInterval(uint(cfg.FlushInterval.Milliseconds()))
		influx := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken, opts)
		defer influx.Close()
		mirror = gateway.NewMirror(influx.WriteAPI(cfg.InfluxOrg, cfg.InfluxBucket))
	}

	// === Pipeline ===
	reg := prometheus.NewRegistry()
	metrics := gateway.NewMetrics(reg)

	upstream := gateway.NewHTTPChannelWriter(cfg.UpstreamURL, cfg.UpstreamTimeout)
	publisher := gateway.NewPublisher(cfg.Routes, upstream, cfg.MinInterval, gateway.BreakerSettings{
		Failures: uint32(cfg.CBFails),
		OpenFor:  time.Duration(cfg.CBOpenMs) * time.Millisecond,
		Interval: time.Duration(cfg.CBIntervalMs) * time.Millisecond,
	}, metrics, mirror)

	var (
		router    gateway.Router
		endpoints []string
	)
	multiplexed := cfg.Mode == "tag"
	if multiplexed {
		router = gateway.NewTagRouter(cfg.TagRoutes)
		endpoints = []string{cfg.ListenAddr}
	} else {
		router = gateway.NewEndpointRouter(cfg.Endpoints)
		for addr := range cfg.Endpoints {
			endpoints = append(endpoints, addr)
		}
	}

	codec := serial.Codec{Multiplexed: multiplexed, MaxCluster: uint8(cfg.MaxCluster)}
	pipeline := gateway.NewPipeline(codec, router, publisher, metrics)

	serveErr := make(chan error, len(endpoints))
	for _, addr := range endpoints {
		go func(addr string) {
			serveErr <- pipeline.Serve(ctx, addr)
		}(addr)
	}

	// === HTTP ===
	mux := http.NewServeMux()
	mux.Handle("/healthz", gateway.NewHealthHandler(pipeline, mirror, len(endpoints)))
	mux.Handle("/readyz", gateway.NewReadyHandler(pipeline, mirror, 2*time.Second))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("gateway: HTTP listening on :%d", cfg.HTTPPort)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("gateway: http server error: %v", err)
		}
	}()

	log.Printf("gateway: mode=%s endpoints=%v channels=%d", cfg.Mode, endpoints, len(cfg.Routes))

	// === Wait for signal or a failed endpoint bind ===
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Printf("gateway: shutting down...")
	case err := <-serveErr:
		if err != nil {
			log.Fatalf("gateway: endpoint setup failed: %v", err)
		}
	}
	cancel()

	shCtx, shCancel := context.WithTimeout(context.Background(), cfg.ReadinessGrace)
	defer shCancel()
	_ = hs.Shutdown(shCtx)

	// give the mirror a chance to flush
	time.Sleep(cfg.FlushInterval + 100*time.Millisecond)
}
