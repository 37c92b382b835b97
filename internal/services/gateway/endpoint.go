package gateway

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/sensormesh/pipeline/internal/model"
	"github.com/sensormesh/pipeline/internal/serial"
)

// Pipeline is the gateway-side processing chain: framer → router →
// publisher. Endpoints run in parallel, one goroutine each; within an
// endpoint, connections and their frames are handled strictly in arrival
// order, because a later frame's values supersede an earlier one's.
type Pipeline struct {
	codec     serial.Codec
	router    Router
	publisher *Publisher
	metrics   *Metrics

	active atomic.Int32
}

// NewPipeline assembles the processing chain shared by all endpoints.
func NewPipeline(codec serial.Codec, router Router, publisher *Publisher, metrics *Metrics) *Pipeline {
	return &Pipeline{
		codec:     codec,
		router:    router,
		publisher: publisher,
		metrics:   metrics,
	}
}

// ActiveConns reports how many endpoint connections are currently served.
func (p *Pipeline) ActiveConns() int {
	return int(p.active.Load())
}

// Serve listens on addr and processes its connections until ctx is
// cancelled. Failure to bind is a transport setup error the caller treats
// as fatal. Connections are accepted one at a time: an endpoint is a
// single ordered stream, not a concurrent server.
func (p *Pipeline) Serve(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	log.Printf("gateway: endpoint listening on %s", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("gateway: accept on %s: %v", addr, err)
			continue
		}
		p.active.Add(1)
		p.handleConn(ctx, conn, addr)
		p.active.Add(-1)
	}
}

// handleConn drains one connection through a fresh framer.
func (p *Pipeline) handleConn(ctx context.Context, conn net.Conn, endpoint string) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		// Unblocks the pending Read when the gateway shuts down.
		<-connCtx.Done()
		_ = conn.Close()
	}()
	log.Printf("gateway: %s connected on %s", conn.RemoteAddr(), endpoint)

	framer := serial.NewFramer(p.codec)
	buf := make([]byte, 512)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			for _, res := range framer.Push(buf[:n]) {
				p.process(ctx, endpoint, res)
			}
		}
		if err != nil {
			if cerr := framer.Close(); cerr != nil {
				p.metrics.FrameError(endpoint)
				log.Printf("gateway: %s: %v", endpoint, cerr)
			}
			if err != io.EOF && ctx.Err() == nil {
				log.Printf("gateway: read on %s: %v", endpoint, err)
			}
			return
		}
	}
}

// process takes one framing result through routing and publication. Every
// failure is local to this frame; the endpoint keeps running.
func (p *Pipeline) process(ctx context.Context, endpoint string, res serial.Result) {
	if res.Err != nil {
		p.metrics.FrameError(endpoint)
		log.Printf("gateway: dropping frame from %s: %v", endpoint, res.Err)
		return
	}
	p.metrics.FrameDecoded(endpoint)

	channelID, err := p.router.Route(RouteContext{Endpoint: endpoint, Cluster: res.Frame.Cluster})
	if err != nil {
		p.metrics.RouteError(endpoint)
		// Surfaced loudly: an unknown source means config and deployed
		// topology have drifted.
		log.Printf("gateway: ROUTE ERROR on %s: %v", endpoint, err)
		return
	}

	sample := model.DecodedSample{
		ChannelID:   channelID,
		Temperature: model.Normalize(res.Frame.TempRaw),
		Humidity:    model.Normalize(res.Frame.HumRaw),
		ReceivedAt:  time.Now().UTC(),
	}

	if _, err := p.publisher.Publish(ctx, sample); err != nil {
		// Rejection is transient; the next periodic sample retries naturally.
		log.Printf("gateway: %v", err)
	}
}
