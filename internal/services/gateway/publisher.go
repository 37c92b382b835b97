package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sensormesh/pipeline/internal/model"
)

// PublishError reports an upstream write that was attempted and rejected
// (or timed out). A rejected write does not consume the rate-limit
// interval: the next sample on the channel is immediately eligible.
type PublishError struct {
	ChannelID int
	Cause     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("gateway: channel %d upstream rejected: %v", e.ChannelID, e.Cause)
}

func (e *PublishError) Unwrap() error { return e.Cause }

// ChannelWriter is the upstream cloud sink: one logical write of both
// fields per accepted sample.
type ChannelWriter interface {
	Write(ctx context.Context, writeKey string, temperature, humidity float64) error
}

// BreakerSettings tune the per-channel circuit breaker in front of the
// upstream writer.
type BreakerSettings struct {
	Failures uint32
	OpenFor  time.Duration
	Interval time.Duration
}

// channelState is the only pipeline state shared across endpoint
// processing contexts: writes are serialized by its mutex so that
// clusters routed to the same channel observe a single rate limiter.
type channelState struct {
	mu      sync.Mutex
	lastPub time.Time
	breaker *gobreaker.CircuitBreaker
}

// Publisher forwards decoded samples to their channels, enforcing the
// upstream's minimum update interval per channel. Suppression is routine
// backpressure, not an error; suppressed samples are dropped, never queued.
type Publisher struct {
	routes      map[int]model.ChannelRoute
	upstream    ChannelWriter
	minInterval time.Duration
	metrics     *Metrics
	mirror      *Mirror
	breakerCfg  BreakerSettings

	now func() time.Time

	mu       sync.Mutex
	channels map[int]*channelState
}

// NewPublisher builds a publisher over a startup route table. metrics is
// required; mirror may be nil when no local time-series copy is configured.
func NewPublisher(routes []model.ChannelRoute, upstream ChannelWriter, minInterval time.Duration, bs BreakerSettings, metrics *Metrics, mirror *Mirror) *Publisher {
	byID := make(map[int]model.ChannelRoute, len(routes))
	for _, r := range routes {
		byID[r.ChannelID] = r
	}
	return &Publisher{
		routes:      byID,
		upstream:    upstream,
		minInterval: minInterval,
		metrics:     metrics,
		mirror:      mirror,
		breakerCfg:  bs,
		now:         time.Now,
		channels:    make(map[int]*channelState),
	}
}

func (p *Publisher) state(channelID int) *channelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.channels[channelID]
	if !ok {
		st = &channelState{breaker: newBreaker(channelID, p.breakerCfg)}
		p.channels[channelID] = st
	}
	return st
}

func newBreaker(channelID int, bs BreakerSettings) *gobreaker.CircuitBreaker {
	fails := bs.Failures
	if fails < 1 {
		fails = 3
	}
	openFor := bs.OpenFor
	if openFor <= 0 {
		openFor = 10 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     fmt.Sprintf("channel-%d", channelID),
		Interval: bs.Interval,
		Timeout:  openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
	})
}

// Publish forwards s to its channel. It returns (true, nil) when the write
// went upstream, (false, nil) when the rate limiter suppressed it, and
// (false, *PublishError) when the upstream rejected it. lastPublishedAt
// only advances on success.
func (p *Publisher) Publish(ctx context.Context, s model.DecodedSample) (bool, error) {
	route, ok := p.routes[s.ChannelID]
	if !ok {
		return false, &PublishError{ChannelID: s.ChannelID, Cause: fmt.Errorf("channel not in route table")}
	}

	st := p.state(s.ChannelID)
	st.mu.Lock()
	defer st.mu.Unlock()

	now := p.now()
	if !st.lastPub.IsZero() && now.Sub(st.lastPub) < p.minInterval {
		p.metrics.PublishSuppressed(s.ChannelID)
		return false, nil
	}

	_, err := st.breaker.Execute(func() (any, error) {
		return nil, p.upstream.Write(ctx, route.WriteKey, s.Temperature, s.Humidity)
	})
	if err != nil {
		p.metrics.PublishRejected(s.ChannelID)
		return false, &PublishError{ChannelID: s.ChannelID, Cause: err}
	}

	st.lastPub = now
	p.metrics.PublishForwarded(s.ChannelID)
	if p.mirror != nil {
		p.mirror.Record(s)
	}
	log.Printf("gateway: published channel=%d temp=%.2f hum=%.2f", s.ChannelID, s.Temperature, s.Humidity)
	return true, nil
}
