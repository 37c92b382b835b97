package gateway

import (
	"log"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/sensormesh/pipeline/internal/model"
)

// Mirror keeps an asynchronous local time-series copy of every forwarded
// sample and tracks the last write error for /healthz and /readyz.
type Mirror struct {
	api     api.WriteAPI
	mu      sync.RWMutex
	lastErr time.Time
	written int64
}

// NewMirror wraps the async write API and starts its error listener.
func NewMirror(w api.WriteAPI) *Mirror {
	m := &Mirror{
		api:     w,
		lastErr: time.Now().Add(-24 * time.Hour), // "long ago" by default
	}
	go func() {
		for err := range w.Errors() {
			if err != nil {
				m.mu.Lock()
				m.lastErr = time.Now()
				m.mu.Unlock()
				log.Printf("gateway: mirror write error: %v", err)
			}
		}
	}()
	return m
}

// Record queues one forwarded sample for the mirror bucket.
func (m *Mirror) Record(s model.DecodedSample) {
	if m == nil {
		return
	}
	m.api.WritePoint(SampleToPoint(s))
	m.mu.Lock()
	m.written++
	m.mu.Unlock()
}

// LastErrorAge returns how long the mirror has been writing cleanly.
func (m *Mirror) LastErrorAge() time.Duration {
	if m == nil {
		return 99999 * time.Hour
	}
	m.mu.RLock()
	t := m.lastErr
	m.mu.RUnlock()
	return time.Since(t)
}

// Written returns the number of samples queued so far.
func (m *Mirror) Written() int64 {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.written
}

// SampleToPoint normalizes a forwarded sample into an InfluxDB point under
// the single "environment" measurement.
func SampleToPoint(s model.DecodedSample) *write.Point {
	tags := map[string]string{
		"channel": strconv.Itoa(s.ChannelID),
	}
	fields := map[string]interface{}{
		"temperature": s.Temperature,
		"humidity":    s.Humidity,
	}
	return influxdb2.NewPoint("environment", tags, fields, s.ReceivedAt)
}
