package gateway

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts pipeline outcomes per endpoint and per channel.
type Metrics struct {
	framesDecoded *prometheus.CounterVec
	frameErrors   *prometheus.CounterVec
	routeErrors   *prometheus.CounterVec
	forwarded     *prometheus.CounterVec
	suppressed    *prometheus.CounterVec
	rejected      *prometheus.CounterVec
}

// NewMetrics registers the pipeline counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		framesDecoded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_frames_decoded_total",
			Help: "Serial frames successfully decoded, per endpoint.",
		}, []string{"endpoint"}),
		frameErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_frame_errors_total",
			Help: "Frame decode and framing errors, per endpoint.",
		}, []string{"endpoint"}),
		routeErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_route_errors_total",
			Help: "Frames dropped for lack of a configured route, per endpoint.",
		}, []string{"endpoint"}),
		forwarded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_publishes_forwarded_total",
			Help: "Samples written upstream, per channel.",
		}, []string{"channel"}),
		suppressed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_publishes_suppressed_total",
			Help: "Samples dropped by the minimum-interval limiter, per channel.",
		}, []string{"channel"}),
		rejected: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_publishes_rejected_total",
			Help: "Upstream writes attempted and rejected, per channel.",
		}, []string{"channel"}),
	}
}

func (m *Metrics) FrameDecoded(endpoint string) {
	m.framesDecoded.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) FrameError(endpoint string) {
	m.frameErrors.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) RouteError(endpoint string) {
	m.routeErrors.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) PublishForwarded(channelID int) {
	m.forwarded.WithLabelValues(strconv.Itoa(channelID)).Inc()
}

func (m *Metrics) PublishSuppressed(channelID int) {
	m.suppressed.WithLabelValues(strconv.Itoa(channelID)).Inc()
}

func (m *Metrics) PublishRejected(channelID int) {
	m.rejected.WithLabelValues(strconv.Itoa(channelID)).Inc()
}
