package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

type healthHandler struct {
	pipeline  *Pipeline
	mirror    *Mirror
	endpoints int
}

// NewHealthHandler reports liveness: how many endpoints are connected and
// how long the mirror has been writing cleanly.
func NewHealthHandler(p *Pipeline, m *Mirror, endpoints int) http.Handler {
	return &healthHandler{pipeline: p, mirror: m, endpoints: endpoints}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status          string  `json:"status"`
		ActiveConns     int     `json:"active_conns"`
		Endpoints       int     `json:"endpoints"`
		MirrorWritten   int64   `json:"mirror_written"`
		LastWriteErrorS float64 `json:"last_write_error_age_sec"`
	}
	st := status{
		ActiveConns:     h.pipeline.ActiveConns(),
		Endpoints:       h.endpoints,
		MirrorWritten:   h.mirror.Written(),
		LastWriteErrorS: h.mirror.LastErrorAge().Seconds(),
	}

	switch {
	case st.ActiveConns >= st.Endpoints && h.mirror.LastErrorAge() > 30*time.Second:
		st.Status = "ok"
	case st.ActiveConns > 0:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

type readyHandler struct {
	pipeline *Pipeline
	mirror   *Mirror
	minError time.Duration
}

// NewReadyHandler answers 200 only when at least one endpoint is connected
// and the mirror has had no write error within minOkErrorAge.
func NewReadyHandler(p *Pipeline, m *Mirror, minOkErrorAge time.Duration) http.Handler {
	return &readyHandler{pipeline: p, mirror: m, minError: minOkErrorAge}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := h.pipeline.ActiveConns() > 0 && h.mirror.LastErrorAge() > h.minError
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	w.Header().Set("Content-Type", "application/json")
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: ready})
}
