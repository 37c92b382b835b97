// Package gateway receives serial frames over per-endpoint stream
// transports, recovers frame boundaries, routes each frame to its upstream
// channel and publishes the normalized sample pair.
package gateway

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownSource reports a routing key with no configured channel. It
// usually means deployed topology and configuration have drifted, so
// callers log it as an operational alert rather than routine noise.
var ErrUnknownSource = errors.New("gateway: no channel configured for source")

// RouteContext carries everything a frame's arrival says about its origin:
// the endpoint it came in on and, in multiplexed deployments, the embedded
// cluster tag.
type RouteContext struct {
	Endpoint string
	Cluster  uint8
}

// Router resolves a destination channel from a frame's routing context.
// Implementations are pure lookups over the startup route table and are
// safe for concurrent use.
type Router interface {
	Route(rc RouteContext) (int, error)
}

// EndpointRouter serves the two-sink deployment: each transport endpoint
// is permanently bound to one channel and frame content is irrelevant.
type EndpointRouter struct {
	byEndpoint map[string]int
}

var _ Router = (*EndpointRouter)(nil)

func NewEndpointRouter(byEndpoint map[string]int) *EndpointRouter {
	return &EndpointRouter{byEndpoint: byEndpoint}
}

func (r *EndpointRouter) Route(rc RouteContext) (int, error) {
	ch, ok := r.byEndpoint[rc.Endpoint]
	if !ok {
		return 0, fmt.Errorf("%w: endpoint %q", ErrUnknownSource, rc.Endpoint)
	}
	return ch, nil
}

// TagRouter serves the single-sink multiplexed deployment: all clusters
// share one stream and the embedded tag alone selects the channel.
type TagRouter struct {
	byTag map[uint8]int
}

var _ Router = (*TagRouter)(nil)

func NewTagRouter(byTag map[uint8]int) *TagRouter {
	return &TagRouter{byTag: byTag}
}

func (r *TagRouter) Route(rc RouteContext) (int, error) {
	ch, ok := r.byTag[rc.Cluster]
	if !ok {
		return 0, fmt.Errorf("%w: cluster tag %d", ErrUnknownSource, rc.Cluster)
	}
	return ch, nil
}

// ParseRouteMap parses the "key=channel,key=channel" list syntax used for
// route tables in configuration, e.g. "0.0.0.0:7101=1,0.0.0.0:7102=2".
func ParseRouteMap(raw string) (map[string]int, error) {
	out := make(map[string]int)
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("gateway: invalid route entry: %q", p)
		}
		key := strings.TrimSpace(kv[0])
		ch, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil || key == "" {
			return nil, fmt.Errorf("gateway: invalid route entry: %q", p)
		}
		out[key] = ch
	}
	if len(out) == 0 {
		return nil, errors.New("gateway: empty route table")
	}
	return out, nil
}

// ParseTagRoutes is ParseRouteMap for tag-keyed tables ("1=1,2=2").
func ParseTagRoutes(raw string) (map[uint8]int, error) {
	m, err := ParseRouteMap(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[uint8]int, len(m))
	for k, ch := range m {
		tag, err := strconv.Atoi(k)
		if err != nil || tag < 1 || tag > 255 {
			return nil, fmt.Errorf("gateway: invalid cluster tag: %q", k)
		}
		out[uint8(tag)] = ch
	}
	return out, nil
}
