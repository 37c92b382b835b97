package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointRouterIgnoresFrameContent(t *testing.T) {
	r := NewEndpointRouter(map[string]int{
		"0.0.0.0:7101": 1,
		"0.0.0.0:7102": 2,
	})

	// the embedded tag must not influence endpoint-keyed routing
	for _, tag := range []uint8{0, 1, 2, 9} {
		ch, err := r.Route(RouteContext{Endpoint: "0.0.0.0:7101", Cluster: tag})
		require.NoError(t, err)
		assert.Equal(t, 1, ch)
	}

	ch, err := r.Route(RouteContext{Endpoint: "0.0.0.0:7102"})
	require.NoError(t, err)
	assert.Equal(t, 2, ch)

	_, err = r.Route(RouteContext{Endpoint: "0.0.0.0:9999"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestTagRouterIgnoresEndpoint(t *testing.T) {
	r := NewTagRouter(map[uint8]int{1: 1, 2: 2})

	ch, err := r.Route(RouteContext{Endpoint: "anything", Cluster: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, ch)

	ch, err = r.Route(RouteContext{Endpoint: "elsewhere", Cluster: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, ch)

	_, err = r.Route(RouteContext{Cluster: 3})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestParseRouteMap(t *testing.T) {
	m, err := ParseRouteMap("0.0.0.0:7101=1, 0.0.0.0:7102=2")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"0.0.0.0:7101": 1, "0.0.0.0:7102": 2}, m)

	for _, raw := range []string{"", "noequals", "addr=", "=1", "a=x"} {
		_, err := ParseRouteMap(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestParseTagRoutes(t *testing.T) {
	m, err := ParseTagRoutes("1=1,2=2")
	require.NoError(t, err)
	assert.Equal(t, map[uint8]int{1: 1, 2: 2}, m)

	_, err = ParseTagRoutes("0=1")
	assert.Error(t, err, "tag zero is reserved")

	_, err = ParseTagRoutes("300=1")
	assert.Error(t, err, "tag must fit one byte")

	_, err = ParseTagRoutes("abc=1")
	assert.Error(t, err)
}
