package leaf

import (
	"math/rand"
	"sync"

	"github.com/sensormesh/pipeline/internal/model"
)

// Per-kind baselines in the raw 10-bit domain. Temperature sits low on the
// scale (≈23 normalized), humidity mid-scale (≈55).
const (
	tempBaseline = 240
	humBaseline  = 560
	walkStep     = 8
)

// Generator produces a bounded random walk over the raw sensor domain,
// one reading per tick. It stands in for the physical transducer.
type Generator struct {
	mu   sync.Mutex
	kind model.SampleKind
	raw  float64
	rng  *rand.Rand
}

// NewGenerator seeds a walk for one sample kind at its baseline.
func NewGenerator(kind model.SampleKind, seed int64) *Generator {
	base := float64(tempBaseline)
	if kind == model.KindHumidity {
		base = humBaseline
	}
	return &Generator{
		kind: kind,
		raw:  base,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Next advances the walk and returns the reading as a Sample.
func (g *Generator) Next(cluster uint8) model.Sample {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.raw += (g.rng.Float64()*2 - 1) * walkStep
	if g.raw < 0 {
		g.raw = 0
	}
	if g.raw > model.RawMax {
		g.raw = model.RawMax
	}

	return model.Sample{
		Kind:    g.kind,
		Raw:     uint16(g.raw),
		Cluster: cluster,
	}
}
