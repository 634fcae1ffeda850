package renderer

import (
	"math/rand"
	"sync/atomic"
)

// rayCounters are accumulated thread-locally and folded into the renderer's
// atomic totals once when a worker exits, keeping atomics out of hot loops.
type rayCounters struct {
	primary      uint64
	shadow       uint64
	monte        uint64
	transmissive uint64
	specular     uint64
	indirect     uint64
	caustic      uint64
}

// worker carries the per-goroutine state of a render: its PRNG and counters.
type worker struct {
	id       int
	rng      *rand.Rand
	counters rayCounters
}

// Stats are the aggregated ray counts of a completed render.
type Stats struct {
	PrimaryRays      uint64
	ShadowRays       uint64
	MonteCarloRays   uint64
	TransmissiveRays uint64
	SpecularRays     uint64
	IndirectRays     uint64
	CausticRays      uint64
}

// flushCounters folds a worker's local counts into the shared totals.
func (r *Renderer) flushCounters(w *worker) {
	atomic.AddUint64(&r.stats.PrimaryRays, w.counters.primary)
	atomic.AddUint64(&r.stats.ShadowRays, w.counters.shadow)
	atomic.AddUint64(&r.stats.MonteCarloRays, w.counters.monte)
	atomic.AddUint64(&r.stats.TransmissiveRays, w.counters.transmissive)
	atomic.AddUint64(&r.stats.SpecularRays, w.counters.specular)
	atomic.AddUint64(&r.stats.IndirectRays, w.counters.indirect)
	atomic.AddUint64(&r.stats.CausticRays, w.counters.caustic)
}

// Stats returns the ray counts accumulated so far. Only stable after
// RenderImage returns.
func (r *Renderer) Stats() Stats {
	return r.stats
}
