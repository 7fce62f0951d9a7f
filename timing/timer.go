// Package timing provides the high-resolution timer behind the fixed-step scheduler
// and a small profiler for instrumentation
package timing

import (
	"math"
	"math/bits"
	"time"

	"github.com/lixenwraith/detphys/backend"
)

// Timer measures elapsed time since Start against a counter Source
// Readings never decrease; a counter that regresses reports zero elapsed
type Timer struct {
	src   Source
	start uint64
}

// New creates a timer on the default backend's counter, started
func New() *Timer {
	return NewWithSource(CounterSource(backend.Default()))
}

// NewWithSource creates a started timer on an explicit source
func NewWithSource(src Source) *Timer {
	t := &Timer{src: src}
	t.Start()
	return t
}

// Start captures the baseline reading
func (t *Timer) Start() {
	t.start = t.src.Now()
}

func (t *Timer) Source() Source { return t.src }

// ElapsedCycles returns raw counter ticks since Start
func (t *Timer) ElapsedCycles() uint64 {
	now := t.src.Now()
	if now < t.start {
		return 0
	}
	return now - t.start
}

func (t *Timer) ElapsedNs() uint64 {
	return CyclesToNs(t.ElapsedCycles(), t.src.CyclesPerMicro())
}

func (t *Timer) ElapsedUs() uint64 {
	return t.ElapsedNs() / 1000
}

func (t *Timer) ElapsedMs() float64 {
	return float64(t.ElapsedNs()) / 1e6
}

func (t *Timer) Elapsed() time.Duration {
	ns := t.ElapsedNs()
	if ns > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// CyclesToNs converts cycles*1000/perMicro with a 128-bit intermediate, saturating
func CyclesToNs(cycles, perMicro uint64) uint64 {
	if perMicro == 0 {
		perMicro = FallbackCyclesPerMicro
	}
	hi, lo := bits.Mul64(cycles, 1000)
	if hi >= perMicro {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, perMicro)
	return q
}
