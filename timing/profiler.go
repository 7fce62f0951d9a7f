package timing

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
)

// Sample aggregates recordings for one named section
type Sample struct {
	TotalNs uint64
	Count   uint64
	MinNs   uint64
	MaxNs   uint64
}

func (s Sample) AvgMs() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.TotalNs) / float64(s.Count) / 1e6
}

// Profiler collects named timing samples
type Profiler struct {
	mu      sync.Mutex
	src     Source
	samples map[string]*Sample
}

func NewProfiler(src Source) *Profiler {
	return &Profiler{
		src:     src,
		samples: make(map[string]*Sample),
	}
}

// Record adds one measurement in nanoseconds
func (p *Profiler) Record(name string, ns uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.samples[name]
	if !ok {
		s = &Sample{MinNs: math.MaxUint64}
		p.samples[name] = s
	}
	s.TotalNs += ns
	s.Count++
	s.MinNs = min(s.MinNs, ns)
	s.MaxNs = max(s.MaxNs, ns)
}

// Scope starts timing a section and returns the function that records it
//
//	defer p.Scope("step")()
func (p *Profiler) Scope(name string) func() {
	start := p.src.Now()
	return func() {
		now := p.src.Now()
		var cycles uint64
		if now > start {
			cycles = now - start
		}
		p.Record(name, CyclesToNs(cycles, p.src.CyclesPerMicro()))
	}
}

func (p *Profiler) Get(name string) (Sample, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.samples[name]
	if !ok {
		return Sample{}, false
	}
	return *s, true
}

func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.samples)
}

// Range visits samples in sorted name order
func (p *Profiler) Range(fn func(name string, s Sample)) {
	p.mu.Lock()
	names := make([]string, 0, len(p.samples))
	for k := range p.samples {
		names = append(names, k)
	}
	sort.Strings(names)
	snapshot := make([]Sample, len(names))
	for i, k := range names {
		snapshot[i] = *p.samples[k]
	}
	p.mu.Unlock()

	for i, k := range names {
		fn(k, snapshot[i])
	}
}

// Summary writes one line per section
func (p *Profiler) Summary(w io.Writer) error {
	var err error
	p.Range(func(name string, s Sample) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, "%s: avg=%.3fms, min=%.3fms, max=%.3fms, count=%d\n",
			name, s.AvgMs(), float64(s.MinNs)/1e6, float64(s.MaxNs)/1e6, s.Count)
	})
	return err
}
