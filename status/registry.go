// Package status is the metrics registry shared by the engine and its hosts
// Writers cache metric pointers once and store into them lock-free every frame
package status

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Registry groups metrics by value type
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// Len is the number of registered metrics of every type
func (r *Registry) Len() int {
	return r.Bools.Len() + r.Ints.Len() + r.Floats.Len() + r.Strings.Len()
}

// Metric is a point-in-time copy of one value, formatted for display
type Metric struct {
	Key   string
	Value string
}

// Snapshot reads every metric, grouped by type and sorted by key within a group
func (r *Registry) Snapshot() []Metric {
	out := make([]Metric, 0, r.Len())
	r.Strings.Range(func(k string, v *AtomicString) {
		out = append(out, Metric{k, v.Load()})
	})
	r.Bools.Range(func(k string, v *atomic.Bool) {
		out = append(out, Metric{k, fmt.Sprint(v.Load())})
	})
	r.Ints.Range(func(k string, v *atomic.Int64) {
		out = append(out, Metric{k, fmt.Sprint(v.Load())})
	})
	r.Floats.Range(func(k string, v *AtomicFloat) {
		out = append(out, Metric{k, fmt.Sprintf("%.3f", v.Get())})
	})
	return out
}

// WriteTo prints one "key: value" line per metric in Snapshot order
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, m := range r.Snapshot() {
		n, err := fmt.Fprintf(w, "%s: %s\n", m.Key, m.Value)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
