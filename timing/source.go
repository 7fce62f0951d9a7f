package timing

import (
	"sync"
	"time"

	"github.com/lixenwraith/detphys/backend"
)

const (
	// CalibrationInterval is the one bounded sleep taken per backend to estimate counter frequency
	CalibrationInterval = 10 * time.Millisecond
	// FallbackCyclesPerMicro is assumed when calibration cannot measure (3 GHz)
	FallbackCyclesPerMicro = 3000
)

// Source is a monotonic counter with a known rate
type Source interface {
	Now() uint64
	CyclesPerMicro() uint64
}

type counterSource struct {
	read     func() uint64
	perMicro uint64
}

func (s *counterSource) Now() uint64            { return s.read() }
func (s *counterSource) CyclesPerMicro() uint64 { return s.perMicro }

var (
	calibrationMu sync.Mutex
	calibrated    = make(map[string]uint64)
)

// CounterSource wraps the backend's cycle counter
// The first call per backend calibrates it by sleeping CalibrationInterval; later calls reuse the result
func CounterSource(b backend.Backend) Source {
	calibrationMu.Lock()
	defer calibrationMu.Unlock()

	perMicro, ok := calibrated[b.Name()]
	if !ok {
		perMicro = Calibrate(b.Cycles, CalibrationInterval)
		calibrated[b.Name()] = perMicro
	}
	return &counterSource{read: b.Cycles, perMicro: perMicro}
}

// Calibrate samples read across a real sleep of the given interval and returns cycles per microsecond
func Calibrate(read func() uint64, interval time.Duration) uint64 {
	start := time.Now()
	c0 := read()
	time.Sleep(interval)
	c1 := read()
	ns := time.Since(start).Nanoseconds()

	var cycles uint64
	if c1 > c0 {
		cycles = c1 - c0
	}
	return cyclesPerMicro(cycles, ns)
}

// cyclesPerMicro never returns zero, so conversions never divide by zero
func cyclesPerMicro(cycles uint64, ns int64) uint64 {
	if ns <= 0 {
		return FallbackCyclesPerMicro
	}
	per := cycles * 1000 / uint64(ns)
	if per == 0 {
		return FallbackCyclesPerMicro
	}
	return per
}

// MockSource is a controllable counter for tests, one cycle per nanosecond
type MockSource struct {
	mu  sync.RWMutex
	now uint64
}

func NewMockSource() *MockSource {
	return &MockSource{}
}

func (m *MockSource) Now() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

func (m *MockSource) CyclesPerMicro() uint64 { return 1000 }

// Advance moves the counter forward; negative durations are ignored to keep it monotonic
func (m *MockSource) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += uint64(d)
}

// Set replaces the raw reading
func (m *MockSource) Set(cycles uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = cycles
}
