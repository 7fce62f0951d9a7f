package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/lixenwraith/detphys/timing"
)

// SchedulerConfig sets the fixed step (seconds) and the per-frame update cap
type SchedulerConfig struct {
	FixedTimestep float64
	MaxFrameSkip  uint32
}

func (c SchedulerConfig) Validate() error {
	if !(c.FixedTimestep > 0) || c.Step() <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTimestep, c.FixedTimestep)
	}
	if c.MaxFrameSkip == 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidFrameSkip, c.MaxFrameSkip)
	}
	return nil
}

// Step rounds the fixed timestep to whole nanoseconds
func (c SchedulerConfig) Step() time.Duration {
	return time.Duration(math.Round(c.FixedTimestep * float64(time.Second)))
}

// FrameTick reports what one scheduler call decided
// Interpolation is for presentation only; the simulation never interpolates
type FrameTick struct {
	Frame         uint64        // frames seen so far, this one included
	Tick          uint64        // fixed updates executed so far, this frame's included
	FixedUpdates  uint32        // fixed updates the caller must run now
	Delta         time.Duration // raw variable delta fed in
	FixedDt       time.Duration
	Interpolation float64 // residual / FixedDt, in [0, 1)
}

func (f FrameTick) DeltaSeconds() float64   { return f.Delta.Seconds() }
func (f FrameTick) FixedDtSeconds() float64 { return f.FixedDt.Seconds() }

// Scheduler converts variable frame time into a bounded number of fixed updates
// Time is accumulated in integer nanoseconds, so any split of the same total yields
// the same number of ticks
//
// When more than MaxFrameSkip whole steps are pending, the surplus is dropped and
// counted in Dropped; under sustained overload the simulation falls behind wall clock
// instead of spiralling into ever longer frames
type Scheduler struct {
	timer        *timing.Timer
	step         time.Duration
	maxFrameSkip uint32
	maxDelta     time.Duration // larger deltas lose their surplus whole steps up front

	acc     time.Duration
	last    time.Duration
	frame   uint64
	tick    uint64
	dropped time.Duration
}

// NewScheduler starts the frame clock on src; nil src uses the default backend counter
func NewScheduler(cfg SchedulerConfig, src timing.Source) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var timer *timing.Timer
	if src == nil {
		timer = timing.New()
	} else {
		timer = timing.NewWithSource(src)
	}
	step := cfg.Step()
	return &Scheduler{
		timer:        timer,
		step:         step,
		maxFrameSkip: cfg.MaxFrameSkip,
		maxDelta:     maxDelta(step, cfg.MaxFrameSkip),
	}, nil
}

// maxDelta is step*(maxFrameSkip+1), capped so acc + delta cannot overflow
func maxDelta(step time.Duration, maxFrameSkip uint32) time.Duration {
	ceiling := time.Duration(math.MaxInt64) - 2*step
	if n := int64(maxFrameSkip) + 1; n <= int64(ceiling/step) {
		return step * time.Duration(n)
	}
	return ceiling
}

// Tick feeds the wall time elapsed since the previous call
func (s *Scheduler) Tick() FrameTick {
	now := s.timer.Elapsed()
	delta := now - s.last
	s.last = now
	return s.Advance(delta)
}

// Advance feeds an explicit delta; negative deltas count as zero
func (s *Scheduler) Advance(delta time.Duration) FrameTick {
	if delta < 0 {
		delta = 0
	}
	fed := delta
	if fed > s.maxDelta {
		// Whole steps beyond the cap would be dropped below anyway; the residual is kept
		surplus := (fed - s.maxDelta) / s.step * s.step
		fed -= surplus
		s.drop(surplus)
	}
	s.acc += fed
	s.frame++

	updates := uint32(min(int64(s.acc/s.step), int64(s.maxFrameSkip)))
	s.acc -= time.Duration(updates) * s.step
	s.tick += uint64(updates)

	if s.acc >= s.step {
		whole := s.acc / s.step * s.step
		s.acc -= whole
		s.drop(whole)
	}

	return FrameTick{
		Frame:         s.frame,
		Tick:          s.tick,
		FixedUpdates:  updates,
		Delta:         delta,
		FixedDt:       s.step,
		Interpolation: float64(s.acc) / float64(s.step),
	}
}

// drop records discarded time, saturating at the largest Duration
func (s *Scheduler) drop(d time.Duration) {
	if s.dropped > time.Duration(math.MaxInt64)-d {
		s.dropped = time.Duration(math.MaxInt64)
		return
	}
	s.dropped += d
}

// Reset zeroes the accumulator and counters and restarts the frame clock
func (s *Scheduler) Reset() {
	s.acc = 0
	s.last = 0
	s.frame = 0
	s.tick = 0
	s.dropped = 0
	s.timer.Start()
}

func (s *Scheduler) FixedDt() time.Duration { return s.step }
func (s *Scheduler) Frame() uint64          { return s.frame }
func (s *Scheduler) TickCount() uint64      { return s.tick }

// Dropped is the total simulated time discarded by the frame-skip cap
func (s *Scheduler) Dropped() time.Duration { return s.dropped }
