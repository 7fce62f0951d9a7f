package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/detphys/backend"
	"github.com/lixenwraith/detphys/physics"
	"github.com/lixenwraith/detphys/vmath"
)

var (
	ErrInvalidTimestep  = errors.New("fixed timestep must be positive")
	ErrInvalidFrameSkip = errors.New("max frame skip must be at least 1")
)

// Config is the host-facing configuration in natural units (seconds, pixels)
// Floats are converted to fixed point once, in PhysicsConfig
type Config struct {
	FixedTimestep float64    `toml:"fixed_timestep"`
	MaxFrameSkip  uint32     `toml:"max_frame_skip"`
	Gravity       [2]float64 `toml:"gravity"`
	Iterations    int        `toml:"iterations"`
	Substeps      int        `toml:"substeps"`
	BroadPhase    string     `toml:"broad_phase"`
	CellSize      float64    `toml:"cell_size"`
	DefaultRadius float64    `toml:"default_radius"`
	Integrator    string     `toml:"integrator"`
	Backend       string     `toml:"backend"`
}

// DefaultConfig mirrors physics.DefaultConfig at 60 Hz with a frame-skip cap of 5
func DefaultConfig() Config {
	return Config{
		FixedTimestep: 1.0 / 60.0,
		MaxFrameSkip:  5,
		Gravity:       [2]float64{0, 980},
		Iterations:    8,
		Substeps:      1,
		BroadPhase:    string(physics.BroadPhaseSpatialHash),
		CellSize:      64,
		DefaultRadius: 10,
		Integrator:    string(physics.IntegratorEuler),
		Backend:       "auto",
	}
}

// LoadConfig reads a TOML file over DefaultConfig; an empty path returns the defaults
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML over DefaultConfig; keys absent from the document keep
// their defaults, unknown keys are rejected
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config parse: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config parse: unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks host fields here and delegates the rest to physics.Config.Validate
func (c Config) Validate() error {
	if err := c.SchedulerConfig().Validate(); err != nil {
		return err
	}
	switch c.Backend {
	case "", "auto", backend.PortableName, backend.AcceleratedName:
	default:
		return fmt.Errorf("%w: backend %q", physics.ErrInvalidConfig, c.Backend)
	}
	return c.PhysicsConfig().Validate()
}

// SchedulerConfig extracts the timing fields
func (c Config) SchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		FixedTimestep: c.FixedTimestep,
		MaxFrameSkip:  c.MaxFrameSkip,
	}
}

// PhysicsConfig converts to fixed point; this is the only float-to-fixed boundary
func (c Config) PhysicsConfig() physics.Config {
	return physics.Config{
		Gravity:       vmath.V2Float(c.Gravity[0], c.Gravity[1]),
		Iterations:    c.Iterations,
		Substeps:      c.Substeps,
		Timestep:      vmath.FromFloat(c.FixedTimestep),
		DefaultRadius: vmath.FromFloat(c.DefaultRadius),
		BroadPhase:    physics.BroadPhaseKind(c.BroadPhase),
		CellSize:      vmath.FromFloat(c.CellSize),
		Integrator:    physics.IntegratorKind(c.Integrator),
	}
}
