package config

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/san-kum/spacesim/internal/collision"
	"github.com/san-kum/spacesim/internal/dynamo"
	"github.com/san-kum/spacesim/internal/log"
	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/snapshot"
	"github.com/san-kum/spacesim/internal/vmath"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTicks    = 100
	DefaultDt       = 1.0
	DefaultTickRate = 30.0
	DefaultHistory  = dynamo.DefaultHistorySize
)

type Config struct {
	Name       string       `yaml:"name"`
	Ticks      int          `yaml:"ticks"`
	Dt         float64      `yaml:"dt"`
	TickRate   float64      `yaml:"tick_rate"`
	Shape      string       `yaml:"shape"`
	CellSize   float64      `yaml:"cell_size"`
	OwnedShare float64      `yaml:"owned_share"`
	History    int          `yaml:"history"`
	LogLevel   string       `yaml:"log_level"`
	Seed       int64        `yaml:"seed"`
	Bodies     []BodyConfig `yaml:"bodies,omitempty"`
	Swarm      *SwarmConfig `yaml:"swarm,omitempty"`
}

type BodyConfig struct {
	Owner     int16   `yaml:"owner"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	VX        float64 `yaml:"vx"`
	VY        float64 `yaml:"vy"`
	Size      float64 `yaml:"size"`
	Proximity float64 `yaml:"proximity"`
	Lifetime  int32   `yaml:"lifetime"`
	Bounce    float64 `yaml:"bounce"`
}

// SwarmConfig generates bodies from Seed. Ranges are inclusive.
type SwarmConfig struct {
	Count         int     `yaml:"count"`
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	MaxSpeed      float64 `yaml:"max_speed"`
	MinSize       float64 `yaml:"min_size"`
	MaxSize       float64 `yaml:"max_size"`
	Proximity     float64 `yaml:"proximity"`
	MinLifetime   int32   `yaml:"min_lifetime"`
	MaxLifetime   int32   `yaml:"max_lifetime"`
	Bounce        float64 `yaml:"bounce"`
	OwnedFraction float64 `yaml:"owned_fraction"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "custom",
		Ticks:      DefaultTicks,
		Dt:         DefaultDt,
		TickRate:   DefaultTickRate,
		Shape:      snapshot.ShapeCurrent.String(),
		OwnedShare: collision.DefaultOwnedShare,
		History:    DefaultHistory,
		LogLevel:   "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy so callers may override fields freely.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = append([]BodyConfig(nil), c.Bodies...)
	if c.Swarm != nil {
		sw := *c.Swarm
		out.Swarm = &sw
	}
	return &out
}

func (c *Config) Validate() error {
	if c.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", c.Ticks)
	}
	if !(c.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.TickRate < 0 {
		return fmt.Errorf("tick_rate must be >= 0, got %f", c.TickRate)
	}
	if _, err := snapshot.ParseShape(c.Shape); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if sw := c.Swarm; sw != nil {
		if sw.Count < 0 {
			return fmt.Errorf("swarm count must be >= 0, got %d", sw.Count)
		}
		if sw.MinSize > sw.MaxSize {
			return fmt.Errorf("swarm min_size %f exceeds max_size %f", sw.MinSize, sw.MaxSize)
		}
		if sw.MinLifetime < 1 || sw.MinLifetime > sw.MaxLifetime {
			return fmt.Errorf("swarm lifetime range [%d,%d] is invalid", sw.MinLifetime, sw.MaxLifetime)
		}
	}
	for i, b := range c.Bodies {
		if err := b.Params().Validate(); err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
	}
	return nil
}

// TickInterval is the real-time pacing for live modes. Zero means
// unpaced.
func (c *Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.TickRate)
}

// SimConfig maps the scenario onto simulator settings.
func (c *Config) SimConfig(logger log.Log) (dynamo.Config, error) {
	shape, err := snapshot.ParseShape(c.Shape)
	if err != nil {
		return dynamo.Config{}, err
	}
	cfg := dynamo.DefaultConfig()
	cfg.Dt = c.Dt
	cfg.Shape = shape
	cfg.CellSize = c.CellSize
	cfg.OwnedShare = c.OwnedShare
	cfg.HistorySize = c.History
	cfg.Logger = logger
	return cfg, nil
}

func (b BodyConfig) Params() registry.Params {
	return registry.Params{
		Owner:     registry.OwnerID(b.Owner),
		Position:  vmath.Vec2{X: b.X, Y: b.Y},
		Velocity:  vmath.Vec2{X: b.VX, Y: b.VY},
		Size:      b.Size,
		Proximity: b.Proximity,
		Lifetime:  b.Lifetime,
		Bounce:    b.Bounce,
	}
}

// Params lists the explicit bodies followed by the generated swarm.
// Generation is deterministic for a given Seed.
func (c *Config) Params() []registry.Params {
	out := make([]registry.Params, 0, len(c.Bodies))
	for _, b := range c.Bodies {
		out = append(out, b.Params())
	}
	if c.Swarm == nil {
		return out
	}

	sw := c.Swarm
	rng := rand.New(rand.NewSource(c.Seed))
	for i := 0; i < sw.Count; i++ {
		var owner registry.OwnerID
		if rng.Float64() < sw.OwnedFraction {
			owner = registry.OwnerID(1 + rng.Intn(8))
		}
		out = append(out, registry.Params{
			Owner: owner,
			Position: vmath.Vec2{
				X: (rng.Float64() - 0.5) * sw.Width,
				Y: (rng.Float64() - 0.5) * sw.Height,
			},
			Velocity: vmath.Vec2{
				X: (rng.Float64()*2 - 1) * sw.MaxSpeed,
				Y: (rng.Float64()*2 - 1) * sw.MaxSpeed,
			},
			Size:      sw.MinSize + rng.Float64()*(sw.MaxSize-sw.MinSize),
			Proximity: sw.Proximity,
			Lifetime:  sw.MinLifetime + rng.Int31n(sw.MaxLifetime-sw.MinLifetime+1),
			Bounce:    sw.Bounce,
		})
	}
	return out
}

// Build creates a simulator with every scenario body queued for the
// first tick.
func (c *Config) Build(logger log.Log) (*dynamo.Simulator, error) {
	simCfg, err := c.SimConfig(logger)
	if err != nil {
		return nil, err
	}
	sim, err := dynamo.New(simCfg)
	if err != nil {
		return nil, err
	}
	if err := c.Populate(sim); err != nil {
		_ = sim.Close()
		return nil, err
	}
	return sim, nil
}

// Populate queues the scenario bodies on sim.
func (c *Config) Populate(sim *dynamo.Simulator) error {
	for i, p := range c.Params() {
		if _, err := sim.Spawn(p); err != nil {
			return fmt.Errorf("spawn body %d: %w", i, err)
		}
	}
	return nil
}
