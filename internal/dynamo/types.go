package dynamo

import (
	"fmt"
	"math"

	"github.com/san-kum/spacesim/internal/collision"
	"github.com/san-kum/spacesim/internal/integrators"
	"github.com/san-kum/spacesim/internal/log"
	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/snapshot"
)

const DefaultHistorySize = 64

type Metric interface {
	Name() string
	Observe(r *TickResult)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(r *TickResult)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(r *TickResult)

func (f ObserverFunc) OnTick(r *TickResult) { f(r) }

type Config struct {
	Dt          float64
	Shape       snapshot.Shape
	CellSize    float64
	OwnedShare  float64
	HistorySize int
	// RecordFrames keeps every frame in Run's result.
	RecordFrames bool
	Stepper      integrators.Stepper
	Logger       log.Log
}

func DefaultConfig() Config {
	return Config{
		Dt:          integrators.DefaultDt,
		Shape:       snapshot.ShapeCurrent,
		OwnedShare:  collision.DefaultOwnedShare,
		HistorySize: DefaultHistorySize,
	}
}

func (c Config) validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.CellSize < 0 || math.IsNaN(c.CellSize) {
		return fmt.Errorf("cell size must be >= 0, got %f", c.CellSize)
	}
	if !(c.OwnedShare >= 0 && c.OwnedShare <= 1) {
		return fmt.Errorf("owned share must be in [0,1], got %f", c.OwnedShare)
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("history size must be >= 0, got %d", c.HistorySize)
	}
	if c.Shape != snapshot.ShapeCurrent && c.Shape != snapshot.ShapeLegacy {
		return fmt.Errorf("unknown record shape %d", c.Shape)
	}
	return nil
}

// TickResult is everything one tick produced. Frame and Records are
// immutable once returned.
type TickResult struct {
	Seq       uint64
	Frame     *snapshot.Frame
	Records   snapshot.Batch
	Contacts  []collision.Contact
	Proximity []collision.ProximityEvent
	Expired   []registry.ID
	Errors    []error
}

// TickStats is the per-tick summary kept by Run.
type TickStats struct {
	Seq       uint64
	Bodies    int
	Contacts  int
	Proximity int
	Expired   int
	Momentum  float64
	Energy    float64
	Checksum  uint64
}

func statsOf(r *TickResult) TickStats {
	return TickStats{
		Seq:       r.Seq,
		Bodies:    r.Frame.Len(),
		Contacts:  len(r.Contacts),
		Proximity: len(r.Proximity),
		Expired:   len(r.Expired),
		Momentum:  r.Frame.Momentum().Len(),
		Energy:    r.Frame.KineticEnergy(),
		Checksum:  r.Frame.Checksum(),
	}
}

type Result struct {
	Ticks      []TickStats
	Frames     []*snapshot.Frame
	Final      *snapshot.Frame
	Metrics    map[string]float64
	Errors     []error
	StepsTaken int
}
