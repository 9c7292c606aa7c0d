package dynamo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/san-kum/spacesim/internal/log"
	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/snapshot"
	"github.com/san-kum/spacesim/internal/vmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newSim(t *testing.T, mutate ...func(*Config)) *Simulator {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func params(x float64) registry.Params {
	return registry.Params{
		Position: vmath.Vec2{X: x},
		Size:     1,
		Lifetime: 100,
		Bounce:   1,
	}
}

func mustTick(t *testing.T, s *Simulator) *TickResult {
	t.Helper()
	res, err := s.Tick()
	require.NoError(t, err)
	return res
}

type countMetric struct {
	ticks int
}

func (c *countMetric) Name() string          { return "count" }
func (c *countMetric) Observe(r *TickResult) { c.ticks++ }
func (c *countMetric) Value() float64        { return float64(c.ticks) }
func (c *countMetric) Reset()                { c.ticks = 0 }

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative cell", func(c *Config) { c.CellSize = -1 }},
		{"share above one", func(c *Config) { c.OwnedShare = 1.5 }},
		{"negative history", func(c *Config) { c.HistorySize = -1 }},
		{"unknown shape", func(c *Config) { c.Shape = snapshot.Shape(9) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestSpawnIsDeferredToNextTick(t *testing.T) {
	s := newSim(t)
	id, err := s.Spawn(params(0))
	require.NoError(t, err)
	assert.Equal(t, registry.ID(1), id)
	assert.Equal(t, 0, s.Latest().Len())
	assert.Equal(t, 1, s.Pending())

	res := mustTick(t, s)
	assert.Equal(t, uint64(1), res.Seq)
	assert.Equal(t, []int16{1}, res.Records.IDs())
	assert.Equal(t, 0, s.Pending())
	assert.Same(t, res.Frame, s.Latest())
}

func TestSpawnValidatesSynchronously(t *testing.T) {
	s := newSim(t)
	p := params(0)
	p.Bounce = 2
	_, err := s.Spawn(p)
	require.ErrorIs(t, err, ErrInvalidParameter)

	var perr *registry.ParamError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bounce", perr.Field)
	assert.Equal(t, 0, s.Pending())
}

func TestIDsNeverReused(t *testing.T) {
	s := newSim(t)
	seen := make(map[registry.ID]bool)
	for round := 0; round < 3; round++ {
		for i := 0; i < 4; i++ {
			id, err := s.Spawn(params(float64(i * 10)))
			require.NoError(t, err)
			require.False(t, seen[id], "id %d reused", id)
			seen[id] = true
		}
		mustTick(t, s)
		for _, b := range s.Latest().Bodies {
			require.NoError(t, s.RequestRemoval(b.ID))
		}
		mustTick(t, s)
		if round == 1 {
			require.NoError(t, s.Reset())
		}
	}
}

func TestRemovalIsIdempotent(t *testing.T) {
	s := newSim(t)
	id, err := s.Spawn(params(0))
	require.NoError(t, err)
	mustTick(t, s)

	require.NoError(t, s.RequestRemoval(id))
	err = s.RequestRemoval(id)
	require.ErrorIs(t, err, ErrNotFound)

	var rerr *RequestError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, OpRemove, rerr.Op)
	assert.Equal(t, id, rerr.ID)

	res := mustTick(t, s)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 0, res.Frame.Len())

	assert.ErrorIs(t, s.RequestRemoval(id), ErrNotFound)
}

func TestSpawnThenRemoveBeforeTick(t *testing.T) {
	s := newSim(t)
	id, err := s.Spawn(params(0))
	require.NoError(t, err)
	require.NoError(t, s.RequestRemoval(id))

	res := mustTick(t, s)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 0, res.Frame.Len())
}

func TestTransferUnknownLeavesStateAlone(t *testing.T) {
	s := newSim(t)
	_, err := s.Spawn(params(0))
	require.NoError(t, err)
	before := mustTick(t, s).Frame

	err = s.RequestOwnershipTransfer(42, 7)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Pending())

	after := mustTick(t, s).Frame
	assert.Equal(t, before.Bodies[0].Owner, after.Bodies[0].Owner)
}

func TestTransferAppliesAtTick(t *testing.T) {
	s := newSim(t)
	id, err := s.Spawn(params(0))
	require.NoError(t, err)
	mustTick(t, s)

	require.NoError(t, s.RequestOwnershipTransfer(id, 3))
	b, _ := s.Latest().Find(id)
	assert.Equal(t, registry.Unowned, b.Owner)

	res := mustTick(t, s)
	assert.Equal(t, int16(3), res.Records.Current[0].Owner)
}

func TestRequestsApplyInSubmissionOrder(t *testing.T) {
	s := newSim(t)
	id, err := s.Spawn(params(0))
	require.NoError(t, err)
	require.NoError(t, s.RequestOwnershipTransfer(id, 1))
	require.NoError(t, s.RequestOwnershipTransfer(id, 2))

	res := mustTick(t, s)
	b, ok := res.Frame.Find(id)
	require.True(t, ok)
	assert.Equal(t, registry.OwnerID(2), b.Owner)
}

func TestLifetimeOneExpiresAfterOneTick(t *testing.T) {
	s := newSim(t)
	p := params(0)
	p.Lifetime = 1
	id, err := s.Spawn(p)
	require.NoError(t, err)

	res := mustTick(t, s)
	assert.Equal(t, []registry.ID{id}, res.Expired)
	assert.Equal(t, 0, res.Records.Len())
	assert.ErrorIs(t, s.RequestRemoval(id), ErrNotFound)
}

func TestExpiringBodyDoesNotCollide(t *testing.T) {
	s := newSim(t)
	dying := params(0)
	dying.Lifetime = 1
	_, err := s.Spawn(dying)
	require.NoError(t, err)
	_, err = s.Spawn(params(0.5))
	require.NoError(t, err)

	res := mustTick(t, s)
	assert.Empty(t, res.Contacts)
	require.Equal(t, 1, res.Frame.Len())
	assert.Equal(t, vmath.Vec2{X: 0.5}, res.Frame.Bodies[0].Position)
}

func TestLegacyShapeBatch(t *testing.T) {
	s := newSim(t, func(c *Config) { c.Shape = snapshot.ShapeLegacy })
	_, err := s.Spawn(params(0))
	require.NoError(t, err)

	res := mustTick(t, s)
	assert.Equal(t, snapshot.ShapeLegacy, res.Records.Shape)
	assert.Len(t, res.Records.Legacy, 1)
	assert.Empty(t, res.Records.Current)
}

func TestFramesAreImmutable(t *testing.T) {
	s := newSim(t)
	p := params(0)
	p.Velocity = vmath.Vec2{X: 1}
	_, err := s.Spawn(p)
	require.NoError(t, err)

	first := mustTick(t, s).Frame
	x := first.Bodies[0].Position.X
	mustTick(t, s)
	mustTick(t, s)
	assert.Equal(t, x, first.Bodies[0].Position.X)
	assert.Equal(t, x+2, s.Latest().Bodies[0].Position.X)
}

func TestRewind(t *testing.T) {
	s := newSim(t)
	p := params(0)
	p.Velocity = vmath.Vec2{X: 1}
	_, err := s.Spawn(p)
	require.NoError(t, err)

	mustTick(t, s)
	at2 := mustTick(t, s).Frame
	mustTick(t, s)
	mustTick(t, s)

	queued, err := s.Spawn(params(50))
	require.NoError(t, err)

	require.NoError(t, s.Rewind(2))
	assert.Equal(t, uint64(2), s.Seq())
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, at2.Checksum(), s.Latest().Checksum())
	assert.ErrorIs(t, s.RequestRemoval(queued), ErrNotFound)

	res := mustTick(t, s)
	assert.Equal(t, uint64(3), res.Seq)
	assert.Equal(t, at2.Bodies[0].Position.X+1, res.Frame.Bodies[0].Position.X)

	next, err := s.Spawn(params(0))
	require.NoError(t, err)
	assert.Greater(t, next, queued)
}

func TestRewindOutsideWindow(t *testing.T) {
	s := newSim(t, func(c *Config) { c.HistorySize = 2 })
	for i := 0; i < 5; i++ {
		mustTick(t, s)
	}
	assert.ErrorIs(t, s.Rewind(1), ErrSeqUnavailable)
	assert.ErrorIs(t, s.Rewind(9), ErrSeqUnavailable)
	assert.NoError(t, s.Rewind(4))
}

func TestReset(t *testing.T) {
	m := &countMetric{}
	s := newSim(t)
	s.AddMetric(m)
	first, err := s.Spawn(params(0))
	require.NoError(t, err)
	mustTick(t, s)
	_, err = s.Spawn(params(5))
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	assert.Equal(t, uint64(0), s.Seq())
	assert.Equal(t, 0, s.Latest().Len())
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 0, m.ticks)
	assert.ErrorIs(t, s.RequestRemoval(first), ErrNotFound)

	id, err := s.Spawn(params(0))
	require.NoError(t, err)
	assert.Equal(t, registry.ID(3), id)
	assert.Equal(t, uint64(1), mustTick(t, s).Seq)
}

func TestClose(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Spawn(params(0))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Tick()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.RequestRemoval(1), ErrClosed)
	assert.ErrorIs(t, s.Rewind(0), ErrClosed)
	assert.ErrorIs(t, s.Reset(), ErrClosed)
	assert.ErrorIs(t, s.Close(), ErrClosed)
}

func TestRunCollectsStatsAndMetrics(t *testing.T) {
	m := &countMetric{}
	s := newSim(t, func(c *Config) { c.RecordFrames = true })
	s.AddMetric(m)
	_, err := s.Spawn(params(0))
	require.NoError(t, err)

	res, err := s.Run(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, res.StepsTaken)
	assert.Len(t, res.Ticks, 5)
	assert.Len(t, res.Frames, 5)
	assert.Equal(t, 5.0, res.Metrics["count"])
	assert.Equal(t, uint64(5), res.Final.Seq)
	assert.Equal(t, 1, res.Ticks[4].Bodies)
	assert.Equal(t, res.Final.Checksum(), res.Ticks[4].Checksum)
}

func TestRunRejectsNonPositiveTicks(t *testing.T) {
	s := newSim(t)
	_, err := s.Run(context.Background(), 0)
	assert.Error(t, err)
}

func TestRunHonoursCancellation(t *testing.T) {
	s := newSim(t)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s.AddObserver(ObserverFunc(func(r *TickResult) {
		calls++
		if calls == 3 {
			cancel()
		}
	}))

	res, err := s.Run(ctx, 100)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, res.StepsTaken)
}

func TestRunRealtimeStopsOnCallback(t *testing.T) {
	s := newSim(t)
	seen := 0
	err := s.RunRealtime(context.Background(), time.Millisecond, func(r *TickResult) bool {
		seen++
		return seen < 4
	})
	require.NoError(t, err)
	assert.Equal(t, 4, seen)
	assert.Equal(t, uint64(4), s.Seq())
}

func TestRunRealtimeCancelled(t *testing.T) {
	s := newSim(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.RunRealtime(ctx, 0, nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestConcurrentRequests(t *testing.T) {
	s := newSim(t)
	var wg sync.WaitGroup
	ids := make(chan registry.ID, 64)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				id, err := s.Spawn(params(float64(g*100 + i*3)))
				if err == nil {
					ids <- id
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			_, _ = s.Tick()
		}
	}()
	wg.Wait()
	close(ids)

	unique := make(map[registry.ID]bool)
	for id := range ids {
		unique[id] = true
	}
	assert.Len(t, unique, 64)

	res := mustTick(t, s)
	assert.Equal(t, 64, res.Frame.Len())
}

func TestDroppedRequestIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := newSim(t, func(c *Config) { c.Logger = log.FromZap(zap.New(core), log.LevelWarn) })

	p := params(0)
	p.Lifetime = 1
	id, err := s.Spawn(p)
	require.NoError(t, err)
	mustTick(t, s)

	// inject a stale removal the way a racing caller could
	s.mu.Lock()
	s.queue = append(s.queue, request{op: OpRemove, id: id})
	s.mu.Unlock()

	res := mustTick(t, s)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], ErrNotFound)
	assert.Equal(t, 1, logs.FilterMessage("request dropped").Len())
}

func TestDeterministicChecksums(t *testing.T) {
	run := func() []uint64 {
		s := newSim(t)
		for i := 0; i < 20; i++ {
			p := params(float64(i%5) * 3)
			p.Position.Y = float64(i/5) * 3
			p.Velocity = vmath.Vec2{X: float64(i%3) - 1, Y: float64(i%2) - 0.5}
			p.Size = 2
			p.Bounce = 0.8
			_, err := s.Spawn(p)
			require.NoError(t, err)
		}
		res, err := s.Run(context.Background(), 30)
		require.NoError(t, err)
		sums := make([]uint64, len(res.Ticks))
		for i, st := range res.Ticks {
			sums[i] = st.Checksum
		}
		return sums
	}
	assert.Equal(t, run(), run())
}
