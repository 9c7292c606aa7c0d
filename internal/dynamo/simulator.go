package dynamo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/spacesim/internal/collision"
	"github.com/san-kum/spacesim/internal/integrators"
	"github.com/san-kum/spacesim/internal/log"
	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/snapshot"
	"github.com/san-kum/spacesim/internal/spatial"
)

type request struct {
	op     Op
	id     registry.ID
	params registry.Params
	owner  registry.OwnerID
}

type Simulator struct {
	cfg      Config
	log      log.Log
	reg      *registry.Registry
	motion   *integrators.Motion
	grid     *spatial.Grid
	resolver *collision.Resolver
	exporter *snapshot.Exporter

	// mu guards the request queue and the set of ids a request may
	// still name: live bodies plus pending spawns minus pending removals.
	mu     sync.Mutex
	queue  []request
	spare  []request
	known  map[registry.ID]struct{}
	closed bool

	tickMu    sync.Mutex
	seq       atomic.Uint64
	history   *history
	metrics   []Metric
	observers []Observer
	latest    atomic.Pointer[snapshot.Frame]

	live    []*registry.Body
	expired map[registry.ID]struct{}
}

func New(cfg Config) (*Simulator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	motion, err := integrators.NewMotion(cfg.Dt, cfg.Stepper)
	if err != nil {
		return nil, err
	}
	resolver, err := collision.NewResolver(cfg.OwnedShare)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}

	s := &Simulator{
		cfg:      cfg,
		log:      logger.With(log.String("component", "dynamo")),
		reg:      registry.New(),
		motion:   motion,
		grid:     spatial.NewGrid(cfg.CellSize),
		resolver: resolver,
		exporter: snapshot.NewExporter(cfg.Shape),
		known:    make(map[registry.ID]struct{}),
		history:  newHistory(cfg.HistorySize),
		expired:  make(map[registry.ID]struct{}),
	}
	s.publishEmpty()
	return s, nil
}

func (s *Simulator) Config() Config { return s.cfg }

func (s *Simulator) AddMetric(m Metric) {
	s.tickMu.Lock()
	s.metrics = append(s.metrics, m)
	s.tickMu.Unlock()
}

func (s *Simulator) AddObserver(o Observer) {
	s.tickMu.Lock()
	s.observers = append(s.observers, o)
	s.tickMu.Unlock()
}

// Seq is the sequence number of the last published frame.
func (s *Simulator) Seq() uint64 { return s.seq.Load() }

// Latest returns the most recently published frame. It is never nil.
func (s *Simulator) Latest() *snapshot.Frame { return s.latest.Load() }

// HistoryBounds reports the oldest and newest seq Rewind can reach.
func (s *Simulator) HistoryBounds() (first, last uint64, ok bool) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	return s.history.bounds()
}

// Spawn validates p and reserves an id right away. The body appears at
// the start of the next tick.
func (s *Simulator) Spawn(p registry.Params) (registry.ID, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	id, err := s.reg.Reserve()
	if err != nil {
		return 0, err
	}
	s.queue = append(s.queue, request{op: OpSpawn, id: id, params: p})
	s.known[id] = struct{}{}
	return id, nil
}

// RequestRemoval queues id for removal at the next tick. A second request
// for the same id fails with ErrNotFound.
func (s *Simulator) RequestRemoval(id registry.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.known[id]; !ok {
		return &RequestError{Seq: s.seq.Load() + 1, Op: OpRemove, ID: id, Wrapped: ErrNotFound}
	}
	delete(s.known, id)
	s.queue = append(s.queue, request{op: OpRemove, id: id})
	return nil
}

func (s *Simulator) RequestOwnershipTransfer(id registry.ID, owner registry.OwnerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.known[id]; !ok {
		return &RequestError{Seq: s.seq.Load() + 1, Op: OpTransfer, ID: id, Wrapped: ErrNotFound}
	}
	s.queue = append(s.queue, request{op: OpTransfer, id: id, owner: owner})
	return nil
}

// Pending reports how many requests wait for the next tick.
func (s *Simulator) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Tick runs one full simulation step.
func (s *Simulator) Tick() (*TickResult, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	pending := s.queue
	s.queue = s.spare[:0]
	s.mu.Unlock()

	seq := s.seq.Load() + 1
	res := &TickResult{Seq: seq}

	for _, req := range pending {
		if err := s.apply(req); err != nil {
			rerr := &RequestError{Seq: seq, Op: req.op, ID: req.id, Wrapped: err}
			s.log.Warn("request dropped",
				log.Uint64("seq", seq),
				log.Stringer("op", req.op),
				log.Int("id", int(req.id)),
				log.Err(err),
			)
			res.Errors = append(res.Errors, rerr)
		}
	}
	clear(pending)
	s.mu.Lock()
	s.spare = pending[:0]
	s.mu.Unlock()

	expired := s.motion.Advance(s.reg)
	clear(s.expired)
	for _, id := range expired {
		s.expired[id] = struct{}{}
	}

	s.live = s.live[:0]
	s.reg.ForEach(func(b *registry.Body) {
		if _, gone := s.expired[b.ID]; !gone {
			s.live = append(s.live, b)
		}
	})
	s.grid.Rebuild(s.live)
	clear(s.live)

	report := s.resolver.Resolve(s.reg, s.grid, func(id registry.ID) bool {
		_, gone := s.expired[id]
		return gone
	})
	res.Contacts = report.Contacts
	res.Proximity = report.Proximity

	if len(expired) > 0 {
		res.Expired = make([]registry.ID, len(expired))
		copy(res.Expired, expired)
		s.mu.Lock()
		for _, id := range res.Expired {
			s.reg.Remove(id)
			delete(s.known, id)
		}
		s.mu.Unlock()
	}

	res.Frame, res.Records = s.exporter.Export(seq, s.reg)
	s.publish(res.Frame)

	for _, m := range s.metrics {
		m.Observe(res)
	}
	for _, o := range s.observers {
		o.OnTick(res)
	}
	return res, nil
}

func (s *Simulator) apply(req request) error {
	switch req.op {
	case OpSpawn:
		if err := s.reg.Insert(req.id, req.params); err != nil {
			return err
		}
		s.log.Debug("body spawned", log.Int("id", int(req.id)), log.Int("owner", int(req.params.Owner)))
	case OpRemove:
		if !s.reg.Remove(req.id) {
			return ErrNotFound
		}
		s.log.Debug("body removed", log.Int("id", int(req.id)))
	case OpTransfer:
		if err := s.reg.TransferOwnership(req.id, req.owner); err != nil {
			return err
		}
		s.log.Debug("ownership transferred", log.Int("id", int(req.id)), log.Int("owner", int(req.owner)))
	default:
		return fmt.Errorf("unknown request op %d", req.op)
	}
	return nil
}

func (s *Simulator) publish(f *snapshot.Frame) {
	s.seq.Store(f.Seq)
	s.history.push(f)
	s.latest.Store(f)
}

func (s *Simulator) publishEmpty() {
	s.publish(&snapshot.Frame{Seq: 0, Bodies: []registry.Body{}})
}

// Rewind restores the body set published at seq. Queued requests are
// discarded; ids reserved by them stay burned.
func (s *Simulator) Rewind(seq uint64) error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	frame, ok := s.history.get(seq)
	if !ok {
		return fmt.Errorf("rewind to %d: %w", seq, ErrSeqUnavailable)
	}

	dropped := len(s.queue)
	s.reg.Restore(frame.Bodies)
	s.history.truncateAfter(seq)
	s.seq.Store(seq)
	s.latest.Store(frame)
	s.queue = s.queue[:0]
	clear(s.known)
	for _, id := range s.reg.IDs() {
		s.known[id] = struct{}{}
	}

	s.log.Info("rewound",
		log.Uint64("seq", seq),
		log.Int("bodies", s.reg.Len()),
		log.Int("dropped_requests", dropped),
	)
	return nil
}

// Reset clears bodies, history and queued requests and restarts the
// sequence at zero. The id counter keeps counting.
func (s *Simulator) Reset() error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.reg.Clear()
	s.queue = s.queue[:0]
	clear(s.known)
	s.mu.Unlock()

	s.history.clear()
	s.publishEmpty()
	for _, m := range s.metrics {
		m.Reset()
	}
	s.log.Info("reset")
	return nil
}

// Close releases the simulator. Every later call fails with ErrClosed.
func (s *Simulator) Close() error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.queue = nil
	s.spare = nil
	s.reg.Clear()
	s.history.clear()
	return nil
}

// Run executes ticks steps. Cancellation is checked between ticks.
func (s *Simulator) Run(ctx context.Context, ticks int) (*Result, error) {
	if ticks <= 0 {
		return nil, fmt.Errorf("ticks must be positive, got %d", ticks)
	}

	result := &Result{
		Ticks:   make([]TickStats, 0, ticks),
		Metrics: make(map[string]float64),
	}
	if s.cfg.RecordFrames {
		result.Frames = make([]*snapshot.Frame, 0, ticks)
	}

	s.tickMu.Lock()
	for _, m := range s.metrics {
		m.Reset()
	}
	s.tickMu.Unlock()

	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		tr, err := s.Tick()
		if err != nil {
			s.finish(result)
			return result, err
		}
		result.StepsTaken++
		result.Ticks = append(result.Ticks, statsOf(tr))
		result.Errors = append(result.Errors, tr.Errors...)
		if s.cfg.RecordFrames {
			result.Frames = append(result.Frames, tr.Frame)
		}
	}

	s.finish(result)
	return result, nil
}

func (s *Simulator) finish(result *Result) {
	result.Final = s.Latest()
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// RunRealtime ticks every interval until ctx is done or fn returns false.
// A non-positive interval ticks as fast as possible.
func (s *Simulator) RunRealtime(ctx context.Context, interval time.Duration, fn func(*TickResult) bool) error {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		tr, err := s.Tick()
		if err != nil {
			return err
		}
		if fn != nil && !fn(tr) {
			return nil
		}
	}
}
