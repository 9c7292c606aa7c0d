package server

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/san-kum/spacesim/internal/dynamo"
	"github.com/san-kum/spacesim/internal/log"
	"github.com/san-kum/spacesim/internal/snapshot"
)

const clientBuffer = 16

type client struct {
	id      string
	shape   snapshot.Shape
	send    chan []byte
	dropped atomic.Uint64
}

// Hub fans published frames out to subscribers, each in the record shape
// it asked for. A slow subscriber loses frames rather than stalling the
// tick loop.
type Hub struct {
	log    log.Log
	encode func(seq uint64, b snapshot.Batch) ([]byte, error)

	mu      sync.RWMutex
	clients map[string]*client
	latest  *snapshot.Frame
}

var _ dynamo.Observer = (*Hub)(nil)

func NewHub(logger log.Log) *Hub {
	if logger == nil {
		logger = log.Nop()
	}
	return &Hub{
		log:     logger.With(log.String("component", "hub")),
		encode:  Encode,
		clients: make(map[string]*client),
	}
}

func (h *Hub) OnTick(r *dynamo.TickResult) {
	h.Publish(r.Frame)
}

// Publish encodes f once per shape in use and queues it on every client.
// If a shape fails to encode only its clients miss the frame.
func (h *Hub) Publish(f *snapshot.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = f

	var (
		encoded [2][]byte
		failed  [2]bool
	)
	for _, c := range h.clients {
		if failed[c.shape] {
			continue
		}
		msg := encoded[c.shape]
		if msg == nil {
			var err error
			msg, err = h.encode(f.Seq, f.Project(c.shape))
			if err != nil {
				failed[c.shape] = true
				h.log.Error("encode frame", log.Uint64("seq", f.Seq), log.Stringer("shape", c.shape), log.Err(err))
				continue
			}
			encoded[c.shape] = msg
		}
		select {
		case c.send <- msg:
		default:
			if c.dropped.Add(1) == 1 {
				h.log.Warn("subscriber falling behind", log.String("client", c.id))
			}
		}
	}
}

func (h *Hub) subscribe(shape snapshot.Shape) *client {
	c := &client{
		id:    uuid.NewString(),
		shape: shape,
		send:  make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	if f := h.latest; f != nil {
		if msg, err := h.encode(f.Seq, f.Project(shape)); err == nil {
			c.send <- msg
		}
	}
	h.mu.Unlock()

	h.log.Info("subscriber joined", log.String("client", c.id), log.Stringer("shape", shape))
	return c
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
	h.log.Info("subscriber left", log.String("client", c.id), log.Uint64("dropped", c.dropped.Load()))
}

// Latest is the last frame published, or nil.
func (h *Hub) Latest() *snapshot.Frame {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}
