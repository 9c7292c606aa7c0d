package registry

import (
	"slices"
	"sync"
)

// Registry owns body storage keyed by id. Body access is not
// goroutine-safe; only Reserve may be called concurrently with other
// methods.
type Registry struct {
	bodies map[ID]*Body
	order  []ID

	idMu sync.Mutex
	next ID
}

func New() *Registry {
	return &Registry{
		bodies: make(map[ID]*Body),
		order:  make([]ID, 0),
		next:   1,
	}
}

// Reserve allocates a fresh id. Ids increase monotonically and are never
// handed out twice, even after the body using them is removed.
func (r *Registry) Reserve() (ID, error) {
	r.idMu.Lock()
	defer r.idMu.Unlock()

	if r.next <= 0 {
		return 0, ErrIDExhausted
	}
	id := r.next
	if id == MaxID {
		r.next = -1
	} else {
		r.next++
	}
	return id, nil
}

// Insert places a body under a previously reserved id.
func (r *Registry) Insert(id ID, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := r.bodies[id]; ok {
		return ErrDuplicateID
	}
	r.bodies[id] = p.body(id)

	pos, _ := slices.BinarySearch(r.order, id)
	r.order = slices.Insert(r.order, pos, id)
	return nil
}

// Spawn validates p, allocates an id and inserts the body.
func (r *Registry) Spawn(p Params) (ID, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	id, err := r.Reserve()
	if err != nil {
		return 0, err
	}
	return id, r.Insert(id, p)
}

// Remove deletes the body. It reports whether a body was removed; an
// absent id is a no-op.
func (r *Registry) Remove(id ID) bool {
	if _, ok := r.bodies[id]; !ok {
		return false
	}
	delete(r.bodies, id)
	if pos, found := slices.BinarySearch(r.order, id); found {
		r.order = slices.Delete(r.order, pos, pos+1)
	}
	return true
}

func (r *Registry) TransferOwnership(id ID, owner OwnerID) error {
	b, ok := r.bodies[id]
	if !ok {
		return ErrNotFound
	}
	b.Owner = owner
	return nil
}

// Get borrows a live body. The pointer must not be retained across ticks.
func (r *Registry) Get(id ID) (*Body, bool) {
	b, ok := r.bodies[id]
	return b, ok
}

func (r *Registry) Contains(id ID) bool {
	_, ok := r.bodies[id]
	return ok
}

func (r *Registry) Len() int { return len(r.order) }

// IDs returns the live ids in ascending order.
func (r *Registry) IDs() []ID {
	return slices.Clone(r.order)
}

// ForEach visits live bodies in ascending id order.
func (r *Registry) ForEach(fn func(b *Body)) {
	for _, id := range r.order {
		fn(r.bodies[id])
	}
}

// Snapshot copies every live body, ascending by id.
func (r *Registry) Snapshot() []Body {
	out := make([]Body, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.bodies[id])
	}
	return out
}

// Restore replaces the body set with copies of bodies. The id counter is
// left untouched so restored ids never collide with future spawns.
func (r *Registry) Restore(bodies []Body) {
	r.Clear()
	for i := range bodies {
		b := bodies[i]
		r.bodies[b.ID] = &b
		r.order = append(r.order, b.ID)
	}
	slices.Sort(r.order)
}

// Clear removes every body without resetting the id counter.
func (r *Registry) Clear() {
	clear(r.bodies)
	r.order = r.order[:0]
}
