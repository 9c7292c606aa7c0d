package dynamo

import "github.com/san-kum/spacesim/internal/snapshot"

// history is a fixed ring of the most recent frames, oldest first.
type history struct {
	frames []*snapshot.Frame
	start  int
	size   int
}

func newHistory(capacity int) *history {
	return &history{frames: make([]*snapshot.Frame, capacity)}
}

func (h *history) push(f *snapshot.Frame) {
	if len(h.frames) == 0 {
		return
	}
	if h.size < len(h.frames) {
		h.frames[(h.start+h.size)%len(h.frames)] = f
		h.size++
		return
	}
	h.frames[h.start] = f
	h.start = (h.start + 1) % len(h.frames)
}

func (h *history) at(i int) *snapshot.Frame {
	return h.frames[(h.start+i)%len(h.frames)]
}

// get returns the frame published at seq. Seqs in the ring are
// contiguous, so the lookup is positional.
func (h *history) get(seq uint64) (*snapshot.Frame, bool) {
	if h.size == 0 {
		return nil, false
	}
	first := h.at(0).Seq
	if seq < first || seq-first >= uint64(h.size) {
		return nil, false
	}
	return h.at(int(seq - first)), true
}

// truncateAfter drops every frame newer than seq.
func (h *history) truncateAfter(seq uint64) {
	for h.size > 0 && h.at(h.size-1).Seq > seq {
		h.frames[(h.start+h.size-1)%len(h.frames)] = nil
		h.size--
	}
}

// bounds reports the oldest and newest seq held.
func (h *history) bounds() (first, last uint64, ok bool) {
	if h.size == 0 {
		return 0, 0, false
	}
	return h.at(0).Seq, h.at(h.size - 1).Seq, true
}

func (h *history) clear() {
	clear(h.frames)
	h.start, h.size = 0, 0
}
