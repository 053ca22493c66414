package engine

// Scheduler asks the host to run a callback before its next repaint.
// The returned function cancels the request; calling it after the callback
// ran, or more than once, does nothing.
type Scheduler interface {
	RequestFrame(fn func()) (cancel func())
}

type frameRequest struct {
	id uint64
	fn func()
}

// ManualScheduler queues frame requests until Advance is called. It drives
// the animation from a browser tick, from offline replays and from tests.
type ManualScheduler struct {
	nextID  uint64
	pending []frameRequest
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) RequestFrame(fn func()) func() {
	m.nextID++
	id := m.nextID
	m.pending = append(m.pending, frameRequest{id: id, fn: fn})
	return func() { m.remove(id) }
}

// Advance runs one frame: every callback requested before the call. Callbacks
// requested while it runs wait for the next Advance. It returns the number of
// callbacks run.
func (m *ManualScheduler) Advance() int {
	batch := m.pending
	m.pending = nil
	for _, req := range batch {
		req.fn()
	}
	return len(batch)
}

// Pending returns the number of callbacks waiting for the next frame.
func (m *ManualScheduler) Pending() int {
	return len(m.pending)
}

func (m *ManualScheduler) remove(id uint64) {
	for i, req := range m.pending {
		if req.id == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}
