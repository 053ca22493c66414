package engine

import (
	"math"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
)

// EventKind tells whether an animation event reveals a tree edge or a path segment.
type EventKind int

const (
	EventEdge EventKind = iota
	EventPath
)

// Event is one incremental reveal. For edges Node is the destination node the
// edge introduces.
type Event struct {
	Kind    EventKind
	Segment Segment
	Node    document.Point
}

// BuildEvents orders a result for playback: every edge in result order, then
// every consecutive pair of path points. Edges with invalid indices are skipped.
func BuildEvents(nodes []document.Point, edges []document.Edge, path []document.Point) []Event {
	events := make([]Event, 0, len(edges)+len(path))
	for _, e := range edges {
		if !e.Valid(len(nodes)) {
			continue
		}
		events = append(events, Event{
			Kind:    EventEdge,
			Segment: Segment{From: nodes[e.From], To: nodes[e.To]},
			Node:    nodes[e.To],
		})
	}
	for i := 1; i < len(path); i++ {
		events = append(events, Event{
			Kind:    EventPath,
			Segment: Segment{From: path[i-1], To: path[i]},
		})
	}
	return events
}

// Sequencer plays a planning result back as a growing rendered subset, one
// scheduler frame per step. At most one sequence is active; starting a new one
// cancels the previous one first.
type Sequencer struct {
	scheduler Scheduler
	speed     float64

	queue []Event
	head  int

	subset Tree
	seen   map[document.Point]struct{}

	active      bool
	generation  uint64
	cancelFrame func()

	onStep func(Tree)
	onDone func()
}

// NewSequencer creates a sequencer. Speed is the number of events revealed
// per step, rounded up; non-positive speeds fall back to 1.
func NewSequencer(scheduler Scheduler, speed float64) *Sequencer {
	q := &Sequencer{scheduler: scheduler, speed: 1}
	q.SetSpeed(speed)
	return q
}

// OnStep registers the repaint callback run after every step.
func (q *Sequencer) OnStep(fn func(Tree)) { q.onStep = fn }

// OnDone registers the callback run when a sequence drains.
func (q *Sequencer) OnDone(fn func()) { q.onDone = fn }

// SetSpeed changes the playback rate. Non-finite or non-positive rates are ignored.
func (q *Sequencer) SetSpeed(speed float64) bool {
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return false
	}
	q.speed = speed
	return true
}

func (q *Sequencer) Speed() float64 { return q.speed }

// Active reports whether a sequence is playing.
func (q *Sequencer) Active() bool { return q.active }

// Remaining returns the number of events not yet revealed.
func (q *Sequencer) Remaining() int { return len(q.queue) - q.head }

// Subset returns the rendered subset. Callers must not modify it.
func (q *Sequencer) Subset() Tree { return q.subset }

// Start cancels any running sequence and begins playing the result.
// A result without events completes immediately.
func (q *Sequencer) Start(nodes []document.Point, edges []document.Edge, path []document.Point) {
	q.Cancel()

	q.generation++
	q.queue = BuildEvents(nodes, edges, path)
	q.head = 0
	q.subset = Tree{}
	q.seen = make(map[document.Point]struct{}, len(nodes))
	if len(nodes) > 0 {
		q.addNode(nodes[0])
	}
	q.active = true

	if len(q.queue) == 0 {
		q.finish()
		return
	}
	q.schedule()
}

// Cancel stops the running sequence and discards its subset. It is a no-op
// when nothing is playing.
func (q *Sequencer) Cancel() {
	if !q.active {
		return
	}
	q.generation++
	if q.cancelFrame != nil {
		q.cancelFrame()
		q.cancelFrame = nil
	}
	q.active = false
	q.queue = nil
	q.head = 0
	q.subset = Tree{}
	q.seen = nil
}

func (q *Sequencer) schedule() {
	gen := q.generation
	q.cancelFrame = q.scheduler.RequestFrame(func() { q.step(gen) })
}

func (q *Sequencer) step(gen uint64) {
	if !q.active || gen != q.generation {
		return
	}
	q.cancelFrame = nil

	n := int(math.Ceil(q.speed))
	for i := 0; i < n && q.head < len(q.queue); i++ {
		q.apply(q.queue[q.head])
		q.head++
	}

	if q.onStep != nil {
		q.onStep(q.subset)
	}
	// The repaint callback may have cancelled or restarted the sequence.
	if !q.active || gen != q.generation {
		return
	}

	if q.head >= len(q.queue) {
		q.finish()
		return
	}
	q.schedule()
}

func (q *Sequencer) apply(ev Event) {
	switch ev.Kind {
	case EventEdge:
		q.subset.Segments = append(q.subset.Segments, ev.Segment)
		q.addNode(ev.Node)
	case EventPath:
		if len(q.subset.Path) == 0 {
			q.subset.Path = append(q.subset.Path, ev.Segment.From)
		}
		q.subset.Path = append(q.subset.Path, ev.Segment.To)
	}
}

func (q *Sequencer) addNode(p document.Point) {
	if _, ok := q.seen[p]; ok {
		return
	}
	q.seen[p] = struct{}{}
	q.subset.Nodes = append(q.subset.Nodes, p)
}

func (q *Sequencer) finish() {
	q.active = false
	q.cancelFrame = nil
	if q.onDone != nil {
		q.onDone()
	}
}
