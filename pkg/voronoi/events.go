package voronoi

import (
	"container/heap"

	"github.com/0x0FACED/go-voronoi/pkg/geom"
)

type eventKind uint8

const (
	siteEvent eventKind = iota
	circleEvent
)

// event is a site or circle event. Circle events hold a weak
// back-reference to the arc they would remove; invalidation flips the
// valid flag and the queue skips the entry lazily on pop.
type event struct {
	kind eventKind
	x, y float64
	seq  int

	site geom.Point // site events

	arc    *arc // circle events
	center geom.Point
	radius float64
	valid  bool
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].y != h[j].y {
		return h[i].y < h[j].y
	}
	if h[i].x != h[j].x {
		return h[i].x < h[j].x
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}

// eventQueue orders events by (y, x, insertion sequence) ascending.
// The sequence number makes simultaneous events deterministic.
type eventQueue struct {
	h   eventHeap
	seq int
}

func (q *eventQueue) push(ev *event) {
	ev.seq = q.seq
	q.seq++
	heap.Push(&q.h, ev)
}

// popMin returns the next event in sweep order, discarding stale
// circle events, or nil when the queue is exhausted.
func (q *eventQueue) popMin() *event {
	for q.h.Len() > 0 {
		ev := heap.Pop(&q.h).(*event)
		if ev.kind == circleEvent && !ev.valid {
			continue
		}
		return ev
	}
	return nil
}

// invalidate marks a queued circle event stale. O(1); the entry stays
// queued until popMin reaches it.
func (q *eventQueue) invalidate(ev *event) {
	if ev == nil {
		return
	}
	ev.valid = false
	ev.arc = nil
}
