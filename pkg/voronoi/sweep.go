// Package voronoi computes the Voronoi diagram of a set of point
// sites with Fortune's sweep-line algorithm and emits it as a
// doubly-connected edge list.
package voronoi

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/0x0FACED/go-voronoi/pkg/dcel"
	"github.com/0x0FACED/go-voronoi/pkg/geom"
	"github.com/0x0FACED/go-voronoi/pkg/logger"
)

// sweeper is the per-build state: the beachline, the event queue and
// the diagram under construction. The sweep line moves down (y
// ascending).
type sweeper struct {
	d     *dcel.DCEL
	faces map[geom.Point]dcel.FaceID
	beach beachline
	queue eventQueue
	log   *logger.ZapLogger
}

// Build runs Fortune's sweep over the sites and returns the finished
// diagram clipped to bbox. The input slice is not modified; the output
// is deterministic for a given site set regardless of input order.
//
// Zero sites produce an empty closed diagram. Exactly coincident sites
// are rejected with ErrDuplicateSite; geometry too degenerate to
// resolve reports ErrIllConditioned. A nil log disables tracing.
func Build(sites []geom.Point, bbox dcel.BoundingBox, log *logger.ZapLogger) (*dcel.DCEL, error) {
	if log == nil {
		log = logger.Nop()
	}

	d := dcel.New()
	if len(sites) == 0 {
		if err := d.CloseDiagram(bbox); err != nil {
			return nil, err
		}
		return d, nil
	}

	sorted := make([]geom.Point, len(sites))
	copy(sorted, sites)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("%w: (%g, %g)", ErrDuplicateSite, sorted[i].X, sorted[i].Y)
		}
		// near-coincident sites leave the breakpoint ordering
		// unresolvable within tolerance
		if sorted[i].Y-sorted[i-1].Y < geom.Epsilon &&
			math.Abs(sorted[i].X-sorted[i-1].X) < geom.Epsilon {
			return nil, fmt.Errorf("%w: sites (%g, %g) and (%g, %g) are closer than tolerance",
				ErrIllConditioned,
				sorted[i-1].X, sorted[i-1].Y, sorted[i].X, sorted[i].Y)
		}
	}

	s := &sweeper{
		d:     d,
		faces: make(map[geom.Point]dcel.FaceID, len(sorted)),
		log:   log,
	}
	for _, p := range sorted {
		s.faces[p] = d.AddFace(p)
		s.queue.push(&event{kind: siteEvent, x: p.X, y: p.Y, site: p, valid: true})
	}

	log.Debug("sweep started", zap.Int("sites", len(sorted)))

	budget := 16*len(sorted) + 64
	for processed := 0; ; processed++ {
		if processed > budget {
			return nil, fmt.Errorf("%w: event budget exceeded after %d events", ErrIllConditioned, processed)
		}
		ev := s.queue.popMin()
		if ev == nil {
			break
		}
		switch ev.kind {
		case siteEvent:
			log.Debug("site event", zap.Float64("x", ev.x), zap.Float64("y", ev.y))
			if err := s.insertArc(ev.site); err != nil {
				return nil, err
			}
		case circleEvent:
			log.Debug("circle event",
				zap.Float64("x", ev.center.X),
				zap.Float64("y", ev.center.Y),
				zap.Float64("sweep", ev.y))
			s.removeArc(ev)
		}
	}

	log.Debug("sweep finished, closing diagram")
	if err := d.CloseDiagram(bbox); err != nil {
		return nil, err
	}
	return d, nil
}

// insertArc handles a site event: it finds the arc above the new site,
// splits it around a new arc for the site and starts tracing the new
// breakpoints' edges.
func (s *sweeper) insertArc(site geom.Point) error {
	lArc, rArc := s.beach.locate(site.X, site.Y)

	newArc := &arc{site: site, face: s.faces[site]}
	s.beach.insertSuccessor(lArc, newArc)

	switch {
	case lArc == nil && rArc == nil:
		// first arc
		return nil

	case lArc == nil:
		// the site grazes the left end of the beachline within
		// tolerance, so there is no arc to split
		return fmt.Errorf("%w: site (%g, %g) collides with the beachline edge", ErrIllConditioned, site.X, site.Y)

	case lArc == rArc:
		// site falls strictly inside lArc: split it in two around
		// the new arc; both new breakpoints trace the same edge
		s.detachCircle(lArc)

		split := &arc{site: lArc.site, face: lArc.face}
		s.beach.insertSuccessor(newArc, split)

		newArc.edge = s.d.BeginEdge(lArc.face, newArc.face)
		split.edge = newArc.edge

		s.attachCircle(lArc)
		s.attachCircle(split)
		return nil

	case lArc != nil && rArc == nil:
		// beachline right end (all arcs so far share the sweep y)
		newArc.edge = s.d.BeginEdge(lArc.face, newArc.face)
		return nil

	default:
		// site lands exactly on the breakpoint between lArc and rArc:
		// the three sites meet in one diagram vertex
		s.detachCircle(lArc)
		s.detachCircle(rArc)

		ax := lArc.site.X
		ay := lArc.site.Y
		bx := site.X - ax
		by := site.Y - ay
		cx := rArc.site.X - ax
		cy := rArc.site.Y - ay
		det := 2 * (bx*cy - by*cx)
		if math.Abs(det) < geom.ConvergenceEpsilon {
			return fmt.Errorf("%w: breakpoint triple collapses at (%g, %g)", ErrIllConditioned, site.X, site.Y)
		}
		hb := bx*bx + by*by
		hc := cx*cx + cy*cy
		vertex := s.d.FinalizeVertex(geom.Point{
			X: (cy*hb-by*hc)/det + ax,
			Y: (bx*hc-cx*hb)/det + ay,
		})

		s.d.SetEdgeStart(rArc.edge, lArc.face, rArc.face, vertex)

		newArc.edge = s.d.BeginEdge(lArc.face, newArc.face)
		s.d.SetEdgeEnd(newArc.edge, lArc.face, newArc.face, vertex)

		rArc.edge = s.d.BeginEdge(newArc.face, rArc.face)
		s.d.SetEdgeEnd(rArc.edge, newArc.face, rArc.face, vertex)

		s.attachCircle(lArc)
		s.attachCircle(rArc)
		return nil
	}
}

// removeArc handles a valid circle event: the arc shrinks to a point,
// a diagram vertex is finalized there and the neighbors meet. Arcs
// whose own circle events coincide with this one (cocircular sites)
// collapse in the same step.
func (s *sweeper) removeArc(ev *event) {
	bs := ev.arc
	x := ev.x
	y := ev.center.Y
	vertex := s.d.FinalizeVertex(ev.center)

	prev := bs.prev
	next := bs.next
	collapsing := []*arc{bs}
	s.detachArc(bs)

	lArc := prev
	for lArc.event != nil &&
		math.Abs(x-lArc.event.x) < geom.Epsilon &&
		math.Abs(y-lArc.event.center.Y) < geom.Epsilon {
		prev = lArc.prev
		collapsing = append([]*arc{lArc}, collapsing...)
		s.detachArc(lArc)
		lArc = prev
	}
	collapsing = append([]*arc{lArc}, collapsing...)
	s.detachCircle(lArc)

	rArc := next
	for rArc.event != nil &&
		math.Abs(x-rArc.event.x) < geom.Epsilon &&
		math.Abs(y-rArc.event.center.Y) < geom.Epsilon {
		next = rArc.next
		collapsing = append(collapsing, rArc)
		s.detachArc(rArc)
		rArc = next
	}
	collapsing = append(collapsing, rArc)
	s.detachCircle(rArc)

	// every disappearing breakpoint's edge ends at the new vertex
	for i := 1; i < len(collapsing); i++ {
		right := collapsing[i]
		left := collapsing[i-1]
		s.d.SetEdgeStart(right.edge, left.face, right.face, vertex)
	}

	// the surviving neighbors start tracing a fresh breakpoint
	lArc = collapsing[0]
	rArc = collapsing[len(collapsing)-1]
	rArc.edge = s.d.BeginEdge(lArc.face, rArc.face)
	s.d.SetEdgeEnd(rArc.edge, lArc.face, rArc.face, vertex)

	s.attachCircle(lArc)
	s.attachCircle(rArc)
}

// detachArc removes an arc from the beachline along with its pending
// circle event.
func (s *sweeper) detachArc(a *arc) {
	s.detachCircle(a)
	s.beach.remove(a)
}

// detachCircle invalidates the arc's scheduled circle event, if any.
func (s *sweeper) detachCircle(a *arc) {
	if a.event != nil {
		s.queue.invalidate(a.event)
		a.event = nil
	}
}

// attachCircle schedules a circle event for the arc if its neighbor
// triple converges. The event fires when the sweep reaches the bottom
// of the circumcircle.
func (s *sweeper) attachCircle(a *arc) {
	l, r := a.prev, a.next
	if l == nil || r == nil {
		return
	}
	if l.site == r.site {
		return
	}
	center, radius, ok := geom.Circumcircle(l.site, a.site, r.site)
	if !ok {
		return
	}
	ev := &event{
		kind:   circleEvent,
		x:      center.X,
		y:      center.Y + radius,
		center: center,
		radius: radius,
		arc:    a,
		valid:  true,
	}
	a.event = ev
	s.queue.push(ev)
}
