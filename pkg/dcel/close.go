package dcel

import (
	"fmt"
	"math"
	"sort"

	"github.com/0x0FACED/go-voronoi/pkg/geom"
)

// BoundingBox is the clipping viewport. Yt is the top side (smaller
// y), Yb the bottom.
type BoundingBox struct {
	Xl, Xr, Yt, Yb float64
}

func NewBoundingBox(xl, xr, yt, yb float64) BoundingBox {
	return BoundingBox{xl, xr, yt, yb}
}

// CloseDiagram clips every edge to the bounding box, extends the ones
// still missing an endpoint, closes each face with border edges along
// the box and wires the Origin/Next/Prev cycles. After it returns the
// diagram is terminal: every face boundary is a single closed cycle
// and the outer face traverses the box in the opposite direction.
func (d *DCEL) CloseDiagram(bbox BoundingBox) error {
	if d.closed {
		return fmt.Errorf("dcel: diagram already closed")
	}
	d.connectAndClip(bbox)
	if err := d.closeFaces(bbox); err != nil {
		return err
	}
	if err := d.wire(); err != nil {
		return err
	}
	d.closed = true
	return nil
}

// connectAndClip finishes the geometry of every pair: unset endpoints
// are pushed out along the bisector to the box, then the segment is
// clipped (Liang-Barsky). Pairs that miss the box or collapse to a
// point are dropped.
func (d *DCEL) connectAndClip(bbox BoundingBox) {
	for pi := range d.pairs {
		p := &d.pairs[pi]
		synthesized := p.va == geom.NoPoint || p.vb == geom.NoPoint
		ok := d.connectPair(p, bbox)
		var truncated bool
		if ok {
			ok, truncated = clipPair(p, bbox)
		}
		if !ok || (geom.Equal(p.va.X, p.vb.X) && geom.Equal(p.va.Y, p.vb.Y)) {
			p.va = geom.NoPoint
			p.vb = geom.NoPoint
			p.status = Dropped
			continue
		}
		if synthesized || truncated {
			p.status = Clipped
		} else {
			p.status = Bounded
		}
	}
}

// connectPair extends a pair with a missing second endpoint along the
// perpendicular bisector of its two sites until it leaves the
// viewport. Reports false when the bisector does not cross the box.
func (d *DCEL) connectPair(p *pair, bbox BoundingBox) bool {
	if p.vb != geom.NoPoint {
		return true
	}

	va := p.va
	xl, xr, yt, yb := bbox.Xl, bbox.Xr, bbox.Yt, bbox.Yb
	lSite := d.faces[p.left].Site
	rSite := d.faces[p.right].Site
	fx := (lSite.X + rSite.X) / 2
	fy := (lSite.Y + rSite.Y) / 2

	var fm, fb float64
	if !geom.Equal(rSite.Y, lSite.Y) {
		fm = (lSite.X - rSite.X) / (rSite.Y - lSite.Y)
		fb = fy - fm*fx
	}

	var vb geom.Point
	switch {
	case geom.Equal(rSite.Y, lSite.Y):
		// vertical bisector
		if fx < xl || fx >= xr {
			return false
		}
		if lSite.X > rSite.X {
			if va == geom.NoPoint {
				va = geom.Point{X: fx, Y: yt}
			} else if va.Y >= yb {
				return false
			}
			vb = geom.Point{X: fx, Y: yb}
		} else {
			if va == geom.NoPoint {
				va = geom.Point{X: fx, Y: yb}
			} else if va.Y < yt {
				return false
			}
			vb = geom.Point{X: fx, Y: yt}
		}
	case fm < -1 || fm > 1:
		// steep: leave through top or bottom
		if lSite.X > rSite.X {
			if va == geom.NoPoint {
				va = geom.Point{X: (yt - fb) / fm, Y: yt}
			} else if va.Y >= yb {
				return false
			}
			vb = geom.Point{X: (yb - fb) / fm, Y: yb}
		} else {
			if va == geom.NoPoint {
				va = geom.Point{X: (yb - fb) / fm, Y: yb}
			} else if va.Y < yt {
				return false
			}
			vb = geom.Point{X: (yt - fb) / fm, Y: yt}
		}
	default:
		// shallow: leave through left or right
		if lSite.Y < rSite.Y {
			if va == geom.NoPoint {
				va = geom.Point{X: xl, Y: fm*xl + fb}
			} else if va.X >= xr {
				return false
			}
			vb = geom.Point{X: xr, Y: fm*xr + fb}
		} else {
			if va == geom.NoPoint {
				va = geom.Point{X: xr, Y: fm*xr + fb}
			} else if va.X < xl {
				return false
			}
			vb = geom.Point{X: xl, Y: fm*xl + fb}
		}
	}
	p.va = va
	p.vb = vb
	return true
}

// clipPair clips the segment va-vb to the box. Reports whether any
// part survives and whether an endpoint moved.
func clipPair(p *pair, bbox BoundingBox) (ok, truncated bool) {
	ax, ay := p.va.X, p.va.Y
	bx, by := p.vb.X, p.vb.Y
	t0, t1 := 0.0, 1.0
	dx := bx - ax
	dy := by - ay

	// left
	q := ax - bbox.Xl
	if dx == 0 && q < 0 {
		return false, false
	}
	r := -q / dx
	if dx < 0 {
		if r < t0 {
			return false, false
		}
		if r < t1 {
			t1 = r
		}
	} else if dx > 0 {
		if r > t1 {
			return false, false
		}
		if r > t0 {
			t0 = r
		}
	}
	// right
	q = bbox.Xr - ax
	if dx == 0 && q < 0 {
		return false, false
	}
	r = q / dx
	if dx < 0 {
		if r > t1 {
			return false, false
		}
		if r > t0 {
			t0 = r
		}
	} else if dx > 0 {
		if r < t0 {
			return false, false
		}
		if r < t1 {
			t1 = r
		}
	}
	// top
	q = ay - bbox.Yt
	if dy == 0 && q < 0 {
		return false, false
	}
	r = -q / dy
	if dy < 0 {
		if r < t0 {
			return false, false
		}
		if r < t1 {
			t1 = r
		}
	} else if dy > 0 {
		if r > t1 {
			return false, false
		}
		if r > t0 {
			t0 = r
		}
	}
	// bottom
	q = bbox.Yb - ay
	if dy == 0 && q < 0 {
		return false, false
	}
	r = q / dy
	if dy < 0 {
		if r > t1 {
			return false, false
		}
		if r > t0 {
			t0 = r
		}
	} else if dy > 0 {
		if r < t0 {
			return false, false
		}
		if r < t1 {
			t1 = r
		}
	}

	if t0 > 0 {
		p.va = geom.Point{X: ax + t0*dx, Y: ay + t0*dy}
		truncated = true
	}
	if t1 < 1 {
		p.vb = geom.Point{X: ax + t1*dx, Y: ay + t1*dy}
		truncated = true
	}
	return true, truncated
}

// newBorderPair allocates an already-finished pair running va->vb with
// f on its left and the outer face on its right. The caller places it
// into f's boundary order itself.
func (d *DCEL) newBorderPair(f FaceID, va, vb geom.Point) int {
	pi := len(d.pairs)
	d.pairs = append(d.pairs, pair{
		left:   f,
		right:  OuterFace,
		va:     va,
		vb:     vb,
		status: Clipped,
	})
	return pi
}

// prepareFace filters the face's pair list down to live edges and
// orders it by the direction each edge faces, which for a convex cell
// is the boundary walk order.
func (d *DCEL) prepareFace(f FaceID) {
	face := &d.faces[f]
	kept := face.pairs[:0]
	for _, pi := range face.pairs {
		if d.pairs[pi].live() {
			kept = append(kept, pi)
		}
	}
	face.pairs = kept
	sort.SliceStable(face.pairs, func(i, j int) bool {
		return d.pairAngle(face.pairs[i], f) > d.pairAngle(face.pairs[j], f)
	})
}

// pairAngle is the direction from f's site toward the neighbor across
// the pair; border pairs use the edge normal instead.
func (d *DCEL) pairAngle(pi int, f FaceID) float64 {
	p := &d.pairs[pi]
	other := p.right
	if other == f {
		other = p.left
	}
	if other != OuterFace {
		os := d.faces[other].Site
		fs := d.faces[f].Site
		return math.Atan2(os.Y-fs.Y, os.X-fs.X)
	}
	s := d.pairStart(pi, f)
	e := d.pairEnd(pi, f)
	return math.Atan2(e.X-s.X, s.Y-e.Y)
}

// closeFaces walks every cell boundary and fills the gaps between
// consecutive edges with border pairs along the box sides. A diagram
// of a single site has no edges at all; its cell becomes the whole
// box.
func (d *DCEL) closeFaces(bbox BoundingBox) error {
	xl, xr, yt, yb := bbox.Xl, bbox.Xr, bbox.Yt, bbox.Yb

	for fi := 1; fi < len(d.faces); fi++ {
		f := FaceID(fi)
		d.prepareFace(f)
		face := &d.faces[fi]

		if len(face.pairs) == 0 {
			if len(d.faces) == 2 {
				d.ringFace(f, bbox)
			}
			continue
		}

		guard := 2*len(face.pairs) + 8
		for iLeft := 0; iLeft < len(face.pairs); iLeft++ {
			iRight := (iLeft + 1) % len(face.pairs)
			end := d.pairEnd(face.pairs[iLeft], f)
			start := d.pairStart(face.pairs[iRight], f)
			if geom.Equal(end.X, start.X) && geom.Equal(end.Y, start.Y) {
				continue
			}

			// endpoint dangles on the box border: walk one side
			// toward the next edge's start
			va := end
			var vb geom.Point
			switch {
			case geom.Equal(end.X, xl) && geom.LessThan(end.Y, yb):
				if geom.Equal(start.X, xl) {
					vb = geom.Point{X: xl, Y: start.Y}
				} else {
					vb = geom.Point{X: xl, Y: yb}
				}
			case geom.Equal(end.Y, yb) && geom.LessThan(end.X, xr):
				if geom.Equal(start.Y, yb) {
					vb = geom.Point{X: start.X, Y: yb}
				} else {
					vb = geom.Point{X: xr, Y: yb}
				}
			case geom.Equal(end.X, xr) && geom.GreaterThan(end.Y, yt):
				if geom.Equal(start.X, xr) {
					vb = geom.Point{X: xr, Y: start.Y}
				} else {
					vb = geom.Point{X: xr, Y: yt}
				}
			case geom.Equal(end.Y, yt) && geom.GreaterThan(end.X, xl):
				if geom.Equal(start.Y, yt) {
					vb = geom.Point{X: start.X, Y: yt}
				} else {
					vb = geom.Point{X: xl, Y: yt}
				}
			default:
				return fmt.Errorf("dcel: dangling endpoint (%g, %g) off the bounding box", end.X, end.Y)
			}

			pi := d.newBorderPair(f, va, vb)
			face.pairs = append(face.pairs, 0)
			copy(face.pairs[iLeft+2:], face.pairs[iLeft+1:len(face.pairs)-1])
			face.pairs[iLeft+1] = pi

			if guard--; guard < 0 {
				return fmt.Errorf("dcel: face %d does not close", fi)
			}
		}
	}
	return nil
}

// ringFace gives a lone cell the whole box as its boundary.
func (d *DCEL) ringFace(f FaceID, bbox BoundingBox) {
	corners := []geom.Point{
		{X: bbox.Xl, Y: bbox.Yt},
		{X: bbox.Xl, Y: bbox.Yb},
		{X: bbox.Xr, Y: bbox.Yb},
		{X: bbox.Xr, Y: bbox.Yt},
	}
	face := &d.faces[f]
	for i := range corners {
		pi := d.newBorderPair(f, corners[i], corners[(i+1)%4])
		face.pairs = append(face.pairs, pi)
	}
}

// wire materializes the half-edge records: origins, face assignment
// and the Next/Prev cycles of every cell and of the outer face.
func (d *DCEL) wire() error {
	d.halves = make([]HalfEdge, 2*len(d.pairs))
	for i := range d.halves {
		d.halves[i] = HalfEdge{
			Origin: NoVertex,
			Twin:   EdgeID(i ^ 1),
			Next:   NoEdge,
			Prev:   NoEdge,
			Face:   NoFace,
		}
	}

	for fi := 1; fi < len(d.faces); fi++ {
		f := FaceID(fi)
		face := &d.faces[fi]
		n := len(face.pairs)
		if n == 0 {
			continue
		}
		ids := make([]EdgeID, n)
		for k, pi := range face.pairs {
			e := EdgeID(2 * pi)
			if d.pairs[pi].left != f {
				e++
			}
			ids[k] = e
			h := &d.halves[e]
			h.Face = f
			v := d.FinalizeVertex(d.pairStart(pi, f))
			h.Origin = v
			if d.verts[v].Edge == NoEdge {
				d.verts[v].Edge = e
			}
		}
		for k := range ids {
			next := ids[(k+1)%n]
			d.halves[ids[k]].Next = next
			d.halves[next].Prev = ids[k]
		}
		face.Edge = ids[0]
	}

	// The outer boundary is the border pairs' twins, chained by
	// matching each twin's end to the next twin's origin.
	outerAt := make(map[vertexKey]EdgeID)
	var outer []EdgeID
	for pi := range d.pairs {
		p := &d.pairs[pi]
		if !p.live() || p.right != OuterFace {
			continue
		}
		e := EdgeID(2*pi + 1)
		h := &d.halves[e]
		h.Face = OuterFace
		v := d.FinalizeVertex(p.vb)
		h.Origin = v
		if d.verts[v].Edge == NoEdge {
			d.verts[v].Edge = e
		}
		outerAt[keyOf(p.vb)] = e
		outer = append(outer, e)
	}
	for _, e := range outer {
		p := &d.pairs[e/2]
		next, ok := outerAt[keyOf(p.va)]
		if !ok {
			return fmt.Errorf("dcel: outer boundary broken at (%g, %g)", p.va.X, p.va.Y)
		}
		d.halves[e].Next = next
		d.halves[next].Prev = e
	}
	if len(outer) > 0 {
		d.faces[OuterFace].Edge = outer[0]
	}
	return nil
}

// Validate checks the half-edge invariants of the closed diagram:
// twin symmetry, complete cycles, and destination consistency between
// a half-edge, its twin and its successor.
func (d *DCEL) Validate() error {
	if !d.closed {
		return fmt.Errorf("dcel: not closed")
	}
	for _, e := range d.Edges() {
		h := d.halves[e]
		if d.halves[h.Twin].Twin != e {
			return fmt.Errorf("dcel: edge %d twin asymmetry", e)
		}
		if h.Next == NoEdge || h.Prev == NoEdge || h.Face == NoFace || h.Origin == NoVertex {
			return fmt.Errorf("dcel: edge %d incomplete", e)
		}
		if d.halves[h.Next].Prev != e {
			return fmt.Errorf("dcel: edge %d next/prev mismatch", e)
		}
		if d.halves[h.Next].Face != h.Face {
			return fmt.Errorf("dcel: edge %d face changes along cycle", e)
		}
		if d.halves[h.Next].Origin != d.halves[h.Twin].Origin {
			return fmt.Errorf("dcel: edge %d destination mismatch", e)
		}
	}
	return nil
}
