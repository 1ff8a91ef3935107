// Package dcel implements a doubly-connected edge list for a planar
// subdivision. Vertices, half-edges and faces live in arenas and refer
// to each other through integer handles, so the twin/next/prev cycles
// carry no pointer ownership.
//
// The structure is built incrementally: the sweep allocates growing
// twin pairs with BeginEdge and pins diagram vertices with
// FinalizeVertex; CloseDiagram clips everything to a bounding box and
// wires the boundary cycles. Half-edge adjacency (Next, Prev, Origin)
// is observable only after CloseDiagram.
package dcel

import (
	"math"

	"github.com/0x0FACED/go-voronoi/pkg/geom"
)

type VertexID int
type EdgeID int
type FaceID int

const (
	NoVertex VertexID = -1
	NoEdge   EdgeID   = -1
	NoFace   FaceID   = -1

	// OuterFace is the face of the bounding box exterior.
	OuterFace FaceID = 0
)

// EdgeStatus tracks the lifecycle of an edge pair.
type EdgeStatus uint8

const (
	// Growing edges are still being traced by a beachline breakpoint.
	Growing EdgeStatus = iota
	// Bounded edges received both endpoints from circle events.
	Bounded
	// Clipped edges had at least one endpoint synthesized on the
	// bounding box.
	Clipped
	// Dropped edges fell entirely outside the box or collapsed to a
	// point; they keep their handle but are excluded from enumeration.
	Dropped
)

// Vertex is a finalized point of the subdivision. Edge is one
// half-edge whose origin is this vertex.
type Vertex struct {
	Pos  geom.Point
	Edge EdgeID
}

// HalfEdge is one direction of an edge. Its face lies to its left;
// Next and Prev walk that face's boundary cycle.
type HalfEdge struct {
	Origin VertexID
	Twin   EdgeID
	Next   EdgeID
	Prev   EdgeID
	Face   FaceID
}

// Face is one cell of the subdivision, built around Site. The face
// with ID OuterFace has no site (NoPoint).
type Face struct {
	Site geom.Point
	Edge EdgeID

	pairs []int
}

// pair is the shared state of two twin half-edges. Half-edge 2k runs
// va->vb with face left on its left, half-edge 2k+1 runs vb->va.
type pair struct {
	left   FaceID
	right  FaceID
	va, vb geom.Point
	status EdgeStatus
}

type DCEL struct {
	faces  []Face
	pairs  []pair
	verts  []Vertex
	halves []HalfEdge

	vertexIDs map[vertexKey]VertexID
	closed    bool
}

// Coordinates are quantized for vertex identity, so endpoints produced
// by independent computations collapse into one vertex.
type vertexKey struct {
	x, y int64
}

func keyOf(p geom.Point) vertexKey {
	return vertexKey{
		x: int64(math.Round(p.X / (2 * geom.Epsilon))),
		y: int64(math.Round(p.Y / (2 * geom.Epsilon))),
	}
}

// New returns an empty subdivision holding only the outer face.
func New() *DCEL {
	d := &DCEL{vertexIDs: make(map[vertexKey]VertexID)}
	d.faces = append(d.faces, Face{Site: geom.NoPoint, Edge: NoEdge})
	return d
}

// AddFace registers the cell of one site and returns its handle.
func (d *DCEL) AddFace(site geom.Point) FaceID {
	d.faces = append(d.faces, Face{Site: site, Edge: NoEdge})
	return FaceID(len(d.faces) - 1)
}

// BeginEdge allocates a growing twin pair on the bisector of the two
// faces' sites and returns the half-edge with left on its left. Both
// endpoints are unset.
func (d *DCEL) BeginEdge(left, right FaceID) EdgeID {
	pi := len(d.pairs)
	d.pairs = append(d.pairs, pair{
		left:  left,
		right: right,
		va:    geom.NoPoint,
		vb:    geom.NoPoint,
	})
	d.faces[left].pairs = append(d.faces[left].pairs, pi)
	d.faces[right].pairs = append(d.faces[right].pairs, pi)
	return EdgeID(2 * pi)
}

// FinalizeVertex creates (or finds) the diagram vertex at p.
func (d *DCEL) FinalizeVertex(p geom.Point) VertexID {
	k := keyOf(p)
	if v, ok := d.vertexIDs[k]; ok {
		return v
	}
	v := VertexID(len(d.verts))
	d.verts = append(d.verts, Vertex{Pos: p, Edge: NoEdge})
	d.vertexIDs[k] = v
	return v
}

// SetEdgeStart fixes v as the endpoint of e where the boundary between
// left and right starts. The first endpoint set on a pair also settles
// its orientation, so left/right may be passed in either order on
// later calls.
func (d *DCEL) SetEdgeStart(e EdgeID, left, right FaceID, v VertexID) {
	p := &d.pairs[e/2]
	pt := d.verts[v].Pos
	switch {
	case p.va == geom.NoPoint && p.vb == geom.NoPoint:
		p.va = pt
		p.left = left
		p.right = right
	case p.left == right:
		p.vb = pt
	default:
		p.va = pt
	}
}

// SetEdgeEnd fixes v as the endpoint where the boundary between left
// and right ends.
func (d *DCEL) SetEdgeEnd(e EdgeID, left, right FaceID, v VertexID) {
	d.SetEdgeStart(e, right, left, v)
}

// start and end of the given pair as seen from face f.
func (d *DCEL) pairStart(pi int, f FaceID) geom.Point {
	if d.pairs[pi].left == f {
		return d.pairs[pi].va
	}
	return d.pairs[pi].vb
}

func (d *DCEL) pairEnd(pi int, f FaceID) geom.Point {
	if d.pairs[pi].left == f {
		return d.pairs[pi].vb
	}
	return d.pairs[pi].va
}

func (p *pair) live() bool {
	return (p.status == Bounded || p.status == Clipped) &&
		p.va != geom.NoPoint && p.vb != geom.NoPoint
}

// Closed reports whether CloseDiagram has run.
func (d *DCEL) Closed() bool { return d.closed }

// Faces returns the handles of all faces with a boundary cycle, the
// outer face first when it has one.
func (d *DCEL) Faces() []FaceID {
	var out []FaceID
	for i := range d.faces {
		if d.faces[i].Edge != NoEdge {
			out = append(out, FaceID(i))
		}
	}
	return out
}

// SiteFaces returns the handles of all site cells, whether or not they
// received a boundary.
func (d *DCEL) SiteFaces() []FaceID {
	out := make([]FaceID, 0, len(d.faces)-1)
	for i := 1; i < len(d.faces); i++ {
		out = append(out, FaceID(i))
	}
	return out
}

func (d *DCEL) FaceSite(f FaceID) geom.Point { return d.faces[f].Site }
func (d *DCEL) FaceEdge(f FaceID) EdgeID     { return d.faces[f].Edge }

// Vertices returns the handles of all vertices referenced by the
// closed diagram.
func (d *DCEL) Vertices() []VertexID {
	var out []VertexID
	for i := range d.verts {
		if d.verts[i].Edge != NoEdge {
			out = append(out, VertexID(i))
		}
	}
	return out
}

func (d *DCEL) VertexPos(v VertexID) geom.Point { return d.verts[v].Pos }
func (d *DCEL) VertexEdge(v VertexID) EdgeID    { return d.verts[v].Edge }

// Edges returns the handles of all live half-edges, both directions of
// every edge.
func (d *DCEL) Edges() []EdgeID {
	var out []EdgeID
	for pi := range d.pairs {
		if d.pairs[pi].live() {
			out = append(out, EdgeID(2*pi), EdgeID(2*pi+1))
		}
	}
	return out
}

// Halfedge returns a copy of the half-edge record. Valid only after
// CloseDiagram.
func (d *DCEL) Halfedge(e EdgeID) HalfEdge { return d.halves[e] }

func (d *DCEL) Twin(e EdgeID) EdgeID { return e ^ 1 }

// EdgeStatus reports the lifecycle state of the pair owning e.
func (d *DCEL) EdgeStatus(e EdgeID) EdgeStatus { return d.pairs[e/2].status }

// NumVertices, NumEdges and NumFaces count the elements of the closed
// diagram; NumEdges counts twin pairs once. With the outer face
// included, V - E + F = 2 holds for a consistent diagram.
func (d *DCEL) NumVertices() int { return len(d.Vertices()) }

func (d *DCEL) NumEdges() int {
	n := 0
	for pi := range d.pairs {
		if d.pairs[pi].live() {
			n++
		}
	}
	return n
}

func (d *DCEL) NumFaces() int { return len(d.Faces()) }

// Segments returns one geometric segment per live edge pair, for
// plotting and persistence collaborators.
func (d *DCEL) Segments() [][2]geom.Point {
	var out [][2]geom.Point
	for pi := range d.pairs {
		if d.pairs[pi].live() {
			out = append(out, [2]geom.Point{d.pairs[pi].va, d.pairs[pi].vb})
		}
	}
	return out
}

// FacePolygon returns the face's boundary vertices in walk order.
// Faces without a boundary return nil.
func (d *DCEL) FacePolygon(f FaceID) []geom.Point {
	first := d.faces[f].Edge
	if first == NoEdge {
		return nil
	}
	var out []geom.Point
	for e := first; ; {
		out = append(out, d.verts[d.halves[e].Origin].Pos)
		e = d.halves[e].Next
		if e == first || e == NoEdge || len(out) > 2*len(d.pairs)+8 {
			break
		}
	}
	return out
}
