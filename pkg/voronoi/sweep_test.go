package voronoi

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0FACED/go-voronoi/pkg/dcel"
	"github.com/0x0FACED/go-voronoi/pkg/geom"
)

// interiorEdges returns one handle per edge pair whose both cells are
// site cells.
func interiorEdges(d *dcel.DCEL) []dcel.EdgeID {
	var out []dcel.EdgeID
	for _, e := range d.Edges() {
		if e%2 != 0 {
			continue
		}
		if d.Halfedge(e).Face != dcel.OuterFace && d.Halfedge(d.Twin(e)).Face != dcel.OuterFace {
			out = append(out, e)
		}
	}
	return out
}

func onBox(p geom.Point, bbox dcel.BoundingBox) bool {
	return math.Abs(p.X-bbox.Xl) < 1e-9 || math.Abs(p.X-bbox.Xr) < 1e-9 ||
		math.Abs(p.Y-bbox.Yt) < 1e-9 || math.Abs(p.Y-bbox.Yb) < 1e-9
}

// canonicalSegments renders the diagram's segments in an order and
// precision independent of construction history.
func canonicalSegments(d *dcel.DCEL) []string {
	r := func(v float64) float64 { return math.Round(v*1e6) / 1e6 }
	segs := d.Segments()
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		a, b := s[0], s[1]
		if a.X > b.X || (a.X == b.X && a.Y > b.Y) {
			a, b = b, a
		}
		out = append(out, fmt.Sprintf("%v,%v-%v,%v", r(a.X), r(a.Y), r(b.X), r(b.Y)))
	}
	sort.Strings(out)
	return out
}

func eulerOK(t *testing.T, d *dcel.DCEL) {
	t.Helper()
	assert.Equal(t, 2, d.NumVertices()-d.NumEdges()+d.NumFaces(),
		"V=%d E=%d F=%d", d.NumVertices(), d.NumEdges(), d.NumFaces())
}

func TestTwoSites(t *testing.T) {
	sites := []geom.Point{{X: 0, Y: 0}, {X: 2, Y: 0}}
	bbox := dcel.NewBoundingBox(-1, 3, -1, 1)

	d, err := Build(sites, bbox, nil)
	require.NoError(t, err)
	require.NoError(t, d.Validate())

	assert.Equal(t, 6, d.NumVertices())
	assert.Equal(t, 7, d.NumEdges())
	assert.Equal(t, 3, d.NumFaces())
	eulerOK(t, d)

	inner := interiorEdges(d)
	require.Len(t, inner, 1)
	e := inner[0]
	a := d.VertexPos(d.Halfedge(e).Origin)
	b := d.VertexPos(d.Halfedge(d.Twin(e)).Origin)
	assert.InDelta(t, 1.0, a.X, 1e-9)
	assert.InDelta(t, 1.0, b.X, 1e-9)
	assert.InDelta(t, 2.0, math.Abs(a.Y-b.Y), 1e-9)

	for _, v := range d.Vertices() {
		assert.True(t, onBox(d.VertexPos(v), bbox), "vertex %v should sit on the box", d.VertexPos(v))
	}
}

func TestSquareSites(t *testing.T) {
	sites := []geom.Point{
		{X: -1, Y: -1}, {X: 1, Y: -1},
		{X: -1, Y: 1}, {X: 1, Y: 1},
	}
	bbox := dcel.NewBoundingBox(-2, 2, -2, 2)

	d, err := Build(sites, bbox, nil)
	require.NoError(t, err)
	require.NoError(t, d.Validate())

	assert.Equal(t, 9, d.NumVertices())
	assert.Equal(t, 12, d.NumEdges())
	assert.Equal(t, 5, d.NumFaces())
	eulerOK(t, d)

	var center []geom.Point
	for _, v := range d.Vertices() {
		if p := d.VertexPos(v); !onBox(p, bbox) {
			center = append(center, p)
		}
	}
	require.Len(t, center, 1, "cocircular sites should meet in a single vertex")
	assert.InDelta(t, 0.0, center[0].X, 1e-9)
	assert.InDelta(t, 0.0, center[0].Y, 1e-9)

	assert.Len(t, interiorEdges(d), 4)
}

func TestCollinearSites(t *testing.T) {
	sites := []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	bbox := dcel.NewBoundingBox(-1, 3, -1, 1)

	d, err := Build(sites, bbox, nil)
	require.NoError(t, err)
	require.NoError(t, d.Validate())

	assert.Equal(t, 4, d.NumFaces())
	eulerOK(t, d)

	inner := interiorEdges(d)
	require.Len(t, inner, 2)
	var xs []float64
	for _, e := range inner {
		a := d.VertexPos(d.Halfedge(e).Origin)
		b := d.VertexPos(d.Halfedge(d.Twin(e)).Origin)
		require.InDelta(t, a.X, b.X, 1e-9, "collinear sites separate along vertical bisectors")
		xs = append(xs, a.X)
	}
	sort.Float64s(xs)
	assert.InDelta(t, 0.5, xs[0], 1e-9)
	assert.InDelta(t, 1.5, xs[1], 1e-9)

	for _, v := range d.Vertices() {
		assert.True(t, onBox(d.VertexPos(v), bbox))
	}
}

func TestSingleSite(t *testing.T) {
	bbox := dcel.NewBoundingBox(-2, 2, -2, 2)
	d, err := Build([]geom.Point{{X: 0.5, Y: -0.25}}, bbox, nil)
	require.NoError(t, err)
	require.NoError(t, d.Validate())

	assert.Equal(t, 4, d.NumVertices())
	assert.Equal(t, 4, d.NumEdges())
	assert.Equal(t, 2, d.NumFaces())
	eulerOK(t, d)

	faces := d.SiteFaces()
	require.Len(t, faces, 1)
	poly := d.FacePolygon(faces[0])
	require.Len(t, poly, 4)
	area := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		area += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	assert.InDelta(t, 16.0, math.Abs(area)/2, 1e-9, "the lone cell covers the whole box")
}

func TestEmptyInput(t *testing.T) {
	d, err := Build(nil, dcel.NewBoundingBox(0, 1, 0, 1), nil)
	require.NoError(t, err)
	assert.True(t, d.Closed())
	assert.Zero(t, d.NumEdges())
	assert.Zero(t, d.NumVertices())
}

func TestDuplicateSites(t *testing.T) {
	sites := []geom.Point{{X: 1, Y: 2}, {X: 0, Y: 0}, {X: 1, Y: 2}}
	_, err := Build(sites, dcel.NewBoundingBox(-5, 5, -5, 5), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateSite))
}

func TestNearCoincidentSites(t *testing.T) {
	// closer than the geometric tolerance but not exactly equal:
	// breakpoint ordering is unresolvable, so the input is rejected
	// instead of crashing the sweep
	cases := [][]geom.Point{
		{{X: 0, Y: 0}, {X: 5e-10, Y: 0}},
		{{X: 0, Y: 0}, {X: 0, Y: 5e-10}},
		{{X: 1, Y: 1}, {X: 3, Y: 2}, {X: 1 + 2e-10, Y: 1 + 2e-10}},
	}
	for _, sites := range cases {
		d, err := Build(sites, dcel.NewBoundingBox(-5, 5, -5, 5), nil)
		require.Error(t, err, "sites %v", sites)
		assert.True(t, errors.Is(err, ErrIllConditioned), "sites %v: %v", sites, err)
		assert.Nil(t, d)
	}
}

func TestInsertArcRejectsBeachlineCollision(t *testing.T) {
	s := &sweeper{d: dcel.New(), faces: make(map[geom.Point]dcel.FaceID)}

	first := geom.Point{X: 0, Y: 0}
	s.faces[first] = s.d.AddFace(first)
	require.NoError(t, s.insertArc(first))

	// a site grazing the lone arc's left end finds no arc to split
	near := geom.Point{X: 5e-10, Y: 0}
	s.faces[near] = s.d.AddFace(near)
	err := s.insertArc(near)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllConditioned))
}

func TestRandomSitesProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sites := make([]geom.Point, 0, 40)
	for len(sites) < 40 {
		sites = append(sites, geom.Point{X: rng.Float64() * 10, Y: rng.Float64() * 10})
	}
	bbox := dcel.NewBoundingBox(0, 10, 0, 10)

	d, err := Build(sites, bbox, nil)
	require.NoError(t, err)
	require.NoError(t, d.Validate())

	assert.Equal(t, 41, d.NumFaces())
	eulerOK(t, d)

	// every interior vertex is the circumcenter of at least three sites
	for _, v := range d.Vertices() {
		p := d.VertexPos(v)
		if onBox(p, bbox) {
			continue
		}
		min := math.Inf(1)
		for _, s := range sites {
			if dist := p.Dist(s); dist < min {
				min = dist
			}
		}
		nearest := 0
		for _, s := range sites {
			if p.Dist(s) < min+1e-6 {
				nearest++
			}
		}
		assert.GreaterOrEqual(t, nearest, 3, "vertex %v", p)
	}

	// interior edges lie on the bisector of their two cells' sites
	for _, e := range interiorEdges(d) {
		a := d.VertexPos(d.Halfedge(e).Origin)
		b := d.VertexPos(d.Halfedge(d.Twin(e)).Origin)
		mid := geom.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
		sl := d.FaceSite(d.Halfedge(e).Face)
		sr := d.FaceSite(d.Halfedge(d.Twin(e)).Face)
		assert.InDelta(t, mid.Dist(sl), mid.Dist(sr), 1e-6)
	}
}

func TestPermutationInvariance(t *testing.T) {
	sites := []geom.Point{
		{X: 1, Y: 7}, {X: 4, Y: 2}, {X: 8, Y: 5},
		{X: 3, Y: 9}, {X: 6, Y: 6}, {X: 9, Y: 1},
		{X: 2, Y: 3}, {X: 7, Y: 8},
	}
	bbox := dcel.NewBoundingBox(0, 10, 0, 10)

	d1, err := Build(sites, bbox, nil)
	require.NoError(t, err)

	shuffled := make([]geom.Point, len(sites))
	copy(shuffled, sites)
	rand.New(rand.NewSource(3)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	d2, err := Build(shuffled, bbox, nil)
	require.NoError(t, err)

	assert.Equal(t, canonicalSegments(d1), canonicalSegments(d2))
}

func TestDeterminism(t *testing.T) {
	sites := []geom.Point{
		{X: 2.5, Y: 1.5}, {X: 7.1, Y: 3.3}, {X: 4.4, Y: 8.2},
		{X: 1.9, Y: 6.6}, {X: 8.8, Y: 7.7},
	}
	bbox := dcel.NewBoundingBox(0, 10, 0, 10)

	d1, err := Build(sites, bbox, nil)
	require.NoError(t, err)
	d2, err := Build(sites, bbox, nil)
	require.NoError(t, err)

	require.Equal(t, d1.Segments(), d2.Segments())
}

func TestGridSites(t *testing.T) {
	var sites []geom.Point
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			sites = append(sites, geom.Point{X: float64(x), Y: float64(y)})
		}
	}
	bbox := dcel.NewBoundingBox(-1, 3, -1, 3)

	d, err := Build(sites, bbox, nil)
	require.NoError(t, err)
	require.NoError(t, d.Validate())

	assert.Equal(t, 10, d.NumFaces())
	eulerOK(t, d)

	var inner []geom.Point
	for _, v := range d.Vertices() {
		if p := d.VertexPos(v); !onBox(p, bbox) {
			inner = append(inner, p)
		}
	}
	require.Len(t, inner, 4, "grid quadruples should each yield one vertex")
	for _, p := range inner {
		assert.InDelta(t, 0.5, math.Abs(math.Mod(p.X, 1)), 1e-9)
		assert.InDelta(t, 0.5, math.Abs(math.Mod(p.Y, 1)), 1e-9)
	}

	assert.Len(t, interiorEdges(d), 12)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	sites := []geom.Point{{X: 3, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 0}}
	orig := make([]geom.Point, len(sites))
	copy(orig, sites)

	_, err := Build(sites, dcel.NewBoundingBox(0, 4, -1, 3), nil)
	require.NoError(t, err)
	assert.Equal(t, orig, sites)
}
