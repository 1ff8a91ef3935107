package voronoi

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0FACED/go-voronoi/pkg/geom"
)

func TestEventQueueSweepOrder(t *testing.T) {
	q := &eventQueue{}
	coords := [][2]float64{
		{3, 1}, {1, 2}, {2, 0}, {1, -4}, {0, 0}, {2, 5},
	}
	for _, c := range coords {
		q.push(&event{kind: siteEvent, y: c[0], x: c[1], valid: true})
	}

	var got [][2]float64
	for ev := q.popMin(); ev != nil; ev = q.popMin() {
		got = append(got, [2]float64{ev.y, ev.x})
	}
	want := [][2]float64{
		{0, 0}, {1, -4}, {1, 2}, {2, 0}, {2, 5}, {3, 1},
	}
	assert.Equal(t, want, got)
}

func TestEventQueueTieBreakBySequence(t *testing.T) {
	q := &eventQueue{}
	first := &event{kind: circleEvent, y: 1, x: 1, valid: true}
	second := &event{kind: circleEvent, y: 1, x: 1, valid: true}
	q.push(first)
	q.push(second)

	assert.Same(t, first, q.popMin())
	assert.Same(t, second, q.popMin())
}

func TestEventQueueLazyInvalidation(t *testing.T) {
	q := &eventQueue{}
	a := &arc{site: geom.Point{X: 1, Y: 1}}
	stale := &event{kind: circleEvent, y: 1, x: 0, arc: a, valid: true}
	live := &event{kind: circleEvent, y: 2, x: 0, valid: true}
	q.push(stale)
	q.push(live)

	q.invalidate(stale)
	assert.False(t, stale.valid)
	assert.Nil(t, stale.arc, "invalidation drops the arc back-reference")

	// the stale entry stays queued but is never returned
	got := q.popMin()
	require.NotNil(t, got)
	assert.Same(t, live, got)
	assert.Nil(t, q.popMin())
}

func TestEventQueueNeverReturnsStale(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	q := &eventQueue{}
	var all []*event
	for i := 0; i < 200; i++ {
		ev := &event{kind: circleEvent, y: rng.Float64(), x: rng.Float64(), valid: true}
		all = append(all, ev)
		q.push(ev)
	}
	for _, ev := range all {
		if rng.Intn(2) == 0 {
			q.invalidate(ev)
		}
	}

	prevY := -1.0
	n := 0
	for ev := q.popMin(); ev != nil; ev = q.popMin() {
		assert.True(t, ev.valid)
		assert.GreaterOrEqual(t, ev.y, prevY)
		prevY = ev.y
		n++
	}
	valid := 0
	for _, ev := range all {
		if ev.valid {
			valid++
		}
	}
	assert.Equal(t, valid, n)
}
