package voronoi

import (
	"math"

	"github.com/0x0FACED/go-voronoi/pkg/dcel"
	"github.com/0x0FACED/go-voronoi/pkg/geom"
)

// arc is one parabolic section of the beachline and at the same time a
// node of the red-black tree that orders the beachline. prev/next
// thread the arcs in beachline order so neighbor queries are O(1).
type arc struct {
	site geom.Point
	face dcel.FaceID

	// edge traced by the breakpoint at this arc's left end
	edge dcel.EdgeID
	// currently scheduled circle event, nil if none
	event *event

	left, right, parent *arc
	prev, next          *arc
	red                 bool
}

// beachline is a red-black tree of arcs. There is no stored key:
// ordering is decided by breakpoint positions recomputed against the
// current sweep line on every comparison, so positions are found by
// search (locate) and nodes are inserted relative to a neighbor.
type beachline struct {
	root *arc
}

// leftBreakpointX is the x-position of the breakpoint at the left end
// of a, for the given sweep position. -Inf at the beachline's left
// end.
func leftBreakpointX(a *arc, sweepY float64) float64 {
	if a.site.Y == sweepY {
		return a.site.X
	}
	if a.prev == nil {
		return math.Inf(-1)
	}
	return geom.BreakpointX(a.prev.site, a.site, sweepY)
}

// rightBreakpointX is the breakpoint at the right end of a; +Inf at
// the beachline's right end.
func rightBreakpointX(a *arc, sweepY float64) float64 {
	if a.next != nil {
		return leftBreakpointX(a.next, sweepY)
	}
	if a.site.Y == sweepY {
		return a.site.X
	}
	return math.Inf(1)
}

// locate finds the arcs around x at the given sweep position. It
// returns (a, a) when x falls strictly inside arc a, (a, b) with
// adjacent arcs when x coincides with their breakpoint, and a nil side
// at the beachline ends.
func (b *beachline) locate(x, sweepY float64) (lArc, rArc *arc) {
	node := b.root
	for node != nil {
		dxl := leftBreakpointX(node, sweepY) - x
		if dxl > geom.Epsilon {
			node = node.left
			continue
		}
		dxr := x - rightBreakpointX(node, sweepY)
		if dxr > geom.Epsilon {
			if node.right == nil {
				return node, nil
			}
			node = node.right
			continue
		}
		switch {
		case dxl > -geom.Epsilon:
			return node.prev, node
		case dxr > -geom.Epsilon:
			return node, node.next
		default:
			return node, node
		}
	}
	return nil, nil
}

// insertSuccessor inserts successor immediately after node in
// beachline order (or leftmost when node is nil) and rebalances.
func (b *beachline) insertSuccessor(node, successor *arc) {
	var parent *arc
	if node != nil {
		successor.prev = node
		successor.next = node.next
		if node.next != nil {
			node.next.prev = successor
		}
		node.next = successor
		if node.right != nil {
			node = node.right
			for node.left != nil {
				node = node.left
			}
			node.left = successor
		} else {
			node.right = successor
		}
		parent = node
	} else if b.root != nil {
		node = b.first(b.root)
		successor.prev = nil
		successor.next = node
		node.prev = successor
		node.left = successor
		parent = node
	} else {
		successor.prev = nil
		successor.next = nil
		b.root = successor
		parent = nil
	}
	successor.left = nil
	successor.right = nil
	successor.parent = parent
	successor.red = true

	var grandpa, uncle *arc
	node = successor
	for parent != nil && parent.red {
		grandpa = parent.parent
		if parent == grandpa.left {
			uncle = grandpa.right
			if uncle != nil && uncle.red {
				parent.red = false
				uncle.red = false
				grandpa.red = true
				node = grandpa
			} else {
				if node == parent.right {
					b.rotateLeft(parent)
					node = parent
					parent = node.parent
				}
				parent.red = false
				grandpa.red = true
				b.rotateRight(grandpa)
			}
		} else {
			uncle = grandpa.left
			if uncle != nil && uncle.red {
				parent.red = false
				uncle.red = false
				grandpa.red = true
				node = grandpa
			} else {
				if node == parent.left {
					b.rotateRight(parent)
					node = parent
					parent = node.parent
				}
				parent.red = false
				grandpa.red = true
				b.rotateLeft(grandpa)
			}
		}
		parent = node.parent
	}
	b.root.red = false
}

// remove unlinks node from the beachline and rebalances.
func (b *beachline) remove(node *arc) {
	if node.next != nil {
		node.next.prev = node.prev
	}
	if node.prev != nil {
		node.prev.next = node.next
	}
	node.next = nil
	node.prev = nil

	parent := node.parent
	left := node.left
	right := node.right
	var next *arc
	if left == nil {
		next = right
	} else if right == nil {
		next = left
	} else {
		next = b.first(right)
	}
	if parent != nil {
		if parent.left == node {
			parent.left = next
		} else {
			parent.right = next
		}
	} else {
		b.root = next
	}

	isRed := false
	if left != nil && right != nil {
		isRed = next.red
		next.red = node.red
		next.left = left
		left.parent = next
		if next != right {
			parent = next.parent
			next.parent = node.parent
			node = next.right
			parent.left = node
			next.right = right
			right.parent = next
		} else {
			next.parent = parent
			parent = next
			node = next.right
		}
	} else {
		isRed = node.red
		node = next
	}
	if node != nil {
		node.parent = parent
	}
	if isRed {
		return
	}
	if node != nil && node.red {
		node.red = false
		return
	}

	var sibling *arc
	for {
		if node == b.root {
			break
		}
		if node == parent.left {
			sibling = parent.right
			if sibling.red {
				sibling.red = false
				parent.red = true
				b.rotateLeft(parent)
				sibling = parent.right
			}
			if (sibling.left != nil && sibling.left.red) || (sibling.right != nil && sibling.right.red) {
				if sibling.right == nil || !sibling.right.red {
					sibling.left.red = false
					sibling.red = true
					b.rotateRight(sibling)
					sibling = parent.right
				}
				sibling.red = parent.red
				parent.red = false
				sibling.right.red = false
				b.rotateLeft(parent)
				node = b.root
				break
			}
		} else {
			sibling = parent.left
			if sibling.red {
				sibling.red = false
				parent.red = true
				b.rotateRight(parent)
				sibling = parent.left
			}
			if (sibling.left != nil && sibling.left.red) || (sibling.right != nil && sibling.right.red) {
				if sibling.left == nil || !sibling.left.red {
					sibling.right.red = false
					sibling.red = true
					b.rotateLeft(sibling)
					sibling = parent.left
				}
				sibling.red = parent.red
				parent.red = false
				sibling.left.red = false
				b.rotateRight(parent)
				node = b.root
				break
			}
		}
		sibling.red = true
		node = parent
		parent = parent.parent
		if node.red {
			break
		}
	}
	if node != nil {
		node.red = false
	}
}

func (b *beachline) rotateLeft(node *arc) {
	p := node
	q := node.right
	parent := p.parent
	if parent != nil {
		if parent.left == p {
			parent.left = q
		} else {
			parent.right = q
		}
	} else {
		b.root = q
	}
	q.parent = parent
	p.parent = q
	p.right = q.left
	if p.right != nil {
		p.right.parent = p
	}
	q.left = p
}

func (b *beachline) rotateRight(node *arc) {
	p := node
	q := node.left
	parent := p.parent
	if parent != nil {
		if parent.left == p {
			parent.left = q
		} else {
			parent.right = q
		}
	} else {
		b.root = q
	}
	q.parent = parent
	p.parent = q
	p.left = q.right
	if p.left != nil {
		p.left.parent = p
	}
	q.right = p
}

func (b *beachline) first(node *arc) *arc {
	for node.left != nil {
		node = node.left
	}
	return node
}
