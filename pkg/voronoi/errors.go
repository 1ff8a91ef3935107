package voronoi

import "errors"

var (
	// ErrDuplicateSite reports two exactly coincident input sites.
	// Breakpoint ordering on the beachline is undefined for them, so
	// the input is rejected before the sweep starts.
	ErrDuplicateSite = errors.New("voronoi: duplicate site")

	// ErrIllConditioned reports input whose geometry is too degenerate
	// to resolve within tolerance (a breakpoint triple collapsing onto
	// a line, or a sweep that exceeds its event budget).
	ErrIllConditioned = errors.New("voronoi: ill-conditioned input")
)
