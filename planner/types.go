package planner

import "fmt"

// Cell is a grid index pair. (0,0) is the corner at minimum x / maximum y.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// less orders cells lexicographically on (x, y)
func (c Cell) less(o Cell) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Y < o.Y
}

// Point is a physical field coordinate in millimeters, origin at field center, +Y up
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Obstacles is the blocked-cell set consumed by the search
type Obstacles interface {
	Contains(c Cell) bool
}

// CellSet is a sparse set of cells
type CellSet map[Cell]struct{}

// NewCellSet creates a set holding the given cells
func NewCellSet(cells ...Cell) CellSet {
	s := make(CellSet, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts a cell
func (s CellSet) Add(c Cell) {
	s[c] = struct{}{}
}

// Contains reports whether c is in the set
func (s CellSet) Contains(c Cell) bool {
	_, ok := s[c]
	return ok
}

// Layer is a dense N×N occupancy bitmap
type Layer struct {
	n     int
	cells []bool
	count int
}

// NewLayer creates an empty layer for an n×n grid
func NewLayer(n int) *Layer {
	return &Layer{n: n, cells: make([]bool, n*n)}
}

// Size returns the grid dimension N
func (l *Layer) Size() int {
	return l.n
}

// Contains reports whether c is occupied. Out-of-range cells are never occupied.
func (l *Layer) Contains(c Cell) bool {
	if l == nil || c.X < 0 || c.Y < 0 || c.X >= l.n || c.Y >= l.n {
		return false
	}
	return l.cells[c.Y*l.n+c.X]
}

// Len returns the number of occupied cells
func (l *Layer) Len() int {
	if l == nil {
		return 0
	}
	return l.count
}

// Empty reports whether no cell is occupied
func (l *Layer) Empty() bool {
	return l.Len() == 0
}

// Cells returns occupied cells in row-major order
func (l *Layer) Cells() []Cell {
	if l == nil {
		return nil
	}
	out := make([]Cell, 0, l.count)
	for i, occ := range l.cells {
		if occ {
			out = append(out, Cell{X: i % l.n, Y: i / l.n})
		}
	}
	return out
}

// Equal reports whether two layers have the same size and occupancy
func (l *Layer) Equal(o *Layer) bool {
	if l.n != o.n || l.count != o.count {
		return false
	}
	for i := range l.cells {
		if l.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

func (l *Layer) set(c Cell, occupied bool) {
	if c.X < 0 || c.Y < 0 || c.X >= l.n || c.Y >= l.n {
		return
	}
	i := c.Y*l.n + c.X
	if l.cells[i] == occupied {
		return
	}
	l.cells[i] = occupied
	if occupied {
		l.count++
	} else {
		l.count--
	}
}

func (l *Layer) clear() {
	for i := range l.cells {
		l.cells[i] = false
	}
	l.count = 0
}

// RouteStatus distinguishes "no route" from "not yet computed"
type RouteStatus int

const (
	// RouteNotComputed means no search has run yet or the route was dropped
	// by ClearRouteAndWaypoints; nothing is known about feasibility.
	RouteNotComputed RouteStatus = iota
	// RouteNone means a search ran and produced no route: an endpoint is
	// missing or blocked, or no collision-free path exists.
	RouteNone
	// RouteFound means the current route is a valid collision-free path
	RouteFound
)

func (s RouteStatus) String() string {
	switch s {
	case RouteNone:
		return "none"
	case RouteFound:
		return "found"
	default:
		return "not_computed"
	}
}
