package planner

import (
	"fmt"
	"math"
)

// Grid converts between physical field coordinates (mm) and grid cells.
// The field is square and centered on the origin; grid rows grow downward
// while physical Y grows upward.
type Grid struct {
	fieldSize float64
	cellSize  float64
	n         int
}

// NewGrid creates a mapper for a square field of fieldSize mm split into
// cells of cellSize mm. The grid dimension is floor(fieldSize / cellSize).
func NewGrid(fieldSize, cellSize float64) (Grid, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return Grid{}, fmt.Errorf("cell size must be positive, got %g", cellSize)
	}
	if fieldSize <= 0 || math.IsNaN(fieldSize) || math.IsInf(fieldSize, 0) {
		return Grid{}, fmt.Errorf("field size must be positive, got %g", fieldSize)
	}
	n := int(math.Floor(fieldSize / cellSize))
	if n < 1 {
		return Grid{}, fmt.Errorf("field size %g smaller than cell size %g", fieldSize, cellSize)
	}
	return Grid{fieldSize: fieldSize, cellSize: cellSize, n: n}, nil
}

// Size returns N, the number of cells per side
func (g Grid) Size() int { return g.n }

// CellSize returns the cell side length in mm
func (g Grid) CellSize() float64 { return g.cellSize }

// FieldSize returns the field side length in mm
func (g Grid) FieldSize() float64 { return g.fieldSize }

// InBounds reports whether c lies inside [0, N)²
func (g Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.n && c.Y < g.n
}

// Clamp moves each component of c into [0, N-1]
func (g Grid) Clamp(c Cell) Cell {
	return Cell{X: clampInt(c.X, 0, g.n-1), Y: clampInt(c.Y, 0, g.n-1)}
}

// GPSToGrid returns the cell containing (x, y). Out-of-field input is clamped
// to the nearest edge cell; this never fails.
func (g Grid) GPSToGrid(x, y float64) Cell {
	half := g.fieldSize / 2
	gx := floorToInt((x + half) / g.cellSize)
	gy := floorToInt((half - y) / g.cellSize)
	return Cell{X: clampInt(gx, 0, g.n-1), Y: clampInt(gy, 0, g.n-1)}
}

// PointToGrid is GPSToGrid for a Point
func (g Grid) PointToGrid(p Point) Cell {
	return g.GPSToGrid(p.X, p.Y)
}

// GridToGPS returns the physical center of c
func (g Grid) GridToGPS(c Cell) Point {
	half := g.fieldSize / 2
	return Point{
		X: (float64(c.X)+0.5)*g.cellSize - half,
		Y: half - (float64(c.Y)+0.5)*g.cellSize,
	}
}

// floorToInt floors v and saturates NaN/Inf so clamping stays well defined
func floorToInt(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Floor(v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
