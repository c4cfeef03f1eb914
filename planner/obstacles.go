package planner

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ObstacleField holds the declared (base) obstacle layer and the inflated
// layer derived from it. Mutators only touch base; Inflated is trusted only
// after RebuildInflated has run since the last base change.
type ObstacleField struct {
	grid            Grid
	collisionRadius float64
	base            *Layer
	inflated        *Layer
	stale           bool
}

// NewObstacleField creates an empty field. collisionRadius is the robot
// radius plus safety margin and must not be negative.
func NewObstacleField(g Grid, collisionRadius float64) (*ObstacleField, error) {
	if collisionRadius < 0 || math.IsNaN(collisionRadius) || math.IsInf(collisionRadius, 0) {
		return nil, fmt.Errorf("collision radius must be non-negative, got %g", collisionRadius)
	}
	return &ObstacleField{
		grid:            g,
		collisionRadius: collisionRadius,
		base:            NewLayer(g.Size()),
		inflated:        NewLayer(g.Size()),
	}, nil
}

// Grid returns the field's coordinate mapper
func (f *ObstacleField) Grid() Grid { return f.grid }

// CollisionRadius returns the inflation radius in mm
func (f *ObstacleField) CollisionRadius() float64 { return f.collisionRadius }

// Base returns the declared obstacle layer. Callers must not modify it.
func (f *ObstacleField) Base() *Layer { return f.base }

// Inflated returns the inflated layer as of the last rebuild
func (f *ObstacleField) Inflated() *Layer { return f.inflated }

// Stale reports whether base changed since the last RebuildInflated
func (f *ObstacleField) Stale() bool { return f.stale }

// SetCell marks or clears a single base cell. Out-of-range cells are ignored.
func (f *ObstacleField) SetCell(c Cell, occupied bool) {
	if !f.grid.InBounds(c) {
		return
	}
	if f.base.Contains(c) != occupied {
		f.base.set(c, occupied)
		f.stale = true
	}
}

// AddRect marks every cell whose center lies inside the axis-aligned
// rectangle (inclusive) centered on center.
func (f *ObstacleField) AddRect(center Point, width, height float64) {
	if width < 0 || height < 0 {
		return
	}
	bound := orb.Bound{
		Min: orb.Point{center.X - width/2, center.Y - height/2},
		Max: orb.Point{center.X + width/2, center.Y + height/2},
	}
	// Corner cells bound the scan; GPSToGrid clamps so the window stays in range.
	a := f.grid.GPSToGrid(bound.Min[0], bound.Max[1])
	b := f.grid.GPSToGrid(bound.Max[0], bound.Min[1])
	for gy := a.Y; gy <= b.Y; gy++ {
		for gx := a.X; gx <= b.X; gx++ {
			c := Cell{X: gx, Y: gy}
			p := f.grid.GridToGPS(c)
			if bound.Contains(orb.Point{p.X, p.Y}) {
				f.mark(c)
			}
		}
	}
}

// AddDisk marks every cell whose center lies within radius of center
func (f *ObstacleField) AddDisk(center Point, radius float64) {
	if radius < 0 || math.IsNaN(radius) {
		return
	}
	f.forDisk(center, radius, f.mark)
}

// AddEdgeMargin marks every cell whose center lies within margin of any
// field boundary.
func (f *ObstacleField) AddEdgeMargin(margin float64) {
	if margin < 0 {
		return
	}
	half := f.grid.FieldSize() / 2
	n := f.grid.Size()
	for gy := 0; gy < n; gy++ {
		for gx := 0; gx < n; gx++ {
			c := Cell{X: gx, Y: gy}
			p := f.grid.GridToGPS(c)
			if p.X+half <= margin || half-p.X <= margin ||
				p.Y+half <= margin || half-p.Y <= margin {
				f.mark(c)
			}
		}
	}
}

// Clear empties the base layer
func (f *ObstacleField) Clear() {
	if f.base.Empty() {
		return
	}
	f.base.clear()
	f.stale = true
}

// RebuildInflated recomputes the inflated layer from scratch: the union of
// disks of collisionRadius centered on every base cell's center, sampled at
// cell centers. Obstacles thinner than a cell can leave gaps of up to C/2;
// that is the defined behavior.
func (f *ObstacleField) RebuildInflated() {
	inflated := NewLayer(f.grid.Size())
	mark := func(c Cell) { inflated.set(c, true) }
	for _, c := range f.base.Cells() {
		f.forDisk(f.grid.GridToGPS(c), f.collisionRadius, mark)
	}
	f.inflated = inflated
	f.stale = false
}

func (f *ObstacleField) mark(c Cell) {
	if !f.base.Contains(c) {
		f.base.set(c, true)
		f.stale = true
	}
}

// forDisk visits every in-grid cell whose center is within radius of center.
// The scan is limited to a window of ceil(radius/C) cells around center's
// cell, clipped to the grid.
func (f *ObstacleField) forDisk(center Point, radius float64, visit func(Cell)) {
	n := f.grid.Size()
	origin := f.grid.PointToGrid(center)
	// Capped before the int conversion; no disk needs more than n cells of reach.
	wf := math.Ceil(radius / f.grid.CellSize())
	if wf > float64(n) {
		wf = float64(n)
	}
	w := int(wf)
	minX, maxX := max(origin.X-w, 0), min(origin.X+w, n-1)
	minY, maxY := max(origin.Y-w, 0), min(origin.Y+w, n-1)

	r2 := radius * radius
	cp := orb.Point{center.X, center.Y}
	for gy := minY; gy <= maxY; gy++ {
		for gx := minX; gx <= maxX; gx++ {
			c := Cell{X: gx, Y: gy}
			p := f.grid.GridToGPS(c)
			if planar.DistanceSquared(cp, orb.Point{p.X, p.Y}) <= r2 {
				visit(c)
			}
		}
	}
}
