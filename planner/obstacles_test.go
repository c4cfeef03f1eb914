package planner

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestField(t *testing.T, fieldSize, cellSize, radius float64) *ObstacleField {
	t.Helper()
	f, err := NewObstacleField(mustGrid(t, fieldSize, cellSize), radius)
	require.NoError(t, err)
	return f
}

func TestNewObstacleField_RejectsNegativeRadius(t *testing.T) {
	_, err := NewObstacleField(mustGrid(t, 250, 50), -1)
	assert.Error(t, err)
}

func TestObstacleField_SetCell(t *testing.T) {
	f := newTestField(t, 250, 50, 0)
	assert.False(t, f.Stale())

	f.SetCell(Cell{X: 1, Y: 2}, true)
	assert.True(t, f.Base().Contains(Cell{X: 1, Y: 2}))
	assert.True(t, f.Stale())
	assert.Equal(t, 1, f.Base().Len())

	f.RebuildInflated()
	f.SetCell(Cell{X: 1, Y: 2}, true)
	assert.False(t, f.Stale(), "setting an occupied cell again is a no-op")

	f.SetCell(Cell{X: 9, Y: 9}, true)
	f.SetCell(Cell{X: -1, Y: 0}, true)
	assert.Equal(t, 1, f.Base().Len(), "out-of-range cells are ignored")
	assert.False(t, f.Stale())

	f.SetCell(Cell{X: 1, Y: 2}, false)
	assert.True(t, f.Base().Empty())
	assert.True(t, f.Stale())
}

func TestObstacleField_AddRect(t *testing.T) {
	// 5x5 grid, centers at -100, -50, 0, 50, 100
	f := newTestField(t, 250, 50, 0)

	// 100x50 box centered on origin covers x in [-50,50], y in [-25,25]
	f.AddRect(Point{X: 0, Y: 0}, 100, 50)

	want := []Cell{{X: 1, Y: 2}, {X: 2, Y: 2}, {X: 3, Y: 2}}
	assert.ElementsMatch(t, want, f.Base().Cells())
}

func TestObstacleField_AddRectClipsToField(t *testing.T) {
	f := newTestField(t, 250, 50, 0)
	f.AddRect(Point{X: 1000, Y: 1000}, 10, 10)
	assert.True(t, f.Base().Empty(), "rectangle entirely outside the field")

	f.AddRect(Point{X: 0, Y: 0}, 10000, 10000)
	assert.Equal(t, 25, f.Base().Len())
}

func TestObstacleField_AddDisk(t *testing.T) {
	f := newTestField(t, 1000, 50, 0)
	center := f.Grid().GridToGPS(Cell{X: 10, Y: 10})

	f.AddDisk(center, 50)
	want := []Cell{
		{X: 10, Y: 9},
		{X: 9, Y: 10}, {X: 10, Y: 10}, {X: 11, Y: 10},
		{X: 10, Y: 11},
	}
	assert.ElementsMatch(t, want, f.Base().Cells())
}

func TestObstacleField_AddDiskZeroRadius(t *testing.T) {
	f := newTestField(t, 1000, 50, 0)
	center := f.Grid().GridToGPS(Cell{X: 3, Y: 4})
	f.AddDisk(center, 0)
	assert.Equal(t, []Cell{{X: 3, Y: 4}}, f.Base().Cells())

	// off-center with zero radius hits nothing
	f.Clear()
	f.AddDisk(Point{X: center.X + 1, Y: center.Y}, 0)
	assert.True(t, f.Base().Empty())
}

func TestObstacleField_AddDiskNearBorder(t *testing.T) {
	f := newTestField(t, 250, 50, 0)
	// center outside the field; only the corner cell center is within reach
	f.AddDisk(Point{X: -150, Y: 150}, 71)
	assert.Equal(t, []Cell{{X: 0, Y: 0}}, f.Base().Cells())
}

func TestObstacleField_AddDiskHugeRadius(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
	}{
		{name: "far beyond the field", radius: 1e9},
		{name: "overflows int", radius: 1e300},
		{name: "infinite", radius: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// default 3.6m field, 72x72 cells
			f := newTestField(t, 3600, 50, 0)
			start := time.Now()
			f.AddDisk(Point{}, tt.radius)
			assert.Equal(t, 72*72, f.Base().Len(), "disk covers every cell")
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}

func TestRebuildInflated_HugeCollisionRadius(t *testing.T) {
	f := newTestField(t, 3600, 50, 1e12)
	f.SetCell(Cell{X: 0, Y: 0}, true)
	f.RebuildInflated()
	assert.Equal(t, 72*72, f.Inflated().Len())
}

func TestObstacleField_AddEdgeMargin(t *testing.T) {
	f := newTestField(t, 250, 50, 0)
	f.AddEdgeMargin(50)

	// border ring of a 5x5 grid
	assert.Equal(t, 16, f.Base().Len())
	for i := 0; i < 5; i++ {
		assert.True(t, f.Base().Contains(Cell{X: i, Y: 0}))
		assert.True(t, f.Base().Contains(Cell{X: i, Y: 4}))
		assert.True(t, f.Base().Contains(Cell{X: 0, Y: i}))
		assert.True(t, f.Base().Contains(Cell{X: 4, Y: i}))
	}
	assert.False(t, f.Base().Contains(Cell{X: 2, Y: 2}))

	f.Clear()
	f.AddEdgeMargin(0)
	assert.True(t, f.Base().Empty(), "zero margin reaches no cell center")
}

func TestObstacleField_Clear(t *testing.T) {
	f := newTestField(t, 250, 50, 50)
	f.SetCell(Cell{X: 2, Y: 2}, true)
	f.RebuildInflated()
	require.False(t, f.Inflated().Empty())

	f.Clear()
	assert.True(t, f.Base().Empty())
	assert.True(t, f.Stale())
	f.RebuildInflated()
	assert.True(t, f.Inflated().Empty())
}

func TestRebuildInflated_ScenarioD(t *testing.T) {
	// collision radius of two cells around a single obstacle at (10,10)
	f := newTestField(t, 1000, 50, 100)
	f.SetCell(Cell{X: 10, Y: 10}, true)
	f.RebuildInflated()

	var want []Cell
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			if dx*dx+dy*dy <= 4 {
				want = append(want, Cell{X: 10 + dx, Y: 10 + dy})
			}
		}
	}
	require.Len(t, want, 13)
	assert.ElementsMatch(t, want, f.Inflated().Cells())
	assert.False(t, f.Inflated().Contains(Cell{X: 12, Y: 11}), "diagonal beyond the radius")
	assert.False(t, f.Inflated().Contains(Cell{X: 13, Y: 10}))
}

func TestRebuildInflated_Superset(t *testing.T) {
	for _, radius := range []float64{0, 20, 50, 125, 300} {
		f := newTestField(t, 1000, 50, radius)
		f.AddEdgeMargin(50)
		f.AddDisk(Point{X: 120, Y: -80}, 110)
		f.SetCell(Cell{X: 4, Y: 15}, true)
		f.RebuildInflated()

		for _, c := range f.Base().Cells() {
			assert.True(t, f.Inflated().Contains(c), "radius %g: base cell %v not inflated", radius, c)
		}
		assert.GreaterOrEqual(t, f.Inflated().Len(), f.Base().Len())
	}
}

func TestRebuildInflated_EmptyBase(t *testing.T) {
	f := newTestField(t, 1000, 50, 300)
	f.RebuildInflated()
	assert.True(t, f.Inflated().Empty())
	assert.False(t, f.Stale())
}

func TestRebuildInflated_Deterministic(t *testing.T) {
	f := newTestField(t, 3600, 50, 250)
	f.AddEdgeMargin(50)
	f.AddRect(Point{X: 400, Y: 300}, 600, 120)
	f.AddDisk(Point{X: -700, Y: -500}, 180)

	f.RebuildInflated()
	first := f.Inflated()
	f.RebuildInflated()
	second := f.Inflated()

	assert.True(t, first.Equal(second))
	assert.NotSame(t, first, second, "rebuild replaces the layer")
}

func TestLayer_Cells(t *testing.T) {
	l := NewLayer(3)
	l.set(Cell{X: 2, Y: 0}, true)
	l.set(Cell{X: 0, Y: 1}, true)
	l.set(Cell{X: 5, Y: 5}, true)

	assert.Equal(t, []Cell{{X: 2, Y: 0}, {X: 0, Y: 1}}, l.Cells(), "row-major order")
	assert.Equal(t, 2, l.Len())

	var nilLayer *Layer
	assert.False(t, nilLayer.Contains(Cell{}))
}
