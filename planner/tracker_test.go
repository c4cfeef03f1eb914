package planner

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_ListenersReceiveSnapshots(t *testing.T) {
	tr := NewTracker(smallSession(t))

	var got []RouteSnapshot
	tr.OnRouteChange(func(snap RouteSnapshot) {
		got = append(got, snap)
	})

	tr.SetStart(Cell{X: 0, Y: 0})
	tr.SetGoal(Cell{X: 3, Y: 0})

	require.Len(t, got, 2)
	assert.Equal(t, "none", got[0].Status)
	assert.Empty(t, got[0].Cells)

	last := got[1]
	assert.Equal(t, "found", last.Status)
	assert.Equal(t, []Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}, last.Cells)
	require.Len(t, last.Points, 4)
	assert.Equal(t, Point{X: -450, Y: 450}, last.Points[0])
	assert.Equal(t, 300.0, last.LengthMM)
	require.NotNil(t, last.Start)
	assert.Equal(t, Cell{X: 0, Y: 0}, *last.Start)
}

func TestTracker_ApplyCommands(t *testing.T) {
	s, err := NewSession(SessionConfig{FieldSize: 1000, CellSize: 100, RobotRadius: 100})
	require.NoError(t, err)
	tr := NewTracker(s)

	tr.SetStart(Cell{X: 0, Y: 5})
	tr.SetGoal(Cell{X: 9, Y: 5})
	require.Len(t, tr.Route(), 10)

	cmd, err := ParseObstacleCommand("50 -50", tr.CollisionRadius())
	require.NoError(t, err)
	snap := tr.ApplyObstacle(cmd)
	assert.Equal(t, "found", snap.Status)
	assert.Greater(t, snap.Obstacles, 0)
	assert.NotContains(t, snap.Cells, Cell{X: 5, Y: 5})

	edit, err := ParseEditCommand([]byte(`{"op":"clearRouteAndWaypoints"}`))
	require.NoError(t, err)
	snap = tr.ApplyEdit(edit)
	assert.Equal(t, "not_computed", snap.Status)
	assert.Empty(t, snap.Cells)

	edit, err = ParseEditCommand([]byte(`{"op":"resetField"}`))
	require.NoError(t, err)
	snap = tr.ApplyEdit(edit)
	assert.Equal(t, 0, snap.Obstacles)
	assert.Nil(t, snap.Start)
}

func TestTracker_ConcurrentEdits(t *testing.T) {
	tr := NewTracker(smallSession(t))
	tr.SetStart(Cell{X: 0, Y: 0})
	tr.SetGoal(Cell{X: 9, Y: 9})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.SetObstacle(Cell{X: i + 1, Y: 5}, true)
			_ = tr.Snapshot()
			tr.SetObstacle(Cell{X: i + 1, Y: 5}, false)
		}(i)
	}
	wg.Wait()

	snap := tr.Snapshot()
	assert.Equal(t, 0, snap.Obstacles)
	assert.Len(t, snap.Cells, 19)
}

func TestTracker_PersistsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "field.json")

	tr := NewTrackerWithState(smallSession(t), path)
	tr.SetObstacle(Cell{X: 4, Y: 4}, true)
	tr.SetStart(Cell{X: 1, Y: 1})
	tr.SetGoal(Cell{X: 8, Y: 8})
	tr.AddWaypoint(Cell{X: 1, Y: 8})

	restored := NewTrackerWithState(smallSession(t), path)
	snap := restored.Snapshot()
	assert.Equal(t, 1, snap.Obstacles)
	require.NotNil(t, snap.Goal)
	assert.Equal(t, Cell{X: 8, Y: 8}, *snap.Goal)
	assert.Equal(t, []Cell{{X: 1, Y: 8}}, snap.Waypoints)
	assert.Equal(t, tr.Route(), restored.Route())
}

func TestTracker_View(t *testing.T) {
	tr := NewTracker(smallSession(t))
	tr.SetObstacle(Cell{X: 2, Y: 2}, true)

	var n int
	tr.View(func(s *Session) {
		n = s.Field().Base().Len()
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, 10, tr.Grid().Size())
	assert.Equal(t, Point{X: -250, Y: 250}, tr.GPSFor(Cell{X: 2, Y: 2}))
}

func TestTracker_NestedEditDeliveredInOrder(t *testing.T) {
	tr := NewTracker(smallSession(t))

	var statuses []string
	nested := false
	tr.OnRouteChange(func(snap RouteSnapshot) {
		if !nested {
			nested = true
			// lands while the first notification is still running
			tr.SetGoal(Cell{X: 3, Y: 0})
		}
	})
	tr.OnRouteChange(func(snap RouteSnapshot) {
		statuses = append(statuses, snap.Status)
	})

	tr.SetStart(Cell{X: 0, Y: 0})

	assert.Equal(t, []string{"none", "found"}, statuses)
	assert.Equal(t, tr.Snapshot().Status, statuses[len(statuses)-1])
}

func TestTracker_OverlappingEditsPublishLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.json")
	tr := NewTrackerWithState(smallSession(t), path)

	var mu sync.Mutex
	var got []RouteSnapshot
	tr.OnRouteChange(func(snap RouteSnapshot) {
		mu.Lock()
		got = append(got, snap)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.SetObstacle(Cell{X: i, Y: 5}, true)
		}(i)
	}
	wg.Wait()

	require.Len(t, got, 10)
	for i, snap := range got {
		assert.Equal(t, i+1, snap.Obstacles, "notifications follow edit order")
	}
	final := tr.Snapshot()
	assert.Equal(t, final.Obstacles, got[len(got)-1].Obstacles)
	assert.Equal(t, final.Cells, got[len(got)-1].Cells)

	st, err := LoadFieldState(path)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Len(t, st.Obstacles, 10, "state file holds the latest edit")
}
