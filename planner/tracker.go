package planner

import (
	"log"
	"sync"
	"time"
)

// RouteSnapshot is a read-only copy of the session's route and endpoints
type RouteSnapshot struct {
	Status    string  `json:"status"`
	Cells     []Cell  `json:"cells"`
	Points    []Point `json:"points"`
	Start     *Cell   `json:"start,omitempty"`
	Goal      *Cell   `json:"goal,omitempty"`
	Waypoints []Cell  `json:"waypoints"`
	LengthMM  float64 `json:"lengthMm"`
	Obstacles int     `json:"obstacles"`
	Inflated  int     `json:"inflated"`
	Timestamp int64   `json:"timestamp"`
}

// Snapshot returns the current route with GPS readback for every cell
func (s *Session) Snapshot() RouteSnapshot {
	route := s.Route()
	snap := RouteSnapshot{
		Status:    s.status.String(),
		Cells:     make([]Cell, 0, len(route)),
		Points:    make([]Point, 0, len(route)),
		Waypoints: make([]Cell, 0, len(s.waypoints)),
		Obstacles: s.field.Base().Len(),
		Inflated:  s.field.Inflated().Len(),
		Timestamp: time.Now().Unix(),
	}
	snap.Cells = append(snap.Cells, route...)
	for _, c := range route {
		snap.Points = append(snap.Points, s.grid.GridToGPS(c))
	}
	snap.Waypoints = append(snap.Waypoints, s.waypoints...)
	if c, ok := s.Start(); ok {
		snap.Start = &c
	}
	if c, ok := s.Goal(); ok {
		snap.Goal = &c
	}
	if len(route) > 1 {
		snap.LengthMM = float64(len(route)-1) * s.grid.CellSize()
	}
	return snap
}

// RouteListener is called after every edit with the new route
type RouteListener func(snap RouteSnapshot)

// Tracker serializes edits and queries from concurrent HTTP and MQTT
// handlers onto one Session. Persistence and listeners run outside the lock,
// but deliveries happen one at a time in edit order.
type Tracker struct {
	mu         sync.Mutex
	session    *Session
	listeners  []RouteListener
	statePath  string // empty disables persistence
	pending    []delivery
	delivering bool
}

// delivery is the persisted state and snapshot produced by one edit
type delivery struct {
	snap      RouteSnapshot
	state     FieldState
	listeners []RouteListener
}

// NewTracker wraps an existing session
func NewTracker(s *Session) *Tracker {
	return &Tracker{session: s}
}

// NewTrackerWithState wraps s and persists its FieldState to statePath after
// every edit. If the file exists it is restored first.
func NewTrackerWithState(s *Session, statePath string) *Tracker {
	t := &Tracker{session: s, statePath: statePath}
	if statePath == "" {
		return t
	}
	st, err := LoadFieldState(statePath)
	if err != nil {
		log.Printf("[STATE] warning: %v", err)
		return t
	}
	if st != nil {
		if err := s.Restore(*st); err != nil {
			log.Printf("[STATE] ignoring %s: %v", statePath, err)
		} else {
			log.Printf("[STATE] restored %d obstacles from %s", len(st.Obstacles), statePath)
		}
	}
	return t
}

// OnRouteChange registers a listener for route updates
func (t *Tracker) OnRouteChange(l RouteListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// edit runs fn on the session and queues the result for delivery. The first
// caller to find the queue idle drains it; edits made meanwhile, including
// from inside a listener, are delivered by that caller after the ones before
// them.
func (t *Tracker) edit(fn func(s *Session)) RouteSnapshot {
	t.mu.Lock()
	fn(t.session)
	d := delivery{snap: t.session.Snapshot()}
	if t.statePath != "" {
		d.state = t.session.State()
	}
	d.listeners = make([]RouteListener, len(t.listeners))
	copy(d.listeners, t.listeners)
	t.pending = append(t.pending, d)
	if t.delivering {
		t.mu.Unlock()
		return d.snap
	}

	t.delivering = true
	for len(t.pending) > 0 {
		batch := t.pending
		t.pending = nil
		t.mu.Unlock()
		for _, next := range batch {
			t.deliver(next)
		}
		t.mu.Lock()
	}
	t.delivering = false
	t.mu.Unlock()
	return d.snap
}

func (t *Tracker) deliver(d delivery) {
	if t.statePath != "" {
		if err := SaveFieldState(t.statePath, d.state); err != nil {
			log.Printf("[STATE] warning: failed to save field state: %v", err)
		}
	}
	for _, l := range d.listeners {
		l(d.snap)
	}
}

// View runs fn with exclusive read access to the session
func (t *Tracker) View(fn func(s *Session)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.session)
}

// SetObstacle marks or clears a single base cell
func (t *Tracker) SetObstacle(c Cell, occupied bool) {
	t.edit(func(s *Session) { s.SetObstacle(c, occupied) })
}

// AddRect stamps a rectangle
func (t *Tracker) AddRect(center Point, width, height float64) {
	t.edit(func(s *Session) { s.AddRect(center, width, height) })
}

// AddDisk stamps a disk
func (t *Tracker) AddDisk(center Point, radius float64) {
	t.edit(func(s *Session) { s.AddDisk(center, radius) })
}

// AddEdgeMargin stamps the field walls
func (t *Tracker) AddEdgeMargin(margin float64) {
	t.edit(func(s *Session) { s.AddEdgeMargin(margin) })
}

// SetStart sets the route start
func (t *Tracker) SetStart(c Cell) {
	t.edit(func(s *Session) { s.SetStart(c) })
}

// SetGoal sets the route goal
func (t *Tracker) SetGoal(c Cell) {
	t.edit(func(s *Session) { s.SetGoal(c) })
}

// AddWaypoint appends a waypoint
func (t *Tracker) AddWaypoint(c Cell) {
	t.edit(func(s *Session) { s.AddWaypoint(c) })
}

// ClearRouteAndWaypoints drops waypoints and route without searching
func (t *Tracker) ClearRouteAndWaypoints() {
	t.edit(func(s *Session) { s.ClearRouteAndWaypoints() })
}

// ResetField restores the default layout and clears the session
func (t *Tracker) ResetField() {
	t.edit(func(s *Session) { s.ResetField() })
}

// ApplyObstacle stamps a validated obstacle command
func (t *Tracker) ApplyObstacle(cmd ObstacleCommand) RouteSnapshot {
	return t.edit(func(s *Session) { s.AddDisk(Point{X: cmd.X, Y: cmd.Y}, cmd.Radius) })
}

// ApplyEdit performs a validated edit command
func (t *Tracker) ApplyEdit(cmd EditCommand) RouteSnapshot {
	return t.edit(func(s *Session) { cmd.Apply(s, s.Field().CollisionRadius()) })
}

// Snapshot returns the current route
func (t *Tracker) Snapshot() RouteSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Snapshot()
}

// Route returns the current route cells
func (t *Tracker) Route() []Cell {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Route()
}

// GPSFor returns the physical center of c
func (t *Tracker) GPSFor(c Cell) Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.GPSFor(c)
}

// Grid returns the coordinate mapper
func (t *Tracker) Grid() Grid {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Grid()
}

// CollisionRadius returns the inflation radius in mm
func (t *Tracker) CollisionRadius() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Field().CollisionRadius()
}
