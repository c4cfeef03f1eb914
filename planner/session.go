package planner

import "fmt"

// RectSpec is a rectangular obstacle in physical coordinates
type RectSpec struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// DiskSpec is a circular obstacle in physical coordinates
type DiskSpec struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Radius float64 `yaml:"radius" json:"radius"`
}

// Layout is the fixed field furniture stamped on construction and on reset
type Layout struct {
	EdgeMargin float64    `yaml:"edgeMargin" json:"edgeMargin"`
	Rects      []RectSpec `yaml:"rects,omitempty" json:"rects,omitempty"`
	Disks      []DiskSpec `yaml:"disks,omitempty" json:"disks,omitempty"`
}

// Apply stamps the layout onto the field's base layer
func (l Layout) Apply(f *ObstacleField) {
	if l.EdgeMargin > 0 {
		f.AddEdgeMargin(l.EdgeMargin)
	}
	for _, r := range l.Rects {
		f.AddRect(Point{X: r.X, Y: r.Y}, r.Width, r.Height)
	}
	for _, d := range l.Disks {
		f.AddDisk(Point{X: d.X, Y: d.Y}, d.Radius)
	}
}

// SessionConfig is the startup geometry of a planning session
type SessionConfig struct {
	FieldSize    float64
	CellSize     float64
	RobotRadius  float64
	SafetyMargin float64
	Layout       Layout
}

// CollisionRadius is the robot radius plus the safety margin
func (c SessionConfig) CollisionRadius() float64 {
	return c.RobotRadius + c.SafetyMargin
}

// Session owns one obstacle field and the route endpoints. Every mutation
// recomputes the route synchronously before returning. A Session is not safe
// for concurrent use; see Tracker.
type Session struct {
	grid      Grid
	field     *ObstacleField
	layout    Layout
	start     *Cell
	goal      *Cell
	waypoints []Cell
	route     []Cell
	status    RouteStatus
}

// NewSession builds the grid and field, stamps the layout and computes once
func NewSession(cfg SessionConfig) (*Session, error) {
	g, err := NewGrid(cfg.FieldSize, cfg.CellSize)
	if err != nil {
		return nil, fmt.Errorf("invalid field geometry: %w", err)
	}
	if cfg.RobotRadius < 0 || cfg.SafetyMargin < 0 {
		return nil, fmt.Errorf("robot radius and safety margin must be non-negative")
	}
	field, err := NewObstacleField(g, cfg.CollisionRadius())
	if err != nil {
		return nil, fmt.Errorf("invalid robot geometry: %w", err)
	}

	s := &Session{grid: g, field: field, layout: cfg.Layout}
	s.layout.Apply(field)
	s.recompute()
	return s, nil
}

// Grid returns the coordinate mapper
func (s *Session) Grid() Grid { return s.grid }

// Field returns the obstacle field. Mutating it directly bypasses recompute.
func (s *Session) Field() *ObstacleField { return s.field }

// SetObstacle marks or clears a single base cell
func (s *Session) SetObstacle(c Cell, occupied bool) {
	s.field.SetCell(c, occupied)
	s.recompute()
}

// AddRect stamps a rectangle of width×height mm centered on center
func (s *Session) AddRect(center Point, width, height float64) {
	s.field.AddRect(center, width, height)
	s.recompute()
}

// AddDisk stamps a disk of radius mm centered on center
func (s *Session) AddDisk(center Point, radius float64) {
	s.field.AddDisk(center, radius)
	s.recompute()
}

// AddEdgeMargin stamps the field walls
func (s *Session) AddEdgeMargin(margin float64) {
	s.field.AddEdgeMargin(margin)
	s.recompute()
}

// SetStart sets the route start, clamped into the grid
func (s *Session) SetStart(c Cell) {
	c = s.grid.Clamp(c)
	s.start = &c
	s.recompute()
}

// SetGoal sets the route goal, clamped into the grid
func (s *Session) SetGoal(c Cell) {
	c = s.grid.Clamp(c)
	s.goal = &c
	s.recompute()
}

// AddWaypoint appends to the visiting order
func (s *Session) AddWaypoint(c Cell) {
	s.waypoints = append(s.waypoints, s.grid.Clamp(c))
	s.recompute()
}

// ClearRouteAndWaypoints drops waypoints and the current route without
// searching again. Obstacles and endpoints are kept.
func (s *Session) ClearRouteAndWaypoints() {
	s.waypoints = nil
	s.route = nil
	s.status = RouteNotComputed
}

// ResetField clears all obstacles, restamps the default layout and clears
// endpoints, waypoints and route.
func (s *Session) ResetField() {
	s.field.Clear()
	s.layout.Apply(s.field)
	s.start = nil
	s.goal = nil
	s.waypoints = nil
	s.recompute()
}

// Route returns a copy of the current route; empty means no valid route
func (s *Session) Route() []Cell {
	if len(s.route) == 0 {
		return nil
	}
	out := make([]Cell, len(s.route))
	copy(out, s.route)
	return out
}

// RouteStatus reports whether the current route was found, is infeasible,
// or has not been computed since the last clear.
func (s *Session) RouteStatus() RouteStatus { return s.status }

// GPSFor returns the physical center of c
func (s *Session) GPSFor(c Cell) Point { return s.grid.GridToGPS(c) }

// Start returns the start cell and whether it is set
func (s *Session) Start() (Cell, bool) {
	if s.start == nil {
		return Cell{}, false
	}
	return *s.start, true
}

// Goal returns the goal cell and whether it is set
func (s *Session) Goal() (Cell, bool) {
	if s.goal == nil {
		return Cell{}, false
	}
	return *s.goal, true
}

// Waypoints returns a copy of the waypoint list in visiting order
func (s *Session) Waypoints() []Cell {
	if len(s.waypoints) == 0 {
		return nil
	}
	out := make([]Cell, len(s.waypoints))
	copy(out, s.waypoints)
	return out
}

func (s *Session) recompute() {
	if s.field.Stale() {
		s.field.RebuildInflated()
	}
	s.route = PlanRoute(s.grid, s.start, s.goal, s.waypoints, s.field.Inflated())
	if len(s.route) > 0 {
		s.status = RouteFound
	} else {
		s.status = RouteNone
	}
}
