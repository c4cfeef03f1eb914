package planner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FieldState is the persisted form of a session: base obstacles and
// endpoints. The inflated layer and the route are derived and not stored.
type FieldState struct {
	FieldSize   float64 `json:"fieldSize"`
	CellSize    float64 `json:"cellSize"`
	Obstacles   []Cell  `json:"obstacles"`
	Start       *Cell   `json:"start,omitempty"`
	Goal        *Cell   `json:"goal,omitempty"`
	Waypoints   []Cell  `json:"waypoints,omitempty"`
	LastUpdated int64   `json:"lastUpdated"`
}

// State captures the session's base obstacles and endpoints
func (s *Session) State() FieldState {
	st := FieldState{
		FieldSize: s.grid.FieldSize(),
		CellSize:  s.grid.CellSize(),
		Obstacles: s.field.Base().Cells(),
		Waypoints: s.Waypoints(),
	}
	if s.start != nil {
		c := *s.start
		st.Start = &c
	}
	if s.goal != nil {
		c := *s.goal
		st.Goal = &c
	}
	return st
}

// Restore replaces the base layer and endpoints with st and recomputes.
// The state must have been captured on the same field geometry.
func (s *Session) Restore(st FieldState) error {
	if st.FieldSize != s.grid.FieldSize() || st.CellSize != s.grid.CellSize() {
		return fmt.Errorf("state geometry %gmm/%gmm does not match field %gmm/%gmm",
			st.FieldSize, st.CellSize, s.grid.FieldSize(), s.grid.CellSize())
	}
	s.field.Clear()
	for _, c := range st.Obstacles {
		s.field.SetCell(c, true)
	}
	s.start, s.goal, s.waypoints = nil, nil, nil
	if st.Start != nil {
		c := s.grid.Clamp(*st.Start)
		s.start = &c
	}
	if st.Goal != nil {
		c := s.grid.Clamp(*st.Goal)
		s.goal = &c
	}
	for _, wp := range st.Waypoints {
		s.waypoints = append(s.waypoints, s.grid.Clamp(wp))
	}
	s.recompute()
	return nil
}

// SaveFieldState writes st to path as JSON
func SaveFieldState(path string, st FieldState) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	st.LastUpdated = time.Now().Unix()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal field state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write field state: %w", err)
	}
	return nil
}

// LoadFieldState reads a FieldState written by SaveFieldState. A missing file
// returns nil, nil.
func LoadFieldState(path string) (*FieldState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read field state: %w", err)
	}
	var st FieldState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal field state: %w", err)
	}
	return &st, nil
}
