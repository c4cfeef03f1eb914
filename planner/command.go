package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidCommand is wrapped by every command validation failure
var ErrInvalidCommand = errors.New("invalid command")

// ObstacleCommand is a validated request to stamp a disk obstacle
type ObstacleCommand struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// ParseObstacleCommand parses "x_mm y_mm [radius_mm]". Tokens may be
// separated by whitespace or commas. The radius defaults to defaultRadius.
func ParseObstacleCommand(text string, defaultRadius float64) (ObstacleCommand, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) < 2 || len(fields) > 3 {
		return ObstacleCommand{}, fmt.Errorf("%w: expected \"x y [radius]\", got %d values", ErrInvalidCommand, len(fields))
	}

	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return ObstacleCommand{}, fmt.Errorf("%w: %q is not a number", ErrInvalidCommand, f)
		}
		values[i] = v
	}

	cmd := ObstacleCommand{X: values[0], Y: values[1], Radius: defaultRadius}
	if len(values) == 3 {
		if values[2] < 0 {
			return ObstacleCommand{}, fmt.Errorf("%w: radius must not be negative", ErrInvalidCommand)
		}
		cmd.Radius = values[2]
	}
	return cmd, nil
}

// maxRadiusFields bounds obstacle radii to a multiple of the field size
const maxRadiusFields = 4

// CheckFits rejects a radius larger than maxRadiusFields times the field
func (c ObstacleCommand) CheckFits(g Grid) error {
	return checkRadius(c.Radius, g)
}

func checkRadius(r float64, g Grid) error {
	if limit := maxRadiusFields * g.FieldSize(); r > limit {
		return fmt.Errorf("%w: radius %g exceeds %g", ErrInvalidCommand, r, limit)
	}
	return nil
}

// Edit operations accepted by EditCommand
const (
	OpSetObstacle   = "setObstacle"
	OpAddRect       = "addRect"
	OpAddDisk       = "addDisk"
	OpAddEdgeMargin = "addEdgeMargin"
	OpSetStart      = "setStart"
	OpSetGoal       = "setGoal"
	OpAddWaypoint   = "addWaypoint"
	OpClear         = "clearRouteAndWaypoints"
	OpReset         = "resetField"
)

// EditCommand is the JSON form of a session edit. Cell operations use GX/GY,
// physical operations use X/Y in mm.
type EditCommand struct {
	Op       string   `json:"op"`
	GX       int      `json:"gx,omitempty"`
	GY       int      `json:"gy,omitempty"`
	Occupied *bool    `json:"occupied,omitempty"`
	X        float64  `json:"x,omitempty"`
	Y        float64  `json:"y,omitempty"`
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
	Radius   *float64 `json:"radius,omitempty"`
	Margin   float64  `json:"margin,omitempty"`
}

// ParseEditCommand decodes and validates a JSON edit command
func ParseEditCommand(data []byte) (EditCommand, error) {
	var cmd EditCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return EditCommand{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if err := cmd.Validate(); err != nil {
		return EditCommand{}, err
	}
	return cmd, nil
}

// Validate checks the fields required by the operation
func (c EditCommand) Validate() error {
	switch c.Op {
	case OpSetObstacle, OpSetStart, OpSetGoal, OpAddWaypoint, OpClear, OpReset:
	case OpAddRect:
		if c.Width < 0 || c.Height < 0 {
			return fmt.Errorf("%w: rectangle size must not be negative", ErrInvalidCommand)
		}
	case OpAddDisk:
		if c.Radius != nil && *c.Radius < 0 {
			return fmt.Errorf("%w: radius must not be negative", ErrInvalidCommand)
		}
	case OpAddEdgeMargin:
		if c.Margin < 0 {
			return fmt.Errorf("%w: margin must not be negative", ErrInvalidCommand)
		}
	case "":
		return fmt.Errorf("%w: missing op", ErrInvalidCommand)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidCommand, c.Op)
	}
	return nil
}

// CheckFits rejects an addDisk radius far larger than the field g covers
func (c EditCommand) CheckFits(g Grid) error {
	if c.Op == OpAddDisk && c.Radius != nil {
		return checkRadius(*c.Radius, g)
	}
	return nil
}

// Editor is the set of session operations an EditCommand can drive
type Editor interface {
	SetObstacle(c Cell, occupied bool)
	AddRect(center Point, width, height float64)
	AddDisk(center Point, radius float64)
	AddEdgeMargin(margin float64)
	SetStart(c Cell)
	SetGoal(c Cell)
	AddWaypoint(c Cell)
	ClearRouteAndWaypoints()
	ResetField()
}

// Apply performs the command on e. defaultRadius is used by addDisk when no
// radius is given. The command must already be validated.
func (c EditCommand) Apply(e Editor, defaultRadius float64) {
	cell := Cell{X: c.GX, Y: c.GY}
	switch c.Op {
	case OpSetObstacle:
		occupied := true
		if c.Occupied != nil {
			occupied = *c.Occupied
		}
		e.SetObstacle(cell, occupied)
	case OpAddRect:
		e.AddRect(Point{X: c.X, Y: c.Y}, c.Width, c.Height)
	case OpAddDisk:
		r := defaultRadius
		if c.Radius != nil {
			r = *c.Radius
		}
		e.AddDisk(Point{X: c.X, Y: c.Y}, r)
	case OpAddEdgeMargin:
		e.AddEdgeMargin(c.Margin)
	case OpSetStart:
		e.SetStart(cell)
	case OpSetGoal:
		e.SetGoal(cell)
	case OpAddWaypoint:
		e.AddWaypoint(cell)
	case OpClear:
		e.ClearRouteAndWaypoints()
	case OpReset:
		e.ResetField()
	}
}
