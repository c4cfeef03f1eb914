package planner

// PlanRoute stitches one FindPath search per leg, start → waypoints... → goal,
// into a single route. Legs after the first drop their first cell, which
// repeats the previous leg's last cell.
//
// The result is all-or-nothing: if any leg is unreachable the route is empty,
// even when earlier legs succeeded. A nil start or goal yields an empty route
// without searching. Nothing is cached between calls.
func PlanRoute(g Grid, start, goal *Cell, waypoints []Cell, blocked Obstacles) []Cell {
	if start == nil || goal == nil {
		return nil
	}

	targets := make([]Cell, 0, len(waypoints)+1)
	targets = append(targets, waypoints...)
	targets = append(targets, *goal)

	var route []Cell
	current := *start
	for i, target := range targets {
		leg, ok := FindPath(g, current, target, blocked)
		if !ok {
			return nil
		}
		if i > 0 {
			leg = leg[1:]
		}
		route = append(route, leg...)
		current = target
	}
	return route
}

// RouteLegs returns the leg endpoints in visiting order, start first and goal
// last. It returns nil when either endpoint is unset.
func RouteLegs(start, goal *Cell, waypoints []Cell) []Cell {
	if start == nil || goal == nil {
		return nil
	}
	legs := make([]Cell, 0, len(waypoints)+2)
	legs = append(legs, *start)
	legs = append(legs, waypoints...)
	return append(legs, *goal)
}
