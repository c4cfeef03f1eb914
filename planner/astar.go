package planner

import (
	"container/heap"
)

// searchNode is a cell in the A* frontier
type searchNode struct {
	cell   Cell
	g      int // cost from the leg's source
	f      int // g + Manhattan distance to target
	parent *searchNode
	index  int // position in the heap, -1 once popped
}

// frontier implements heap.Interface ordered by (f, x, y). The key is a
// total order over distinct cells, so expansion order never depends on
// insertion order.
type frontier []*searchNode

func (pq frontier) Len() int { return len(pq) }

func (pq frontier) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].cell.less(pq[j].cell)
}

func (pq frontier) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *frontier) Push(x interface{}) {
	node := x.(*searchNode)
	node.index = len(*pq)
	*pq = append(*pq, node)
}

func (pq *frontier) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*pq = old[:n-1]
	return node
}

// manhattan is admissible and consistent for unit-cost 4-connected grids
func manhattan(a, b Cell) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

// neighborOffsets lists the 4-connected moves
var neighborOffsets = [4]Cell{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// FindPath returns a shortest 4-connected path from one cell to another,
// avoiding blocked cells and the grid border. The first element is from and
// the last is to. from itself is never tested against blocked. ok is false
// when to is unreachable. from == to yields the single-cell path [from].
func FindPath(g Grid, from, to Cell, blocked Obstacles) ([]Cell, bool) {
	if !g.InBounds(from) || !g.InBounds(to) {
		return nil, false
	}
	if blocked == nil {
		blocked = CellSet(nil)
	}

	open := &frontier{}
	start := &searchNode{cell: from, g: 0, f: manhattan(from, to)}
	heap.Push(open, start)

	nodes := map[Cell]*searchNode{from: start}
	closed := make(map[Cell]bool)

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)

		if current.cell == to {
			return reconstruct(current), true
		}
		closed[current.cell] = true

		for _, d := range neighborOffsets {
			next := Cell{X: current.cell.X + d.X, Y: current.cell.Y + d.Y}
			if !g.InBounds(next) || blocked.Contains(next) || closed[next] {
				continue
			}

			tentative := current.g + 1
			node, seen := nodes[next]
			if !seen {
				node = &searchNode{
					cell:   next,
					g:      tentative,
					f:      tentative + manhattan(next, to),
					parent: current,
				}
				nodes[next] = node
				heap.Push(open, node)
			} else if tentative < node.g {
				node.g = tentative
				node.f = tentative + manhattan(next, to)
				node.parent = current
				heap.Fix(open, node.index)
			}
		}
	}

	return nil, false
}

// reconstruct walks parent links back to the source and reverses them
func reconstruct(node *searchNode) []Cell {
	var path []Cell
	for n := node; n != nil; n = n.parent {
		path = append(path, n.cell)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
