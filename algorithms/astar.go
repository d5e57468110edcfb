package algorithms

import (
	"container/heap"
	"context"
	"math"

	"ramen-office/models"
)

// 셀 상태 (충돌 맵 값)
const (
	CellFree    = 0
	CellBlocked = 1
)

type direction struct {
	dx, dy   int
	cost     float64
	diagonal bool
}

// 8방향 이동 (상하좌우 + 대각선)
var directions = [...]direction{
	{dx: 0, dy: -1, cost: 1},
	{dx: 1, dy: 0, cost: 1},
	{dx: 0, dy: 1, cost: 1},
	{dx: -1, dy: 0, cost: 1},
	{dx: 1, dy: -1, cost: math.Sqrt2, diagonal: true},
	{dx: 1, dy: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dy: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dy: -1, cost: math.Sqrt2, diagonal: true},
}

// Grid - 충돌 맵 (생성 후 읽기 전용)
type Grid struct {
	Width   int
	Height  int
	blocked []bool
}

// NewGrid - 모든 셀이 비어있는 그리드 생성
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	// 셀 수가 int 범위를 넘으면 빈 그리드
	if width > 0 && height > math.MaxInt/width {
		width, height = 0, 0
	}
	return &Grid{
		Width:   width,
		Height:  height,
		blocked: make([]bool, width*height),
	}
}

// NewGridFromMap - [y][x] 형태의 충돌 맵(0: 이동 가능, 1: 막힘)으로 그리드 생성
func NewGridFromMap(collision [][]int) *Grid {
	height := len(collision)
	width := 0
	if height > 0 {
		width = len(collision[0])
	}
	g := NewGrid(width, height)
	for y, row := range collision {
		for x := 0; x < width && x < len(row); x++ {
			if row[x] != CellFree {
				g.Block(x, y)
			}
		}
	}
	return g
}

func (g *Grid) index(x, y int) int {
	return y*g.Width + x
}

// InBounds - 그리드 범위 내 검사
func (g *Grid) InBounds(x, y int) bool {
	return g != nil && x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// Block - 셀을 막힘으로 표시 (범위 밖은 무시)
func (g *Grid) Block(x, y int) {
	if !g.InBounds(x, y) {
		return
	}
	g.blocked[g.index(x, y)] = true
}

// IsBlocked - 범위 밖은 막힌 것으로 취급
func (g *Grid) IsBlocked(x, y int) bool {
	if !g.InBounds(x, y) {
		return true
	}
	return g.blocked[g.index(x, y)]
}

// IsWalkable - 이동 가능 여부
func (g *Grid) IsWalkable(p models.GridPoint) bool {
	return !g.IsBlocked(p.X, p.Y)
}

// CollisionMap - [y][x] 형태로 복사해서 반환
func (g *Grid) CollisionMap() [][]int {
	out := make([][]int, g.Height)
	for y := 0; y < g.Height; y++ {
		out[y] = make([]int, g.Width)
		for x := 0; x < g.Width; x++ {
			if g.blocked[g.index(x, y)] {
				out[y][x] = CellBlocked
			}
		}
	}
	return out
}

// canStep - 대각선 이동 시 모서리를 가로지르지 않는지 검사
func (g *Grid) canStep(from models.GridPoint, d direction) bool {
	nx, ny := from.X+d.dx, from.Y+d.dy
	if g.IsBlocked(nx, ny) {
		return false
	}
	if !d.diagonal {
		return true
	}
	return !g.IsBlocked(from.X+d.dx, from.Y) && !g.IsBlocked(from.X, from.Y+d.dy)
}

// heuristic - 옥타일 거리
func heuristic(a, b models.GridPoint) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	if dx > dy {
		return dx + (math.Sqrt2-1)*dy
	}
	return dy + (math.Sqrt2-1)*dx
}

type node struct {
	point  models.GridPoint
	g, f   float64
	seq    int
	index  int // for heap
	parent *node
}

type priorityQueue []*node

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].f == pq[j].f {
		return pq[i].seq < pq[j].seq
	}
	return pq[i].f < pq[j].f
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	n := x.(*node)
	n.index = len(*pq)
	*pq = append(*pq, n)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*pq = old[:last]
	return n
}

// FindPath - A* 알고리즘으로 경로 찾기
//
// 반환값은 start 다음 칸부터 goal까지(goal 포함)의 셀 목록이다.
// 도달 불가, 시작/목표가 막힌 경우, start == goal 이면 빈 경로를 반환한다.
func (g *Grid) FindPath(start, goal models.GridPoint) []models.GridPoint {
	if g == nil || start == goal {
		return []models.GridPoint{}
	}
	if !g.IsWalkable(start) || !g.IsWalkable(goal) {
		return []models.GridPoint{}
	}

	open := &priorityQueue{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &node{point: start, f: heuristic(start, goal), seq: seq})

	gScores := map[int]float64{g.index(start.X, start.Y): 0}
	closed := make([]bool, g.Width*g.Height)
	explored := 0
	limit := g.Width * g.Height

	for open.Len() > 0 && explored < limit {
		current := heap.Pop(open).(*node)
		idx := g.index(current.point.X, current.point.Y)
		if closed[idx] {
			continue
		}
		closed[idx] = true
		explored++

		if current.point == goal {
			return reconstructPath(current)
		}

		for _, d := range directions {
			if !g.canStep(current.point, d) {
				continue
			}
			next := models.GridPoint{X: current.point.X + d.dx, Y: current.point.Y + d.dy}
			nIdx := g.index(next.X, next.Y)
			if closed[nIdx] {
				continue
			}
			tentativeG := current.g + d.cost
			if prev, ok := gScores[nIdx]; ok && tentativeG >= prev {
				continue
			}
			gScores[nIdx] = tentativeG
			seq++
			heap.Push(open, &node{
				point:  next,
				g:      tentativeG,
				f:      tentativeG + heuristic(next, goal),
				seq:    seq,
				parent: current,
			})
		}
	}

	// 경로 없음
	return []models.GridPoint{}
}

// FindPathAsync - 경로 탐색을 별도 고루틴에서 수행하고 결과를 한 번 전달한다.
// ctx가 먼저 취소되면 빈 경로로 완료된다.
func (g *Grid) FindPathAsync(ctx context.Context, start, goal models.GridPoint) <-chan []models.GridPoint {
	out := make(chan []models.GridPoint, 1)
	go func() {
		defer close(out)
		if ctx.Err() != nil {
			out <- []models.GridPoint{}
			return
		}
		path := g.FindPath(start, goal)
		if ctx.Err() != nil {
			out <- []models.GridPoint{}
			return
		}
		out <- path
	}()
	return out
}

// reconstructPath - 경로 재구성 (시작 셀 제외)
func reconstructPath(end *node) []models.GridPoint {
	var path []models.GridPoint
	for n := end; n != nil && n.parent != nil; n = n.parent {
		path = append(path, n.point)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost - 경로 비용 (직선 1, 대각선 √2)
func PathCost(start models.GridPoint, path []models.GridPoint) float64 {
	cost := 0.0
	prev := start
	for _, p := range path {
		if p.X != prev.X && p.Y != prev.Y {
			cost += math.Sqrt2
		} else {
			cost++
		}
		prev = p
	}
	return cost
}
