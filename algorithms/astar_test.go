package algorithms

import (
	"context"
	"math"
	"testing"

	"ramen-office/models"
)

func pt(x, y int) models.GridPoint { return models.GridPoint{X: x, Y: y} }

func assertValidPath(t *testing.T, g *Grid, start, goal models.GridPoint, path []models.GridPoint) {
	t.Helper()
	if len(path) == 0 {
		t.Fatalf("expected a path from %v to %v", start, goal)
	}
	if path[len(path)-1] != goal {
		t.Fatalf("path ends at %v, want %v", path[len(path)-1], goal)
	}
	prev := start
	for i, p := range path {
		if !g.IsWalkable(p) {
			t.Fatalf("step %d at %v is blocked", i, p)
		}
		dx, dy := p.X-prev.X, p.Y-prev.Y
		if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
			t.Fatalf("step %d from %v to %v is not adjacent", i, prev, p)
		}
		if dx != 0 && dy != 0 {
			if g.IsBlocked(prev.X+dx, prev.Y) || g.IsBlocked(prev.X, prev.Y+dy) {
				t.Fatalf("step %d from %v to %v cuts a corner", i, prev, p)
			}
		}
		prev = p
	}
}

func TestFindPathOpenGrid(t *testing.T) {
	g := NewGrid(10, 10)
	start, goal := pt(0, 0), pt(5, 3)

	path := g.FindPath(start, goal)
	assertValidPath(t, g, start, goal, path)

	// 대각선 3칸 + 직선 2칸
	want := 3*math.Sqrt2 + 2
	if got := PathCost(start, path); math.Abs(got-want) > 1e-9 {
		t.Fatalf("cost = %v, want %v", got, want)
	}
	if len(path) != 5 {
		t.Fatalf("len(path) = %d, want 5", len(path))
	}
}

func TestFindPathEmptyCases(t *testing.T) {
	g := NewGrid(5, 5)
	g.Block(2, 2)

	tests := []struct {
		name        string
		start, goal models.GridPoint
	}{
		{"start equals goal", pt(1, 1), pt(1, 1)},
		{"goal blocked", pt(0, 0), pt(2, 2)},
		{"start blocked", pt(2, 2), pt(0, 0)},
		{"goal out of bounds", pt(0, 0), pt(5, 0)},
		{"start negative", pt(-1, 0), pt(3, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := g.FindPath(tt.start, tt.goal)
			if path == nil {
				t.Fatal("path is nil, want empty slice")
			}
			if len(path) != 0 {
				t.Fatalf("path = %v, want empty", path)
			}
		})
	}
}

func TestFindPathUnreachable(t *testing.T) {
	g := NewGrid(7, 7)
	// 목표 주변을 완전히 둘러싼다
	for x := 2; x <= 4; x++ {
		for y := 2; y <= 4; y++ {
			if x != 3 || y != 3 {
				g.Block(x, y)
			}
		}
	}
	if path := g.FindPath(pt(0, 0), pt(3, 3)); len(path) != 0 {
		t.Fatalf("expected no path, got %v", path)
	}
}

func TestFindPathNoCornerCutting(t *testing.T) {
	// 대각선 이웃 두 칸 중 하나가 막혀 있으면 대각선으로 갈 수 없다
	g := NewGrid(3, 3)
	g.Block(1, 0)

	path := g.FindPath(pt(0, 0), pt(1, 1))
	assertValidPath(t, g, pt(0, 0), pt(1, 1), path)
	if len(path) != 2 {
		t.Fatalf("path = %v, want detour of 2 steps", path)
	}
	if path[0] != pt(0, 1) {
		t.Fatalf("first step = %v, want (0,1)", path[0])
	}
}

func TestFindPathAroundWall(t *testing.T) {
	g := NewGrid(10, 10)
	for y := 0; y < 9; y++ {
		g.Block(5, y)
	}
	start, goal := pt(0, 0), pt(9, 0)
	path := g.FindPath(start, goal)
	assertValidPath(t, g, start, goal, path)

	for _, p := range path {
		if p.X == 5 && p.Y != 9 {
			t.Fatalf("path crosses wall at %v", p)
		}
	}
}

func TestFindPathOptimalCost(t *testing.T) {
	// 통로가 두 개인 맵에서 짧은 쪽을 고른다
	collision := [][]int{
		{0, 0, 0, 0, 0, 0, 0},
		{0, 1, 1, 1, 1, 1, 0},
		{0, 0, 0, 0, 0, 1, 0},
		{1, 1, 1, 1, 0, 1, 0},
		{0, 0, 0, 0, 0, 0, 0},
	}
	g := NewGridFromMap(collision)
	start, goal := pt(0, 2), pt(4, 4)

	path := g.FindPath(start, goal)
	assertValidPath(t, g, start, goal, path)

	// (3,2)→(4,3)은 (3,3)이 막혀 있어 대각선 불가, 아래 통로로 직선 6칸
	want := 6.0
	if got := PathCost(start, path); math.Abs(got-want) > 1e-9 {
		t.Fatalf("cost = %v, want %v (path %v)", got, want, path)
	}
}

func TestNewGridFromMapRoundTrip(t *testing.T) {
	collision := [][]int{
		{1, 1, 1},
		{1, 0, 1},
		{1, 1, 1},
	}
	g := NewGridFromMap(collision)
	if g.Width != 3 || g.Height != 3 {
		t.Fatalf("size = %dx%d, want 3x3", g.Width, g.Height)
	}
	if !g.IsWalkable(pt(1, 1)) || g.IsWalkable(pt(0, 0)) {
		t.Fatal("walkability does not match collision map")
	}
	got := g.CollisionMap()
	for y := range collision {
		for x := range collision[y] {
			if got[y][x] != collision[y][x] {
				t.Fatalf("cell (%d,%d) = %d, want %d", x, y, got[y][x], collision[y][x])
			}
		}
	}
}

func TestFindPathAsync(t *testing.T) {
	g := NewGrid(8, 8)

	path, ok := <-g.FindPathAsync(context.Background(), pt(0, 0), pt(7, 7))
	if !ok {
		t.Fatal("channel closed without a result")
	}
	assertValidPath(t, g, pt(0, 0), pt(7, 7), path)
	if len(path) != 7 {
		t.Fatalf("len(path) = %d, want 7 diagonal steps", len(path))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch := g.FindPathAsync(ctx, pt(0, 0), pt(7, 7))
	if path := <-ch; len(path) != 0 {
		t.Fatalf("cancelled search returned %v", path)
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after the single result")
	}
}

func TestPathCost(t *testing.T) {
	if got := PathCost(pt(0, 0), nil); got != 0 {
		t.Fatalf("empty path cost = %v", got)
	}
	got := PathCost(pt(0, 0), []models.GridPoint{pt(1, 0), pt(2, 1), pt(2, 2)})
	if want := 2 + math.Sqrt2; math.Abs(got-want) > 1e-9 {
		t.Fatalf("cost = %v, want %v", got, want)
	}
}

func TestFindPathRingScenario(t *testing.T) {
	g := NewGrid(10, 10)
	for i := 0; i < 10; i++ {
		g.Block(i, 0)
		g.Block(i, 9)
		g.Block(0, i)
		g.Block(9, i)
	}
	start, goal := pt(1, 1), pt(8, 8)

	path := g.FindPath(start, goal)
	assertValidPath(t, g, start, goal, path)
	if len(path) != 7 {
		t.Fatalf("len(path) = %d, want 7: %v", len(path), path)
	}
	for i, p := range path {
		if want := pt(2+i, 2+i); p != want {
			t.Fatalf("path[%d] = %v, want %v", i, p, want)
		}
	}
}

func TestNewGridOversized(t *testing.T) {
	huge := math.MaxInt / 2
	g := NewGrid(huge, 3)
	if g.Width != 0 || g.Height != 0 {
		t.Fatalf("grid = %dx%d, want empty", g.Width, g.Height)
	}

	// 범위 밖 접근은 무시
	g.Block(0, 0)
	if !g.IsBlocked(1, 1) {
		t.Fatal("cell of an empty grid should be blocked")
	}
	if path := g.FindPath(pt(0, 0), pt(1, 1)); len(path) != 0 {
		t.Fatalf("path = %v, want empty", path)
	}
}
