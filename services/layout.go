package services

import (
	"fmt"
	"math"
	"time"

	"ramen-office/algorithms"
	"ramen-office/models"
)

// 맵 기본 크기
const (
	TileSize  = 32
	MapWidth  = 30
	MapHeight = 22
)

// OfficeLayout - 사무실 정적 배치 (책상, 가구, 활동 구역)
type OfficeLayout struct {
	Width       int                   `json:"width"`
	Height      int                   `json:"height"`
	TileSize    int                   `json:"tileSize"`
	Tables      []models.Table        `json:"tables"`
	Furniture   []models.Table        `json:"furniture"`
	MeetingRoom models.MeetingRoom    `json:"meetingRoom"`
	Desks       []models.Desk         `json:"desks"`
	Zones       []models.ActivityZone `json:"zones"`
	Entry       models.GridPoint      `json:"entry"`
}

// DefaultOfficeLayout - 기본 사무실 배치
//
// 테이블 4개 주변 의자 28개, 긴 테이블(Table 5), 당구대, 회의실,
// 주방, 라운지, 우측 하단 출입구로 구성된다.
func DefaultOfficeLayout() *OfficeLayout {
	return &OfficeLayout{
		Width:    MapWidth,
		Height:   MapHeight,
		TileSize: TileSize,
		Tables: []models.Table{
			{ID: 1, GridX: 3, GridY: 4, Width: 6, Height: 2, Name: "Table 1"},
			{ID: 2, GridX: 17, GridY: 4, Width: 3, Height: 2, Name: "Table 2"},
			{ID: 3, GridX: 3, GridY: 11, Width: 6, Height: 2, Name: "Table 3"},
			{ID: 4, GridX: 17, GridY: 11, Width: 3, Height: 2, Name: "Table 4"},
			{ID: 5, GridX: 12, GridY: 4, Width: 2, Height: 4, Name: "Table 5"},
		},
		Furniture: []models.Table{
			{ID: 101, GridX: 23, GridY: 10, Width: 3, Height: 3, Name: "Pool Table"},
			{ID: 102, GridX: 24, GridY: 2, Width: 3, Height: 2, Name: "Meeting Table"},
			{ID: 103, GridX: 1, GridY: 20, Width: 6, Height: 1, Name: "Kitchen Counter"},
			{ID: 104, GridX: 10, GridY: 20, Width: 5, Height: 1, Name: "Lounge Couch"},
		},
		MeetingRoom: models.MeetingRoom{
			GridX:  21,
			GridY:  1,
			Width:  8,
			Height: 6,
			Doors:  []models.GridPoint{{X: 24, Y: 6}, {X: 26, Y: 6}},
			Name:   "Meeting Room",
		},
		Desks: defaultDesks(),
		Zones: []models.ActivityZone{
			{
				ID:   "kitchen",
				Name: "Kitchen",
				Waypoints: []models.GridPoint{
					{X: 2, Y: 19}, {X: 3, Y: 19}, {X: 4, Y: 19}, {X: 5, Y: 19}, {X: 6, Y: 19},
				},
				Capacity:      3,
				DurationRange: [2]time.Duration{15 * time.Second, 40 * time.Second},
				Weight:        3,
			},
			{
				ID:   "lounge",
				Name: "Lounge",
				Waypoints: []models.GridPoint{
					{X: 10, Y: 19}, {X: 11, Y: 19}, {X: 12, Y: 19}, {X: 13, Y: 19}, {X: 14, Y: 19},
				},
				Capacity:      4,
				DurationRange: [2]time.Duration{30 * time.Second, 90 * time.Second},
				Weight:        2,
			},
			{
				ID:   "pool",
				Name: "Pool Table",
				Waypoints: []models.GridPoint{
					{X: 22, Y: 10}, {X: 22, Y: 12}, {X: 26, Y: 10}, {X: 26, Y: 12}, {X: 24, Y: 9}, {X: 24, Y: 13},
				},
				Capacity:      4,
				DurationRange: [2]time.Duration{45 * time.Second, 120 * time.Second},
				Weight:        2,
			},
			{
				ID:   "meeting",
				Name: "Meeting Room",
				Waypoints: []models.GridPoint{
					{X: 23, Y: 2}, {X: 23, Y: 3}, {X: 27, Y: 2}, {X: 27, Y: 3},
					{X: 24, Y: 4}, {X: 25, Y: 4}, {X: 26, Y: 4}, {X: 25, Y: 1},
				},
				Capacity:      6,
				DurationRange: [2]time.Duration{60 * time.Second, 180 * time.Second},
				Weight:        1,
			},
			{
				ID:   "table5",
				Name: "Table 5",
				Waypoints: []models.GridPoint{
					{X: 11, Y: 4}, {X: 11, Y: 5}, {X: 11, Y: 6}, {X: 11, Y: 7},
					{X: 14, Y: 4}, {X: 14, Y: 5}, {X: 14, Y: 6}, {X: 14, Y: 7},
				},
				Capacity:      4,
				DurationRange: [2]time.Duration{30 * time.Second, 90 * time.Second},
				Weight:        1,
			},
		},
		Entry: models.GridPoint{X: 26, Y: 20},
	}
}

// defaultDesks - 테이블 위/아래 의자 배치
func defaultDesks() []models.Desk {
	type row struct {
		tableID int
		xs      []int
		y       int
		side    string
	}
	rows := []row{
		{tableID: 1, xs: []int{3, 4, 5, 6, 7}, y: 3, side: "top"},
		{tableID: 1, xs: []int{3, 4, 5, 6, 7}, y: 6, side: "bottom"},
		{tableID: 2, xs: []int{17, 18}, y: 3, side: "top"},
		{tableID: 2, xs: []int{17, 18}, y: 6, side: "bottom"},
		{tableID: 3, xs: []int{3, 4, 5, 6, 7}, y: 10, side: "top"},
		{tableID: 3, xs: []int{3, 4, 5, 6, 7}, y: 13, side: "bottom"},
		{tableID: 4, xs: []int{17, 18}, y: 10, side: "top"},
		{tableID: 4, xs: []int{17, 18}, y: 13, side: "bottom"},
	}

	desks := make([]models.Desk, 0, 28)
	for _, r := range rows {
		for _, x := range r.xs {
			desks = append(desks, models.Desk{
				ID:      len(desks) + 1,
				GridX:   x,
				GridY:   r.y,
				TableID: r.tableID,
				Side:    r.side,
			})
		}
	}
	return desks
}

// CollisionMap - [y][x] 충돌 맵 생성 (1: 막힘)
func (l *OfficeLayout) CollisionMap() [][]int {
	m := make([][]int, l.Height)
	for y := 0; y < l.Height; y++ {
		m[y] = make([]int, l.Width)
		for x := 0; x < l.Width; x++ {
			// 외벽
			if x == 0 || x == l.Width-1 || y == 0 || y == l.Height-1 {
				m[y][x] = algorithms.CellBlocked
			}
		}
	}

	block := func(x, y int) {
		if y >= 0 && y < l.Height && x >= 0 && x < l.Width {
			m[y][x] = algorithms.CellBlocked
		}
	}
	fill := func(t models.Table) {
		for ty := t.GridY; ty < t.GridY+t.Height; ty++ {
			for tx := t.GridX; tx < t.GridX+t.Width; tx++ {
				block(tx, ty)
			}
		}
	}

	for _, t := range l.Tables {
		fill(t)
	}
	for _, f := range l.Furniture {
		fill(f)
	}

	// 회의실 유리벽 (좌측 벽 + 전면 벽, 문 위치는 비움)
	room := l.MeetingRoom
	if room.Width > 0 && room.Height > 0 {
		front := room.GridY + room.Height - 1
		for y := room.GridY; y <= front; y++ {
			block(room.GridX, y)
		}
		for x := room.GridX; x < room.GridX+room.Width; x++ {
			block(x, front)
		}
		for _, d := range room.Doors {
			if d.Y >= 0 && d.Y < l.Height && d.X >= 0 && d.X < l.Width {
				m[d.Y][d.X] = algorithms.CellFree
			}
		}
	}
	return m
}

// Grid - 경로 탐색용 그리드
func (l *OfficeLayout) Grid() *algorithms.Grid {
	return algorithms.NewGridFromMap(l.CollisionMap())
}

// Desk - ID로 책상 조회
func (l *OfficeLayout) Desk(id int) (models.Desk, bool) {
	for _, d := range l.Desks {
		if d.ID == id {
			return d, true
		}
	}
	return models.Desk{}, false
}

// Zone - ID로 활동 구역 조회
func (l *OfficeLayout) Zone(id string) (*models.ActivityZone, bool) {
	for i := range l.Zones {
		if l.Zones[i].ID == id {
			return &l.Zones[i], true
		}
	}
	return nil, false
}

// GridToPixel - 그리드 좌표 → 타일 중심 픽셀
func (l *OfficeLayout) GridToPixel(p models.GridPoint) models.Pixel {
	return GridToPixel(p, l.TileSize)
}

// PixelToGrid - 픽셀 → 그리드 좌표
func (l *OfficeLayout) PixelToGrid(p models.Pixel) models.GridPoint {
	return PixelToGrid(p, l.TileSize)
}

// GridToPixel - 그리드 좌표 → 타일 중심 픽셀
func GridToPixel(p models.GridPoint, tileSize int) models.Pixel {
	half := float64(tileSize) / 2
	return models.Pixel{
		X: float64(p.X*tileSize) + half,
		Y: float64(p.Y*tileSize) + half,
	}
}

// PixelToGrid - 픽셀 → 그리드 좌표
func PixelToGrid(p models.Pixel, tileSize int) models.GridPoint {
	return models.GridPoint{
		X: int(math.Floor(p.X / float64(tileSize))),
		Y: int(math.Floor(p.Y / float64(tileSize))),
	}
}

// Validate - 배치 검증 (ID 중복, 이동 불가 위치, 구역 설정)
func (l *OfficeLayout) Validate() error {
	grid := l.Grid()

	if !grid.IsWalkable(l.Entry) {
		return fmt.Errorf("entry point %+v is blocked", l.Entry)
	}

	seenDesks := make(map[int]bool, len(l.Desks))
	for _, d := range l.Desks {
		if seenDesks[d.ID] {
			return fmt.Errorf("duplicate desk id %d", d.ID)
		}
		seenDesks[d.ID] = true
		if !grid.IsWalkable(d.Cell()) {
			return fmt.Errorf("desk %d at (%d, %d) is blocked", d.ID, d.GridX, d.GridY)
		}
	}

	seenZones := make(map[string]bool, len(l.Zones))
	for _, z := range l.Zones {
		if err := z.Validate(); err != nil {
			return err
		}
		if seenZones[z.ID] {
			return fmt.Errorf("duplicate zone id %s", z.ID)
		}
		seenZones[z.ID] = true
		for _, wp := range z.Waypoints {
			if !grid.IsWalkable(wp) {
				return fmt.Errorf("zone %s waypoint (%d, %d) is blocked", z.ID, wp.X, wp.Y)
			}
		}
	}
	return nil
}
