package models

import (
	"errors"
	"fmt"
	"time"
)

// GridPoint - 타일 그리드 좌표
type GridPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pixel - 화면 픽셀 좌표 (타일 중심 기준)
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ========================================
// 사무실 정적 구성
// ========================================

// Desk - 디바이스에 배정되는 의자 위치
type Desk struct {
	ID      int    `json:"id"`
	GridX   int    `json:"gridX"`
	GridY   int    `json:"gridY"`
	TableID int    `json:"tableId"`
	Side    string `json:"side"` // "top" | "bottom"
}

// Cell - 책상의 그리드 좌표
func (d Desk) Cell() GridPoint {
	return GridPoint{X: d.GridX, Y: d.GridY}
}

// Table - 충돌 맵에 반영되는 가구 영역
type Table struct {
	ID     int    `json:"id"`
	GridX  int    `json:"gridX"` // 왼쪽 끝
	GridY  int    `json:"gridY"` // 위쪽 끝
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// MeetingRoom - 유리벽과 출입문이 있는 회의실
type MeetingRoom struct {
	GridX  int         `json:"gridX"`
	GridY  int         `json:"gridY"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Doors  []GridPoint `json:"doors"`
	Name   string      `json:"name"`
}

// ActivityZone - 캐릭터가 자율적으로 방문하는 공용 공간
type ActivityZone struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Waypoints     []GridPoint      `json:"waypoints"`
	Capacity      int              `json:"capacity"`
	DurationRange [2]time.Duration `json:"durationRange"`
	Weight        float64          `json:"weight"`
}

// Validate - 구역 설정 검증
func (z ActivityZone) Validate() error {
	if z.ID == "" {
		return errors.New("activity zone id is empty")
	}
	if z.Capacity <= 0 {
		return fmt.Errorf("zone %s: capacity must be positive, got %d", z.ID, z.Capacity)
	}
	if z.Weight <= 0 {
		return fmt.Errorf("zone %s: weight must be positive, got %v", z.ID, z.Weight)
	}
	if z.DurationRange[0] < 0 || z.DurationRange[0] > z.DurationRange[1] {
		return fmt.Errorf("zone %s: invalid duration range %v", z.ID, z.DurationRange)
	}
	if len(z.Waypoints) == 0 {
		return fmt.Errorf("zone %s: no waypoints", z.ID)
	}
	return nil
}

// ========================================
// 캐릭터 상태
// ========================================

// MovementState - 이동 상태
type MovementState string

const (
	MovementIdle    MovementState = "idle"
	MovementWalking MovementState = "walking"
)

// ActivityState - 활동 상태
type ActivityState string

const (
	ActivityAtDesk            ActivityState = "at_desk"
	ActivityWalkingToActivity ActivityState = "walking_to_activity"
	ActivityAtActivity        ActivityState = "at_activity"
	ActivityReturningToDesk   ActivityState = "returning_to_desk"
)

// Facing - 캐릭터가 바라보는 방향
type Facing string

const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// ActorSnapshot - 렌더링용 캐릭터 상태
type ActorSnapshot struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Sprite   int           `json:"sprite"`
	Position Pixel         `json:"position"`
	Facing   Facing        `json:"facing"`
	Movement MovementState `json:"movement"`
	Activity ActivityState `json:"activity"`
	Desk     *GridPoint    `json:"desk,omitempty"`
	ZoneID   string        `json:"zoneId,omitempty"`
	Leaving  bool          `json:"leaving"`
	Fading   bool          `json:"fading"`
}

// ZoneOccupancy - 구역별 점유 현황
type ZoneOccupancy struct {
	ZoneID    string   `json:"zoneId"`
	Count     int      `json:"count"`
	Capacity  int      `json:"capacity"`
	Occupants []string `json:"occupants"`
}
