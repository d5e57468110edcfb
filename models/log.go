package models

import (
	"time"
)

// 활동 로그 이벤트 타입
const (
	EventDeviceConnected    = "device_connected"
	EventDeviceDisconnected = "device_disconnected"
	EventDeviceRenamed      = "device_renamed"
	EventActivityStarted    = "activity_started"
	EventActivityArrived    = "activity_arrived"
	EventActivityFailed     = "activity_failed"
	EventActivityReturning  = "activity_returning"
	EventActivityReturned   = "activity_returned"
)

// ActivityLog - 디바이스/캐릭터 행동 로그
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	EventType string    `gorm:"size:32;index" json:"event_type"`

	// 대상
	DeviceID string `gorm:"size:32;index" json:"device_id"`
	Label    string `gorm:"size:128" json:"label"`

	// 위치 정보
	ZoneID string `gorm:"size:32" json:"zone_id"`
	DeskID int    `json:"desk_id"`
	GridX  int    `json:"grid_x"`
	GridY  int    `json:"grid_y"`

	// 메타데이터
	DurationMS int64  `json:"duration_ms"`
	Detail     string `json:"detail"`
}

// LogStats - 로그 통계
type LogStats struct {
	TotalLogs   int64            `json:"total_logs"`
	EventCounts map[string]int64 `json:"event_counts"`
	TimeRange   string           `json:"time_range"`
}
