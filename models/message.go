package models

import "time"

// ========================================
// 메시지 타입 상수
// ========================================
const (
	// Server → Web
	MessageTypeFullState          = "state:full"          // 전체 상태
	MessageTypeDeviceConnected    = "device:connected"    // 디바이스 접속
	MessageTypeDeviceDisconnected = "device:disconnected" // 디바이스 이탈
	MessageTypeDeviceUpdated      = "device:updated"      // 이름 변경 등
	MessageTypeActorSpawned       = "actor:spawned"       // 캐릭터 생성
	MessageTypeActorStep          = "actor:step"          // 한 칸 이동 시작
	MessageTypeActorActivity      = "actor:activity"      // 활동 상태 전이
	MessageTypeActorRemoved       = "actor:removed"       // 캐릭터 제거
	MessageTypeZoneOccupancy      = "zone:occupancy"      // 구역 점유 변경

	// Web → Server
	MessageTypeRequestState = "request:state" // 전체 상태 재요청
)

// ========================================
// 공통 WebSocket 메시지 형식
// ========================================
type WebSocketMessage struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp (ms)
}

// NewMessage - 현재 시각으로 메시지 생성
func NewMessage(msgType string, payload any) WebSocketMessage {
	return WebSocketMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// FullStatePayload - 접속 직후 전송하는 전체 상태
type FullStatePayload struct {
	Devices []Device        `json:"devices"`
	Desks   []Desk          `json:"desks"`
	Zones   []ActivityZone  `json:"zones"`
	Actors  []ActorSnapshot `json:"actors"`
}

// DeviceEventPayload - 디바이스 이벤트
type DeviceEventPayload struct {
	Device Device `json:"device"`
}

// ActorStepPayload - 한 칸 이동 (클라이언트가 DurationMS 동안 선형 보간)
type ActorStepPayload struct {
	ID         string    `json:"id"`
	From       Pixel     `json:"from"`
	To         Pixel     `json:"to"`
	Cell       GridPoint `json:"cell"`
	Facing     Facing    `json:"facing"`
	DurationMS int64     `json:"durationMs"`
}

// ActorActivityPayload - 활동 상태 전이
type ActorActivityPayload struct {
	ID       string        `json:"id"`
	Activity ActivityState `json:"activity"`
	ZoneID   string        `json:"zoneId,omitempty"`
}

// ActorRemovedPayload - 캐릭터 제거
type ActorRemovedPayload struct {
	ID string `json:"id"`
}
