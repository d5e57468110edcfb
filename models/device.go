package models

import (
	"strconv"
	"time"
)

// DeviceType - 벤더 정보로 추정한 기기 종류
type DeviceType string

const (
	DeviceLaptop  DeviceType = "laptop"
	DevicePhone   DeviceType = "phone"
	DeviceTablet  DeviceType = "tablet"
	DeviceRouter  DeviceType = "router"
	DeviceUnknown DeviceType = "unknown"
)

// ========================================
// 네트워크 디바이스 (영속 저장)
// ========================================
type Device struct {
	MAC         string     `gorm:"primaryKey;size:32" json:"id"`
	IP          string     `gorm:"size:64" json:"ip"`
	CharacterID int        `json:"characterId"`
	DeskID      *int       `json:"deskId"`
	DisplayName string     `gorm:"size:128" json:"displayName,omitempty"`
	Online      bool       `gorm:"index" json:"online"`
	LastSeen    time.Time  `json:"lastSeen"`
	DeviceType  DeviceType `gorm:"size:16" json:"deviceType,omitempty"`
	Vendor      string     `gorm:"size:64" json:"vendor,omitempty"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// Label - 화면에 표시할 이름
func (d *Device) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return "Device " + strconv.Itoa(d.CharacterID+1)
}

// NetworkDevice - ARP 테이블에서 읽은 항목
type NetworkDevice struct {
	IP  string `json:"ip"`
	MAC string `json:"mac"`
}

// VendorInfo - MAC OUI 조회 결과
type VendorInfo struct {
	Vendor string     `json:"vendor"`
	Type   DeviceType `json:"type"`
}
