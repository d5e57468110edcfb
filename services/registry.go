package services

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ramen-office/models"
)

// ErrDeviceNotFound - 등록되지 않은 디바이스
var ErrDeviceNotFound = errors.New("device not found")

// DeviceRegistry - 알려진 디바이스 저장소
type DeviceRegistry struct {
	db               *gorm.DB
	offlineThreshold time.Duration
	logger           *zap.Logger
}

// NewDeviceRegistry - 레지스트리 생성
func NewDeviceRegistry(db *gorm.DB, offlineThreshold time.Duration, logger *zap.Logger) *DeviceRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeviceRegistry{db: db, offlineThreshold: offlineThreshold, logger: logger}
}

// Get - MAC으로 조회
func (r *DeviceRegistry) Get(mac string) (models.Device, error) {
	var dev models.Device
	err := r.db.First(&dev, "mac = ?", mac).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Device{}, ErrDeviceNotFound
	}
	if err != nil {
		return models.Device{}, fmt.Errorf("get device %s: %w", mac, err)
	}
	return dev, nil
}

// All - 전체 디바이스 (등록 순)
func (r *DeviceRegistry) All() ([]models.Device, error) {
	var devices []models.Device
	if err := r.db.Order("created_at ASC, mac ASC").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// Online - 접속 중인 디바이스
func (r *DeviceRegistry) Online() ([]models.Device, error) {
	var devices []models.Device
	if err := r.db.Where("online = ?", true).Order("created_at ASC, mac ASC").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("list online devices: %w", err)
	}
	return devices, nil
}

// Register - 스캔된 디바이스 등록 또는 갱신 (처음 보는 디바이스면 created=true)
func (r *DeviceRegistry) Register(mac, ip string, now time.Time) (models.Device, bool, error) {
	dev, err := r.Get(mac)
	switch {
	case errors.Is(err, ErrDeviceNotFound):
		info := LookupVendor(mac)
		dev = models.Device{
			MAC:         mac,
			IP:          ip,
			CharacterID: SpriteIndex(mac, SpriteCount),
			Online:      true,
			LastSeen:    now,
			DeviceType:  info.Type,
			Vendor:      info.Vendor,
		}
		if err := r.db.Create(&dev).Error; err != nil {
			return models.Device{}, false, fmt.Errorf("create device %s: %w", mac, err)
		}
		r.logger.Info("new device",
			zap.String("mac", mac),
			zap.String("vendor", info.Vendor),
			zap.String("type", string(info.Type)),
		)
		return dev, true, nil
	case err != nil:
		return models.Device{}, false, err
	}

	dev.IP = ip
	dev.Online = true
	dev.LastSeen = now
	if dev.DeviceType == "" {
		info := LookupVendor(mac)
		dev.DeviceType = info.Type
		dev.Vendor = info.Vendor
	}
	if err := r.db.Save(&dev).Error; err != nil {
		return models.Device{}, false, fmt.Errorf("update device %s: %w", mac, err)
	}
	return dev, false, nil
}

// update - 조회 후 fn 적용하여 저장
func (r *DeviceRegistry) update(mac string, fn func(*models.Device)) (models.Device, error) {
	dev, err := r.Get(mac)
	if err != nil {
		return models.Device{}, err
	}
	fn(&dev)
	if err := r.db.Save(&dev).Error; err != nil {
		return models.Device{}, fmt.Errorf("save device %s: %w", mac, err)
	}
	return dev, nil
}

// MarkOffline - 이탈 처리
func (r *DeviceRegistry) MarkOffline(mac string) (models.Device, error) {
	return r.update(mac, func(d *models.Device) { d.Online = false })
}

// AssignDesk - 책상 배정
func (r *DeviceRegistry) AssignDesk(mac string, deskID int) (models.Device, error) {
	return r.update(mac, func(d *models.Device) {
		id := deskID
		d.DeskID = &id
	})
}

// SetDisplayName - 표시 이름 변경
func (r *DeviceRegistry) SetDisplayName(mac, name string) (models.Device, error) {
	return r.update(mac, func(d *models.Device) { d.DisplayName = name })
}

// CheckStale - 마지막 응답 이후 offlineThreshold가 지난 온라인 디바이스를 오프라인 처리
func (r *DeviceRegistry) CheckStale(now time.Time) ([]models.Device, error) {
	var stale []models.Device
	cutoff := now.Add(-r.offlineThreshold)
	if err := r.db.Where("online = ? AND last_seen < ?", true, cutoff).Find(&stale).Error; err != nil {
		return nil, fmt.Errorf("find stale devices: %w", err)
	}
	if len(stale) == 0 {
		return nil, nil
	}

	macs := make([]string, 0, len(stale))
	for i := range stale {
		stale[i].Online = false
		macs = append(macs, stale[i].MAC)
	}
	err := r.db.Model(&models.Device{}).Where("mac IN ?", macs).Update("online", false).Error
	if err != nil {
		return nil, fmt.Errorf("mark stale devices offline: %w", err)
	}
	return stale, nil
}
