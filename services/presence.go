package services

import (
	"sync"

	"go.uber.org/zap"

	"ramen-office/models"
)

// Presence - 디바이스 이벤트를 저장소, 웹 클라이언트, 시뮬레이터에 전달
type Presence struct {
	registry      *DeviceRegistry
	layout        *OfficeLayout
	sim           *OfficeSimulator
	logs          *LogBuffer
	broadcastFunc func(models.WebSocketMessage)
	logger        *zap.Logger

	mu sync.Mutex // 책상 배정 직렬화
}

// NewPresence - 생성 (logs는 nil 가능)
func NewPresence(registry *DeviceRegistry, layout *OfficeLayout, sim *OfficeSimulator, logs *LogBuffer, broadcastFunc func(models.WebSocketMessage), logger *zap.Logger) *Presence {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Presence{
		registry:      registry,
		layout:        layout,
		sim:           sim,
		logs:          logs,
		broadcastFunc: broadcastFunc,
		logger:        logger,
	}
}

func (p *Presence) broadcast(msgType string, payload any) {
	if p.broadcastFunc != nil {
		p.broadcastFunc(models.NewMessage(msgType, payload))
	}
}

func (p *Presence) logDevice(eventType string, dev models.Device, detail string) {
	if p.logs != nil {
		p.logs.LogDevice(eventType, dev, detail)
	}
}

// DeviceConnected - 책상 배정, 접속 알림, 캐릭터 생성
func (p *Presence) DeviceConnected(dev models.Device) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if deskID, ok := p.allocateDesk(dev); ok {
		if dev.DeskID == nil || *dev.DeskID != deskID {
			updated, err := p.registry.AssignDesk(dev.MAC, deskID)
			if err != nil {
				p.logger.Error("assign desk", zap.String("mac", dev.MAC), zap.Error(err))
			} else {
				dev = updated
			}
		}
	} else {
		p.logger.Warn("no free desk", zap.String("mac", dev.MAC))
		dev.DeskID = nil
	}

	p.broadcast(models.MessageTypeDeviceConnected, models.DeviceEventPayload{Device: dev})
	p.sim.DeviceConnected(dev.MAC, dev.Label(), dev.CharacterID, p.deskCell(dev))
	p.logDevice(models.EventDeviceConnected, dev, dev.IP)

	p.logger.Info("device connected", zap.String("mac", dev.MAC), zap.String("label", dev.Label()))
}

// DeviceDisconnected - 이탈 알림, 캐릭터 퇴장
func (p *Presence) DeviceDisconnected(dev models.Device) {
	p.broadcast(models.MessageTypeDeviceDisconnected, models.DeviceEventPayload{Device: dev})
	p.sim.DeviceDisconnected(dev.MAC)
	p.logDevice(models.EventDeviceDisconnected, dev, "")

	p.logger.Info("device disconnected", zap.String("mac", dev.MAC))
}

// Rename - 표시 이름 변경
func (p *Presence) Rename(mac, name string) (models.Device, error) {
	dev, err := p.registry.SetDisplayName(mac, name)
	if err != nil {
		return models.Device{}, err
	}
	p.broadcast(models.MessageTypeDeviceUpdated, models.DeviceEventPayload{Device: dev})
	p.sim.DeviceUpdated(dev.MAC, dev.Label())
	p.logDevice(models.EventDeviceRenamed, dev, name)
	return dev, nil
}

// Restore - 시작 시 온라인으로 남아 있는 디바이스의 캐릭터 복원
func (p *Presence) Restore() error {
	online, err := p.registry.Online()
	if err != nil {
		return err
	}
	for _, dev := range online {
		p.DeviceConnected(dev)
	}
	return nil
}

// FullState - 웹 클라이언트 초기 상태
func (p *Presence) FullState() (models.FullStatePayload, error) {
	devices, err := p.registry.All()
	if err != nil {
		return models.FullStatePayload{}, err
	}
	return models.FullStatePayload{
		Devices: devices,
		Desks:   p.layout.Desks,
		Zones:   p.layout.Zones,
		Actors:  p.sim.Snapshot(),
	}, nil
}

// allocateDesk - 기존 책상이 비어 있으면 유지, 아니면 첫 번째 빈 책상
func (p *Presence) allocateDesk(dev models.Device) (int, bool) {
	online, err := p.registry.Online()
	if err != nil {
		p.logger.Error("list online devices", zap.Error(err))
		return 0, false
	}

	occupied := make(map[int]bool, len(online))
	for _, other := range online {
		if other.MAC != dev.MAC && other.DeskID != nil {
			occupied[*other.DeskID] = true
		}
	}

	if dev.DeskID != nil && !occupied[*dev.DeskID] {
		if _, ok := p.layout.Desk(*dev.DeskID); ok {
			return *dev.DeskID, true
		}
	}
	for _, desk := range p.layout.Desks {
		if !occupied[desk.ID] {
			return desk.ID, true
		}
	}
	return 0, false
}

func (p *Presence) deskCell(dev models.Device) *models.GridPoint {
	if dev.DeskID == nil {
		return nil
	}
	desk, ok := p.layout.Desk(*dev.DeskID)
	if !ok {
		return nil
	}
	cell := desk.Cell()
	return &cell
}
