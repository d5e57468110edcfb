package services

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ramen-office/models"
)

var (
	arpIPPattern  = regexp.MustCompile(`\((\d+\.\d+\.\d+\.\d+)\)`)
	arpMACPattern = regexp.MustCompile(`at\s+([0-9a-fA-F:]+)`)
)

// ArpSource - ARP 테이블 공급자
type ArpSource interface {
	Scan(ctx context.Context) ([]models.NetworkDevice, error)
}

// CommandArpSource - `arp -a` 실행 결과를 읽는 공급자
type CommandArpSource struct {
	Subnet netip.Prefix
}

// Scan - arp -a 실행 후 파싱
func (s CommandArpSource) Scan(ctx context.Context) ([]models.NetworkDevice, error) {
	out, err := exec.CommandContext(ctx, "arp", "-a").Output()
	if err != nil {
		return nil, fmt.Errorf("run arp: %w", err)
	}
	return ParseArpOutput(string(out), s.Subnet), nil
}

// ParseArpOutput - `host (ip) at mac ...` 형식의 줄에서 디바이스 추출
//
// 브로드캐스트, incomplete, 멀티캐스트(224., 239.), 무작위 MAC, subnet 밖의
// 주소는 건너뛴다. subnet이 유효하지 않으면 주소 범위는 검사하지 않는다.
func ParseArpOutput(output string, subnet netip.Prefix) []models.NetworkDevice {
	var devices []models.NetworkDevice
	for _, line := range strings.Split(output, "\n") {
		ipMatch := arpIPPattern.FindStringSubmatch(line)
		macMatch := arpMACPattern.FindStringSubmatch(line)
		if ipMatch == nil || macMatch == nil {
			continue
		}
		ip := ipMatch[1]
		mac := strings.ToLower(macMatch[1])

		if mac == "ff:ff:ff:ff:ff:ff" || strings.Contains(line, "incomplete") {
			continue
		}
		if strings.HasPrefix(ip, "224.") || strings.HasPrefix(ip, "239.") {
			continue
		}
		if IsRandomizedMAC(mac) {
			continue
		}
		if subnet.IsValid() {
			addr, err := netip.ParseAddr(ip)
			if err != nil || !subnet.Contains(addr) {
				continue
			}
		}
		devices = append(devices, models.NetworkDevice{IP: ip, MAC: mac})
	}
	return devices
}

// DeviceListener - 접속/이탈 이벤트 수신자
type DeviceListener interface {
	DeviceConnected(dev models.Device)
	DeviceDisconnected(dev models.Device)
}

// Scanner - 주기적으로 ARP 테이블을 읽어 접속/이탈을 판정
type Scanner struct {
	source   ArpSource
	registry *DeviceRegistry
	listener DeviceListener
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	lastKnown map[string]struct{}
}

// NewScanner - 스캐너 생성
func NewScanner(source ArpSource, registry *DeviceRegistry, listener DeviceListener, interval time.Duration, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		source:    source,
		registry:  registry,
		listener:  listener,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		lastKnown: make(map[string]struct{}),
	}
}

// LoadKnown - 저장소의 온라인 디바이스로 직전 스캔 결과 초기화
func (s *Scanner) LoadKnown() error {
	online, err := s.registry.Online()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range online {
		s.lastKnown[d.MAC] = struct{}{}
	}
	s.logger.Info("scanner initialized", zap.Int("known_devices", len(s.lastKnown)))
	return nil
}

// Process - 스캔 결과 반영 (새 디바이스 → 접속, 사라진 디바이스와 오래된 디바이스 → 이탈)
func (s *Scanner) Process(scanned []models.NetworkDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	current := make(map[string]struct{}, len(scanned))
	var errs []error

	for _, nd := range scanned {
		current[nd.MAC] = struct{}{}
		_, wasOnline := s.lastKnown[nd.MAC]
		dev, _, err := s.registry.Register(nd.MAC, nd.IP, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !wasOnline {
			s.listener.DeviceConnected(dev)
		}
	}

	for mac := range s.lastKnown {
		if _, ok := current[mac]; ok {
			continue
		}
		dev, err := s.registry.MarkOffline(mac)
		if errors.Is(err, ErrDeviceNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.listener.DeviceDisconnected(dev)
	}

	stale, err := s.registry.CheckStale(now)
	if err != nil {
		errs = append(errs, err)
	}
	for _, dev := range stale {
		s.listener.DeviceDisconnected(dev)
	}

	s.lastKnown = current
	return errors.Join(errs...)
}

// ScanOnce - 한 번 스캔하고 반영
func (s *Scanner) ScanOnce(ctx context.Context) error {
	devices, err := s.source.Scan(ctx)
	if err != nil {
		return err
	}
	return s.Process(devices)
}

// Run - interval마다 스캔 (ctx 종료 시 반환)
func (s *Scanner) Run(ctx context.Context) error {
	if err := s.LoadKnown(); err != nil {
		return fmt.Errorf("load known devices: %w", err)
	}

	s.logger.Info("network scanner started", zap.Duration("interval", s.interval))
	scan := func() {
		if err := s.ScanOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("network scan failed", zap.Error(err))
		}
	}
	scan()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("network scanner stopped")
			return nil
		case <-ticker.C:
			scan()
		}
	}
}

// SimulateConnect - 테스트용 접속 이벤트
func (s *Scanner) SimulateConnect(mac, ip string) (models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, _, err := s.registry.Register(mac, ip, s.now())
	if err != nil {
		return models.Device{}, err
	}
	s.lastKnown[mac] = struct{}{}
	s.listener.DeviceConnected(dev)
	return dev, nil
}

// SimulateDisconnect - 테스트용 이탈 이벤트
func (s *Scanner) SimulateDisconnect(mac string) (models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, err := s.registry.MarkOffline(mac)
	delete(s.lastKnown, mac)
	if err != nil {
		return models.Device{}, err
	}
	s.listener.DeviceDisconnected(dev)
	return dev, nil
}
