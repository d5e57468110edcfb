package services

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"ramen-office/models"
)

const sampleArp = `? (192.168.1.1) at 14:7d:da:aa:bb:cc on en0 ifscope [ethernet]
mina-mbp (192.168.1.23) at 3C:06:30:11:22:33 on en0 ifscope [ethernet]
? (192.168.1.40) at (incomplete) on en0 ifscope [ethernet]
? (192.168.1.255) at ff:ff:ff:ff:ff:ff on en0 ifscope [ethernet]
? (224.0.0.251) at 1:0:5e:0:0:fb on en0 ifscope permanent [ethernet]
? (239.255.255.250) at 1:0:5e:7f:ff:fa on en0 ifscope permanent [ethernet]
iphone (192.168.1.51) at da:11:22:33:44:55 on en0 ifscope [ethernet]
? (10.0.0.7) at 00:11:22:33:44:55 on en1 ifscope [ethernet]
garbage line without address`

func TestParseArpOutput(t *testing.T) {
	devices := ParseArpOutput(sampleArp, netip.MustParsePrefix("192.168.1.0/24"))
	want := []models.NetworkDevice{
		{IP: "192.168.1.1", MAC: "14:7d:da:aa:bb:cc"},
		{IP: "192.168.1.23", MAC: "3c:06:30:11:22:33"},
	}
	if len(devices) != len(want) {
		t.Fatalf("devices = %+v, want %+v", devices, want)
	}
	for i := range want {
		if devices[i] != want[i] {
			t.Fatalf("devices[%d] = %+v, want %+v", i, devices[i], want[i])
		}
	}

	// subnet이 없으면 범위 검사 생략
	if all := ParseArpOutput(sampleArp, netip.Prefix{}); len(all) != 3 {
		t.Fatalf("without subnet = %d devices, want 3", len(all))
	}
}

type fakeArpSource struct {
	devices []models.NetworkDevice
	err     error
}

func (f *fakeArpSource) Scan(context.Context) ([]models.NetworkDevice, error) {
	return f.devices, f.err
}

type fakeListener struct {
	connected    []string
	disconnected []string
}

func (l *fakeListener) DeviceConnected(dev models.Device) {
	l.connected = append(l.connected, dev.MAC)
}

func (l *fakeListener) DeviceDisconnected(dev models.Device) {
	l.disconnected = append(l.disconnected, dev.MAC)
}

func newTestScanner(t *testing.T, source ArpSource) (*Scanner, *fakeListener, *fakeClock) {
	t.Helper()
	reg := NewDeviceRegistry(newTestDB(t), 5*time.Minute, nil)
	listener := &fakeListener{}
	clock := &fakeClock{now: epoch}
	s := NewScanner(source, reg, listener, time.Second, nil)
	s.now = clock.Now
	return s, listener, clock
}

func TestScannerConnectAndDisconnect(t *testing.T) {
	source := &fakeArpSource{devices: []models.NetworkDevice{
		{IP: "192.168.1.2", MAC: "00:11:22:00:00:01"},
		{IP: "192.168.1.3", MAC: "00:11:22:00:00:02"},
	}}
	s, listener, clock := newTestScanner(t, source)

	if err := s.ScanOnce(context.Background()); err != nil {
		t.Fatalf("ScanOnce: %v", err)
	}
	if len(listener.connected) != 2 {
		t.Fatalf("connected = %v, want 2", listener.connected)
	}

	// 같은 결과를 다시 스캔하면 이벤트 없음
	clock.Add(time.Minute)
	s.ScanOnce(context.Background())
	if len(listener.connected) != 2 || len(listener.disconnected) != 0 {
		t.Fatalf("repeat scan produced events: %+v", listener)
	}

	source.devices = source.devices[:1]
	clock.Add(time.Minute)
	s.ScanOnce(context.Background())
	if len(listener.disconnected) != 1 || listener.disconnected[0] != "00:11:22:00:00:02" {
		t.Fatalf("disconnected = %v", listener.disconnected)
	}
	dev, _ := s.registry.Get("00:11:22:00:00:02")
	if dev.Online {
		t.Fatal("missing device should be stored offline")
	}
}

func TestScannerStaleDevices(t *testing.T) {
	s, listener, clock := newTestScanner(t, &fakeArpSource{})

	// 이전 실행에서 온라인으로 남은 디바이스 (lastKnown에 없음)
	if _, _, err := s.registry.Register("00:11:22:00:00:09", "192.168.1.9", epoch.Add(-10*time.Minute)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	clock.Add(time.Second)
	if err := s.Process(nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(listener.disconnected) != 1 || listener.disconnected[0] != "00:11:22:00:00:09" {
		t.Fatalf("disconnected = %v, want stale device", listener.disconnected)
	}
}

func TestScannerLoadKnownSuppressesReconnect(t *testing.T) {
	source := &fakeArpSource{devices: []models.NetworkDevice{{IP: "192.168.1.2", MAC: "00:11:22:00:00:01"}}}
	s, listener, _ := newTestScanner(t, source)
	s.registry.Register("00:11:22:00:00:01", "192.168.1.2", epoch)

	if err := s.LoadKnown(); err != nil {
		t.Fatalf("LoadKnown: %v", err)
	}
	s.ScanOnce(context.Background())
	if len(listener.connected) != 0 {
		t.Fatalf("known device reported as new: %v", listener.connected)
	}
}

func TestScannerSourceError(t *testing.T) {
	boom := errors.New("arp failed")
	s, listener, _ := newTestScanner(t, &fakeArpSource{err: boom})
	if err := s.ScanOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(listener.connected)+len(listener.disconnected) != 0 {
		t.Fatal("failed scan should not produce events")
	}
}

func TestScannerSimulate(t *testing.T) {
	s, listener, _ := newTestScanner(t, &fakeArpSource{})

	dev, err := s.SimulateConnect("00:11:22:00:00:05", "192.168.1.5")
	if err != nil || !dev.Online {
		t.Fatalf("SimulateConnect dev=%+v err=%v", dev, err)
	}
	if _, err := s.SimulateDisconnect("00:11:22:00:00:06"); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("unknown disconnect err = %v", err)
	}
	dev, err = s.SimulateDisconnect("00:11:22:00:00:05")
	if err != nil || dev.Online {
		t.Fatalf("SimulateDisconnect dev=%+v err=%v", dev, err)
	}
	if len(listener.connected) != 1 || len(listener.disconnected) != 1 {
		t.Fatalf("events = %+v", listener)
	}

	// 이미 이탈한 디바이스는 다음 스캔에서 다시 이탈 처리하지 않음
	s.Process(nil)
	if len(listener.disconnected) != 1 {
		t.Fatal("simulated disconnect reported twice")
	}
}

func TestScannerRunStopsOnCancel(t *testing.T) {
	s, _, _ := newTestScanner(t, &fakeArpSource{})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
