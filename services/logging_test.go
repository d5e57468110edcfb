package services

import (
	"context"
	"testing"
	"time"

	"ramen-office/models"
)

func seedLogs(t *testing.T, lb *LogBuffer) {
	t.Helper()
	desk := 3
	dev := models.Device{MAC: "aa:aa", CharacterID: 1, DeskID: &desk}
	lb.now = func() time.Time { return epoch }
	lb.LogDevice(models.EventDeviceConnected, dev, "192.168.1.2")

	lb.LogActivity(ActivityEvent{
		Type: models.EventActivityStarted, ActorID: "aa:aa", Label: "Device 2",
		ZoneID: "kitchen", Waypoint: gp(4, 19), At: epoch.Add(time.Minute),
	})
	lb.LogActivity(ActivityEvent{
		Type: models.EventActivityArrived, ActorID: "aa:aa", Label: "Device 2",
		ZoneID: "kitchen", Waypoint: gp(4, 19), Duration: 90 * time.Second, At: epoch.Add(2 * time.Minute),
	})
	lb.Add(models.ActivityLog{EventType: models.EventDeviceConnected, DeviceID: "bb:bb", CreatedAt: epoch.Add(-3 * time.Hour)})

	if err := lb.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestLogBufferFlushAndQueries(t *testing.T) {
	db := newTestDB(t)
	lb := NewLogBuffer(db, 100, time.Hour, nil)
	seedLogs(t, lb)

	if lb.Pending() != 0 {
		t.Fatalf("pending = %d after flush", lb.Pending())
	}
	q := NewLogQuery(db)

	recent, err := q.Recent("aa:aa", 10)
	if err != nil || len(recent) != 3 {
		t.Fatalf("recent = %d err=%v, want 3", len(recent), err)
	}
	if recent[0].EventType != models.EventActivityArrived || recent[0].DurationMS != 90000 {
		t.Fatalf("newest log = %+v", recent[0])
	}
	if recent[2].DeskID != 3 || recent[2].Label != "Device 2" {
		t.Fatalf("device log = %+v", recent[2])
	}

	all, _ := q.Recent("", 10)
	if len(all) != 4 {
		t.Fatalf("all = %d, want 4", len(all))
	}

	ranged, err := q.ByTimeRange("", epoch.Add(-time.Hour), epoch.Add(90*time.Second), 0)
	if err != nil || len(ranged) != 2 {
		t.Fatalf("range = %d err=%v, want 2", len(ranged), err)
	}

	byType, err := q.ByEventType("", models.EventDeviceConnected, 10)
	if err != nil || len(byType) != 2 {
		t.Fatalf("by type = %d err=%v, want 2", len(byType), err)
	}

	stats, err := q.Stats("", 1, epoch.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalLogs != 3 || stats.EventCounts[models.EventActivityStarted] != 1 || stats.EventCounts[models.EventDeviceConnected] != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.TimeRange != "Last 1 hours" {
		t.Fatalf("time range = %q", stats.TimeRange)
	}
}

func TestLogBufferFlushWhenFull(t *testing.T) {
	db := newTestDB(t)
	lb := NewLogBuffer(db, 2, time.Hour, nil)
	lb.Add(models.ActivityLog{EventType: models.EventDeviceConnected, DeviceID: "a"})
	lb.Add(models.ActivityLog{EventType: models.EventDeviceConnected, DeviceID: "b"})

	deadline := time.Now().Add(2 * time.Second)
	for {
		var n int64
		db.Model(&models.ActivityLog{}).Count(&n)
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("saved = %d, want 2 after buffer filled", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLogBufferRunFlushesOnShutdown(t *testing.T) {
	db := newTestDB(t)
	lb := NewLogBuffer(db, 100, time.Hour, nil)
	lb.Add(models.ActivityLog{EventType: models.EventDeviceRenamed, DeviceID: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := lb.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var n int64
	db.Model(&models.ActivityLog{}).Count(&n)
	if n != 1 {
		t.Fatalf("saved = %d, want 1", n)
	}
}
