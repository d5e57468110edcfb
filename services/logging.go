package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ramen-office/models"
)

// LogBuffer - 활동 로그 버퍼 (일괄 저장)
type LogBuffer struct {
	db        *gorm.DB
	logger    *zap.Logger
	logs      []models.ActivityLog
	mu        sync.Mutex
	flushMu   sync.Mutex
	flushSize int           // 일괄 저장 크기
	flushTime time.Duration // 자동 플러시 주기
	now       func() time.Time
}

// NewLogBuffer - 로그 버퍼 생성
func NewLogBuffer(db *gorm.DB, flushSize int, flushInterval time.Duration, logger *zap.Logger) *LogBuffer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogBuffer{
		db:        db,
		logger:    logger,
		logs:      make([]models.ActivityLog, 0, flushSize*2),
		flushSize: flushSize,
		flushTime: flushInterval,
		now:       time.Now,
	}
}

// Run - 주기적으로 저장하고 ctx 종료 시 남은 로그를 저장
func (lb *LogBuffer) Run(ctx context.Context) error {
	ticker := time.NewTicker(lb.flushTime)
	defer ticker.Stop()

	lb.logger.Info("activity log buffer started",
		zap.Int("flush_size", lb.flushSize),
		zap.Duration("flush_interval", lb.flushTime),
	)
	for {
		select {
		case <-ticker.C:
			if err := lb.Flush(); err != nil {
				lb.logger.Error("flush activity logs", zap.Error(err))
			}
		case <-ctx.Done():
			return lb.Flush()
		}
	}
}

// Add - 버퍼에 추가, 크기가 차면 백그라운드 저장
func (lb *LogBuffer) Add(entry models.ActivityLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = lb.now()
	}

	lb.mu.Lock()
	lb.logs = append(lb.logs, entry)
	size := len(lb.logs)
	lb.mu.Unlock()

	if size >= lb.flushSize {
		go func() {
			if err := lb.Flush(); err != nil {
				lb.logger.Error("flush activity logs", zap.Error(err))
			}
		}()
	}
}

// Pending - 아직 저장되지 않은 로그 수
func (lb *LogBuffer) Pending() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.logs)
}

// Flush - 버퍼의 모든 로그를 DB에 저장
func (lb *LogBuffer) Flush() error {
	lb.flushMu.Lock()
	defer lb.flushMu.Unlock()

	lb.mu.Lock()
	if len(lb.logs) == 0 {
		lb.mu.Unlock()
		return nil
	}
	toSave := make([]models.ActivityLog, len(lb.logs))
	copy(toSave, lb.logs)
	lb.logs = lb.logs[:0]
	lb.mu.Unlock()

	if err := lb.db.CreateInBatches(toSave, 100).Error; err != nil {
		return fmt.Errorf("save %d activity logs: %w", len(toSave), err)
	}
	lb.logger.Debug("activity logs saved", zap.Int("count", len(toSave)))
	return nil
}

// LogDevice - 디바이스 접속/이탈/이름 변경 로그
func (lb *LogBuffer) LogDevice(eventType string, dev models.Device, detail string) {
	entry := models.ActivityLog{
		EventType: eventType,
		DeviceID:  dev.MAC,
		Label:     dev.Label(),
		Detail:    detail,
	}
	if dev.DeskID != nil {
		entry.DeskID = *dev.DeskID
	}
	lb.Add(entry)
}

// LogActivity - 캐릭터 활동 이벤트 로그
func (lb *LogBuffer) LogActivity(evt ActivityEvent) {
	lb.Add(models.ActivityLog{
		CreatedAt:  evt.At,
		EventType:  evt.Type,
		DeviceID:   evt.ActorID,
		Label:      evt.Label,
		ZoneID:     evt.ZoneID,
		GridX:      evt.Waypoint.X,
		GridY:      evt.Waypoint.Y,
		DurationMS: evt.Duration.Milliseconds(),
	})
}

// LogQuery - 활동 로그 조회 (deviceID가 비어 있으면 전체)
type LogQuery struct {
	db *gorm.DB
}

// NewLogQuery - 조회 서비스 생성
func NewLogQuery(db *gorm.DB) *LogQuery {
	return &LogQuery{db: db}
}

func (q *LogQuery) scoped(deviceID string) *gorm.DB {
	tx := q.db.Model(&models.ActivityLog{})
	if deviceID != "" {
		tx = tx.Where("device_id = ?", deviceID)
	}
	return tx
}

// Recent - 최근 로그
func (q *LogQuery) Recent(deviceID string, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := q.scoped(deviceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// ByTimeRange - 시간 범위로 조회
func (q *LogQuery) ByTimeRange(deviceID string, start, end time.Time, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	tx := q.scoped(deviceID).Where("created_at BETWEEN ? AND ?", start, end)
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	err := tx.Order("created_at DESC").Find(&logs).Error
	return logs, err
}

// ByEventType - 이벤트 타입별 조회
func (q *LogQuery) ByEventType(deviceID, eventType string, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := q.scoped(deviceID).
		Where("event_type = ?", eventType).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// Stats - 최근 hours 시간 동안의 통계
func (q *LogQuery) Stats(deviceID string, hours int, now time.Time) (models.LogStats, error) {
	since := now.Add(-time.Duration(hours) * time.Hour)

	var total int64
	if err := q.scoped(deviceID).Where("created_at >= ?", since).Count(&total).Error; err != nil {
		return models.LogStats{}, fmt.Errorf("count logs: %w", err)
	}

	var counts []struct {
		EventType string
		Count     int64
	}
	err := q.scoped(deviceID).
		Select("event_type, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("event_type").
		Scan(&counts).Error
	if err != nil {
		return models.LogStats{}, fmt.Errorf("count by event type: %w", err)
	}

	eventCounts := make(map[string]int64, len(counts))
	for _, c := range counts {
		eventCounts[c.EventType] = c.Count
	}
	return models.LogStats{
		TotalLogs:   total,
		EventCounts: eventCounts,
		TimeRange:   fmt.Sprintf("Last %d hours", hours),
	}, nil
}
