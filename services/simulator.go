package services

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"ramen-office/algorithms"
	"ramen-office/models"
)

// DefaultFrameInterval - 시뮬레이션 진행 주기
const DefaultFrameInterval = 50 * time.Millisecond

// SimulatorConfig - 시뮬레이터 설정
type SimulatorConfig struct {
	Activity      ActivityConfig
	StepDuration  time.Duration
	FrameInterval time.Duration
	Seed          int64 // 0이면 현재 시각
}

// OfficeSimulator - 사무실 캐릭터 시뮬레이터
//
// Timeline, 경로 그리드, 스케줄러, 캐릭터 목록은 모두 mu 하나로 보호된다.
// 디바이스 이벤트 메서드와 Advance만 상태를 바꾸며, 예약된 콜백은 Advance가
// 락을 잡은 상태에서 실행된다.
type OfficeSimulator struct {
	mu            sync.Mutex
	layout        *OfficeLayout
	grid          *algorithms.Grid
	timeline      *Timeline
	env           *ActorEnv
	scheduler     *Scheduler
	actors        map[string]*Actor
	departing     map[string]*Actor
	broadcastFunc func(models.WebSocketMessage)
	onActivity    func(ActivityEvent)
	frameInterval time.Duration
	clock         func() time.Time
	logger        *zap.Logger
}

// NewOfficeSimulator - 시뮬레이터 생성
func NewOfficeSimulator(layout *OfficeLayout, cfg SimulatorConfig, broadcastFunc func(models.WebSocketMessage), logger *zap.Logger) *OfficeSimulator {
	return newOfficeSimulator(layout, cfg, broadcastFunc, logger, time.Now)
}

func newOfficeSimulator(layout *OfficeLayout, cfg SimulatorConfig, broadcastFunc func(models.WebSocketMessage), logger *zap.Logger, clock func() time.Time) *OfficeSimulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = clock().UnixNano()
	}

	s := &OfficeSimulator{
		layout:        layout,
		grid:          layout.Grid(),
		timeline:      NewTimeline(clock()),
		actors:        make(map[string]*Actor),
		departing:     make(map[string]*Actor),
		broadcastFunc: broadcastFunc,
		frameInterval: cfg.FrameInterval,
		clock:         clock,
		logger:        logger,
	}
	s.env = &ActorEnv{
		Timeline:     s.timeline,
		Grid:         s.grid,
		TileSize:     layout.TileSize,
		StepDuration: cfg.StepDuration,
		Emit:         s.broadcast,
	}
	s.scheduler = NewScheduler(cfg.Activity, layout.Zones, s.timeline, rand.New(rand.NewSource(seed)), logger.Named("scheduler"))
	s.scheduler.OnEvent(s.handleActivityEvent)
	return s
}

// OnActivity - 활동 이벤트 리스너 설정 (활동 로그 기록용)
func (s *OfficeSimulator) OnActivity(fn func(ActivityEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onActivity = fn
}

func (s *OfficeSimulator) broadcast(msg models.WebSocketMessage) {
	if s.broadcastFunc != nil {
		s.broadcastFunc(msg)
	}
}

func (s *OfficeSimulator) handleActivityEvent(evt ActivityEvent) {
	if s.onActivity != nil {
		s.onActivity(evt)
	}
	switch evt.Type {
	case models.EventActivityStarted, models.EventActivityFailed, models.EventActivityReturning:
		s.broadcastOccupancy()
	}
}

func (s *OfficeSimulator) broadcastOccupancy() {
	msg := models.NewMessage(models.MessageTypeZoneOccupancy, s.scheduler.OccupancyAll())
	msg.Timestamp = s.timeline.Now().UnixMilli()
	s.broadcast(msg)
}

// Start - 활동 스케줄러 시작
func (s *OfficeSimulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler.Start()
}

// Stop - 활동 스케줄러 중지
func (s *OfficeSimulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler.Stop()
}

// Run - FrameInterval마다 Timeline을 실제 시각까지 진행 (ctx 종료 시 반환)
func (s *OfficeSimulator) Run(ctx context.Context) error {
	s.Start()
	defer s.Stop()

	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	s.logger.Info("office simulator running", zap.Duration("frame_interval", s.frameInterval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Advance(s.clock())
		}
	}
}

// Advance - now까지 예약된 이동/활동 콜백 실행
func (s *OfficeSimulator) Advance(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.AdvanceTo(now)
}

// DeviceConnected - 출입구에 캐릭터를 만들고 배정된 책상으로 이동
//
// 이미 있는 캐릭터면 라벨과 책상만 갱신하고 false를 반환한다.
func (s *OfficeSimulator) DeviceConnected(id, label string, sprite int, desk *models.GridPoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actor, ok := s.actors[id]; ok {
		actor.SetLabel(label)
		if desk != nil {
			actor.SetAssignedDesk(*desk)
		}
		return false
	}

	// 퇴장 중인 같은 디바이스가 다시 들어오면 이전 캐릭터는 즉시 정리
	if old, ok := s.departing[id]; ok {
		old.Discard()
		delete(s.departing, id)
		s.broadcastAt(models.MessageTypeActorRemoved, models.ActorRemovedPayload{ID: id})
	}

	actor := NewActor(id, label, sprite, s.env, s.layout.Entry)
	if desk != nil {
		actor.SetAssignedDesk(*desk)
	}
	s.actors[id] = actor
	s.scheduler.Register(actor)
	s.broadcastAt(models.MessageTypeActorSpawned, actor.Snapshot(s.timeline.Now()))

	if desk != nil {
		actor.WalkTo(*desk, func(arrived bool) {
			if !arrived {
				s.logger.Warn("actor could not reach desk",
					zap.String("actor", id),
					zap.Int("desk_x", desk.X),
					zap.Int("desk_y", desk.Y),
				)
			}
		})
	}

	s.logger.Info("actor spawned", zap.String("actor", id), zap.String("label", label), zap.Int("sprite", sprite))
	return true
}

// DeviceDisconnected - 스케줄러에서 제외하고 출구로 걸어가 사라진다
func (s *OfficeSimulator) DeviceDisconnected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, ok := s.actors[id]
	if !ok {
		return false
	}
	delete(s.actors, id)
	s.scheduler.Deregister(id)
	s.broadcastOccupancy()

	s.departing[id] = actor
	actor.Leave(s.layout.Entry, func() {
		if s.departing[id] != actor {
			return
		}
		delete(s.departing, id)
		s.broadcastAt(models.MessageTypeActorRemoved, models.ActorRemovedPayload{ID: id})
		s.logger.Info("actor removed", zap.String("actor", id))
	})
	return true
}

// DeviceUpdated - 캐릭터 라벨 변경
func (s *OfficeSimulator) DeviceUpdated(id, label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, ok := s.actors[id]
	if !ok {
		return false
	}
	actor.SetLabel(label)
	return true
}

func (s *OfficeSimulator) broadcastAt(msgType string, payload any) {
	msg := models.NewMessage(msgType, payload)
	msg.Timestamp = s.timeline.Now().UnixMilli()
	s.broadcast(msg)
}

// Snapshot - 퇴장 중인 캐릭터를 포함한 전체 캐릭터 상태 (ID 순)
func (s *OfficeSimulator) Snapshot() []models.ActorSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timeline.Now()
	out := make([]models.ActorSnapshot, 0, len(s.actors)+len(s.departing))
	for _, a := range s.actors {
		out = append(out, a.Snapshot(now))
	}
	for _, a := range s.departing {
		out = append(out, a.Snapshot(now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Actor - 단일 캐릭터 상태
func (s *OfficeSimulator) Actor(id string) (models.ActorSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actors[id]
	if !ok {
		a, ok = s.departing[id]
	}
	if !ok {
		return models.ActorSnapshot{}, false
	}
	return a.Snapshot(s.timeline.Now()), true
}

// Zones - 구역별 점유 현황
func (s *OfficeSimulator) Zones() []models.ZoneOccupancy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.OccupancyAll()
}

// ActorCount - 활성 캐릭터 수 (퇴장 중 제외)
func (s *OfficeSimulator) ActorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actors)
}

// Grid - 경로 탐색용 그리드 (불변)
func (s *OfficeSimulator) Grid() *algorithms.Grid {
	return s.grid
}

// Layout - 사무실 배치
func (s *OfficeSimulator) Layout() *OfficeLayout {
	return s.layout
}
