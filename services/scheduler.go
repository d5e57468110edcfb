package services

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"ramen-office/models"
)

// ActivityConfig - 자율 활동 스케줄링 파라미터
type ActivityConfig struct {
	TickInterval          time.Duration
	MinCooldown           time.Duration
	MaxCooldown           time.Duration
	ActivityProbability   float64 // 틱마다 선택된 캐릭터가 활동을 시작할 확률
	MaxSimultaneousStarts int     // 틱당 최대 시작 수
	MinPopulation         int     // 이 수 미만이면 활동 없음
}

// DefaultActivityConfig - 기본 활동 파라미터
func DefaultActivityConfig() ActivityConfig {
	return ActivityConfig{
		TickInterval:          5 * time.Second,
		MinCooldown:           60 * time.Second,
		MaxCooldown:           180 * time.Second,
		ActivityProbability:   0.3,
		MaxSimultaneousStarts: 2,
		MinPopulation:         2,
	}
}

// Validate - 파라미터 검증
func (c ActivityConfig) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	if c.MinCooldown <= 0 || c.MinCooldown > c.MaxCooldown {
		return fmt.Errorf("invalid cooldown range [%v, %v]", c.MinCooldown, c.MaxCooldown)
	}
	if c.ActivityProbability < 0 || c.ActivityProbability > 1 {
		return fmt.Errorf("activity probability must be within [0, 1], got %v", c.ActivityProbability)
	}
	if c.MaxSimultaneousStarts <= 0 {
		return fmt.Errorf("max simultaneous starts must be positive, got %d", c.MaxSimultaneousStarts)
	}
	return nil
}

// ActivityEvent - 스케줄러가 내보내는 활동 이벤트
type ActivityEvent struct {
	Type     string // models.EventActivity*
	ActorID  string
	Label    string
	ZoneID   string
	Waypoint models.GridPoint
	Duration time.Duration
	At       time.Time
}

// Scheduler - 쉬고 있는 캐릭터를 주기적으로 활동 구역에 보낸다
//
// 점유 현황과 쿨다운 맵은 Scheduler와 퇴장 정리만 변경하며, 둘 다
// 시뮬레이터 락 안에서 실행된다.
type Scheduler struct {
	cfg      ActivityConfig
	zones    []*models.ActivityZone
	timeline *Timeline
	rng      *rand.Rand
	logger   *zap.Logger
	onEvent  func(ActivityEvent)

	actors    map[string]*Actor
	order     []string // 등록 순서 (셔플 전 결정적 순서)
	cooldowns map[string]time.Time
	occupancy map[string]map[string]struct{} // zoneID -> actorIDs

	running   bool
	tickTimer TimerID
}

// NewScheduler - 스케줄러 생성
func NewScheduler(cfg ActivityConfig, zones []models.ActivityZone, timeline *Timeline, rng *rand.Rand, logger *zap.Logger) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cfg:       cfg,
		timeline:  timeline,
		rng:       rng,
		logger:    logger,
		actors:    make(map[string]*Actor),
		cooldowns: make(map[string]time.Time),
		occupancy: make(map[string]map[string]struct{}, len(zones)),
	}
	for i := range zones {
		zone := zones[i]
		s.zones = append(s.zones, &zone)
		s.occupancy[zone.ID] = make(map[string]struct{})
	}
	return s
}

// OnEvent - 활동 이벤트 리스너 설정
func (s *Scheduler) OnEvent(fn func(ActivityEvent)) {
	s.onEvent = fn
}

func (s *Scheduler) emit(evt ActivityEvent) {
	evt.At = s.timeline.Now()
	if s.onEvent != nil {
		s.onEvent(evt)
	}
}

// Start - 틱 루프 시작
func (s *Scheduler) Start() {
	if s.running {
		return
	}
	s.running = true
	s.scheduleTick()
	s.logger.Info("activity scheduler started", zap.Duration("tick_interval", s.cfg.TickInterval))
}

// Stop - 틱 루프 중지 (진행 중인 활동은 유지)
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	s.running = false
	if s.tickTimer != 0 {
		s.timeline.Cancel(s.tickTimer)
		s.tickTimer = 0
	}
	s.logger.Info("activity scheduler stopped")
}

func (s *Scheduler) scheduleTick() {
	s.tickTimer = s.timeline.After(s.cfg.TickInterval, func() {
		s.tickTimer = 0
		if !s.running {
			return
		}
		s.Tick()
		s.scheduleTick()
	})
}

// Register - 새 캐릭터 등록 (초기 쿨다운은 일반 범위의 절반)
func (s *Scheduler) Register(actor *Actor) {
	if _, exists := s.actors[actor.ID]; !exists {
		s.order = append(s.order, actor.ID)
	}
	s.actors[actor.ID] = actor
	cooldown := s.randomDuration(s.cfg.MinCooldown/2, s.cfg.MaxCooldown/2)
	s.cooldowns[actor.ID] = s.timeline.Now().Add(cooldown)
}

// Deregister - 캐릭터 제거 (쿨다운 삭제, 모든 구역에서 제외, 활동 취소)
//
// 활동 상태와 무관하게 실행되며 여러 번 호출해도 안전하다.
func (s *Scheduler) Deregister(actorID string) {
	if actor, ok := s.actors[actorID]; ok {
		actor.CancelActivity()
		delete(s.actors, actorID)
		for i, id := range s.order {
			if id == actorID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	delete(s.cooldowns, actorID)
	for _, occupants := range s.occupancy {
		delete(occupants, actorID)
	}
}

// Population - 등록된 캐릭터 수
func (s *Scheduler) Population() int {
	return len(s.actors)
}

// CooldownUntil - 다음 활동 가능 시각
func (s *Scheduler) CooldownUntil(actorID string) (time.Time, bool) {
	t, ok := s.cooldowns[actorID]
	return t, ok
}

// SetCooldown - 쿨다운 직접 지정
func (s *Scheduler) SetCooldown(actorID string, until time.Time) {
	s.cooldowns[actorID] = until
}

// Tick - 한 번의 스케줄링 라운드
func (s *Scheduler) Tick() {
	if len(s.actors) < s.cfg.MinPopulation {
		return
	}

	now := s.timeline.Now()
	eligible := make([]*Actor, 0, len(s.actors))
	for _, id := range s.order {
		actor := s.actors[id]
		if s.isEligible(actor, now) {
			eligible = append(eligible, actor)
		}
	}
	if len(eligible) == 0 {
		return
	}

	s.rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	if len(eligible) > s.cfg.MaxSimultaneousStarts {
		eligible = eligible[:s.cfg.MaxSimultaneousStarts]
	}

	for _, actor := range eligible {
		if s.rng.Float64() < s.cfg.ActivityProbability {
			s.startActivity(actor)
		}
	}
}

// isEligible - Idle, AtDesk, 책상 배정, 쿨다운 만료
func (s *Scheduler) isEligible(actor *Actor, now time.Time) bool {
	if actor == nil || !actor.IsAvailableForActivity() {
		return false
	}
	if until, ok := s.cooldowns[actor.ID]; ok && now.Before(until) {
		return false
	}
	return true
}

// startActivity - 구역 선택, 자리 예약, 이동, 도착 후 복귀 예약
func (s *Scheduler) startActivity(actor *Actor) {
	zone := s.selectZone()
	if zone == nil {
		return
	}
	waypoint := s.selectWaypoint(zone)
	actorID := actor.ID

	// 이동 완료 전에 먼저 예약해서 중복 배정 방지
	s.occupancy[zone.ID][actorID] = struct{}{}

	s.logger.Debug("actor heading to activity",
		zap.String("actor", actorID),
		zap.String("zone", zone.ID),
		zap.Int("x", waypoint.X),
		zap.Int("y", waypoint.Y),
	)
	s.emit(ActivityEvent{Type: models.EventActivityStarted, ActorID: actorID, Label: actor.Label(), ZoneID: zone.ID, Waypoint: waypoint})

	started := actor.StartActivity(zone, waypoint, func(arrived bool) {
		if !arrived || s.actors[actorID] != actor {
			s.release(zone.ID, actorID)
			s.emit(ActivityEvent{Type: models.EventActivityFailed, ActorID: actorID, Label: actor.Label(), ZoneID: zone.ID, Waypoint: waypoint})
			return
		}

		duration := s.randomDuration(zone.DurationRange[0], zone.DurationRange[1])
		s.emit(ActivityEvent{Type: models.EventActivityArrived, ActorID: actorID, Label: actor.Label(), ZoneID: zone.ID, Waypoint: waypoint, Duration: duration})

		actor.SetActivityTimeout(duration, func() {
			s.release(zone.ID, actorID)
			s.emit(ActivityEvent{Type: models.EventActivityReturning, ActorID: actorID, Label: actor.Label(), ZoneID: zone.ID})

			actor.ReturnToDesk(func() {
				if s.actors[actorID] != actor {
					return
				}
				cooldown := s.randomDuration(s.cfg.MinCooldown, s.cfg.MaxCooldown)
				s.cooldowns[actorID] = s.timeline.Now().Add(cooldown)
				s.emit(ActivityEvent{Type: models.EventActivityReturned, ActorID: actorID, Label: actor.Label(), ZoneID: zone.ID, Duration: cooldown})
			})
		})
	})
	if !started {
		s.release(zone.ID, actorID)
	}
}

func (s *Scheduler) release(zoneID, actorID string) {
	if occupants, ok := s.occupancy[zoneID]; ok {
		delete(occupants, actorID)
	}
}

// selectZone - 여유가 있는 구역 중 가중치 기반 무작위 선택
func (s *Scheduler) selectZone() *models.ActivityZone {
	available := make([]*models.ActivityZone, 0, len(s.zones))
	total := 0.0
	for _, zone := range s.zones {
		if len(s.occupancy[zone.ID]) < zone.Capacity {
			available = append(available, zone)
			total += zone.Weight
		}
	}
	if len(available) == 0 {
		return nil
	}

	r := s.rng.Float64() * total
	for _, zone := range available {
		r -= zone.Weight
		if r <= 0 {
			return zone
		}
	}
	return available[len(available)-1]
}

// selectWaypoint - 구역 내 웨이포인트 균등 선택 (다른 캐릭터와 겹칠 수 있음)
func (s *Scheduler) selectWaypoint(zone *models.ActivityZone) models.GridPoint {
	return zone.Waypoints[s.rng.Intn(len(zone.Waypoints))]
}

// Occupancy - 구역 점유 수
func (s *Scheduler) Occupancy(zoneID string) int {
	return len(s.occupancy[zoneID])
}

// Occupants - 구역에 예약된 캐릭터 ID (정렬)
func (s *Scheduler) Occupants(zoneID string) []string {
	ids := make([]string, 0, len(s.occupancy[zoneID]))
	for id := range s.occupancy[zoneID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OccupancyAll - 전체 구역 점유 현황 (설정 순서)
func (s *Scheduler) OccupancyAll() []models.ZoneOccupancy {
	out := make([]models.ZoneOccupancy, 0, len(s.zones))
	for _, zone := range s.zones {
		out = append(out, models.ZoneOccupancy{
			ZoneID:   zone.ID,
			Count:     len(s.occupancy[zone.ID]),
			Capacity:  zone.Capacity,
			Occupants: s.Occupants(zone.ID),
		})
	}
	return out
}

// IsZoneAvailable - 구역에 여유가 있는지
func (s *Scheduler) IsZoneAvailable(zoneID string) bool {
	for _, zone := range s.zones {
		if zone.ID == zoneID {
			return len(s.occupancy[zoneID]) < zone.Capacity
		}
	}
	return false
}

// randomDuration - [min, max] 범위의 밀리초 단위 무작위 시간
func (s *Scheduler) randomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	minMS := min.Milliseconds()
	maxMS := max.Milliseconds()
	return time.Duration(minMS+s.rng.Int63n(maxMS-minMS+1)) * time.Millisecond
}
