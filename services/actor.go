package services

import (
	"time"

	"ramen-office/algorithms"
	"ramen-office/models"
)

// 캐릭터 이동/퇴장 기본값
const (
	DefaultStepDuration = 150 * time.Millisecond
	leavePollInterval   = 100 * time.Millisecond
	fadeOutDuration     = 300 * time.Millisecond
)

// ActorEnv - 캐릭터가 공유하는 실행 환경 (시뮬레이터가 소유)
type ActorEnv struct {
	Timeline     *Timeline
	Grid         *algorithms.Grid
	TileSize     int
	StepDuration time.Duration
	Emit         func(models.WebSocketMessage)
}

func (e *ActorEnv) stepDuration() time.Duration {
	if e.StepDuration <= 0 {
		return DefaultStepDuration
	}
	return e.StepDuration
}

func (e *ActorEnv) emit(msgType string, payload any) {
	if e.Emit == nil {
		return
	}
	e.Emit(models.WebSocketMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: e.Timeline.Now().UnixMilli(),
	})
}

// requestPath - 경로 계산을 다음 Timeline 차례에 완료되는 대기 작업으로 예약
func (e *ActorEnv) requestPath(start, goal models.GridPoint, resolve func([]models.GridPoint)) {
	e.Timeline.After(0, func() {
		resolve(e.Grid.FindPath(start, goal))
	})
}

// Actor - 디바이스 하나에 대응하는 캐릭터
//
// movement(Idle/Walking)는 걷기 요청의 재진입을 막고, activity는
// AtDesk → WalkingToActivity → AtActivity → ReturningToDesk → AtDesk
// 순서로만 전이한다.
type Actor struct {
	ID     string
	label  string
	sprite int
	env    *ActorEnv

	pos       models.Pixel
	stepFrom  models.Pixel
	stepTo    models.Pixel
	stepStart time.Time
	stepping  bool
	facing    models.Facing

	movement models.MovementState
	activity models.ActivityState
	desk     *models.GridPoint
	zoneID   string

	activityTimer TimerID
	epoch         uint64 // CancelActivity마다 증가, 진행 중인 콜백 무효화
	leaving       bool
	fading        bool
	removed       bool
}

// NewActor - spawn 셀 중심에 캐릭터 생성
func NewActor(id, label string, sprite int, env *ActorEnv, spawn models.GridPoint) *Actor {
	return &Actor{
		ID:       id,
		label:    label,
		sprite:   sprite,
		env:      env,
		pos:      GridToPixel(spawn, env.TileSize),
		facing:   models.FacingRight,
		movement: models.MovementIdle,
		activity: models.ActivityAtDesk,
	}
}

// Cell - 현재 픽셀 위치 기준 그리드 셀
func (a *Actor) Cell() models.GridPoint {
	return PixelToGrid(a.pos, a.env.TileSize)
}

// PositionAt - 이동 중이면 현재 칸 사이를 선형 보간한 위치
func (a *Actor) PositionAt(now time.Time) models.Pixel {
	if !a.stepping {
		return a.pos
	}
	frac := float64(now.Sub(a.stepStart)) / float64(a.env.stepDuration())
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return models.Pixel{
		X: a.stepFrom.X + (a.stepTo.X-a.stepFrom.X)*frac,
		Y: a.stepFrom.Y + (a.stepTo.Y-a.stepFrom.Y)*frac,
	}
}

func (a *Actor) Facing() models.Facing { return a.facing }
func (a *Actor) Movement() models.MovementState { return a.movement }
func (a *Actor) Activity() models.ActivityState { return a.activity }
func (a *Actor) ZoneID() string { return a.zoneID }
func (a *Actor) Label() string { return a.label }
func (a *Actor) Sprite() int { return a.sprite }
func (a *Actor) IsWalking() bool { return a.movement == models.MovementWalking }
func (a *Actor) IsLeaving() bool { return a.leaving }
func (a *Actor) IsRemoved() bool { return a.removed }
func (a *Actor) HasActivityTimer() bool { return a.activityTimer != 0 }
func (a *Actor) SetLabel(label string) { a.label = label }

// AssignedDesk - 배정된 책상 (없으면 false)
func (a *Actor) AssignedDesk() (models.GridPoint, bool) {
	if a.desk == nil {
		return models.GridPoint{}, false
	}
	return *a.desk, true
}

// SetAssignedDesk - 책상 배정 (활동 참여 조건)
func (a *Actor) SetAssignedDesk(p models.GridPoint) {
	desk := p
	a.desk = &desk
}

// IsAvailableForActivity - 책상에 앉아 쉬는 중인지
func (a *Actor) IsAvailableForActivity() bool {
	return !a.leaving &&
		a.movement == models.MovementIdle &&
		a.activity == models.ActivityAtDesk &&
		a.desk != nil
}

// WalkTo - goal까지 경로를 따라 한 칸씩 이동
//
// 이미 걷는 중이면 진행 중인 이동을 건드리지 않고 false를 반환하며 done은
// 호출되지 않는다. 경로가 없으면 제자리에 머물고 done(false).
func (a *Actor) WalkTo(goal models.GridPoint, done func(arrived bool)) bool {
	if a.movement == models.MovementWalking || a.removed {
		return false
	}
	a.movement = models.MovementWalking

	a.env.requestPath(a.Cell(), goal, func(path []models.GridPoint) {
		if len(path) == 0 {
			a.movement = models.MovementIdle
			if done != nil {
				done(false)
			}
			return
		}
		a.walkPath(path, 0, done)
	})
	return true
}

// walkPath - i번째 칸으로 한 칸 이동, 완료 후 다음 칸
func (a *Actor) walkPath(path []models.GridPoint, i int, done func(bool)) {
	if a.removed {
		return
	}
	if i >= len(path) {
		a.stepping = false
		a.movement = models.MovementIdle
		if done != nil {
			done(true)
		}
		return
	}

	cell := path[i]
	to := GridToPixel(cell, a.env.TileSize)
	switch {
	case to.X < a.pos.X:
		a.facing = models.FacingLeft
	case to.X > a.pos.X:
		a.facing = models.FacingRight
	}

	a.stepFrom = a.pos
	a.stepTo = to
	a.stepStart = a.env.Timeline.Now()
	a.stepping = true

	a.env.emit(models.MessageTypeActorStep, models.ActorStepPayload{
		ID:         a.ID,
		From:       a.stepFrom,
		To:         to,
		Cell:       cell,
		Facing:     a.facing,
		DurationMS: a.env.stepDuration().Milliseconds(),
	})

	a.env.Timeline.After(a.env.stepDuration(), func() {
		a.pos = to
		a.walkPath(path, i+1, done)
	})
}

func (a *Actor) setActivity(state models.ActivityState) {
	a.activity = state
	a.env.emit(models.MessageTypeActorActivity, models.ActorActivityPayload{
		ID:       a.ID,
		Activity: state,
		ZoneID:   a.zoneID,
	})
}

// StartActivity - AtDesk → WalkingToActivity, 도착 시 AtActivity
//
// 시작하지 못하면 false를 반환하고 done은 호출되지 않는다.
// 도착하지 못하면(경로 없음) AtDesk로 돌아가고 done(false).
func (a *Actor) StartActivity(zone *models.ActivityZone, waypoint models.GridPoint, done func(arrived bool)) bool {
	if !a.IsAvailableForActivity() {
		return false
	}
	a.zoneID = zone.ID
	a.setActivity(models.ActivityWalkingToActivity)

	epoch := a.epoch
	started := a.WalkTo(waypoint, func(ok bool) {
		if a.epoch != epoch || a.activity != models.ActivityWalkingToActivity {
			done(false)
			return
		}
		if !ok {
			a.zoneID = ""
			a.setActivity(models.ActivityAtDesk)
			done(false)
			return
		}
		a.setActivity(models.ActivityAtActivity)
		done(true)
	})
	if !started {
		a.zoneID = ""
		a.setActivity(models.ActivityAtDesk)
		return false
	}
	return true
}

// SetActivityTimeout - 활동 종료 타이머 (기존 타이머는 교체)
func (a *Actor) SetActivityTimeout(d time.Duration, fn func()) {
	if a.activityTimer != 0 {
		a.env.Timeline.Cancel(a.activityTimer)
	}
	epoch := a.epoch
	a.activityTimer = a.env.Timeline.After(d, func() {
		a.activityTimer = 0
		if a.epoch != epoch {
			return
		}
		fn()
	})
}

// ReturnToDesk - AtActivity → ReturningToDesk → AtDesk
//
// 책상까지 경로가 없어도 제자리에서 AtDesk로 복귀한다.
func (a *Actor) ReturnToDesk(done func()) bool {
	if a.activity != models.ActivityAtActivity || a.desk == nil {
		return false
	}
	a.setActivity(models.ActivityReturningToDesk)

	epoch := a.epoch
	land := func() {
		if a.epoch == epoch && a.activity == models.ActivityReturningToDesk {
			a.zoneID = ""
			a.setActivity(models.ActivityAtDesk)
		}
		if done != nil {
			done()
		}
	}
	if !a.WalkTo(*a.desk, func(bool) { land() }) {
		land()
	}
	return true
}

// CancelActivity - 활동 타이머와 구역 참조 해제 (상태 전이 없음, 여러 번 호출해도 안전)
func (a *Actor) CancelActivity() {
	if a.activityTimer != 0 {
		a.env.Timeline.Cancel(a.activityTimer)
		a.activityTimer = 0
	}
	a.zoneID = ""
	a.epoch++
}

// Leave - 진행 중인 이동이 끝나길 기다린 뒤 출구로 걸어가 사라진다
func (a *Actor) Leave(exit models.GridPoint, done func()) bool {
	if a.leaving || a.removed {
		return false
	}
	a.leaving = true
	a.CancelActivity()

	finish := func() {
		a.fading = true
		a.env.Timeline.After(fadeOutDuration, func() {
			a.removed = true
			a.stepping = false
			if done != nil {
				done()
			}
		})
	}

	var waitIdle func()
	waitIdle = func() {
		if a.movement == models.MovementWalking {
			a.env.Timeline.After(leavePollInterval, waitIdle)
			return
		}
		if !a.WalkTo(exit, func(bool) { finish() }) {
			finish()
		}
	}
	waitIdle()
	return true
}

// Discard - 퇴장 연출 없이 즉시 제거 (예약된 이동은 다음 칸에서 멈춘다)
func (a *Actor) Discard() {
	a.CancelActivity()
	a.leaving = true
	a.removed = true
	a.stepping = false
	a.movement = models.MovementIdle
}

// Snapshot - 렌더링용 상태
func (a *Actor) Snapshot(now time.Time) models.ActorSnapshot {
	snap := models.ActorSnapshot{
		ID:       a.ID,
		Label:    a.label,
		Sprite:   a.sprite,
		Position: a.PositionAt(now),
		Facing:   a.facing,
		Movement: a.movement,
		Activity: a.activity,
		ZoneID:   a.zoneID,
		Leaving:  a.leaving,
		Fading:   a.fading,
	}
	if a.desk != nil {
		desk := *a.desk
		snap.Desk = &desk
	}
	return snap
}
