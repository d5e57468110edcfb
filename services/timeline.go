package services

import (
	"container/heap"
	"time"
)

// TimerID - Timeline에 예약된 타이머 식별자
type TimerID uint64

type timer struct {
	id    TimerID
	due   time.Time
	seq   uint64
	fn    func()
	index int
}

type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	last := len(old) - 1
	t := old[last]
	old[last] = nil
	t.index = -1
	*q = old[:last]
	return t
}

// Timeline - 단일 소유자가 구동하는 타이머 큐
//
// 걷기 한 칸, 경로 계산 결과, 활동 시간 만료가 모두 여기 예약된 콜백으로
// 표현된다. AdvanceTo를 호출하는 쪽이 락을 잡고 있으므로 콜백 안에서는
// 별도 동기화가 필요 없다.
type Timeline struct {
	now    time.Time
	seq    uint64
	nextID TimerID
	queue  timerQueue
	byID   map[TimerID]*timer
}

// NewTimeline - start 시각부터 시작하는 Timeline 생성
func NewTimeline(start time.Time) *Timeline {
	return &Timeline{
		now:  start,
		byID: make(map[TimerID]*timer),
	}
}

// Now - 현재 시각 (콜백 실행 중에는 해당 타이머의 예정 시각)
func (t *Timeline) Now() time.Time {
	return t.now
}

// After - d 이후 fn 실행 예약
func (t *Timeline) After(d time.Duration, fn func()) TimerID {
	if d < 0 {
		d = 0
	}
	t.nextID++
	t.seq++
	tm := &timer{
		id:  t.nextID,
		due: t.now.Add(d),
		seq: t.seq,
		fn:  fn,
	}
	heap.Push(&t.queue, tm)
	t.byID[tm.id] = tm
	return tm.id
}

// Cancel - 예약 취소 (이미 실행되었거나 없는 ID면 false)
func (t *Timeline) Cancel(id TimerID) bool {
	tm, ok := t.byID[id]
	if !ok {
		return false
	}
	delete(t.byID, id)
	if tm.index >= 0 {
		heap.Remove(&t.queue, tm.index)
	}
	return true
}

// AdvanceTo - target 시각까지 만기된 타이머를 순서대로 실행하고 실행 개수를 반환
func (t *Timeline) AdvanceTo(target time.Time) int {
	fired := 0
	for t.queue.Len() > 0 {
		next := t.queue[0]
		if next.due.After(target) {
			break
		}
		heap.Pop(&t.queue)
		delete(t.byID, next.id)
		if next.due.After(t.now) {
			t.now = next.due
		}
		next.fn()
		fired++
	}
	if target.After(t.now) {
		t.now = target
	}
	return fired
}

// Advance - 현재 시각 기준 d만큼 진행
func (t *Timeline) Advance(d time.Duration) int {
	return t.AdvanceTo(t.now.Add(d))
}

// Pending - 대기 중인 타이머 수
func (t *Timeline) Pending() int {
	return t.queue.Len()
}
