package services

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func TestTimelineFiresInDueOrder(t *testing.T) {
	tl := NewTimeline(epoch)
	var got []string

	tl.After(300*time.Millisecond, func() { got = append(got, "c") })
	tl.After(100*time.Millisecond, func() { got = append(got, "a") })
	tl.After(100*time.Millisecond, func() { got = append(got, "b") })

	if n := tl.Advance(50 * time.Millisecond); n != 0 {
		t.Fatalf("fired %d timers before due", n)
	}
	if n := tl.Advance(time.Second); n != 3 {
		t.Fatalf("fired %d timers, want 3", n)
	}
	if want := "abc"; join(got) != want {
		t.Fatalf("order = %q, want %q", join(got), want)
	}
	if !tl.Now().Equal(epoch.Add(1050 * time.Millisecond)) {
		t.Fatalf("now = %v", tl.Now())
	}
}

func join(s []string) string {
	out := ""
	for _, v := range s {
		out += v
	}
	return out
}

func TestTimelineNowDuringCallback(t *testing.T) {
	tl := NewTimeline(epoch)
	var at time.Time
	tl.After(2*time.Second, func() { at = tl.Now() })
	tl.Advance(10 * time.Second)

	if !at.Equal(epoch.Add(2 * time.Second)) {
		t.Fatalf("Now() in callback = %v, want due time", at)
	}
}

func TestTimelineNestedScheduling(t *testing.T) {
	tl := NewTimeline(epoch)
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 5 {
			tl.After(100*time.Millisecond, tick)
		}
	}
	tl.After(0, tick)

	tl.Advance(250 * time.Millisecond)
	if count != 3 {
		t.Fatalf("count = %d, want 3 after 250ms", count)
	}
	tl.Advance(time.Second)
	if count != 5 {
		t.Fatalf("count = %d, want 5", count)
	}
	if tl.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", tl.Pending())
	}
}

func TestTimelineCancel(t *testing.T) {
	tl := NewTimeline(epoch)
	fired := false
	id := tl.After(time.Second, func() { fired = true })
	tl.After(2*time.Second, func() {})

	if !tl.Cancel(id) {
		t.Fatal("Cancel returned false for pending timer")
	}
	if tl.Cancel(id) {
		t.Fatal("second Cancel returned true")
	}
	tl.Advance(5 * time.Second)
	if fired {
		t.Fatal("cancelled timer fired")
	}
}

func TestTimelineNegativeDelay(t *testing.T) {
	tl := NewTimeline(epoch)
	fired := false
	tl.After(-time.Second, func() { fired = true })
	tl.AdvanceTo(epoch)
	if !fired {
		t.Fatal("negative delay timer should fire immediately")
	}
	if !tl.Now().Equal(epoch) {
		t.Fatalf("now moved backwards or forwards: %v", tl.Now())
	}
}
