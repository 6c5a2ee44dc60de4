package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, counter *int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(counter) < want {
		if time.Now().After(deadline) {
			t.Fatalf("task fired %d times, want at least %d", atomic.LoadInt32(counter), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestScheduler_Every(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var count int32
	s.Every(10*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	waitFor(t, &count, 3)
}

func TestScheduler_EarlierTaskNotBlocked(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var slow, fast int32
	s.Every(time.Hour, func() { atomic.AddInt32(&slow, 1) })
	// 后加入但更早到期的任务不能被一小时后的任务挡住
	s.Every(10*time.Millisecond, func() { atomic.AddInt32(&fast, 1) })

	waitFor(t, &fast, 2)
	if atomic.LoadInt32(&slow) != 0 {
		t.Error("hourly task fired early")
	}
}

func TestScheduler_Stop(t *testing.T) {
	s := NewScheduler()
	var fired int32
	s.Every(30*time.Millisecond, func() { atomic.StoreInt32(&fired, 1) })
	s.Stop()
	s.Stop()

	time.Sleep(80 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Error("task fired after Stop")
	}
}
