// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

type task struct {
	due      time.Time
	interval time.Duration
	fn       func()
	index    int
}

// taskQueue 按到期时间排序的最小堆
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].due.Before(q[j].due)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Scheduler 运行周期任务。回调在独立的 goroutine 中执行。
type Scheduler struct {
	queue taskQueue
	mutex sync.Mutex
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func NewScheduler() *Scheduler {
	s := &Scheduler{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	heap.Init(&s.queue)
	go s.run()
	return s
}

// Every runs fn every interval, first after one interval.
func (s *Scheduler) Every(interval time.Duration, fn func()) {
	s.mutex.Lock()
	t := &task{
		due:      time.Now().Add(interval),
		interval: interval,
		fn:       fn,
	}
	heap.Push(&s.queue, t)
	s.mutex.Unlock()

	s.poke()
}

// Stop ends the scheduler loop. Callbacks already started keep running.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mutex.Lock()
		wait := time.Hour
		if s.queue.Len() > 0 {
			wait = time.Until(s.queue[0].due)
		}
		s.mutex.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-s.done:
			return
		case <-s.wake:
		case <-timer.C:
			for _, fn := range s.popDue(time.Now()) {
				go fn()
			}
		}
	}
}

// popDue 取出所有到期任务，周期任务重新入堆
func (s *Scheduler) popDue(now time.Time) []func() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var due []func()
	for s.queue.Len() > 0 && !s.queue[0].due.After(now) {
		t := heap.Pop(&s.queue).(*task)
		due = append(due, t.fn)
		if t.interval > 0 {
			t.due = now.Add(t.interval)
			heap.Push(&s.queue, t)
		}
	}
	return due
}
