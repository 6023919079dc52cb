package form

import "sync"

// Scheduler defers work to the end of the current event batch.
type Scheduler interface {
	Defer(task func())
}

// Queue is a FIFO Scheduler drained by the host after each event batch. It is
// safe to call Defer from any goroutine.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Defer appends task; nil tasks are ignored.
func (q *Queue) Defer(task func()) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// Len reports how many tasks are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Flush runs queued tasks in order, including tasks deferred while flushing,
// and returns how many ran.
func (q *Queue) Flush() int {
	ran := 0
	for {
		tasks := q.drain()
		if len(tasks) == 0 {
			return ran
		}
		for _, task := range tasks {
			task()
		}
		ran += len(tasks)
	}
}

func (q *Queue) drain() []func() {
	q.mu.Lock()
	tasks := append([]func(){}, q.tasks...)
	q.tasks = nil
	q.mu.Unlock()
	return tasks
}

// immediate runs tasks inline; used when a Form has no scheduler.
type immediate struct{}

func (immediate) Defer(task func()) {
	if task != nil {
		task()
	}
}
