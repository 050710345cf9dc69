package session

import "sync"

// Queue runs submitted tasks one at a time per key, in submission order.
// Each key gets a worker goroutine only while it has queued work, so Submit
// never blocks the caller.
type Queue struct {
	mu      sync.Mutex
	pending map[string][]func()
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{pending: make(map[string][]func())}
}

// Submit appends task to key's queue and starts a worker if none is running.
func (q *Queue) Submit(key string, task func()) {
	q.mu.Lock()
	tasks, running := q.pending[key]
	q.pending[key] = append(tasks, task)
	q.mu.Unlock()
	if !running {
		go q.drain(key)
	}
}

// Len reports how many tasks are queued for key, including the one running.
func (q *Queue) Len(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending[key])
}

func (q *Queue) drain(key string) {
	for {
		q.mu.Lock()
		tasks := q.pending[key]
		if len(tasks) == 0 {
			delete(q.pending, key)
			q.mu.Unlock()
			return
		}
		task := tasks[0]
		q.mu.Unlock()

		task()

		q.mu.Lock()
		q.pending[key] = q.pending[key][1:]
		q.mu.Unlock()
	}
}
