package game

import "sync"

// Queue hands columns from the receive goroutine to the goroutine driving the
// game. Push never waits on the consumer; DrainAll empties it in push order.
type Queue struct {
	mu    sync.Mutex
	items []int
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Push(column int) {
	q.mu.Lock()
	q.items = append(q.items, column)
	q.mu.Unlock()
}

// DrainAll returns everything pushed since the last drain, or nil.
func (q *Queue) DrainAll() []int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}

	items := q.items
	q.items = nil
	return items
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
