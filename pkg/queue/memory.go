package queue

import (
	"fmt"
	"sync"
)

// InMemoryQueue implements an in-memory queue. Enqueue fails instead of
// blocking when the queue is full, so a chat flood cannot stall the producer.
type InMemoryQueue struct {
	items []interface{}
	max   int
	lock  sync.Mutex
}

// NewInMemoryQueue creates a new queue holding at most maxSize items.
func NewInMemoryQueue(maxSize int) *InMemoryQueue {
	return &InMemoryQueue{
		max: maxSize,
	}
}

// Enqueue adds an item to the end of the queue.
func (q *InMemoryQueue) Enqueue(item interface{}) error {
	q.lock.Lock()
	defer q.lock.Unlock()

	if len(q.items) >= q.max {
		return fmt.Errorf("queue is full")
	}
	q.items = append(q.items, item)
	return nil
}

// ReadAllMessages removes and returns all pending items in arrival order.
func (q *InMemoryQueue) ReadAllMessages() ([]interface{}, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	items := q.items
	q.items = nil
	return items, nil
}

// Size returns the current size of the queue.
func (q *InMemoryQueue) Size() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

// ClearQueue clears all items from the queue.
func (q *InMemoryQueue) ClearQueue() {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.items = nil
}
