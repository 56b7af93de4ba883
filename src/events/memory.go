package events

import "context"

type MemoryQueue struct {
	c chan Transition
}

var _ Queue = &MemoryQueue{}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{
		c: make(chan Transition, size),
	}
}

// Blocks while the queue is full.
func (q *MemoryQueue) Publish(ctx context.Context, t Transition) error {
	select {
	case q.c <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Next(ctx context.Context) (Transition, error) {
	select {
	case t := <-q.c:
		return t, nil
	case <-ctx.Done():
		return Transition{}, ctx.Err()
	}
}

func (q *MemoryQueue) Len() int {
	return len(q.c)
}

// Removes and returns everything currently queued, without blocking.
func (q *MemoryQueue) Drain() []Transition {
	var result []Transition
	for {
		select {
		case t := <-q.c:
			result = append(result, t)
		default:
			return result
		}
	}
}
