package queue

import (
	"sync"

	"dealscout/internal/domain"
	"dealscout/internal/ports"
)

// Memory is an insertion-ordered in-memory candidate buffer. Items not
// drained this cycle stay put for the next one.
type Memory struct {
	mu    sync.Mutex
	items []domain.Candidate
}

var _ ports.CandidateQueue = (*Memory)(nil)

// NewMemory builds an empty queue.
func NewMemory() *Memory {
	return &Memory{}
}

// Push appends a candidate to the tail.
func (q *Memory) Push(c domain.Candidate) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, c)
}

// Drain removes and returns up to max items from the head.
func (q *Memory) Drain(max int) []domain.Candidate {
	q.mu.Lock()
	defer q.mu.Unlock()

	if max <= 0 || len(q.items) == 0 {
		return nil
	}
	if max > len(q.items) {
		max = len(q.items)
	}

	batch := make([]domain.Candidate, max)
	copy(batch, q.items[:max])
	q.items = append(q.items[:0:0], q.items[max:]...)
	return batch
}

// Len reports the number of waiting candidates.
func (q *Memory) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
