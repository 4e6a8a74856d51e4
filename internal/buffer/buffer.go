package buffer

import (
	"errors"
	"sync"
)

const (
	// PolicyDrop rejects new values while the ring is full.
	PolicyDrop = "drop"
	// PolicyOverwrite evicts the oldest value to make room for a new one.
	PolicyOverwrite = "overwrite"
)

var (
	ErrBufferFull  = errors.New("buffer is full")
	ErrBufferEmpty = errors.New("buffer is empty")
	ErrBadPolicy   = errors.New("policy must be 'drop' or 'overwrite'")
)

// Ring is a bounded FIFO shared between one producer and one consumer.
// Push never blocks; what happens on overflow is decided by the policy.
type Ring[T any] struct {
	mu       sync.Mutex
	items    []T
	head     int
	size     int
	capacity int
	policy   string
	dropped  int
}

func NewRing[T any](capacity int, policy string) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, errors.New("capacity must be greater than zero")
	}
	if !validPolicy(policy) {
		return nil, ErrBadPolicy
	}
	return &Ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		policy:   policy,
	}, nil
}

// Push appends v. With PolicyDrop a full ring returns ErrBufferFull and
// keeps its contents; with PolicyOverwrite the oldest value is discarded.
func (rb *Ring[T]) Push(v T) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.size == rb.capacity {
		rb.dropped++
		if rb.policy == PolicyDrop {
			return ErrBufferFull
		}
		rb.items[rb.head] = v
		rb.head = (rb.head + 1) % rb.capacity
		return nil
	}
	rb.items[(rb.head+rb.size)%rb.capacity] = v
	rb.size++
	return nil
}

// Pop removes and returns the oldest value.
func (rb *Ring[T]) Pop() (T, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	var zero T
	if rb.size == 0 {
		return zero, ErrBufferEmpty
	}
	v := rb.items[rb.head]
	rb.items[rb.head] = zero
	rb.head = (rb.head + 1) % rb.capacity
	rb.size--
	return v, nil
}

// Latest returns the newest value without removing it.
func (rb *Ring[T]) Latest() (T, bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	var zero T
	if rb.size == 0 {
		return zero, false
	}
	return rb.items[(rb.head+rb.size-1)%rb.capacity], true
}

// Drain removes every queued value, oldest first.
func (rb *Ring[T]) Drain() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]T, 0, rb.size)
	var zero T
	for rb.size > 0 {
		out = append(out, rb.items[rb.head])
		rb.items[rb.head] = zero
		rb.head = (rb.head + 1) % rb.capacity
		rb.size--
	}
	return out
}

func (rb *Ring[T]) Capacity() int {
	return rb.capacity
}

func (rb *Ring[T]) Policy() string {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return rb.policy
}

func (rb *Ring[T]) SetPolicy(policy string) error {
	if !validPolicy(policy) {
		return ErrBadPolicy
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.policy = policy
	return nil
}

func (rb *Ring[T]) Size() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return rb.size
}

// Dropped counts values lost to overflow under either policy.
func (rb *Ring[T]) Dropped() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return rb.dropped
}

func validPolicy(policy string) bool {
	return policy == PolicyDrop || policy == PolicyOverwrite
}
