package queue

import (
	"context"
	"errors"
)

var ErrQueueFull = errors.New("queue: memory queue is full")

// MemoryDriver is an in-process, channel-backed driver. Jobs are lost on restart.
type MemoryDriver struct {
	ch chan []byte
}

// NewMemoryDriver creates an in-memory queue holding up to 1000 jobs.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{ch: make(chan []byte, 1000)}
}

// Push never blocks a request: a full buffer is an error.
func (d *MemoryDriver) Push(_ context.Context, payload []byte) error {
	select {
	case d.ch <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *MemoryDriver) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-d.ch:
		return payload, nil
	}
}

// Len returns the number of queued payloads.
func (d *MemoryDriver) Len() int { return len(d.ch) }
