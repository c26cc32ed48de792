// Package queue runs background jobs with retries.
//
//	type NotifyJob struct{ PedidoID string }
//	func (NotifyJob) JobName() string { return "pedidos.notify" }
//	func (j *NotifyJob) Handle(ctx context.Context) error { ... }
//
//	m := queue.NewManager(queue.NewMemoryDriver())
//	m.Register("pedidos.notify", func() queue.Job { return &NotifyJob{} })
//	m.Dispatch(ctx, &NotifyJob{PedidoID: id})
//
// Jobs are JSON encoded, so exported fields are the payload. A job that
// keeps failing after its last attempt is kept in memory and, with UseDB,
// in failed_jobs, from where RetryFailed puts it back on the queue.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/metrics"
)

// Job is the interface every queued job must satisfy.
type Job interface {
	Handle(ctx context.Context) error
}

// Named jobs are registered under JobName instead of their Go type name.
type Named interface {
	JobName() string
}

// FailedJob holds a job that exhausted its retries.
type FailedJob struct {
	Type     string
	Job      Job
	Err      error
	FailedAt time.Time
	Attempts int
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is ready. It may return (nil, nil) on an
	// idle timeout.
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver can hold a payload until delay has passed.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// ------------------- Manager -------------------

type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	db       *gorm.DB
	registry map[string]func() Job
	failed   []FailedJob
	maxRetry int
	backoff  time.Duration
	wg       sync.WaitGroup
}

func NewManager(d Driver) *Manager {
	return &Manager{
		driver:   d,
		registry: map[string]func() Job{},
		maxRetry: 3,
		backoff:  time.Second,
	}
}

func (m *Manager) SetDriver(d Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.driver = d
}

// SetRetry sets the attempt count and the linear backoff step
// (attempt × step between attempts).
func (m *Manager) SetRetry(attempts int, step time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if attempts < 1 {
		attempts = 1
	}
	m.maxRetry = attempts
	m.backoff = step
}

// Register makes a job type available for decoding by name.
func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

// ------------------- Dispatch -------------------

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func typeName(job Job) string {
	if n, ok := job.(Named); ok {
		return n.JobName()
	}
	return fmt.Sprintf("%T", job)
}

func encode(job Job) ([]byte, error) {
	name := typeName(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	return encodeEnvelope(name, payload)
}

func encodeEnvelope(name string, payload []byte) ([]byte, error) {
	env, err := json.Marshal(envelope{Type: name, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return env, nil
}

// Dispatch pushes job onto the queue.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	env, err := encode(job)
	if err != nil {
		return err
	}
	return m.currentDriver().Push(ctx, env)
}

// DispatchAfter pushes job once delay has passed. Drivers without native
// delay support hold it in a timer, which does not survive a restart.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	env, err := encode(job)
	if err != nil {
		return err
	}
	d := m.currentDriver()
	if dd, ok := d.(DelayedDriver); ok {
		return dd.PushDelayed(ctx, env, delay)
	}
	time.AfterFunc(delay, func() {
		if err := d.Push(context.Background(), env); err != nil {
			logger.Error("queue: delayed dispatch failed", "type", typeName(job), "error", err)
		}
	})
	return nil
}

func (m *Manager) currentDriver() Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.driver
}

// ------------------- Worker -------------------

// Start launches n workers that run until ctx is cancelled.
func (m *Manager) Start(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		m.wg.Add(1)
		go m.work(ctx)
	}
	logger.Info("queue: workers started", "count", n)
}

// Wait blocks until every worker started by Start has returned.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) work(ctx context.Context) {
	defer m.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}

		raw, err := m.currentDriver().Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if raw == nil {
			continue
		}

		m.process(ctx, raw)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()

	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	m.runWithRetry(ctx, job, env)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, env envelope) {
	name := env.Type
	m.mu.RLock()
	maxRetry, step := m.maxRetry, m.backoff
	m.mu.RUnlock()

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= maxRetry; attempt++ {
		err := m.safeHandle(ctx, job)
		if err == nil {
			metrics.RecordQueueJob(name, "success", start)
			logger.Debug("queue: job processed", "type", name, "attempt", attempt)
			return
		}
		lastErr = err
		logger.Warn("queue: job failed", "type", name, "attempt", attempt, "error", err)
		if attempt == maxRetry {
			break
		}
		select {
		case <-ctx.Done():
			attempt = maxRetry
		case <-time.After(time.Duration(attempt) * step):
		}
	}

	metrics.RecordQueueJob(name, "failed", start)
	m.recordFailed(job, env, lastErr, maxRetry)
	logger.Error("queue: job exhausted retries", "type", name, "error", lastErr)
}

func (m *Manager) safeHandle(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: job panicked: %v", r)
		}
	}()
	return job.Handle(ctx)
}

// FailedJobs returns the failures recorded by this process.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}
