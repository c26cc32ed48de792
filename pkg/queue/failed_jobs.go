package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/multidelivery/painel/pkg/logger"
)

// FailedJobRecord is a job that exhausted its retries. Payload is the job's
// JSON exactly as it was queued, so it can be dispatched again. The table
// is created by the failed_jobs migration.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"not null;index"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// ErrNoFailedStore is returned by the failed_jobs operations before UseDB.
var ErrNoFailedStore = errors.New("queue: failed jobs are not persisted (no database)")

// UseDB persists failed jobs to db in addition to the in-memory list.
func (m *Manager) UseDB(db *gorm.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.db = db
}

func (m *Manager) store() *gorm.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *Manager) recordFailed(job Job, env envelope, lastErr error, attempts int) {
	now := time.Now()

	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		Type: env.Type, Job: job, Err: lastErr, FailedAt: now, Attempts: attempts,
	})
	m.mu.Unlock()

	db := m.store()
	if db == nil {
		return
	}

	errText := ""
	if lastErr != nil {
		errText = lastErr.Error()
	}
	record := FailedJobRecord{
		JobType:  env.Type,
		Payload:  string(env.Payload),
		Error:    errText,
		Attempts: attempts,
		FailedAt: now,
	}
	if err := db.Create(&record).Error; err != nil {
		logger.Error("queue: persist failed job", "type", env.Type, "error", err)
	}
}

// Failures lists persisted failures, oldest first. limit <= 0 means all.
func (m *Manager) Failures(ctx context.Context, limit int) ([]FailedJobRecord, error) {
	db := m.store()
	if db == nil {
		return nil, ErrNoFailedStore
	}
	q := db.WithContext(ctx).Order("failed_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []FailedJobRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("queue: list failed jobs: %w", err)
	}
	return out, nil
}

// RetryFailed pushes up to limit persisted failures back onto the queue,
// oldest first, and removes each row once its job is queued again. Rows of
// job types this manager does not know stay where they are.
func (m *Manager) RetryFailed(ctx context.Context, limit int) (int, error) {
	records, err := m.Failures(ctx, limit)
	if err != nil {
		return 0, err
	}

	m.mu.RLock()
	known := make(map[string]bool, len(m.registry))
	for name := range m.registry {
		known[name] = true
	}
	m.mu.RUnlock()

	db := m.store()
	retried := 0
	for _, rec := range records {
		if !known[rec.JobType] {
			logger.Warn("queue: skip retry of unregistered job", "type", rec.JobType, "id", rec.ID)
			continue
		}
		raw, err := encodeEnvelope(rec.JobType, []byte(rec.Payload))
		if err != nil {
			return retried, err
		}
		if err := m.currentDriver().Push(ctx, raw); err != nil {
			return retried, fmt.Errorf("queue: requeue failed job %d: %w", rec.ID, err)
		}
		if err := db.WithContext(ctx).Delete(&FailedJobRecord{}, rec.ID).Error; err != nil {
			return retried, fmt.Errorf("queue: delete failed job %d: %w", rec.ID, err)
		}
		retried++
	}
	if retried > 0 {
		logger.Info("queue: failed jobs requeued", "count", retried)
	}
	return retried, nil
}
