package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/multidelivery/painel/app/models"
)

// SessionRepository persists bearer sessions.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *SessionRepository) FindByToken(ctx context.Context, token string) (models.Session, error) {
	var s models.Session
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&s).Error
	return s, notFound(err)
}

// DeleteByToken removes the matching session. A missing token is not an error.
func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error
}

// DeleteExpiredBefore removes sessions whose expiry is older than cutoff.
func (r *SessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
