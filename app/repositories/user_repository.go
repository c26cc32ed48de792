package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/multidelivery/painel/app/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// normalizeEmail is the stored form of a login email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRepository handles database operations for User.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	return user, notFound(err)
}

// FindByID looks up a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return user, notFound(err)
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}

// Upsert creates the user or, when the email exists, replaces name, hash and role.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) (created bool, err error) {
	user.Email = normalizeEmail(user.Email)
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		findErr := tx.Where("email = ?", user.Email).First(&existing).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			created = true
			return tx.Create(user).Error
		case findErr != nil:
			return findErr
		}
		user.ID = existing.ID
		return tx.Model(&existing).Updates(map[string]interface{}{
			"name":          user.Name,
			"password_hash": user.PasswordHash,
			"role":          user.Role,
			"updated_at":    time.Now(),
		}).Error
	})
	return created, err
}
