package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/app/repositories"
	"github.com/multidelivery/painel/config"
	"github.com/multidelivery/painel/pkg/auth"
	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/middleware"
)

// AuthService issues and validates opaque bearer sessions.
type AuthService struct {
	users     *repositories.UserRepository
	sessions  *repositories.SessionRepository
	ttl       time.Duration
	ticketTTL time.Duration
	grace     time.Duration
	now       func() time.Time
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{
		users:     repositories.NewUserRepository(db),
		sessions:  repositories.NewSessionRepository(db),
		ttl:       config.SessionTTL(),
		ticketTTL: config.StreamTicketTTL(),
		grace:     config.SessionPruneGrace(),
		now:       time.Now,
	}
}

type LoginResult struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// Login checks the credentials and opens a new session. Every login adds a
// session; earlier ones stay valid.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := auth.NewOpaqueToken()
	if err != nil {
		return LoginResult{}, err
	}
	sess := models.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, &sess); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	logger.WithCtx(ctx).Info("auth: login", "user_id", user.ID)
	return LoginResult{User: user.Public(), Token: token}, nil
}

// Me resolves token to its user. An expired session is deleted on the spot,
// so asking again reports an invalid session instead.
func (s *AuthService) Me(ctx context.Context, token string) (models.PublicUser, error) {
	if token == "" {
		return models.PublicUser{}, ErrNoToken
	}

	sess, err := s.sessions.FindByToken(ctx, token)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.PublicUser{}, ErrInvalidSession
	}
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("find session: %w", err)
	}

	if sess.Expired(s.now()) {
		if err := s.sessions.DeleteByToken(ctx, token); err != nil {
			return models.PublicUser{}, fmt.Errorf("delete expired session: %w", err)
		}
		return models.PublicUser{}, ErrSessionExpired
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.PublicUser{}, ErrUserNotFound
	}
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("find user: %w", err)
	}
	return user.Public(), nil
}

// Authenticate implements middleware.Authenticator.
func (s *AuthService) Authenticate(ctx context.Context, token string) (middleware.Identity, error) {
	u, err := s.Me(ctx, token)
	if err != nil {
		return middleware.Identity{}, err
	}
	return middleware.Identity{UserID: u.ID, Role: u.Role}, nil
}

// Logout deletes the session, if any. It never fails for a missing token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type StreamTicket struct {
	Ticket    string `json:"ticket"`
	ExpiresIn int    `json:"expires_in"`
}

// StreamTicket signs a short-lived JWT that authorises one push-stream connection.
func (s *AuthService) StreamTicket(userID, role string) (StreamTicket, error) {
	t, err := auth.GenerateToken(userID, role, auth.PurposeStream, s.ticketTTL)
	if err != nil {
		return StreamTicket{}, err
	}
	return StreamTicket{Ticket: t, ExpiresIn: int(s.ticketTTL.Seconds())}, nil
}

// PruneSessions removes sessions that expired more than the grace period
// ago. Newer expired sessions are left for Me to report as expired.
func (s *AuthService) PruneSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpiredBefore(ctx, s.now().Add(-s.grace))
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	if n > 0 {
		logger.Info("auth: pruned expired sessions", "count", n)
	}
	return n, nil
}

// EnsureAdmin creates or updates an admin account.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, name, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, ErrMissingCredentials
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	if name == "" {
		name = "Administrador"
	}
	u := models.User{Email: email, Name: name, PasswordHash: hash, Role: models.RoleAdmin}
	return s.users.Upsert(ctx, &u)
}
