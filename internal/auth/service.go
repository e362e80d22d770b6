package auth

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/apperr"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/notify"
)

// Account caps. Registration and promotion past these limits fail with
// ErrLimitExceeded.
const (
	MaxUsers  = 10
	MaxAdmins = 2
)

// Service manages accounts. The notification engine may be nil.
type Service struct {
	users  learner.Store
	tokens *TokenIssuer
	notify *notify.Engine
	now    func() time.Time
}

func NewService(users learner.Store, tokens *TokenIssuer, engine *notify.Engine) *Service {
	return &Service{users: users, tokens: tokens, notify: engine, now: time.Now}
}

// Register creates an account and returns it with a signed token.
func (s *Service) Register(username, email, password, role string) (*learner.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: username, email and password are required", apperr.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: invalid email address", apperr.ErrValidation)
	}
	if role == "" {
		role = learner.RoleUser
	}
	if role != learner.RoleUser && role != learner.RoleAdmin {
		return nil, "", fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, role)
	}

	if _, err := s.users.GetByEmail(email); err == nil {
		return nil, "", fmt.Errorf("%w: email already registered", apperr.ErrValidation)
	}

	count, err := s.users.Count()
	if err != nil {
		return nil, "", err
	}
	if count >= MaxUsers {
		return nil, "", fmt.Errorf("%w: user limit (%d) reached", apperr.ErrLimitExceeded, MaxUsers)
	}
	if role == learner.RoleAdmin {
		admins, err := s.users.CountAdmins()
		if err != nil {
			return nil, "", err
		}
		if admins >= MaxAdmins {
			return nil, "", fmt.Errorf("%w: admin limit (%d) reached", apperr.ErrLimitExceeded, MaxAdmins)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.users.Create(learner.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return nil, "", err
	}

	if s.notify != nil {
		if _, err := s.notify.Welcome(user.ID); err != nil {
			slog.Warn("welcome notification failed", "user_id", user.ID, "error", err)
		}
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Login verifies credentials, records the login time and returns the
// user with a fresh token.
func (s *Service) Login(email, password string) (*learner.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
	}

	if err := s.users.TouchLastLogin(user.ID, s.now()); err != nil {
		slog.Warn("recording last login failed", "user_id", user.ID, "error", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Verify resolves a bearer token to an identity.
func (s *Service) Verify(token string) (Identity, error) {
	return s.tokens.Verify(token)
}

// ChangePassword replaces the user's password after checking the
// current one.
func (s *Service) ChangePassword(userID, current, next string) error {
	if next == "" {
		return fmt.Errorf("%w: new password is required", apperr.ErrValidation)
	}
	user, err := s.users.Get(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return fmt.Errorf("%w: current password is incorrect", apperr.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.users.SetPasswordHash(userID, string(hash))
}

// Promote changes a user's role, enforcing the admin cap.
func (s *Service) Promote(userID, role string) error {
	if role != learner.RoleUser && role != learner.RoleAdmin {
		return fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, role)
	}
	if role == learner.RoleAdmin {
		admins, err := s.users.CountAdmins()
		if err != nil {
			return err
		}
		if admins >= MaxAdmins {
			return fmt.Errorf("%w: admin limit (%d) reached", apperr.ErrLimitExceeded, MaxAdmins)
		}
	}
	return s.users.SetRole(userID, role)
}

// DeleteAccount removes the user entirely.
func (s *Service) DeleteAccount(userID string) error {
	return s.users.Delete(userID)
}

// SetNow overrides the clock; used by tests.
func (s *Service) SetNow(now func() time.Time) { s.now = now }
