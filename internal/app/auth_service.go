package app

import (
	"bytes"
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"lms-service/internal/auth"
	"lms-service/internal/calendar"
	"lms-service/internal/domain"
)

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user domain.User) (auth.Token, error)
}

// AuthService handles accounts, login and logout.
type AuthService struct {
	users    UserRepository
	tokens   TokenIssuer
	denylist TokenDenylist
	progress *ProgressService
	clock    calendar.Clock
	log      *zap.Logger
}

func NewAuthService(
	users UserRepository,
	tokens TokenIssuer,
	denylist TokenDenylist,
	progress *ProgressService,
	clock calendar.Clock,
	log *zap.Logger,
) *AuthService {
	return &AuthService{users: users, tokens: tokens, denylist: denylist, progress: progress, clock: clock, log: log}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Register creates a student or teacher account. Admins are created from the CLI.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	if in.Role != domain.RoleStudent && in.Role != domain.RoleTeacher {
		return domain.User{}, domain.Invalid("role must be student or teacher")
	}
	return s.createUser(ctx, in)
}

// CreateAdmin seeds an administrator account.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (domain.User, error) {
	return s.createUser(ctx, RegisterInput{Name: name, Email: email, Password: password, Role: domain.RoleAdmin})
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput) (domain.User, error) {
	email := normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || email == "" || in.Password == "" {
		return domain.User{}, domain.Invalid("name, email and password are required")
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Role:      in.Role,
		CreatedAt: s.clock.Now().UTC(),
	}
	if user.IsTeacher() {
		user.VerificationStatus = domain.VerificationPending
	}
	if err := user.SetPassword(in.Password); err != nil {
		return domain.User{}, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, errors.Wrap(err, "creating user")
	}
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	Token  auth.Token          `json:"token"`
	User   domain.User         `json:"user"`
	Streak *domain.StreakState `json:"streak,omitempty"`
}

// Login checks credentials, issues a token and, for students, counts the
// login as a day of activity.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, errors.Wrap(err, "loading user")
	}
	if !user.CheckPassword(password) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	now := s.clock.Now().UTC()
	user, err = s.users.Update(ctx, user.ID, func(u *domain.User) error {
		u.LastLogin = &now
		return nil
	})
	if err != nil {
		return LoginResult{}, errors.Wrap(err, "recording login")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}

	result := LoginResult{Token: token, User: user}
	if user.IsStudent() {
		streak, err := s.progress.touch(ctx, user.ID)
		if err != nil {
			return LoginResult{}, err
		}
		result.Streak = &streak
	}
	return result, nil
}

// Logout revokes the token id until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return domain.ErrInvalidToken
	}
	until := s.clock.Now()
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.denylist.Revoke(ctx, claims.ID, until); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return nil
}

// IsRevoked reports whether a token id was logged out.
func (s *AuthService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.denylist.IsRevoked(ctx, tokenID)
}

func (s *AuthService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, domain.Invalid("name is required")
	}
	user, err := s.users.Update(ctx, userID, func(u *domain.User) error {
		u.Name = name
		return nil
	})
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}
	return user, errors.Wrap(err, "updating profile")
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(current) {
		return domain.ErrInvalidCredentials
	}
	checked := user.PasswordHash
	if err := user.SetPassword(next); err != nil {
		return err
	}
	_, err = s.users.Update(ctx, userID, func(u *domain.User) error {
		// the current password was verified against checked
		if !bytes.Equal(u.PasswordHash, checked) {
			return domain.ErrInvalidCredentials
		}
		u.PasswordHash = user.PasswordHash
		return nil
	})
	if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	return errors.Wrap(err, "saving password")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
