package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/hash"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/mykafka"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/pkg/tokens"
)

type AuthService struct {
	Repo       *repo.GormRepo
	Tokens     *tokens.Service
	Hasher     *hash.Hasher
	Events     mykafka.Publisher
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Session struct {
	AccessToken  string
	RefreshToken string
}

func subject(u *models.User) tokens.Subject {
	return tokens.Subject{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return tokens.DefaultAccessTTL
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return tokens.DefaultRefreshTTL
}

// Signup creates a user with the default role.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	pwHash, err := s.Hasher.HashPassword(password)
	if errors.Is(err, hash.ErrPasswordTooLong) {
		return nil, apperr.Validation(map[string]string{"password": "Must be at most 72 bytes"})
	}
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{Name: name, Email: email, Password: pwHash}
	if err := s.Repo.CreateUser(ctx, user, models.RoleUser); err != nil {
		return nil, err
	}
	user.Password = ""

	l.Info("signup_success", "user_id", user.ID)
	mykafka.Emit(ctx, s.Events, mykafka.TopicUsers, mykafka.Event{
		Type: mykafka.UserSignedUp,
		ID:   user.ID,
		Data: map[string]any{"email": user.Email, "name": user.Name},
	})
	return user, nil
}

// IssueSession mints the pair handed out on login.
func (s *AuthService) IssueSession(u *models.User) (*Session, error) {
	access, err := s.IssueAccess(u)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.IssueRefreshToken(subject(u), s.refreshTTL())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) IssueAccess(u *models.User) (string, error) {
	tok, err := s.Tokens.IssueAccessToken(subject(u), s.accessTTL())
	if err != nil {
		return "", apperr.Internal(err)
	}
	return tok, nil
}
