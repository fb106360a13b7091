package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sainmakosam/internal/core/model"
	"sainmakosam/internal/core/repository"
	"sainmakosam/internal/session"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AdminLandingPath is where a login goes when no page was waiting.
const AdminLandingPath = "/admin/dashboard"

// SessionManager is the part of session.Manager the auth service needs.
type SessionManager interface {
	Save(ctx context.Context, s *session.Session) error
	Regenerate(ctx context.Context, s *session.Session) error
	Destroy(ctx context.Context, id string) error
}

type AuthService interface {
	// Login checks the credentials, binds the user to sess and returns the
	// path to continue to.
	Login(ctx context.Context, sess *session.Session, username, password string) (string, error)
	// Logout destroys sess. Failures are logged only.
	Logout(ctx context.Context, sess *session.Session)
	CurrentUser(ctx context.Context, sess *session.Session) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	sessions SessionManager
}

func NewAuthService(userRepo repository.UserRepository, sessions SessionManager) AuthService {
	return &authService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// dummyHash keeps the unknown-user path as slow as a real comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("sainmakosam-dummy"), model.PasswordCost)
	return h
})

func (s *authService) Login(ctx context.Context, sess *session.Session, username, password string) (string, error) {
	logCtx := logrus.WithField("username", username)

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		logCtx.WithError(err).Error("Login failed: user lookup error")
		return "", fmt.Errorf("%w: find user: %w", ErrStorage, err)
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		logCtx.Warn("Login failed: unknown user")
		return "", ErrInvalidCredentials
	}
	if !user.CheckPassword(password) {
		logCtx.Warn("Login failed: wrong password")
		return "", ErrInvalidCredentials
	}

	if err := s.sessions.Regenerate(ctx, sess); err != nil {
		logCtx.WithError(err).Warn("Could not drop pre-login session")
	}
	target := SafeReturnTo(sess.ReturnTo)
	sess.UserID = user.ID
	sess.ReturnTo = ""
	if err := s.sessions.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("%w: save session: %w", ErrStorage, err)
	}

	logCtx.WithField("user_id", user.ID).Info("User logged in")
	return target, nil
}

func (s *authService) Logout(ctx context.Context, sess *session.Session) {
	if sess == nil {
		return
	}
	if err := s.sessions.Destroy(ctx, sess.ID); err != nil {
		logrus.WithError(err).WithField("user_id", sess.UserID).Error("Error destroying session")
	}
}

func (s *authService) CurrentUser(ctx context.Context, sess *session.Session) (*model.User, error) {
	if !sess.Authenticated() {
		return nil, ErrNotFound
	}
	user, err := s.userRepo.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %w", ErrStorage, err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// SafeReturnTo accepts only local absolute paths and falls back to
// AdminLandingPath for anything else.
func SafeReturnTo(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return AdminLandingPath
	}
	return target
}
