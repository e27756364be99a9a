// internal/service/accounts.go
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/domain/profile"
	"github.com/neetprep/backend/internal/jobs"
	"github.com/neetprep/backend/internal/mailer"
	"github.com/neetprep/backend/internal/store"
)

// AccountService handles registration, login and session lookup.
type AccountService struct {
	store      Store
	dispatcher jobs.Dispatcher
	admins     map[string]bool
	logger     *zap.Logger
	now        Clock
}

// NewAccountService builds the service. Profiles registered with an email
// listed in admins get admin rights.
func NewAccountService(s Store, dispatcher jobs.Dispatcher, admins []string, logger *zap.Logger) *AccountService {
	set := make(map[string]bool, len(admins))
	for _, e := range admins {
		if e = profile.NormalizeEmail(e); e != "" {
			set[e] = true
		}
	}
	return &AccountService{store: s, dispatcher: dispatcher, admins: set, logger: logger, now: utcNow}
}

// Register creates the profile, queues the welcome email and logs the user
// in.
func (s *AccountService) Register(ctx context.Context, name, email, password string, targetYear int) (*profile.Profile, *profile.AuthSession, error) {
	now := s.now()
	p, err := profile.New(name, email, password, targetYear, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p.Admin = s.admins[p.Email]
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return nil, nil, err
	}
	s.logger.Info("profile registered", zap.String("user_id", p.ID))

	if msg, err := mailer.Welcome(p.Email, mailer.WelcomeData{Name: p.Name, TargetYear: p.TargetYear}); err != nil {
		s.logger.Error("failed to render welcome email", zap.Error(err))
	} else if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		s.logger.Warn("failed to queue welcome email", zap.String("user_id", p.ID), zap.Error(err))
	}

	sess := profile.NewAuthSession(p.ID, profile.SessionTTL, now)
	if err := s.store.SaveAuthSession(ctx, sess); err != nil {
		return nil, nil, err
	}
	return p, sess, nil
}

// Login checks the credentials and opens a new session. Unknown emails and
// wrong passwords both return profile.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (*profile.Profile, *profile.AuthSession, error) {
	p, err := s.store.GetProfileByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, profile.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !p.CheckPassword(password) {
		return nil, nil, profile.ErrInvalidCredentials
	}

	now := s.now()
	sess := profile.NewAuthSession(p.ID, profile.SessionTTL, now)
	if err := s.store.SaveAuthSession(ctx, sess); err != nil {
		return nil, nil, err
	}
	if err := s.store.TouchProfile(ctx, p.ID, now); err != nil {
		s.logger.Warn("failed to record activity", zap.String("user_id", p.ID), zap.Error(err))
	}
	return p, sess, nil
}

func (s *AccountService) Logout(ctx context.Context, token string) error {
	err := s.store.DeleteAuthSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Authenticate resolves a session token to its profile.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*profile.Profile, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	sess, err := s.store.GetAuthSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, ErrUnauthenticated
	}
	p, err := s.store.GetProfile(ctx, sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	return p, err
}

func (s *AccountService) Profile(ctx context.Context, userID string) (*profile.Profile, error) {
	return s.store.GetProfile(ctx, userID)
}

// SetAdmin grants or revokes admin rights by email.
func (s *AccountService) SetAdmin(ctx context.Context, email string, admin bool) (*profile.Profile, error) {
	p, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetAdmin(ctx, p.ID, admin); err != nil {
		return nil, err
	}
	p.Admin = admin
	s.logger.Info("admin rights changed", zap.String("user_id", p.ID), zap.Bool("admin", admin))
	return p, nil
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (s *AccountService) PurgeExpiredSessions(ctx context.Context) error {
	n, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("expired sessions purged", zap.Int64("count", n))
	}
	return nil
}
