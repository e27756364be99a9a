// internal/service/service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/neetprep/backend/internal/domain/attempt"
	"github.com/neetprep/backend/internal/domain/payment"
	"github.com/neetprep/backend/internal/domain/profile"
	"github.com/neetprep/backend/internal/domain/question"
	"github.com/neetprep/backend/internal/domain/ritual"
	"github.com/neetprep/backend/internal/domain/testpaper"
	"github.com/neetprep/backend/internal/store"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownPlan     = errors.New("unknown plan")
	ErrEmptyBank       = errors.New("question bank has no questions")
)

// Store is the persistence the services need. *store.SQLStore implements it.
type Store interface {
	GetQuestion(ctx context.Context, id string) (*question.Question, error)
	GetQuestions(ctx context.Context, ids []string) (map[string]*question.Question, error)
	ListQuestions(ctx context.Context, f store.QuestionFilter) ([]*question.Question, error)

	GetTest(ctx context.Context, id string) (*testpaper.TestPaper, error)
	ListTests(ctx context.Context, userID string) ([]*testpaper.TestPaper, error)
	SaveTest(ctx context.Context, p *testpaper.TestPaper) error
	FindPersonalizedTest(ctx context.Context, userID string, cycle int) (*testpaper.TestPaper, error)

	CreateAttempt(ctx context.Context, a *attempt.Attempt) error
	GetAttempt(ctx context.Context, id string) (*attempt.Attempt, error)
	FindOpenAttempt(ctx context.Context, userID, testID string) (*attempt.Attempt, error)
	SaveAnswer(ctx context.Context, attemptID string, ans attempt.Answer) error
	SubmitAttempt(ctx context.Context, a *attempt.Attempt) error
	ListSubmittedAttempts(ctx context.Context, userID string) ([]*attempt.Attempt, error)
	ListSeenQuestionIDs(ctx context.Context, userID string) (map[string]bool, error)
	AddTag(ctx context.Context, attemptID, questionID, tag string) error
	RemoveTag(ctx context.Context, attemptID, questionID, tag string) error

	CreateProfile(ctx context.Context, p *profile.Profile) error
	GetProfile(ctx context.Context, id string) (*profile.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*profile.Profile, error)
	SetPremium(ctx context.Context, userID string, premium bool) error
	SetAdmin(ctx context.Context, userID string, admin bool) error
	TouchProfile(ctx context.Context, userID string, at time.Time) error
	ListInactiveProfiles(ctx context.Context, cutoff time.Time) ([]*profile.Profile, error)
	MarkFollowedUp(ctx context.Context, userID string, at time.Time) error

	SaveAuthSession(ctx context.Context, s *profile.AuthSession) error
	GetAuthSession(ctx context.Context, token string) (*profile.AuthSession, error)
	DeleteAuthSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	CreatePayment(ctx context.Context, p *payment.Payment) error
	UpdatePayment(ctx context.Context, p *payment.Payment) error
	GetPaymentByOrder(ctx context.Context, orderID string) (*payment.Payment, error)
	ListPayments(ctx context.Context, userID string) ([]*payment.Payment, error)

	SaveRitualLog(ctx context.Context, l *ritual.Log) error
	ListRitualLogs(ctx context.Context, userID string, since time.Time) ([]*ritual.Log, error)
}

var _ Store = (*store.SQLStore)(nil)

// Clock returns the current time. Services default to UTC wall time.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
