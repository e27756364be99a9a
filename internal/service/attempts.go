// internal/service/attempts.go
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neetprep/backend/internal/analytics"
	"github.com/neetprep/backend/internal/domain/attempt"
	"github.com/neetprep/backend/internal/domain/question"
	"github.com/neetprep/backend/internal/domain/testpaper"
	"github.com/neetprep/backend/internal/store"
)

// dashboardConcurrency bounds the per-attempt report fan-out.
const dashboardConcurrency = 4

// AttemptService runs the test-taking flow: start, answer, submit, report
// and mistake tagging.
type AttemptService struct {
	store  Store
	cycles *CycleService
	logger *zap.Logger
	now    Clock
}

func NewAttemptService(s Store, cycles *CycleService, logger *zap.Logger) *AttemptService {
	return &AttemptService{store: s, cycles: cycles, logger: logger, now: utcNow}
}

// Session is an attempt together with its paper and questions in order.
type Session struct {
	Attempt   *attempt.Attempt
	Paper     *testpaper.TestPaper
	Questions []*question.Question
}

// Start opens the test for the user, resuming an unexpired attempt if one
// exists.
func (s *AttemptService) Start(ctx context.Context, userID, testID string) (*Session, error) {
	paper, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if !paper.VisibleTo(userID) {
		return nil, store.ErrNotFound
	}
	if paper.Gated() {
		if err := s.cycles.EnsureUnlocked(ctx, userID, paper.Cycle, paper.Position); err != nil {
			return nil, err
		}
	}

	now := s.now()
	a, err := s.store.FindOpenAttempt(ctx, userID, testID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if a != nil && a.Expired(now) {
		// The timer ran out without a submit; grade what was answered.
		if _, err := s.finish(ctx, a, now); err != nil {
			return nil, fmt.Errorf("close expired attempt: %w", err)
		}
		a = nil
	}

	if a == nil {
		a = attempt.New(userID, paper, now)
		if err := s.store.CreateAttempt(ctx, a); err != nil {
			return nil, fmt.Errorf("create attempt: %w", err)
		}
		s.logger.Info("attempt started",
			zap.String("attempt_id", a.ID),
			zap.String("user_id", userID),
			zap.String("test_id", testID))
	} else {
		s.logger.Debug("resuming attempt", zap.String("attempt_id", a.ID))
	}

	if err := s.store.TouchProfile(ctx, userID, now); err != nil {
		s.logger.Warn("failed to record activity", zap.String("user_id", userID), zap.Error(err))
	}
	return s.session(ctx, a, paper)
}

// Get returns the user's attempt with its paper and questions.
func (s *AttemptService) Get(ctx context.Context, userID, attemptID string) (*Session, error) {
	a, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	paper, err := s.store.GetTest(ctx, a.TestID)
	if err != nil {
		return nil, err
	}
	return s.session(ctx, a, paper)
}

func (s *AttemptService) session(ctx context.Context, a *attempt.Attempt, paper *testpaper.TestPaper) (*Session, error) {
	bank, err := s.store.GetQuestions(ctx, a.QuestionIDs)
	if err != nil {
		return nil, err
	}
	qs := make([]*question.Question, 0, len(a.QuestionIDs))
	for _, qid := range a.QuestionIDs {
		if q, ok := bank[qid]; ok {
			qs = append(qs, q)
		}
	}
	return &Session{Attempt: a, Paper: paper, Questions: qs}, nil
}

func (s *AttemptService) owned(ctx context.Context, userID, attemptID string) (*attempt.Attempt, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, ErrForbidden
	}
	return a, nil
}

// Answer records (or replaces) the answer to one question.
func (s *AttemptService) Answer(ctx context.Context, userID, attemptID, questionID string, chosen *string, timeTaken int) error {
	a, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return err
	}
	if err := a.RecordAnswer(questionID, chosen, timeTaken, s.now()); err != nil {
		return err
	}
	return s.store.SaveAnswer(ctx, a.ID, a.Answers[questionID])
}

// Submit grades the attempt and returns its report.
func (s *AttemptService) Submit(ctx context.Context, userID, attemptID string) (analytics.Report, error) {
	a, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return analytics.Report{}, err
	}
	return s.finish(ctx, a, s.now())
}

func (s *AttemptService) finish(ctx context.Context, a *attempt.Attempt, now time.Time) (analytics.Report, error) {
	bank, err := s.store.GetQuestions(ctx, a.QuestionIDs)
	if err != nil {
		return analytics.Report{}, err
	}
	if err := a.Submit(bank, now); err != nil {
		return analytics.Report{}, err
	}
	if err := s.store.SubmitAttempt(ctx, a); err != nil {
		return analytics.Report{}, err
	}
	if err := s.store.TouchProfile(ctx, a.UserID, now); err != nil {
		s.logger.Warn("failed to record activity", zap.String("user_id", a.UserID), zap.Error(err))
	}

	report := analytics.Compute(a.Results, lookup(bank))
	s.logger.Info("attempt submitted",
		zap.String("attempt_id", a.ID),
		zap.Int("score", report.Score),
		zap.Int("accuracy", report.Accuracy))
	return report, nil
}

// Report recomputes the report of a submitted attempt.
func (s *AttemptService) Report(ctx context.Context, userID, attemptID string) (analytics.Report, error) {
	a, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return analytics.Report{}, err
	}
	return s.report(ctx, a)
}

func (s *AttemptService) report(ctx context.Context, a *attempt.Attempt) (analytics.Report, error) {
	bank, err := s.store.GetQuestions(ctx, a.QuestionIDs)
	if err != nil {
		return analytics.Report{}, err
	}
	return a.Report(lookup(bank))
}

// Tag adds a mistake tag to an incorrect answer.
func (s *AttemptService) Tag(ctx context.Context, userID, attemptID, questionID, tag string) error {
	a, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return err
	}
	if err := a.Tag(questionID, tag); err != nil {
		return err
	}
	return s.store.AddTag(ctx, a.ID, questionID, tag)
}

// Untag removes a mistake tag.
func (s *AttemptService) Untag(ctx context.Context, userID, attemptID, questionID, tag string) error {
	a, err := s.owned(ctx, userID, attemptID)
	if err != nil {
		return err
	}
	if err := a.Untag(questionID, tag); err != nil {
		return err
	}
	return s.store.RemoveTag(ctx, a.ID, questionID, tag)
}

type AttemptSummary struct {
	AttemptID   string         `json:"attempt_id"`
	TestID      string         `json:"test_id"`
	Title       string         `json:"title"`
	Kind        testpaper.Kind `json:"kind"`
	Cycle       int            `json:"cycle,omitempty"`
	SubmittedAt *time.Time     `json:"submitted_at"`
	Score       int            `json:"score"`
	MaxScore    int            `json:"max_score"`
	Accuracy    int            `json:"accuracy"`
	Completion  int            `json:"completion"`
}

type Dashboard struct {
	Attempts   []AttemptSummary          `json:"attempts"`
	Overall    analytics.Report          `json:"overall"`
	WeakTopics []analytics.TopicMastery `json:"weak_topics"`
}

// Dashboard summarises every submitted attempt of the user. Per-attempt
// reports are computed concurrently.
func (s *AttemptService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	attempts, err := s.store.ListSubmittedAttempts(ctx, userID)
	if err != nil {
		return nil, err
	}
	papers, err := s.store.ListTests(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*testpaper.TestPaper, len(papers))
	for _, p := range papers {
		byID[p.ID] = p
	}

	summaries := make([]AttemptSummary, len(attempts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardConcurrency)
	for i, a := range attempts {
		g.Go(func() error {
			r, err := s.report(gctx, a)
			if err != nil {
				return fmt.Errorf("report for attempt %s: %w", a.ID, err)
			}
			sum := AttemptSummary{
				AttemptID:   a.ID,
				TestID:      a.TestID,
				SubmittedAt: a.SubmittedAt,
				Score:       r.Score,
				MaxScore:    r.MaxScore,
				Accuracy:    r.Accuracy,
				Completion:  r.Completion,
			}
			if p, ok := byID[a.TestID]; ok {
				sum.Title, sum.Kind, sum.Cycle = p.Title, p.Kind, p.Cycle
			}
			summaries[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	overall, err := s.combined(ctx, attempts)
	if err != nil {
		return nil, err
	}
	weak := slices.DeleteFunc(analytics.WeakestTopics(overall), func(t analytics.TopicMastery) bool {
		return t.Level == analytics.Excellent
	})

	return &Dashboard{Attempts: summaries, Overall: overall, WeakTopics: weak}, nil
}

// combined computes one report across all results of the given attempts.
func (s *AttemptService) combined(ctx context.Context, attempts []*attempt.Attempt) (analytics.Report, error) {
	var (
		results []analytics.QuestionResult
		ids     []string
	)
	for _, a := range attempts {
		results = append(results, a.Results...)
		ids = append(ids, a.QuestionIDs...)
	}
	bank, err := s.store.GetQuestions(ctx, uniq(ids))
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.Compute(results, lookup(bank)), nil
}

func lookup(bank map[string]*question.Question) analytics.Lookup {
	qs := make([]*question.Question, 0, len(bank))
	for _, q := range bank {
		qs = append(qs, q)
	}
	return question.Lookup(qs)
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
