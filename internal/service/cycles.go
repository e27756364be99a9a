// internal/service/cycles.go
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/analytics"
	"github.com/neetprep/backend/internal/domain/cycle"
	"github.com/neetprep/backend/internal/domain/testpaper"
	"github.com/neetprep/backend/internal/infrastructure/config"
	"github.com/neetprep/backend/internal/personalize"
	"github.com/neetprep/backend/internal/store"
)

// CycleService evaluates cycle unlocking and builds personalized tests.
type CycleService struct {
	store   Store
	catalog *config.Catalog
	logger  *zap.Logger

	// mu serialises personalized test creation so a user gets one per cycle.
	mu   sync.Mutex
	rand *rand.Rand
}

func NewCycleService(s Store, catalog *config.Catalog, logger *zap.Logger) *CycleService {
	return &CycleService{
		store:   s,
		catalog: catalog,
		logger:  logger,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Statuses returns the lock state of every cycle for the user.
func (s *CycleService) Statuses(ctx context.Context, userID string) ([]cycle.Status, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	papers, err := s.store.ListTests(ctx, userID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.store.ListSubmittedAttempts(ctx, userID)
	if err != nil {
		return nil, err
	}

	submitted := make(map[string]bool, len(attempts))
	for _, a := range attempts {
		submitted[a.TestID] = true
	}

	progress := make(map[int]cycle.Progress)
	for _, paper := range papers {
		if !paper.Gated() || !submitted[paper.ID] {
			continue
		}
		pr := progress[paper.Cycle]
		switch paper.Kind {
		case testpaper.KindMock:
			pr.FixedSubmitted++
		case testpaper.KindPersonalized:
			pr.PersonalizedSubmitted = true
		}
		progress[paper.Cycle] = pr
	}

	return cycle.Evaluate(s.catalog.Cycles, p.Premium, progress), nil
}

// EnsureUnlocked returns cycle.ErrLocked unless the user may open the test
// at position of cycle number c.
func (s *CycleService) EnsureUnlocked(ctx context.Context, userID string, c, position int) error {
	statuses, err := s.Statuses(ctx, userID)
	if err != nil {
		return err
	}
	return cycle.CheckAccess(statuses, c, position)
}

// Personalized returns the user's personalized test for cycle c, creating
// it from the cycle's fixed-test results on first request.
func (s *CycleService) Personalized(ctx context.Context, userID string, c int) (*testpaper.TestPaper, error) {
	if err := s.EnsureUnlocked(ctx, userID, c, cycle.PersonalizedPosition); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.FindPersonalizedTest(ctx, userID, c)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	report, err := s.cycleReport(ctx, userID, c)
	if err != nil {
		return nil, err
	}
	bank, err := s.store.ListQuestions(ctx, store.QuestionFilter{})
	if err != nil {
		return nil, err
	}
	seen, err := s.store.ListSeenQuestionIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := personalize.Builder{Size: s.catalog.Personalized.Size, Rand: s.rand}.Build(report, bank, seen)
	if len(ids) == 0 {
		return nil, ErrEmptyBank
	}

	paper := testpaper.NewPersonalized(userID, c, s.catalog.Personalized.Duration(), ids)
	if err := s.store.SaveTest(ctx, paper); err != nil {
		return nil, fmt.Errorf("save personalized test: %w", err)
	}
	s.logger.Info("personalized test created",
		zap.String("user_id", userID),
		zap.Int("cycle", c),
		zap.Int("questions", len(ids)))
	return paper, nil
}

// cycleReport combines the user's results over the fixed tests of cycle c.
func (s *CycleService) cycleReport(ctx context.Context, userID string, c int) (analytics.Report, error) {
	papers, err := s.store.ListTests(ctx, userID)
	if err != nil {
		return analytics.Report{}, err
	}
	fixed := make(map[string]bool)
	for _, p := range papers {
		if p.Kind == testpaper.KindMock && p.Cycle == c {
			fixed[p.ID] = true
		}
	}

	attempts, err := s.store.ListSubmittedAttempts(ctx, userID)
	if err != nil {
		return analytics.Report{}, err
	}
	var (
		results []analytics.QuestionResult
		ids     []string
	)
	for _, a := range attempts {
		if fixed[a.TestID] {
			results = append(results, a.Results...)
			ids = append(ids, a.QuestionIDs...)
		}
	}

	bank, err := s.store.GetQuestions(ctx, uniq(ids))
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.Compute(results, lookup(bank)), nil
}
