// internal/service/rituals.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/domain/ritual"
	"github.com/neetprep/backend/internal/infrastructure/config"
)

// streakWindow bounds how far back the streak looks.
const streakWindow = 365 * 24 * time.Hour

type RitualService struct {
	store   Store
	catalog *config.Catalog
	loc     *time.Location
	logger  *zap.Logger
	now     Clock
}

// NewRitualService builds the service. Streak days follow loc; nil means UTC.
func NewRitualService(s Store, catalog *config.Catalog, loc *time.Location, logger *zap.Logger) *RitualService {
	if loc == nil {
		loc = time.UTC
	}
	return &RitualService{store: s, catalog: catalog, loc: loc, logger: logger, now: utcNow}
}

// Log records a finished or abandoned ritual session.
func (s *RitualService) Log(ctx context.Context, userID string, kind ritual.Kind, d time.Duration, completed bool) (*ritual.Log, error) {
	now := s.now()
	l, err := ritual.NewLog(userID, kind, d, completed, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.store.SaveRitualLog(ctx, l); err != nil {
		return nil, err
	}
	if err := s.store.TouchProfile(ctx, userID, now); err != nil {
		s.logger.Warn("failed to record activity", zap.String("user_id", userID), zap.Error(err))
	}
	return l, nil
}

// RitualSummary is the recent ritual history and the current daily streak.
type RitualSummary struct {
	Streak int           `json:"streak"`
	Logs   []*ritual.Log `json:"logs"`
}

func (s *RitualService) Summary(ctx context.Context, userID string) (*RitualSummary, error) {
	now := s.now()
	logs, err := s.store.ListRitualLogs(ctx, userID, now.Add(-streakWindow))
	if err != nil {
		return nil, err
	}
	var days []time.Time
	for _, l := range logs {
		if l.Completed {
			days = append(days, l.LoggedAt)
		}
	}
	return &RitualSummary{Streak: ritual.Streak(days, now.In(s.loc)), Logs: logs}, nil
}

// CheckAffirmation scores a spoken transcript against the affirmation, the
// catalog's default when affirmation is empty. A passing check is logged as
// a completed affirmation ritual.
func (s *RitualService) CheckAffirmation(ctx context.Context, userID, affirmation, transcript string) (ritual.AffirmationResult, error) {
	if strings.TrimSpace(affirmation) == "" {
		affirmation = s.catalog.Affirmation
	}
	res := ritual.CheckAffirmation(affirmation, transcript)
	if !res.Passed {
		return res, nil
	}
	if _, err := s.Log(ctx, userID, ritual.KindAffirmation, 0, true); err != nil {
		return res, err
	}
	return res, nil
}
