// internal/service/followups.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/jobs"
	"github.com/neetprep/backend/internal/mailer"
)

// FollowupService emails users who have gone quiet.
type FollowupService struct {
	store        Store
	dispatcher   jobs.Dispatcher
	inactiveDays int
	logger       *zap.Logger
	now          Clock
}

func NewFollowupService(s Store, dispatcher jobs.Dispatcher, inactiveDays int, logger *zap.Logger) *FollowupService {
	return &FollowupService{store: s, dispatcher: dispatcher, inactiveDays: inactiveDays, logger: logger, now: utcNow}
}

// Run queues one follow-up email per inactive user and returns how many
// were queued. A user is followed up at most once per inactivity window.
func (s *FollowupService) Run(ctx context.Context) (int, error) {
	now := s.now()
	cutoff := now.Add(-time.Duration(s.inactiveDays) * 24 * time.Hour)
	profiles, err := s.store.ListInactiveProfiles(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if !p.InactiveSince(cutoff) {
			continue
		}
		days := int(now.Sub(p.LastActiveAt).Hours() / 24)
		msg, err := mailer.Followup(p.Email, mailer.FollowupData{Name: p.Name, Days: days})
		if err != nil {
			return sent, err
		}
		if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
			s.logger.Warn("failed to queue follow-up", zap.String("user_id", p.ID), zap.Error(err))
			continue
		}
		if err := s.store.MarkFollowedUp(ctx, p.ID, now); err != nil {
			return sent, err
		}
		sent++
	}
	s.logger.Info("follow-ups queued", zap.Int("count", sent), zap.Int("inactive", len(profiles)))
	return sent, nil
}
