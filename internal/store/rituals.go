package store

import (
	"context"
	"time"

	"github.com/neetprep/backend/internal/domain/ritual"
)

type ritualRow struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	Kind            string    `db:"kind"`
	DurationSeconds int64     `db:"duration_seconds"`
	Completed       bool      `db:"completed"`
	LoggedAt        time.Time `db:"logged_at"`
}

func (s *SQLStore) SaveRitualLog(ctx context.Context, l *ritual.Log) error {
	_, err := s.exec(ctx, `
		INSERT INTO ritual_logs (id, user_id, kind, duration_seconds, completed, logged_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, string(l.Kind), int64(l.Duration/time.Second), l.Completed, l.LoggedAt)
	return err
}

// ListRitualLogs returns the user's logs since the given time, newest first.
func (s *SQLStore) ListRitualLogs(ctx context.Context, userID string, since time.Time) ([]*ritual.Log, error) {
	var rows []ritualRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT id, user_id, kind, duration_seconds, completed, logged_at
		FROM ritual_logs WHERE user_id = ? AND logged_at >= ?
		ORDER BY logged_at DESC`), userID, since)
	if err != nil {
		return nil, err
	}
	out := make([]*ritual.Log, 0, len(rows))
	for _, r := range rows {
		out = append(out, &ritual.Log{
			ID:        r.ID,
			UserID:    r.UserID,
			Kind:      ritual.Kind(r.Kind),
			Duration:  time.Duration(r.DurationSeconds) * time.Second,
			Completed: r.Completed,
			LoggedAt:  r.LoggedAt,
		})
	}
	return out, nil
}
