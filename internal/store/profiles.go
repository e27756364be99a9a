package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/neetprep/backend/internal/domain/profile"
)

type profileRow struct {
	ID             string       `db:"id"`
	Name           string       `db:"name"`
	Email          string       `db:"email"`
	PasswordHash   string       `db:"password_hash"`
	TargetYear     int          `db:"target_year"`
	Premium        bool         `db:"premium"`
	Admin          bool         `db:"admin"`
	CreatedAt      time.Time    `db:"created_at"`
	LastActiveAt   time.Time    `db:"last_active_at"`
	LastFollowupAt sql.NullTime `db:"last_followup_at"`
}

const profileColumns = `id, name, email, password_hash, target_year, premium, admin, created_at, last_active_at, last_followup_at`

func (r profileRow) toDomain() *profile.Profile {
	p := &profile.Profile{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		TargetYear:   r.TargetYear,
		Premium:      r.Premium,
		Admin:        r.Admin,
		CreatedAt:    r.CreatedAt,
		LastActiveAt: r.LastActiveAt,
	}
	if r.LastFollowupAt.Valid {
		t := r.LastFollowupAt.Time
		p.LastFollowupAt = &t
	}
	return p
}

// CreateProfile inserts a new profile. It returns ErrConflict when the email
// is already registered.
func (s *SQLStore) CreateProfile(ctx context.Context, p *profile.Profile) error {
	if _, err := s.GetProfileByEmail(ctx, p.Email); err == nil {
		return ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err := s.exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Email, p.PasswordHash, p.TargetYear, p.Premium, p.Admin,
		p.CreatedAt, p.LastActiveAt, sql.NullTime{})
	return err
}

func (s *SQLStore) GetProfile(ctx context.Context, id string) (*profile.Profile, error) {
	var row profileRow
	if err := s.get(ctx, &row, "SELECT "+profileColumns+" FROM profiles WHERE id = ?", id); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *SQLStore) GetProfileByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	var row profileRow
	err := s.get(ctx, &row, "SELECT "+profileColumns+" FROM profiles WHERE email = ?", profile.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *SQLStore) SetPremium(ctx context.Context, userID string, premium bool) error {
	return mustAffect(s.exec(ctx, "UPDATE profiles SET premium = ? WHERE id = ?", premium, userID))
}

func (s *SQLStore) SetAdmin(ctx context.Context, userID string, admin bool) error {
	return mustAffect(s.exec(ctx, "UPDATE profiles SET admin = ? WHERE id = ?", admin, userID))
}

// TouchProfile records activity for the follow-up job.
func (s *SQLStore) TouchProfile(ctx context.Context, userID string, at time.Time) error {
	return mustAffect(s.exec(ctx, "UPDATE profiles SET last_active_at = ? WHERE id = ?", at, userID))
}

// ListInactiveProfiles returns users inactive since cutoff who have not been
// followed up since cutoff either.
func (s *SQLStore) ListInactiveProfiles(ctx context.Context, cutoff time.Time) ([]*profile.Profile, error) {
	var rows []profileRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT `+profileColumns+` FROM profiles
		WHERE last_active_at < ?
		  AND (last_followup_at IS NULL OR last_followup_at < ?)
		ORDER BY last_active_at`), cutoff, cutoff)
	if err != nil {
		return nil, err
	}
	out := make([]*profile.Profile, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *SQLStore) MarkFollowedUp(ctx context.Context, userID string, at time.Time) error {
	return mustAffect(s.exec(ctx, "UPDATE profiles SET last_followup_at = ? WHERE id = ?", at, userID))
}

// ============================================================================
// Auth sessions
// ============================================================================

type authSessionRow struct {
	Token     string    `db:"token"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (s *SQLStore) SaveAuthSession(ctx context.Context, as *profile.AuthSession) error {
	_, err := s.exec(ctx,
		"INSERT INTO auth_sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		as.Token, as.UserID, as.CreatedAt, as.ExpiresAt)
	return err
}

func (s *SQLStore) GetAuthSession(ctx context.Context, token string) (*profile.AuthSession, error) {
	var row authSessionRow
	err := s.get(ctx, &row, "SELECT token, user_id, created_at, expires_at FROM auth_sessions WHERE token = ?", token)
	if err != nil {
		return nil, err
	}
	return &profile.AuthSession{
		Token:     row.Token,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (s *SQLStore) DeleteAuthSession(ctx context.Context, token string) error {
	_, err := s.exec(ctx, "DELETE FROM auth_sessions WHERE token = ?", token)
	return err
}

// DeleteExpiredSessions removes sessions that expired before now and returns
// how many were removed.
func (s *SQLStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.exec(ctx, "DELETE FROM auth_sessions WHERE expires_at <= ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
