package profile

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/neetprep/backend/internal/id"
)

const MinPasswordLength = 6

// SessionTTL is how long a login stays valid.
const SessionTTL = 30 * 24 * time.Hour

var ErrInvalidCredentials = errors.New("invalid email or password")

type Profile struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	TargetYear     int
	Premium        bool
	Admin          bool // may manage the question bank and tests
	CreatedAt      time.Time
	LastActiveAt   time.Time
	LastFollowupAt *time.Time
}

// New creates a profile with a hashed password.
func New(name, email, password string, targetYear int, now time.Time) (*Profile, error) {
	p := &Profile{
		ID:           id.GenerateID(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		TargetYear:   targetYear,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if p.Name == "" {
		return nil, errors.New("name cannot be empty")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return nil, fmt.Errorf("invalid email %q", email)
	}
	if err := p.SetPassword(password); err != nil {
		return nil, err
	}
	return p, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Profile) SetPassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	p.PasswordHash = string(hash)
	return nil
}

func (p *Profile) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) == nil
}

// InactiveSince reports whether the user has not been active since cutoff
// and has not been followed up since then either.
func (p *Profile) InactiveSince(cutoff time.Time) bool {
	if !p.LastActiveAt.Before(cutoff) {
		return false
	}
	return p.LastFollowupAt == nil || p.LastFollowupAt.Before(cutoff)
}

// AuthSession is a login token bound to a user.
type AuthSession struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func NewAuthSession(userID string, ttl time.Duration, now time.Time) *AuthSession {
	return &AuthSession{
		Token:     id.GenerateToken(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *AuthSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
