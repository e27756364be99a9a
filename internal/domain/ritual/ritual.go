// Package ritual covers the pre-study rituals: guided breathing, meditation
// and spoken affirmations, plus the daily streak they build.
package ritual

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/neetprep/backend/internal/analytics"
	"github.com/neetprep/backend/internal/id"
)

type Kind string

const (
	KindBreathing   Kind = "breathing"
	KindMeditation  Kind = "meditation"
	KindAffirmation Kind = "affirmation"
)

const (
	MinMeditation = time.Minute
	MaxMeditation = 60 * time.Minute

	// AffirmationPassPercent is the share of affirmation words a transcript
	// must contain.
	AffirmationPassPercent = 80
)

// BreathingPattern is one inhale-hold-exhale round, in seconds.
type BreathingPattern struct {
	Inhale int `json:"inhale"`
	Hold   int `json:"hold"`
	Exhale int `json:"exhale"`
}

var Pattern478 = BreathingPattern{Inhale: 4, Hold: 7, Exhale: 8}

func (p BreathingPattern) Round() time.Duration {
	return time.Duration(p.Inhale+p.Hold+p.Exhale) * time.Second
}

// Rounds is the number of full rounds that fit into d.
func (p BreathingPattern) Rounds(d time.Duration) int {
	if p.Round() <= 0 {
		return 0
	}
	return int(d / p.Round())
}

type Log struct {
	ID        string
	UserID    string
	Kind      Kind
	Duration  time.Duration
	Completed bool
	LoggedAt  time.Time
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindBreathing, KindMeditation, KindAffirmation:
		return k, nil
	default:
		return "", fmt.Errorf("unknown ritual %q", s)
	}
}

// NewLog records a ritual session. Breathing with no duration defaults to
// four rounds of the 4-7-8 pattern.
func NewLog(userID string, kind Kind, d time.Duration, completed bool, now time.Time) (*Log, error) {
	switch kind {
	case KindBreathing:
		if d == 0 {
			d = 4 * Pattern478.Round()
		}
	case KindMeditation:
		if d < MinMeditation || d > MaxMeditation {
			return nil, fmt.Errorf("meditation must last between %v and %v", MinMeditation, MaxMeditation)
		}
	case KindAffirmation:
	default:
		return nil, fmt.Errorf("unknown ritual %q", kind)
	}
	if d < 0 {
		return nil, fmt.Errorf("duration cannot be negative")
	}

	return &Log{
		ID:        id.GenerateID(),
		UserID:    userID,
		Kind:      kind,
		Duration:  d,
		Completed: completed,
		LoggedAt:  now,
	}, nil
}

type AffirmationResult struct {
	Matched int      `json:"matched"`
	Total   int      `json:"total"`
	Percent int      `json:"percent"`
	Passed  bool     `json:"passed"`
	Missing []string `json:"missing"`
}

// CheckAffirmation compares a speech transcript with the affirmation text.
// Words are lower-cased and stripped of punctuation; each affirmation word
// counts once when it appears anywhere in the transcript.
func CheckAffirmation(affirmation, transcript string) AffirmationResult {
	want := words(affirmation)
	heard := make(map[string]bool)
	for _, w := range words(transcript) {
		heard[w] = true
	}

	res := AffirmationResult{Total: len(want), Missing: []string{}}
	for _, w := range want {
		if heard[w] {
			res.Matched++
		} else {
			res.Missing = append(res.Missing, w)
		}
	}
	res.Percent = analytics.Percent(res.Matched, res.Total)
	res.Passed = res.Total > 0 && res.Percent >= AffirmationPassPercent
	return res
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// Streak counts consecutive calendar days (in now's location) with at least
// one entry in days. The run must end today or yesterday, otherwise it is 0.
func Streak(days []time.Time, now time.Time) int {
	loc := now.Location()
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		seen[d.In(loc).Format(time.DateOnly)] = true
	}

	day := now
	if !seen[day.Format(time.DateOnly)] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for seen[day.Format(time.DateOnly)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
