package testpaper

import (
	"errors"
	"fmt"
	"time"

	"github.com/neetprep/backend/internal/domain/question"
	"github.com/neetprep/backend/internal/id"
)

type Kind string

const (
	KindDiagnostic   Kind = "diagnostic"
	KindMock         Kind = "mock"
	KindPersonalized Kind = "personalized"
)

// Positions of tests inside a mock-test cycle.
const (
	FirstFixedPosition   = 1
	LastFixedPosition    = 4
	PersonalizedPosition = 5
)

// TestPaper is an ordered, timed set of questions.
type TestPaper struct {
	ID          string
	Title       string
	Kind        Kind
	Subject     question.Subject // diagnostics only
	Cycle       int              // mock and personalized only
	Position    int              // 1..5 within a cycle
	Duration    time.Duration
	QuestionIDs []string
	OwnerID     *string // personalized only
	CreatedAt   time.Time
}

// NewDiagnostic creates a subject diagnostic test. Diagnostics are never gated.
func NewDiagnostic(title string, subject question.Subject, duration time.Duration, questionIDs []string) *TestPaper {
	return &TestPaper{
		ID:          id.GenerateID(),
		Title:       title,
		Kind:        KindDiagnostic,
		Subject:     subject,
		Duration:    duration,
		QuestionIDs: questionIDs,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewMock creates one of the fixed tests of a cycle.
func NewMock(title string, cycle, position int, duration time.Duration, questionIDs []string) *TestPaper {
	return &TestPaper{
		ID:          id.GenerateID(),
		Title:       title,
		Kind:        KindMock,
		Cycle:       cycle,
		Position:    position,
		Duration:    duration,
		QuestionIDs: questionIDs,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewPersonalized creates the user-specific fifth test of a cycle.
func NewPersonalized(ownerID string, cycle int, duration time.Duration, questionIDs []string) *TestPaper {
	return &TestPaper{
		ID:          id.GenerateID(),
		Title:       fmt.Sprintf("Cycle %d · Personalized Test", cycle),
		Kind:        KindPersonalized,
		Cycle:       cycle,
		Position:    PersonalizedPosition,
		Duration:    duration,
		QuestionIDs: questionIDs,
		OwnerID:     &ownerID,
		CreatedAt:   time.Now().UTC(),
	}
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDiagnostic, KindMock, KindPersonalized:
		return k, nil
	default:
		return "", fmt.Errorf("unknown test kind %q", s)
	}
}

func (p *TestPaper) Validate() error {
	if p.Title == "" {
		return errors.New("test title cannot be empty")
	}
	if len(p.QuestionIDs) == 0 {
		return errors.New("test must contain at least one question")
	}
	if p.Duration <= 0 {
		return errors.New("test duration must be positive")
	}
	seen := make(map[string]bool, len(p.QuestionIDs))
	for _, qid := range p.QuestionIDs {
		if seen[qid] {
			return fmt.Errorf("duplicate question %s", qid)
		}
		seen[qid] = true
	}

	switch p.Kind {
	case KindDiagnostic:
		if _, err := question.ParseSubject(string(p.Subject)); err != nil {
			return err
		}
	case KindMock:
		if p.Cycle < 1 {
			return errors.New("mock test needs a cycle number")
		}
		if p.Position < FirstFixedPosition || p.Position > LastFixedPosition {
			return fmt.Errorf("mock test position must be %d..%d", FirstFixedPosition, LastFixedPosition)
		}
	case KindPersonalized:
		if p.OwnerID == nil || *p.OwnerID == "" {
			return errors.New("personalized test needs an owner")
		}
		if p.Cycle < 1 {
			return errors.New("personalized test needs a cycle number")
		}
	default:
		return fmt.Errorf("unknown test kind %q", p.Kind)
	}
	return nil
}

// VisibleTo reports whether userID may see this paper at all. Global papers
// are visible to everyone; personalized papers only to their owner.
func (p *TestPaper) VisibleTo(userID string) bool {
	return p.OwnerID == nil || *p.OwnerID == userID
}

// Gated reports whether access depends on cycle unlocking.
func (p *TestPaper) Gated() bool {
	return p.Kind != KindDiagnostic
}
