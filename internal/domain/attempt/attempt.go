// Package attempt models one user's sitting of a test paper: the running
// answer sheet while the timer is on and the frozen results after submission.
package attempt

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/neetprep/backend/internal/analytics"
	"github.com/neetprep/backend/internal/domain/question"
	"github.com/neetprep/backend/internal/domain/testpaper"
	"github.com/neetprep/backend/internal/id"
)

var (
	ErrAttemptSubmitted = errors.New("attempt already submitted")
	ErrNotSubmitted     = errors.New("attempt not submitted yet")
	ErrTimeOver         = errors.New("attempt time is over")
	ErrUnknownQuestion  = errors.New("question is not part of this attempt")
	ErrInvalidOption    = errors.New("invalid option")
	ErrNotIncorrect     = errors.New("only incorrect answers can be tagged")
	ErrInvalidTag       = errors.New("invalid mistake tag")
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

// Mistake tags a student can put on an incorrect answer.
const (
	TagConceptual   = "conceptual"
	TagCalculation  = "calculation"
	TagMisread      = "misread"
	TagTimePressure = "time_pressure"
	TagGuess        = "guess"
	TagSilly        = "silly"
)

var AllowedTags = []string{TagConceptual, TagCalculation, TagMisread, TagTimePressure, TagGuess, TagSilly}

// Answer is the latest response recorded for a question.
type Answer struct {
	QuestionID string
	Chosen     *string
	TimeTaken  int // seconds
	AnsweredAt time.Time
}

type Attempt struct {
	ID          string
	UserID      string
	TestID      string
	QuestionIDs []string
	Status      Status
	StartedAt   time.Time
	Deadline    time.Time
	SubmittedAt *time.Time
	Answers     map[string]Answer

	// Results is set on submit, in paper order.
	Results []analytics.QuestionResult
}

// New starts an attempt of paper at now. The deadline is now + paper duration.
func New(userID string, paper *testpaper.TestPaper, now time.Time) *Attempt {
	qids := make([]string, len(paper.QuestionIDs))
	copy(qids, paper.QuestionIDs)

	return &Attempt{
		ID:          id.GenerateID(),
		UserID:      userID,
		TestID:      paper.ID,
		QuestionIDs: qids,
		Status:      StatusInProgress,
		StartedAt:   now,
		Deadline:    now.Add(paper.Duration),
		Answers:     make(map[string]Answer),
	}
}

func (a *Attempt) Submitted() bool {
	return a.Status == StatusSubmitted
}

// Expired reports whether the timer has run out.
func (a *Attempt) Expired(now time.Time) bool {
	return !now.Before(a.Deadline)
}

// Remaining is the time left on the clock, never negative.
func (a *Attempt) Remaining(now time.Time) time.Duration {
	if a.Expired(now) {
		return 0
	}
	return a.Deadline.Sub(now)
}

func (a *Attempt) hasQuestion(qid string) bool {
	return slices.Contains(a.QuestionIDs, qid)
}

// RecordAnswer stores the answer for qid, replacing any earlier one. A nil
// or empty chosen clears the answer but keeps the time spent.
func (a *Attempt) RecordAnswer(qid string, chosen *string, timeTaken int, now time.Time) error {
	if a.Submitted() {
		return ErrAttemptSubmitted
	}
	if a.Expired(now) {
		return ErrTimeOver
	}
	if !a.hasQuestion(qid) {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, qid)
	}

	var normalized *string
	if chosen != nil && strings.TrimSpace(*chosen) != "" {
		if !question.IsOptionLabel(strings.TrimSpace(*chosen)) {
			return fmt.Errorf("%w: %q", ErrInvalidOption, *chosen)
		}
		label := strings.ToUpper(strings.TrimSpace(*chosen))
		normalized = &label
	}

	a.Answers[qid] = Answer{
		QuestionID: qid,
		Chosen:     normalized,
		TimeTaken:  max(timeTaken, 0),
		AnsweredAt: now,
	}
	return nil
}

// Submit freezes the answers into results, checking each against the bank.
// Submitting after the deadline is allowed; only answers recorded in time
// exist to be graded.
func (a *Attempt) Submit(bank map[string]*question.Question, now time.Time) error {
	if a.Submitted() {
		return ErrAttemptSubmitted
	}

	results := make([]analytics.QuestionResult, 0, len(a.QuestionIDs))
	for _, qid := range a.QuestionIDs {
		res := analytics.QuestionResult{QuestionID: qid}
		if ans, ok := a.Answers[qid]; ok {
			res.Chosen = ans.Chosen
			res.TimeTaken = ans.TimeTaken
		}
		if q, ok := bank[qid]; ok && res.Attempted() {
			res.IsCorrect = q.IsCorrect(*res.Chosen)
		}
		results = append(results, res)
	}

	submittedAt := now
	a.Results = results
	a.Status = StatusSubmitted
	a.SubmittedAt = &submittedAt
	return nil
}

func ValidTag(tag string) bool {
	return slices.Contains(AllowedTags, tag)
}

func (a *Attempt) result(qid string) (*analytics.QuestionResult, error) {
	if !a.Submitted() {
		return nil, ErrNotSubmitted
	}
	for i := range a.Results {
		if a.Results[i].QuestionID == qid {
			return &a.Results[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, qid)
}

// Tag adds a mistake tag to an incorrect result. Tagging twice is a no-op.
func (a *Attempt) Tag(qid, tag string) error {
	if !ValidTag(tag) {
		return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	res, err := a.result(qid)
	if err != nil {
		return err
	}
	if !res.Attempted() || res.IsCorrect {
		return ErrNotIncorrect
	}
	if !slices.Contains(res.Tags, tag) {
		res.Tags = append(res.Tags, tag)
	}
	return nil
}

// Untag removes a mistake tag. Removing an absent tag is a no-op.
func (a *Attempt) Untag(qid, tag string) error {
	if !ValidTag(tag) {
		return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	res, err := a.result(qid)
	if err != nil {
		return err
	}
	res.Tags = slices.DeleteFunc(res.Tags, func(t string) bool { return t == tag })
	return nil
}

// Report computes the analytics report for a submitted attempt.
func (a *Attempt) Report(meta analytics.Lookup) (analytics.Report, error) {
	if !a.Submitted() {
		return analytics.Report{}, ErrNotSubmitted
	}
	return analytics.Compute(a.Results, meta), nil
}
