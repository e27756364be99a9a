package question

import (
	"errors"
	"fmt"
	"strings"

	"github.com/neetprep/backend/internal/analytics"
	"github.com/neetprep/backend/internal/id"
)

type Subject string

const (
	SubjectPhysics   Subject = "physics"
	SubjectChemistry Subject = "chemistry"
	SubjectBiology   Subject = "biology"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// OptionLabels are the answer labels of a four-option MCQ, in order.
var OptionLabels = []string{"A", "B", "C", "D"}

// Question is a single multiple-choice item of the question bank.
type Question struct {
	ID            string
	Subject       Subject
	Chapter       string
	Topic         string
	Difficulty    Difficulty
	Text          string
	Options       []string
	CorrectOption string // one of OptionLabels
	IdealTime     int    // expected solve time in seconds; 0 = unknown
	Explanation   string
}

// New creates a Question with a generated ID. Call Validate before saving.
func New(subject Subject, chapter, topic, text string, options []string, correct string) *Question {
	return &Question{
		ID:            id.GenerateID(),
		Subject:       subject,
		Chapter:       strings.TrimSpace(chapter),
		Topic:         strings.TrimSpace(topic),
		Difficulty:    DifficultyMedium,
		Text:          text,
		Options:       options,
		CorrectOption: strings.ToUpper(strings.TrimSpace(correct)),
	}
}

func ParseSubject(s string) (Subject, error) {
	switch sub := Subject(strings.ToLower(strings.TrimSpace(s))); sub {
	case SubjectPhysics, SubjectChemistry, SubjectBiology:
		return sub, nil
	case "botany", "zoology":
		return SubjectBiology, nil
	default:
		return "", fmt.Errorf("unknown subject %q", s)
	}
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DifficultyMedium, nil
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question text cannot be empty")
	}
	if _, err := ParseSubject(string(q.Subject)); err != nil {
		return err
	}
	if len(q.Options) != len(OptionLabels) {
		return fmt.Errorf("question needs exactly %d options, got %d", len(OptionLabels), len(q.Options))
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("option %s cannot be empty", OptionLabels[i])
		}
	}
	if !IsOptionLabel(q.CorrectOption) {
		return fmt.Errorf("correct option must be one of %s, got %q", strings.Join(OptionLabels, ", "), q.CorrectOption)
	}
	if q.IdealTime < 0 {
		return errors.New("ideal time cannot be negative")
	}
	return nil
}

// IsCorrect reports whether the chosen option label is the right answer.
func (q *Question) IsCorrect(chosen string) bool {
	return strings.EqualFold(strings.TrimSpace(chosen), q.CorrectOption)
}

// Metadata is the read-only view the analytics calculator works from.
func (q *Question) Metadata() analytics.QuestionMetadata {
	return analytics.QuestionMetadata{
		Subject:       string(q.Subject),
		Chapter:       q.Chapter,
		Topic:         q.Topic,
		Difficulty:    string(q.Difficulty),
		IdealTime:     q.IdealTime,
		CorrectAnswer: q.CorrectOption,
	}
}

// IsOptionLabel reports whether s is one of A..D (case-insensitive).
func IsOptionLabel(s string) bool {
	for _, l := range OptionLabels {
		if strings.EqualFold(s, l) {
			return true
		}
	}
	return false
}

// Lookup indexes questions by ID in analytics form.
func Lookup(questions []*Question) analytics.Lookup {
	meta := make(analytics.Lookup, len(questions))
	for _, q := range questions {
		meta[q.ID] = q.Metadata()
	}
	return meta
}
