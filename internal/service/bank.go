// internal/service/bank.go
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/domain/question"
	"github.com/neetprep/backend/internal/domain/testpaper"
	"github.com/neetprep/backend/internal/importer"
	"github.com/neetprep/backend/internal/store"
)

// BankStore is the part of the store the question bank writes to.
type BankStore interface {
	Store
	SaveQuestion(ctx context.Context, q *question.Question) error
	SaveQuestions(ctx context.Context, qs []*question.Question) error
	DeleteQuestion(ctx context.Context, id string) error
}

var _ BankStore = (*store.SQLStore)(nil)

// BankService manages questions and the fixed test papers built from them.
type BankService struct {
	store  BankStore
	logger *zap.Logger
}

func NewBankService(s BankStore, logger *zap.Logger) *BankService {
	return &BankService{store: s, logger: logger}
}

// QuestionInput carries the fields of a new question.
type QuestionInput struct {
	Subject       string
	Chapter       string
	Topic         string
	Difficulty    string
	Text          string
	Options       []string
	CorrectOption string
	IdealTime     int
	Explanation   string
}

func (s *BankService) CreateQuestion(ctx context.Context, in QuestionInput) (*question.Question, error) {
	subject, err := question.ParseSubject(in.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	difficulty, err := question.ParseDifficulty(in.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	q := question.New(subject, in.Chapter, in.Topic, in.Text, in.Options, in.CorrectOption)
	q.Difficulty = difficulty
	q.IdealTime = in.IdealTime
	q.Explanation = in.Explanation
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.store.SaveQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *BankService) GetQuestion(ctx context.Context, id string) (*question.Question, error) {
	return s.store.GetQuestion(ctx, id)
}

func (s *BankService) ListQuestions(ctx context.Context, f store.QuestionFilter) ([]*question.Question, error) {
	return s.store.ListQuestions(ctx, f)
}

func (s *BankService) DeleteQuestion(ctx context.Context, id string) error {
	return s.store.DeleteQuestion(ctx, id)
}

// Import loads questions from a spreadsheet or CSV upload.
func (s *BankService) Import(ctx context.Context, r io.Reader, format importer.Format) (*importer.Result, error) {
	res, err := importer.Import(ctx, s.store, r, format, importer.DefaultConfig())
	if err != nil {
		return nil, err
	}
	s.logger.Info("questions imported",
		zap.Int("processed", res.TotalProcessed),
		zap.Int("imported", res.Imported),
		zap.Int("errors", len(res.Errors)))
	return res, nil
}

// Export writes the filtered bank as a spreadsheet.
func (s *BankService) Export(ctx context.Context, w io.Writer, f store.QuestionFilter) error {
	qs, err := s.store.ListQuestions(ctx, f)
	if err != nil {
		return err
	}
	return importer.Export(w, qs)
}

// TestInput describes a diagnostic or fixed mock test.
type TestInput struct {
	Title       string
	Kind        string
	Subject     string
	Cycle       int
	Position    int
	Duration    time.Duration
	QuestionIDs []string
}

// CreateTest saves a diagnostic or mock test. Personalized tests are only
// built per user by CycleService.
func (s *BankService) CreateTest(ctx context.Context, in TestInput) (*testpaper.TestPaper, error) {
	kind, err := testpaper.ParseKind(in.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var p *testpaper.TestPaper
	switch kind {
	case testpaper.KindDiagnostic:
		subject, err := question.ParseSubject(in.Subject)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		p = testpaper.NewDiagnostic(in.Title, subject, in.Duration, in.QuestionIDs)
	case testpaper.KindMock:
		p = testpaper.NewMock(in.Title, in.Cycle, in.Position, in.Duration, in.QuestionIDs)
	default:
		return nil, fmt.Errorf("%w: %s tests are generated per user", ErrInvalidInput, kind)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	bank, err := s.store.GetQuestions(ctx, p.QuestionIDs)
	if err != nil {
		return nil, err
	}
	for _, qid := range p.QuestionIDs {
		if _, ok := bank[qid]; !ok {
			return nil, fmt.Errorf("%w: unknown question %s", ErrInvalidInput, qid)
		}
	}

	if err := s.store.SaveTest(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("test created", zap.String("test_id", p.ID), zap.String("kind", string(kind)))
	return p, nil
}

// ListTests returns the tests visible to the user.
func (s *BankService) ListTests(ctx context.Context, userID string) ([]*testpaper.TestPaper, error) {
	return s.store.ListTests(ctx, userID)
}

func (s *BankService) GetTest(ctx context.Context, userID, testID string) (*testpaper.TestPaper, error) {
	p, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if !p.VisibleTo(userID) {
		return nil, store.ErrNotFound
	}
	return p, nil
}
