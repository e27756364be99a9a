package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/neetprep/backend/internal/domain/question"
	"github.com/neetprep/backend/internal/domain/testpaper"
)

type paperRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Kind            string         `db:"kind"`
	Subject         string         `db:"subject"`
	Cycle           int            `db:"cycle"`
	Position        int            `db:"position"`
	DurationSeconds int64          `db:"duration_seconds"`
	OwnerID         sql.NullString `db:"owner_id"`
	CreatedAt       time.Time      `db:"created_at"`
}

const paperColumns = `id, title, kind, subject, cycle, position, duration_seconds, owner_id, created_at`

func (r paperRow) toDomain() *testpaper.TestPaper {
	p := &testpaper.TestPaper{
		ID:        r.ID,
		Title:     r.Title,
		Kind:      testpaper.Kind(r.Kind),
		Subject:   question.Subject(r.Subject),
		Cycle:     r.Cycle,
		Position:  r.Position,
		Duration:  time.Duration(r.DurationSeconds) * time.Second,
		CreatedAt: r.CreatedAt,
	}
	if r.OwnerID.Valid {
		owner := r.OwnerID.String
		p.OwnerID = &owner
	}
	return p
}

// SaveTest inserts a test paper together with its ordered question list.
func (s *SQLStore) SaveTest(ctx context.Context, p *testpaper.TestPaper) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var owner sql.NullString
		if p.OwnerID != nil {
			owner = sql.NullString{String: *p.OwnerID, Valid: true}
		}
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO test_papers (`+paperColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			p.ID, p.Title, string(p.Kind), string(p.Subject), p.Cycle, p.Position,
			int64(p.Duration/time.Second), owner, p.CreatedAt)
		if err != nil {
			return err
		}

		for i, qid := range p.QuestionIDs {
			_, err := tx.ExecContext(ctx, s.q(
				"INSERT INTO test_questions (test_id, question_id, position) VALUES (?, ?, ?)"),
				p.ID, qid, i)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (*testpaper.TestPaper, error) {
	var row paperRow
	if err := s.get(ctx, &row, "SELECT "+paperColumns+" FROM test_papers WHERE id = ?", id); err != nil {
		return nil, err
	}
	p := row.toDomain()
	if err := s.loadQuestionIDs(ctx, []*testpaper.TestPaper{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// ListTests returns global tests plus the user's own personalized tests,
// ordered by kind, cycle and position.
func (s *SQLStore) ListTests(ctx context.Context, userID string) ([]*testpaper.TestPaper, error) {
	var rows []paperRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT `+paperColumns+` FROM test_papers
		WHERE owner_id IS NULL OR owner_id = ?
		ORDER BY kind, cycle, position, subject, title`), userID)
	if err != nil {
		return nil, err
	}
	return s.papers(ctx, rows)
}

// FindPersonalizedTest returns the user's personalized test for cycle.
func (s *SQLStore) FindPersonalizedTest(ctx context.Context, userID string, cycle int) (*testpaper.TestPaper, error) {
	var row paperRow
	err := s.get(ctx, &row, `
		SELECT `+paperColumns+` FROM test_papers
		WHERE kind = ? AND owner_id = ? AND cycle = ?`,
		string(testpaper.KindPersonalized), userID, cycle)
	if err != nil {
		return nil, err
	}
	p := row.toDomain()
	if err := s.loadQuestionIDs(ctx, []*testpaper.TestPaper{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLStore) papers(ctx context.Context, rows []paperRow) ([]*testpaper.TestPaper, error) {
	out := make([]*testpaper.TestPaper, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	if err := s.loadQuestionIDs(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) loadQuestionIDs(ctx context.Context, papers []*testpaper.TestPaper) error {
	if len(papers) == 0 {
		return nil
	}
	byID := make(map[string]*testpaper.TestPaper, len(papers))
	ids := make([]string, 0, len(papers))
	for _, p := range papers {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	query, args, err := sqlx.In(`
		SELECT test_id, question_id FROM test_questions
		WHERE test_id IN (?) ORDER BY test_id, position`, ids)
	if err != nil {
		return err
	}
	var links []struct {
		TestID     string `db:"test_id"`
		QuestionID string `db:"question_id"`
	}
	if err := s.db.SelectContext(ctx, &links, s.q(query), args...); err != nil {
		return err
	}
	for _, l := range links {
		p := byID[l.TestID]
		p.QuestionIDs = append(p.QuestionIDs, l.QuestionID)
	}
	return nil
}
