package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/neetprep/backend/internal/analytics"
	"github.com/neetprep/backend/internal/domain/attempt"
)

type attemptRow struct {
	ID          string       `db:"id"`
	UserID      string       `db:"user_id"`
	TestID      string       `db:"test_id"`
	Status      string       `db:"status"`
	StartedAt   time.Time    `db:"started_at"`
	Deadline    time.Time    `db:"deadline"`
	SubmittedAt sql.NullTime `db:"submitted_at"`
}

const attemptColumns = `id, user_id, test_id, status, started_at, deadline, submitted_at`

type answerRow struct {
	AttemptID  string         `db:"attempt_id"`
	QuestionID string         `db:"question_id"`
	Chosen     sql.NullString `db:"chosen"`
	TimeTaken  int            `db:"time_taken"`
	AnsweredAt time.Time      `db:"answered_at"`
}

type resultRow struct {
	AttemptID  string         `db:"attempt_id"`
	QuestionID string         `db:"question_id"`
	Position   int            `db:"position"`
	Chosen     sql.NullString `db:"chosen"`
	IsCorrect  bool           `db:"is_correct"`
	TimeTaken  int            `db:"time_taken"`
}

type tagRow struct {
	AttemptID  string `db:"attempt_id"`
	QuestionID string `db:"question_id"`
	Tag        string `db:"tag"`
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

// CreateAttempt stores a freshly started attempt.
func (s *SQLStore) CreateAttempt(ctx context.Context, a *attempt.Attempt) error {
	_, err := s.exec(ctx, `
		INSERT INTO attempts (`+attemptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.TestID, string(a.Status), a.StartedAt, a.Deadline, sql.NullTime{})
	return err
}

// SaveAnswer upserts the answer for one question of an attempt.
func (s *SQLStore) SaveAnswer(ctx context.Context, attemptID string, ans attempt.Answer) error {
	_, err := s.exec(ctx, `
		INSERT INTO attempt_answers (attempt_id, question_id, chosen, time_taken, answered_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (attempt_id, question_id) DO UPDATE SET
		    chosen = excluded.chosen,
		    time_taken = excluded.time_taken,
		    answered_at = excluded.answered_at`,
		attemptID, ans.QuestionID, nullString(ans.Chosen), ans.TimeTaken, ans.AnsweredAt)
	return err
}

// SubmitAttempt persists the submitted status and frozen results. It only
// transitions attempts that are still in progress.
func (s *SQLStore) SubmitAttempt(ctx context.Context, a *attempt.Attempt) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var submittedAt sql.NullTime
		if a.SubmittedAt != nil {
			submittedAt = sql.NullTime{Time: *a.SubmittedAt, Valid: true}
		}
		res, err := tx.ExecContext(ctx, s.q(`
			UPDATE attempts SET status = ?, submitted_at = ?
			WHERE id = ? AND status = ?`),
			string(attempt.StatusSubmitted), submittedAt, a.ID, string(attempt.StatusInProgress))
		if err := mustAffect(res, err); err == ErrNotFound {
			return attempt.ErrAttemptSubmitted
		} else if err != nil {
			return err
		}

		for i, r := range a.Results {
			_, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO attempt_results (attempt_id, question_id, position, chosen, is_correct, time_taken)
				VALUES (?, ?, ?, ?, ?, ?)`),
				a.ID, r.QuestionID, i, nullString(r.Chosen), r.IsCorrect, r.TimeTaken)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (*attempt.Attempt, error) {
	var row attemptRow
	if err := s.get(ctx, &row, "SELECT "+attemptColumns+" FROM attempts WHERE id = ?", id); err != nil {
		return nil, err
	}
	out, err := s.hydrate(ctx, []attemptRow{row})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ListSubmittedAttempts returns the user's submitted attempts, oldest first.
func (s *SQLStore) ListSubmittedAttempts(ctx context.Context, userID string) ([]*attempt.Attempt, error) {
	var rows []attemptRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT `+attemptColumns+` FROM attempts
		WHERE user_id = ? AND status = ?
		ORDER BY submitted_at, id`), userID, string(attempt.StatusSubmitted))
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, rows)
}

// FindOpenAttempt returns the user's in-progress attempt of a test.
func (s *SQLStore) FindOpenAttempt(ctx context.Context, userID, testID string) (*attempt.Attempt, error) {
	var row attemptRow
	err := s.get(ctx, &row, `
		SELECT `+attemptColumns+` FROM attempts
		WHERE user_id = ? AND test_id = ? AND status = ?
		ORDER BY started_at DESC LIMIT 1`,
		userID, testID, string(attempt.StatusInProgress))
	if err != nil {
		return nil, err
	}
	out, err := s.hydrate(ctx, []attemptRow{row})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ListSeenQuestionIDs returns every question the user has been served in a
// submitted attempt.
func (s *SQLStore) ListSeenQuestionIDs(ctx context.Context, userID string) (map[string]bool, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, s.q(`
		SELECT DISTINCT r.question_id FROM attempt_results r
		JOIN attempts a ON a.id = r.attempt_id
		WHERE a.user_id = ?`), userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return seen, nil
}

func (s *SQLStore) AddTag(ctx context.Context, attemptID, questionID, tag string) error {
	_, err := s.exec(ctx, `
		INSERT INTO result_tags (attempt_id, question_id, tag) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`, attemptID, questionID, tag)
	return err
}

func (s *SQLStore) RemoveTag(ctx context.Context, attemptID, questionID, tag string) error {
	_, err := s.exec(ctx,
		"DELETE FROM result_tags WHERE attempt_id = ? AND question_id = ? AND tag = ?",
		attemptID, questionID, tag)
	return err
}

// hydrate loads answers, results and tags for the given attempt rows.
func (s *SQLStore) hydrate(ctx context.Context, rows []attemptRow) ([]*attempt.Attempt, error) {
	out := make([]*attempt.Attempt, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	byID := make(map[string]*attempt.Attempt, len(rows))
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		a := &attempt.Attempt{
			ID:        r.ID,
			UserID:    r.UserID,
			TestID:    r.TestID,
			Status:    attempt.Status(r.Status),
			StartedAt: r.StartedAt,
			Deadline:  r.Deadline,
			Answers:   make(map[string]attempt.Answer),
		}
		if r.SubmittedAt.Valid {
			t := r.SubmittedAt.Time
			a.SubmittedAt = &t
		}
		byID[a.ID] = a
		ids = append(ids, a.ID)
		out = append(out, a)
	}

	var testIDs []string
	for _, a := range out {
		testIDs = append(testIDs, a.TestID)
	}
	if err := s.loadAttemptQuestions(ctx, out, testIDs); err != nil {
		return nil, err
	}

	var answers []answerRow
	if err := s.selectIn(ctx, &answers, `
		SELECT attempt_id, question_id, chosen, time_taken, answered_at
		FROM attempt_answers WHERE attempt_id IN (?)`, ids); err != nil {
		return nil, err
	}
	for _, r := range answers {
		byID[r.AttemptID].Answers[r.QuestionID] = attempt.Answer{
			QuestionID: r.QuestionID,
			Chosen:     stringPtr(r.Chosen),
			TimeTaken:  r.TimeTaken,
			AnsweredAt: r.AnsweredAt,
		}
	}

	var results []resultRow
	if err := s.selectIn(ctx, &results, `
		SELECT attempt_id, question_id, position, chosen, is_correct, time_taken
		FROM attempt_results WHERE attempt_id IN (?)
		ORDER BY attempt_id, position`, ids); err != nil {
		return nil, err
	}
	index := make(map[[2]string]int, len(results))
	for _, r := range results {
		a := byID[r.AttemptID]
		index[[2]string{r.AttemptID, r.QuestionID}] = len(a.Results)
		a.Results = append(a.Results, analytics.QuestionResult{
			QuestionID: r.QuestionID,
			Chosen:     stringPtr(r.Chosen),
			IsCorrect:  r.IsCorrect,
			TimeTaken:  r.TimeTaken,
		})
	}

	var tags []tagRow
	if err := s.selectIn(ctx, &tags, `
		SELECT attempt_id, question_id, tag FROM result_tags
		WHERE attempt_id IN (?) ORDER BY attempt_id, question_id, tag`, ids); err != nil {
		return nil, err
	}
	for _, t := range tags {
		i, ok := index[[2]string{t.AttemptID, t.QuestionID}]
		if !ok {
			continue
		}
		res := &byID[t.AttemptID].Results[i]
		res.Tags = append(res.Tags, t.Tag)
	}

	return out, nil
}

// loadAttemptQuestions fills each attempt's question order from its paper.
func (s *SQLStore) loadAttemptQuestions(ctx context.Context, attempts []*attempt.Attempt, testIDs []string) error {
	var links []struct {
		TestID     string `db:"test_id"`
		QuestionID string `db:"question_id"`
	}
	if err := s.selectIn(ctx, &links, `
		SELECT test_id, question_id FROM test_questions
		WHERE test_id IN (?) ORDER BY test_id, position`, testIDs); err != nil {
		return err
	}
	byTest := make(map[string][]string)
	for _, l := range links {
		byTest[l.TestID] = append(byTest[l.TestID], l.QuestionID)
	}
	for _, a := range attempts {
		a.QuestionIDs = append([]string(nil), byTest[a.TestID]...)
	}
	return nil
}

func (s *SQLStore) selectIn(ctx context.Context, dest any, query string, ids []string) error {
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, s.q(query), args...)
}
