package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/neetprep/backend/internal/domain/question"
)

type questionRow struct {
	ID            string `db:"id"`
	Subject       string `db:"subject"`
	Chapter       string `db:"chapter"`
	Topic         string `db:"topic"`
	Difficulty    string `db:"difficulty"`
	Text          string `db:"text"`
	Options       string `db:"options"`
	CorrectOption string `db:"correct_option"`
	IdealTime     int    `db:"ideal_time"`
	Explanation   string `db:"explanation"`
}

const questionColumns = `id, subject, chapter, topic, difficulty, text, options, correct_option, ideal_time, explanation`

func (r questionRow) toDomain() (*question.Question, error) {
	q := &question.Question{
		ID:            r.ID,
		Subject:       question.Subject(r.Subject),
		Chapter:       r.Chapter,
		Topic:         r.Topic,
		Difficulty:    question.Difficulty(r.Difficulty),
		Text:          r.Text,
		CorrectOption: r.CorrectOption,
		IdealTime:     r.IdealTime,
		Explanation:   r.Explanation,
	}
	if err := json.Unmarshal([]byte(r.Options), &q.Options); err != nil {
		return nil, fmt.Errorf("decode options of question %s: %w", r.ID, err)
	}
	return q, nil
}

// QuestionFilter narrows ListQuestions. Zero fields match everything.
type QuestionFilter struct {
	Subject    string
	Chapter    string
	Topic      string
	Difficulty string
	Limit      int
	Offset     int
}

const upsertQuestion = `
INSERT INTO questions (` + questionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    subject = excluded.subject,
    chapter = excluded.chapter,
    topic = excluded.topic,
    difficulty = excluded.difficulty,
    text = excluded.text,
    options = excluded.options,
    correct_option = excluded.correct_option,
    ideal_time = excluded.ideal_time,
    explanation = excluded.explanation`

func questionArgs(q *question.Question) ([]any, error) {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return nil, err
	}
	return []any{
		q.ID, string(q.Subject), q.Chapter, q.Topic, string(q.Difficulty),
		q.Text, string(opts), q.CorrectOption, q.IdealTime, q.Explanation,
	}, nil
}

// SaveQuestion inserts or replaces a question.
func (s *SQLStore) SaveQuestion(ctx context.Context, q *question.Question) error {
	args, err := questionArgs(q)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, upsertQuestion, args...)
	return err
}

// SaveQuestions writes a batch in one transaction; used by the importer.
func (s *SQLStore) SaveQuestions(ctx context.Context, qs []*question.Question) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, s.q(upsertQuestion))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, q := range qs {
			args, err := questionArgs(q)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("save question %s: %w", q.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (*question.Question, error) {
	var row questionRow
	if err := s.get(ctx, &row, "SELECT "+questionColumns+" FROM questions WHERE id = ?", id); err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	return mustAffect(s.exec(ctx, "DELETE FROM questions WHERE id = ?", id))
}

func (s *SQLStore) ListQuestions(ctx context.Context, f QuestionFilter) ([]*question.Question, error) {
	var (
		where []string
		args  []any
	)
	for col, val := range map[string]string{
		"subject":    f.Subject,
		"chapter":    f.Chapter,
		"topic":      f.Topic,
		"difficulty": f.Difficulty,
	} {
		if val != "" {
			where = append(where, col+" = ?")
			args = append(args, val)
		}
	}

	query := "SELECT " + questionColumns + " FROM questions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY subject, chapter, topic, id"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, max(f.Offset, 0))
	}

	var rows []questionRow
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return nil, err
	}
	return toQuestions(rows)
}

// GetQuestions loads the given questions keyed by ID. Unknown IDs are
// skipped.
func (s *SQLStore) GetQuestions(ctx context.Context, ids []string) (map[string]*question.Question, error) {
	out := make(map[string]*question.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In("SELECT "+questionColumns+" FROM questions WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var rows []questionRow
	if err := s.db.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return nil, err
	}
	qs, err := toQuestions(rows)
	if err != nil {
		return nil, err
	}
	for _, q := range qs {
		out[q.ID] = q
	}
	return out, nil
}

func toQuestions(rows []questionRow) ([]*question.Question, error) {
	out := make([]*question.Question, 0, len(rows))
	for _, r := range rows {
		q, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}
