package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neetprep/backend/internal/importer"
	"github.com/neetprep/backend/internal/store"
)

func TestBank_CreateQuestionValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.bank.CreateQuestion(ctx, QuestionInput{Subject: "maths", Text: "x", Options: []string{"1", "2", "3", "4"}, CorrectOption: "A"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.bank.CreateQuestion(ctx, QuestionInput{Subject: "physics", Text: "x", Options: []string{"1", "2", "3", "4"}, CorrectOption: "E"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	q, err := e.bank.CreateQuestion(ctx, QuestionInput{Subject: "Botany", Difficulty: "HARD", Text: "x", Options: []string{"1", "2", "3", "4"}, CorrectOption: "d"})
	require.NoError(t, err)
	assert.Equal(t, "biology", string(q.Subject))
	assert.Equal(t, "hard", string(q.Difficulty))
	assert.Equal(t, "D", q.CorrectOption)
}

func TestBank_CreateTestValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	ids := e.questions(t, 2, "Optics")

	cases := map[string]TestInput{
		"personalized": {Title: "P", Kind: "personalized", Cycle: 1, Duration: time.Hour, QuestionIDs: ids},
		"unknown kind": {Title: "X", Kind: "quiz", Duration: time.Hour, QuestionIDs: ids},
		"bad position": {Title: "M", Kind: "mock", Cycle: 1, Position: 5, Duration: time.Hour, QuestionIDs: ids},
		"duplicates":   {Title: "M", Kind: "mock", Cycle: 1, Position: 1, Duration: time.Hour, QuestionIDs: []string{ids[0], ids[0]}},
		"unknown id":   {Title: "M", Kind: "mock", Cycle: 1, Position: 1, Duration: time.Hour, QuestionIDs: []string{"missing"}},
		"no subject":   {Title: "D", Kind: "diagnostic", Duration: time.Hour, QuestionIDs: ids},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.bank.CreateTest(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestBank_TestVisibility(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	user := e.register(t, "asha@example.com")
	paper := e.mock(t, 1, 1, e.questions(t, 1, "Optics"))

	got, err := e.bank.GetTest(ctx, user.ID, paper.ID)
	require.NoError(t, err)
	assert.Equal(t, paper.Title, got.Title)

	_, err = e.bank.GetTest(ctx, user.ID, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBank_ImportAndExport(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	csv := strings.Join([]string{
		"subject,chapter,topic,difficulty,text,a,b,c,d,correct,ideal_time,explanation",
		"physics,Optics,Lens,easy,Power of a 1 m lens?,1 D,2 D,0.5 D,0 D,A,30,",
	}, "\n")
	res, err := e.bank.Import(ctx, strings.NewReader(csv), importer.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	var buf bytes.Buffer
	require.NoError(t, e.bank.Export(ctx, &buf, store.QuestionFilter{Subject: "physics"}))
	parsed, err := importer.Parse(&buf, importer.FormatXLSX, importer.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, parsed.Questions, 1)
	assert.Equal(t, "Power of a 1 m lens?", parsed.Questions[0].Text)
}
