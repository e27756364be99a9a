package attempt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neetprep/backend/internal/domain/attempt"
	"github.com/neetprep/backend/internal/domain/question"
	"github.com/neetprep/backend/internal/domain/testpaper"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func opt(s string) *string { return &s }

func fixture(t *testing.T) (*attempt.Attempt, map[string]*question.Question) {
	t.Helper()
	bank := map[string]*question.Question{}
	var ids []string
	for _, correct := range []string{"A", "B", "C"} {
		q := question.New(question.SubjectBiology, "Genetics", "Mendel", "text", []string{"1", "2", "3", "4"}, correct)
		bank[q.ID] = q
		ids = append(ids, q.ID)
	}
	paper := testpaper.NewMock("Mock 1", 1, 1, 10*time.Minute, ids)
	return attempt.New("user-1", paper, t0), bank
}

func TestNew(t *testing.T) {
	a, _ := fixture(t)

	assert.Equal(t, attempt.StatusInProgress, a.Status)
	assert.Equal(t, t0.Add(10*time.Minute), a.Deadline)
	assert.Equal(t, 4*time.Minute, a.Remaining(t0.Add(6*time.Minute)))
	assert.Zero(t, a.Remaining(t0.Add(time.Hour)))
}

func TestRecordAnswer_Overwrites(t *testing.T) {
	a, _ := fixture(t)
	qid := a.QuestionIDs[0]

	require.NoError(t, a.RecordAnswer(qid, opt("b"), 20, t0.Add(time.Minute)))
	require.NoError(t, a.RecordAnswer(qid, opt("A"), 45, t0.Add(2*time.Minute)))

	ans := a.Answers[qid]
	require.NotNil(t, ans.Chosen)
	assert.Equal(t, "A", *ans.Chosen)
	assert.Equal(t, 45, ans.TimeTaken)
}

func TestRecordAnswer_Errors(t *testing.T) {
	a, bank := fixture(t)
	qid := a.QuestionIDs[0]

	assert.ErrorIs(t, a.RecordAnswer("nope", opt("A"), 1, t0), attempt.ErrUnknownQuestion)
	assert.ErrorIs(t, a.RecordAnswer(qid, opt("E"), 1, t0), attempt.ErrInvalidOption)
	assert.ErrorIs(t, a.RecordAnswer(qid, opt("A"), 1, t0.Add(10*time.Minute)), attempt.ErrTimeOver)

	require.NoError(t, a.Submit(bank, t0.Add(time.Minute)))
	assert.ErrorIs(t, a.RecordAnswer(qid, opt("A"), 1, t0.Add(time.Minute)), attempt.ErrAttemptSubmitted)
}

func TestRecordAnswer_ClampsNegativeTime(t *testing.T) {
	a, _ := fixture(t)
	qid := a.QuestionIDs[0]

	require.NoError(t, a.RecordAnswer(qid, nil, -5, t0))
	assert.Equal(t, 0, a.Answers[qid].TimeTaken)
	assert.Nil(t, a.Answers[qid].Chosen)
}

func TestSubmit_GradesInPaperOrder(t *testing.T) {
	a, bank := fixture(t)
	require.NoError(t, a.RecordAnswer(a.QuestionIDs[0], opt("A"), 30, t0))
	require.NoError(t, a.RecordAnswer(a.QuestionIDs[1], opt("D"), 50, t0))

	// Late submission is accepted.
	require.NoError(t, a.Submit(bank, t0.Add(20*time.Minute)))
	assert.True(t, a.Submitted())
	require.NotNil(t, a.SubmittedAt)

	require.Len(t, a.Results, 3)
	for i, res := range a.Results {
		assert.Equal(t, a.QuestionIDs[i], res.QuestionID)
	}
	assert.True(t, a.Results[0].IsCorrect)
	assert.False(t, a.Results[1].IsCorrect)
	assert.False(t, a.Results[2].Attempted())

	assert.ErrorIs(t, a.Submit(bank, t0), attempt.ErrAttemptSubmitted)

	r, err := a.Report(question.Lookup([]*question.Question{bank[a.QuestionIDs[0]]}))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Score)
	assert.Equal(t, 50, r.Accuracy)
}

func TestTag(t *testing.T) {
	a, bank := fixture(t)
	right, wrong, blank := a.QuestionIDs[0], a.QuestionIDs[1], a.QuestionIDs[2]
	require.NoError(t, a.RecordAnswer(right, opt("A"), 30, t0))
	require.NoError(t, a.RecordAnswer(wrong, opt("D"), 50, t0))

	assert.ErrorIs(t, a.Tag(wrong, attempt.TagGuess), attempt.ErrNotSubmitted)
	require.NoError(t, a.Submit(bank, t0))

	require.NoError(t, a.Tag(wrong, attempt.TagGuess))
	require.NoError(t, a.Tag(wrong, attempt.TagGuess))
	require.NoError(t, a.Tag(wrong, attempt.TagSilly))
	assert.Equal(t, []string{attempt.TagGuess, attempt.TagSilly}, a.Results[1].Tags)

	assert.ErrorIs(t, a.Tag(right, attempt.TagGuess), attempt.ErrNotIncorrect)
	assert.ErrorIs(t, a.Tag(blank, attempt.TagGuess), attempt.ErrNotIncorrect)
	assert.ErrorIs(t, a.Tag(wrong, "lazy"), attempt.ErrInvalidTag)

	require.NoError(t, a.Untag(wrong, attempt.TagGuess))
	require.NoError(t, a.Untag(wrong, attempt.TagGuess))
	assert.Equal(t, []string{attempt.TagSilly}, a.Results[1].Tags)

	r, err := a.Report(nil)
	require.NoError(t, err)
	require.Len(t, r.Tags, 1)
	assert.Equal(t, attempt.TagSilly, r.Tags[0].Tag)
}
