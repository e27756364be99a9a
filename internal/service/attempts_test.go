package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neetprep/backend/internal/analytics"
	"github.com/neetprep/backend/internal/domain/attempt"
	"github.com/neetprep/backend/internal/domain/testpaper"
)

func diagnostic(t *testing.T, e *env, ids []string) *testpaper.TestPaper {
	t.Helper()
	p, err := e.bank.CreateTest(context.Background(), TestInput{
		Title:       "Physics diagnostic",
		Kind:        string(testpaper.KindDiagnostic),
		Subject:     "physics",
		Duration:    30 * time.Minute,
		QuestionIDs: ids,
	})
	require.NoError(t, err)
	return p
}

func TestAttempt_FullFlow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	user := e.register(t, "asha@example.com")
	ids := e.questions(t, 4, "Optics")
	paper := diagnostic(t, e, ids)

	sess, err := e.attempts.Start(ctx, user.ID, paper.ID)
	require.NoError(t, err)
	require.Len(t, sess.Questions, 4)
	assert.Equal(t, ids[0], sess.Questions[0].ID)

	right, wrong := "a", "B"
	require.NoError(t, e.attempts.Answer(ctx, user.ID, sess.Attempt.ID, ids[0], &right, 40))
	require.NoError(t, e.attempts.Answer(ctx, user.ID, sess.Attempt.ID, ids[1], &wrong, 100))

	report, err := e.attempts.Submit(ctx, user.ID, sess.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Correct)
	assert.Equal(t, 1, report.Incorrect)
	assert.Equal(t, 2, report.Unattempted)
	assert.Equal(t, 3, report.Score)
	assert.Equal(t, 50, report.Accuracy)
	assert.Equal(t, 50, report.Completion)

	_, err = e.attempts.Submit(ctx, user.ID, sess.Attempt.ID)
	assert.ErrorIs(t, err, attempt.ErrAttemptSubmitted)
	err = e.attempts.Answer(ctx, user.ID, sess.Attempt.ID, ids[2], &right, 10)
	assert.ErrorIs(t, err, attempt.ErrAttemptSubmitted)

	require.NoError(t, e.attempts.Tag(ctx, user.ID, sess.Attempt.ID, ids[1], attempt.TagConceptual))
	assert.ErrorIs(t, e.attempts.Tag(ctx, user.ID, sess.Attempt.ID, ids[0], attempt.TagConceptual), attempt.ErrNotIncorrect)

	report, err = e.attempts.Report(ctx, user.ID, sess.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, []analytics.TagCount{{Tag: attempt.TagConceptual, Count: 1}}, report.Tags)

	require.NoError(t, e.attempts.Untag(ctx, user.ID, sess.Attempt.ID, ids[1], attempt.TagConceptual))
	report, err = e.attempts.Report(ctx, user.ID, sess.Attempt.ID)
	require.NoError(t, err)
	assert.Empty(t, report.Tags)
}

func TestAttempt_StartResumesOpenAttempt(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	user := e.register(t, "asha@example.com")
	paper := diagnostic(t, e, e.questions(t, 2, "Optics"))

	first, err := e.attempts.Start(ctx, user.ID, paper.ID)
	require.NoError(t, err)
	again, err := e.attempts.Start(ctx, user.ID, paper.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Attempt.ID, again.Attempt.ID)
}

func TestAttempt_ExpiredAttemptIsClosedOnRestart(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	user := e.register(t, "asha@example.com")
	ids := e.questions(t, 2, "Optics")
	paper := diagnostic(t, e, ids)

	first, err := e.attempts.Start(ctx, user.ID, paper.ID)
	require.NoError(t, err)
	opt := "A"
	require.NoError(t, e.attempts.Answer(ctx, user.ID, first.Attempt.ID, ids[0], &opt, 30))

	e.clock.Advance(31 * time.Minute)
	err = e.attempts.Answer(ctx, user.ID, first.Attempt.ID, ids[1], &opt, 30)
	assert.ErrorIs(t, err, attempt.ErrTimeOver)

	second, err := e.attempts.Start(ctx, user.ID, paper.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Attempt.ID, second.Attempt.ID)

	report, err := e.attempts.Report(ctx, user.ID, first.Attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Correct)
	assert.Equal(t, 1, report.Unattempted)
}

func TestAttempt_OtherUsersAttemptIsForbidden(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	owner := e.register(t, "asha@example.com")
	other := e.register(t, "ravi@example.com")
	paper := diagnostic(t, e, e.questions(t, 1, "Optics"))

	sess, err := e.attempts.Start(ctx, owner.ID, paper.ID)
	require.NoError(t, err)

	_, err = e.attempts.Get(ctx, other.ID, sess.Attempt.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.attempts.Submit(ctx, other.ID, sess.Attempt.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAttempt_Dashboard(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	user := e.register(t, "asha@example.com")
	optics := diagnostic(t, e, e.questions(t, 3, "Optics"))
	waves := diagnostic(t, e, e.questions(t, 3, "Waves"))

	e.takeTest(t, user.ID, optics.ID, "A")
	e.takeTest(t, user.ID, waves.ID, "B")

	dash, err := e.attempts.Dashboard(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, dash.Attempts, 2)
	assert.Equal(t, 6, dash.Overall.TotalQuestions)
	assert.Equal(t, 3, dash.Overall.Correct)
	assert.Equal(t, 50, dash.Overall.Accuracy)

	require.Len(t, dash.WeakTopics, 1)
	assert.Equal(t, "Waves", dash.WeakTopics[0].Key)
	assert.Equal(t, analytics.NeedsImprovement, dash.WeakTopics[0].Level)
}
