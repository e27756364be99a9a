package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neetprep/backend/internal/domain/attempt"
	"github.com/neetprep/backend/internal/domain/payment"
	"github.com/neetprep/backend/internal/domain/profile"
	"github.com/neetprep/backend/internal/domain/question"
	"github.com/neetprep/backend/internal/domain/ritual"
	"github.com/neetprep/backend/internal/domain/testpaper"
	"github.com/neetprep/backend/internal/store"
)

var now = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *store.SQLStore {
	t.Helper()
	s, err := store.Open(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *store.SQLStore, email string) *profile.Profile {
	t.Helper()
	p, err := profile.New("Student", email, "secret1", 2027, now)
	require.NoError(t, err)
	require.NoError(t, s.CreateProfile(context.Background(), p))
	return p
}

func seedQuestions(t *testing.T, s *store.SQLStore, n int, topic string) []*question.Question {
	t.Helper()
	var qs []*question.Question
	for i := 0; i < n; i++ {
		q := question.New(question.SubjectChemistry, "Organic", topic, "text", []string{"a", "b", "c", "d"}, "C")
		q.IdealTime = 45
		qs = append(qs, q)
	}
	require.NoError(t, s.SaveQuestions(context.Background(), qs))
	return qs
}

func ids(qs []*question.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, s.Ping(context.Background()))
}

func TestQuestions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	qs := seedQuestions(t, s, 3, "Isomerism")

	got, err := s.GetQuestion(ctx, qs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, qs[0].Options, got.Options)
	assert.Equal(t, "C", got.CorrectOption)
	assert.Equal(t, 45, got.IdealTime)

	got.Topic = "Nomenclature"
	require.NoError(t, s.SaveQuestion(ctx, got))

	list, err := s.ListQuestions(ctx, store.QuestionFilter{Topic: "Isomerism"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	page, err := s.ListQuestions(ctx, store.QuestionFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	byID, err := s.GetQuestions(ctx, []string{qs[1].ID, qs[2].ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, byID, 2)

	require.NoError(t, s.DeleteQuestion(ctx, qs[0].ID))
	_, err = s.GetQuestion(ctx, qs[0].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteQuestion(ctx, qs[0].ID), store.ErrNotFound)
}

func TestTests(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u1 := seedUser(t, s, "a@example.com")
	u2 := seedUser(t, s, "b@example.com")
	qs := seedQuestions(t, s, 3, "Isomerism")

	mock := testpaper.NewMock("Mock 1", 1, 1, time.Hour, ids(qs))
	require.NoError(t, s.SaveTest(ctx, mock))
	mine := testpaper.NewPersonalized(u1.ID, 1, 30*time.Minute, []string{qs[2].ID, qs[0].ID})
	require.NoError(t, s.SaveTest(ctx, mine))

	got, err := s.GetTest(ctx, mock.ID)
	require.NoError(t, err)
	assert.Equal(t, ids(qs), got.QuestionIDs)
	assert.Equal(t, time.Hour, got.Duration)
	assert.Nil(t, got.OwnerID)

	list, err := s.ListTests(ctx, u2.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mock.ID, list[0].ID)

	list, err = s.ListTests(ctx, u1.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	p, err := s.FindPersonalizedTest(ctx, u1.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{qs[2].ID, qs[0].ID}, p.QuestionIDs)
	require.NotNil(t, p.OwnerID)
	assert.Equal(t, u1.ID, *p.OwnerID)

	_, err = s.FindPersonalizedTest(ctx, u2.ID, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAttemptLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "a@example.com")
	qs := seedQuestions(t, s, 3, "Isomerism")
	paper := testpaper.NewMock("Mock 1", 1, 1, time.Hour, ids(qs))
	require.NoError(t, s.SaveTest(ctx, paper))

	a := attempt.New(u.ID, paper, now)
	require.NoError(t, s.CreateAttempt(ctx, a))

	open, err := s.FindOpenAttempt(ctx, u.ID, paper.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, open.ID)

	c, d := "C", "D"
	require.NoError(t, a.RecordAnswer(qs[0].ID, &d, 10, now))
	require.NoError(t, s.SaveAnswer(ctx, a.ID, a.Answers[qs[0].ID]))
	require.NoError(t, a.RecordAnswer(qs[0].ID, &c, 40, now))
	require.NoError(t, s.SaveAnswer(ctx, a.ID, a.Answers[qs[0].ID]))
	require.NoError(t, a.RecordAnswer(qs[1].ID, &d, 70, now))
	require.NoError(t, s.SaveAnswer(ctx, a.ID, a.Answers[qs[1].ID]))

	loaded, err := s.GetAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, attempt.StatusInProgress, loaded.Status)
	assert.Equal(t, ids(qs), loaded.QuestionIDs)
	require.Len(t, loaded.Answers, 2)
	assert.Equal(t, "C", *loaded.Answers[qs[0].ID].Chosen)
	assert.Equal(t, 40, loaded.Answers[qs[0].ID].TimeTaken)
	assert.True(t, loaded.Deadline.Equal(now.Add(time.Hour)))

	bank, err := s.GetQuestions(ctx, ids(qs))
	require.NoError(t, err)
	require.NoError(t, loaded.Submit(bank, now.Add(10*time.Minute)))
	require.NoError(t, s.SubmitAttempt(ctx, loaded))
	assert.ErrorIs(t, s.SubmitAttempt(ctx, loaded), attempt.ErrAttemptSubmitted)

	require.NoError(t, s.AddTag(ctx, a.ID, qs[1].ID, attempt.TagCalculation))
	require.NoError(t, s.AddTag(ctx, a.ID, qs[1].ID, attempt.TagCalculation))
	require.NoError(t, s.AddTag(ctx, a.ID, qs[1].ID, attempt.TagGuess))
	require.NoError(t, s.RemoveTag(ctx, a.ID, qs[1].ID, attempt.TagGuess))

	done, err := s.ListSubmittedAttempts(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, done, 1)
	got := done[0]
	require.NotNil(t, got.SubmittedAt)
	require.Len(t, got.Results, 3)
	assert.True(t, got.Results[0].IsCorrect)
	assert.False(t, got.Results[1].IsCorrect)
	assert.Equal(t, []string{attempt.TagCalculation}, got.Results[1].Tags)
	assert.False(t, got.Results[2].Attempted())

	_, err = s.FindOpenAttempt(ctx, u.ID, paper.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	seen, err := s.ListSeenQuestionIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "a@example.com")

	dup, err := profile.New("Other", "A@example.com", "secret1", 2027, now)
	require.NoError(t, err)
	assert.ErrorIs(t, s.CreateProfile(ctx, dup), store.ErrConflict)

	got, err := s.GetProfileByEmail(ctx, " A@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.CheckPassword("secret1"))
	assert.False(t, got.Premium)

	require.NoError(t, s.SetPremium(ctx, u.ID, true))
	got, err = s.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Premium)
	assert.False(t, got.Admin)

	require.NoError(t, s.SetAdmin(ctx, u.ID, true))
	got, err = s.GetProfileByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.True(t, got.Admin)
	assert.ErrorIs(t, s.SetAdmin(ctx, "missing", true), store.ErrNotFound)

	cutoff := now.Add(24 * time.Hour)
	inactive, err := s.ListInactiveProfiles(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, inactive, 1)

	require.NoError(t, s.MarkFollowedUp(ctx, u.ID, now.Add(48*time.Hour)))
	inactive, err = s.ListInactiveProfiles(ctx, cutoff)
	require.NoError(t, err)
	assert.Empty(t, inactive)

	assert.ErrorIs(t, s.TouchProfile(ctx, "missing", now), store.ErrNotFound)
}

func TestAuthSessions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "a@example.com")

	live := profile.NewAuthSession(u.ID, time.Hour, now)
	old := profile.NewAuthSession(u.ID, time.Minute, now.Add(-time.Hour))
	require.NoError(t, s.SaveAuthSession(ctx, live))
	require.NoError(t, s.SaveAuthSession(ctx, old))

	got, err := s.GetAuthSession(ctx, live.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	n, err := s.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.DeleteAuthSession(ctx, live.Token))
	_, err = s.GetAuthSession(ctx, live.Token)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPayments(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "a@example.com")

	p, err := payment.New(u.ID, "cycle_pass", 49900, "INR", "order_1", now)
	require.NoError(t, err)
	require.NoError(t, s.CreatePayment(ctx, p))

	require.NoError(t, p.MarkPaid("pay_1", now.Add(time.Minute)))
	require.NoError(t, s.UpdatePayment(ctx, p))

	got, err := s.GetPaymentByOrder(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, got.Status)
	assert.Equal(t, "pay_1", got.PaymentID)
	assert.Equal(t, int64(49900), got.Amount)

	list, err := s.ListPayments(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.GetPaymentByOrder(ctx, "order_x")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRitualLogs(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "a@example.com")

	for i, kind := range []ritual.Kind{ritual.KindBreathing, ritual.KindAffirmation} {
		l, err := ritual.NewLog(u.ID, kind, 0, true, now.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, s.SaveRitualLog(ctx, l))
	}

	logs, err := s.ListRitualLogs(ctx, u.ID, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, ritual.KindAffirmation, logs[0].Kind)
	assert.Equal(t, 76*time.Second, logs[1].Duration)
	assert.True(t, logs[1].Completed)
}
