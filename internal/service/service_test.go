package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/domain/profile"
	"github.com/neetprep/backend/internal/domain/testpaper"
	"github.com/neetprep/backend/internal/infrastructure/config"
	"github.com/neetprep/backend/internal/mailer"
	"github.com/neetprep/backend/internal/payment/razorpay"
	"github.com/neetprep/backend/internal/store"
)

const gatewaySecret = "secret"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (d *recordingDispatcher) Dispatch(_ context.Context, m mailer.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, m)
	return nil
}

func (d *recordingDispatcher) kinds() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.sent))
	for i, m := range d.sent {
		out[i] = m.Kind
	}
	return out
}

type fakeGateway struct {
	mu     sync.Mutex
	orders int
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, _ map[string]string) (*razorpay.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders++
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_%d", g.orders),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return razorpay.Signature(orderID, paymentID, gatewaySecret) == signature
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

const adminEmail = "admin@example.com"

type env struct {
	store     *store.SQLStore
	clock     *clock
	mail      *recordingDispatcher
	accounts  *AccountService
	bank      *BankService
	cycles    *CycleService
	attempts  *AttemptService
	payments  *PaymentService
	rituals   *RitualService
	followups *FollowupService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s, err := store.Open(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := zap.NewNop()
	catalog := config.DefaultCatalog()
	c := &clock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	mail := &recordingDispatcher{}

	e := &env{store: s, clock: c, mail: mail}
	e.accounts = NewAccountService(s, mail, []string{adminEmail}, logger)
	e.accounts.now = c.Now
	e.bank = NewBankService(s, logger)
	e.cycles = NewCycleService(s, catalog, logger)
	e.attempts = NewAttemptService(s, e.cycles, logger)
	e.attempts.now = c.Now
	e.payments = NewPaymentService(s, &fakeGateway{}, mail, catalog, logger)
	e.payments.now = c.Now
	e.rituals = NewRitualService(s, catalog, time.UTC, logger)
	e.rituals.now = c.Now
	e.followups = NewFollowupService(s, mail, 7, logger)
	e.followups.now = c.Now
	return e
}

func (e *env) register(t *testing.T, email string) *profile.Profile {
	t.Helper()
	p, _, err := e.accounts.Register(context.Background(), "Asha", email, "secret1", 2027)
	require.NoError(t, err)
	return p
}

// questions adds n physics questions on topic whose correct option is A.
func (e *env) questions(t *testing.T, n int, topic string) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		q, err := e.bank.CreateQuestion(context.Background(), QuestionInput{
			Subject:       "physics",
			Chapter:       "Mechanics",
			Topic:         topic,
			Text:          fmt.Sprintf("%s question %d", topic, i+1),
			Options:       []string{"one", "two", "three", "four"},
			CorrectOption: "A",
			IdealTime:     60,
		})
		require.NoError(t, err)
		ids[i] = q.ID
	}
	return ids
}

func (e *env) mock(t *testing.T, cycle, position int, ids []string) *testpaper.TestPaper {
	t.Helper()
	p, err := e.bank.CreateTest(context.Background(), TestInput{
		Title:       fmt.Sprintf("Cycle %d Test %d", cycle, position),
		Kind:        string(testpaper.KindMock),
		Cycle:       cycle,
		Position:    position,
		Duration:    time.Hour,
		QuestionIDs: ids,
	})
	require.NoError(t, err)
	return p
}

// takeTest starts the paper and answers every question with option.
func (e *env) takeTest(t *testing.T, userID, testID, option string) {
	t.Helper()
	ctx := context.Background()
	sess, err := e.attempts.Start(ctx, userID, testID)
	require.NoError(t, err)
	for _, q := range sess.Questions {
		require.NoError(t, e.attempts.Answer(ctx, userID, sess.Attempt.ID, q.ID, &option, 30))
	}
	_, err = e.attempts.Submit(ctx, userID, sess.Attempt.ID)
	require.NoError(t, err)
}
