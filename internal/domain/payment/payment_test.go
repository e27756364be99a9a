package payment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neetprep/backend/internal/domain/payment"
)

var now = time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

func TestLifecycle(t *testing.T) {
	p, err := payment.New("u1", "cycle_pass", 49900, "INR", "order_1", now)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCreated, p.Status)
	assert.Equal(t, "499.00 INR", p.AmountDisplay())

	require.NoError(t, p.MarkFailed("pay_bad", now))
	assert.Equal(t, payment.StatusFailed, p.Status)

	later := now.Add(time.Minute)
	require.NoError(t, p.MarkPaid("pay_ok", later))
	assert.Equal(t, payment.StatusPaid, p.Status)
	assert.Equal(t, "pay_ok", p.PaymentID)
	assert.Equal(t, later, p.UpdatedAt)

	assert.ErrorIs(t, p.MarkPaid("pay_again", later), payment.ErrAlreadySettled)
	assert.ErrorIs(t, p.MarkFailed("pay_again", later), payment.ErrAlreadySettled)
}

func TestNew_Invalid(t *testing.T) {
	_, err := payment.New("u1", "plan", 0, "INR", "order_1", now)
	assert.Error(t, err)

	_, err = payment.New("u1", "plan", 100, "INR", "", now)
	assert.Error(t, err)
}
