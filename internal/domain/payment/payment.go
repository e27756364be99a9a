package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/neetprep/backend/internal/id"
)

var (
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrAlreadySettled   = errors.New("payment already settled")
)

type Status string

const (
	StatusCreated Status = "created"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// Payment tracks one gateway order for a premium plan. Amounts are in the
// smallest currency unit (paise for INR).
type Payment struct {
	ID        string
	UserID    string
	Plan      string
	Amount    int64
	Currency  string
	OrderID   string
	PaymentID string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(userID, plan string, amount int64, currency, orderID string, now time.Time) (*Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amount)
	}
	if orderID == "" {
		return nil, errors.New("order id cannot be empty")
	}
	return &Payment{
		ID:        id.GenerateID(),
		UserID:    userID,
		Plan:      plan,
		Amount:    amount,
		Currency:  currency,
		OrderID:   orderID,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Payment) MarkPaid(paymentID string, now time.Time) error {
	if p.Status == StatusPaid {
		return ErrAlreadySettled
	}
	p.PaymentID = paymentID
	p.Status = StatusPaid
	p.UpdatedAt = now
	return nil
}

// MarkFailed records a failed verification. A paid payment stays paid.
func (p *Payment) MarkFailed(paymentID string, now time.Time) error {
	if p.Status == StatusPaid {
		return ErrAlreadySettled
	}
	p.PaymentID = paymentID
	p.Status = StatusFailed
	p.UpdatedAt = now
	return nil
}

// AmountDisplay formats the amount in major units, e.g. "499.00 INR".
func (p *Payment) AmountDisplay() string {
	return fmt.Sprintf("%d.%02d %s", p.Amount/100, p.Amount%100, p.Currency)
}
