package store

import (
	"context"
	"time"

	"github.com/neetprep/backend/internal/domain/payment"
)

type paymentRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Plan      string    `db:"plan"`
	Amount    int64     `db:"amount"`
	Currency  string    `db:"currency"`
	OrderID   string    `db:"order_id"`
	PaymentID string    `db:"payment_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const paymentColumns = `id, user_id, plan, amount, currency, order_id, payment_id, status, created_at, updated_at`

func (r paymentRow) toDomain() *payment.Payment {
	return &payment.Payment{
		ID:        r.ID,
		UserID:    r.UserID,
		Plan:      r.Plan,
		Amount:    r.Amount,
		Currency:  r.Currency,
		OrderID:   r.OrderID,
		PaymentID: r.PaymentID,
		Status:    payment.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (s *SQLStore) CreatePayment(ctx context.Context, p *payment.Payment) error {
	_, err := s.exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Plan, p.Amount, p.Currency, p.OrderID, p.PaymentID,
		string(p.Status), p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *SQLStore) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	return mustAffect(s.exec(ctx, `
		UPDATE payments SET payment_id = ?, status = ?, updated_at = ?
		WHERE id = ?`, p.PaymentID, string(p.Status), p.UpdatedAt, p.ID))
}

func (s *SQLStore) GetPaymentByOrder(ctx context.Context, orderID string) (*payment.Payment, error) {
	var row paymentRow
	if err := s.get(ctx, &row, "SELECT "+paymentColumns+" FROM payments WHERE order_id = ?", orderID); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// ListPayments returns the user's payments, newest first.
func (s *SQLStore) ListPayments(ctx context.Context, userID string) ([]*payment.Payment, error) {
	var rows []paymentRow
	err := s.db.SelectContext(ctx, &rows, s.q(
		"SELECT "+paymentColumns+" FROM payments WHERE user_id = ? ORDER BY created_at DESC, id"), userID)
	if err != nil {
		return nil, err
	}
	out := make([]*payment.Payment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
