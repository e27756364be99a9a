// internal/service/payments.go
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/domain/payment"
	"github.com/neetprep/backend/internal/infrastructure/config"
	"github.com/neetprep/backend/internal/jobs"
	"github.com/neetprep/backend/internal/mailer"
	"github.com/neetprep/backend/internal/payment/razorpay"
)

// Gateway is the payment provider. *razorpay.Client implements it.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

var _ Gateway = (*razorpay.Client)(nil)

// Checkout is what the client needs to open the gateway's payment form.
type Checkout struct {
	KeyID    string `json:"key_id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Plan     string `json:"plan"`
}

// PremiumStatus is the user's premium flag and payment history.
type PremiumStatus struct {
	Premium  bool               `json:"premium"`
	Payments []*payment.Payment `json:"payments"`
}

type PaymentService struct {
	store      Store
	gateway    Gateway
	dispatcher jobs.Dispatcher
	catalog    *config.Catalog
	logger     *zap.Logger
	now        Clock
}

func NewPaymentService(s Store, gateway Gateway, dispatcher jobs.Dispatcher, catalog *config.Catalog, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		store:      s,
		gateway:    gateway,
		dispatcher: dispatcher,
		catalog:    catalog,
		logger:     logger,
		now:        utcNow,
	}
}

// CreateOrder opens a gateway order for the plan and records it as created.
func (s *PaymentService) CreateOrder(ctx context.Context, userID, planID string) (*Checkout, error) {
	plan, ok := s.catalog.Plan(planID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planID)
	}
	if _, err := s.store.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, plan.Amount, s.catalog.Currency, receiptFor(userID, plan.ID), map[string]string{
		"user_id": userID,
		"plan":    plan.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	p, err := payment.New(userID, plan.ID, plan.Amount, s.catalog.Currency, order.ID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("payment order created",
		zap.String("user_id", userID),
		zap.String("order_id", order.ID),
		zap.String("plan", plan.ID))

	return &Checkout{
		KeyID:    s.gateway.KeyID(),
		OrderID:  order.ID,
		Amount:   plan.Amount,
		Currency: s.catalog.Currency,
		Plan:     plan.ID,
	}, nil
}

// receipt ids are limited to 40 characters by the gateway.
func receiptFor(userID, plan string) string {
	r := plan + "_" + userID
	if len(r) > 40 {
		r = r[:40]
	}
	return r
}

// Verify checks the gateway signature for a completed checkout. A valid
// signature marks the payment paid and grants premium; verifying an already
// paid order again is a no-op.
func (s *PaymentService) Verify(ctx context.Context, userID, orderID, paymentID, signature string) (*payment.Payment, error) {
	p, err := s.store.GetPaymentByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}
	if p.Status == payment.StatusPaid {
		return p, nil
	}

	now := s.now()
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		if err := p.MarkFailed(paymentID, now); err == nil {
			if err := s.store.UpdatePayment(ctx, p); err != nil {
				s.logger.Error("failed to record failed payment", zap.String("order_id", orderID), zap.Error(err))
			}
		}
		s.logger.Warn("payment signature mismatch", zap.String("order_id", orderID), zap.String("user_id", userID))
		return nil, payment.ErrInvalidSignature
	}

	if err := p.MarkPaid(paymentID, now); err != nil {
		if errors.Is(err, payment.ErrAlreadySettled) {
			return p, nil
		}
		return nil, err
	}
	if err := s.store.UpdatePayment(ctx, p); err != nil {
		return nil, err
	}
	if err := s.store.SetPremium(ctx, userID, true); err != nil {
		return nil, err
	}
	s.logger.Info("payment verified",
		zap.String("user_id", userID),
		zap.String("order_id", orderID),
		zap.String("payment_id", paymentID))

	s.sendReceipt(ctx, p)
	return p, nil
}

func (s *PaymentService) sendReceipt(ctx context.Context, p *payment.Payment) {
	prof, err := s.store.GetProfile(ctx, p.UserID)
	if err != nil {
		s.logger.Warn("receipt skipped", zap.String("user_id", p.UserID), zap.Error(err))
		return
	}
	planName := p.Plan
	if plan, ok := s.catalog.Plan(p.Plan); ok {
		planName = plan.Name
	}
	msg, err := mailer.Receipt(prof.Email, mailer.ReceiptData{
		Name:      prof.Name,
		Plan:      planName,
		Amount:    p.AmountDisplay(),
		PaymentID: p.PaymentID,
		OrderID:   p.OrderID,
	})
	if err != nil {
		s.logger.Error("failed to render receipt", zap.Error(err))
		return
	}
	if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		s.logger.Warn("failed to queue receipt", zap.String("user_id", p.UserID), zap.Error(err))
	}
}

func (s *PaymentService) Status(ctx context.Context, userID string) (*PremiumStatus, error) {
	prof, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PremiumStatus{Premium: prof.Premium, Payments: payments}, nil
}
