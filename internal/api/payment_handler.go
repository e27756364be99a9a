package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/neetprep/backend/internal/domain/payment"
)

type CreateOrderRequest struct {
	Plan string `json:"plan" example:"cycle_pass"`
}

func (r *CreateOrderRequest) Validate() error {
	if r.Plan == "" {
		return errors.New("plan is required")
	}
	return nil
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (r *VerifyPaymentRequest) Validate() error {
	if r.OrderID == "" || r.PaymentID == "" || r.Signature == "" {
		return errors.New("razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}
	return nil
}

type PaymentResponse struct {
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id,omitempty"`
	Plan      string    `json:"plan"`
	Amount    int64     `json:"amount" example:"49900"`
	Currency  string    `json:"currency" example:"INR"`
	Status    string    `json:"status" example:"paid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PaymentStatusResponse struct {
	Premium  bool              `json:"premium"`
	Payments []PaymentResponse `json:"payments"`
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		OrderID:   p.OrderID,
		PaymentID: p.PaymentID,
		Plan:      p.Plan,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// createOrder opens a gateway order for a premium plan.
// @Summary      Create payment order
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      CreateOrderRequest  true  "Plan"
// @Success      201   {object}  service.Checkout
// @Failure      400   {object}  ErrorResponse  "unknown plan"
// @Router       /payments/orders [post]
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	checkout, err := h.payments.CreateOrder(r.Context(), currentUser(r).ID, req.Plan)
	if h.handleError(w, err, "payment") {
		return
	}
	respondJSON(w, http.StatusCreated, checkout)
}

// verifyPayment checks the checkout signature and grants premium.
// @Summary      Verify payment
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      VerifyPaymentRequest  true  "Gateway callback fields"
// @Success      200   {object}  PaymentResponse
// @Failure      400   {object}  ErrorResponse  "invalid signature"
// @Failure      404   {object}  ErrorResponse
// @Router       /payments/verify [post]
func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := h.payments.Verify(r.Context(), currentUser(r).ID, req.OrderID, req.PaymentID, req.Signature)
	if h.handleError(w, err, "payment") {
		return
	}
	respondJSON(w, http.StatusOK, toPaymentResponse(p))
}

// paymentStatus returns the premium flag and payment history.
// @Summary      Payment status
// @Tags         Payments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PaymentStatusResponse
// @Router       /payments/status [get]
func (h *Handler) paymentStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.payments.Status(r.Context(), currentUser(r).ID)
	if h.handleError(w, err, "payment") {
		return
	}
	resp := PaymentStatusResponse{Premium: st.Premium, Payments: make([]PaymentResponse, len(st.Payments))}
	for i, p := range st.Payments {
		resp.Payments[i] = toPaymentResponse(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

