// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/domain/attempt"
	"github.com/neetprep/backend/internal/domain/cycle"
	"github.com/neetprep/backend/internal/domain/payment"
	"github.com/neetprep/backend/internal/domain/profile"
	"github.com/neetprep/backend/internal/service"
	"github.com/neetprep/backend/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles what the handlers call into.
type Services struct {
	Accounts *service.AccountService
	Bank     *service.BankService
	Attempts *service.AttemptService
	Cycles   *service.CycleService
	Payments *service.PaymentService
	Rituals  *service.RitualService
	DB       Pinger
}

// Handler holds all dependencies needed by HTTP handlers.
type Handler struct {
	accounts *service.AccountService
	bank     *service.BankService
	attempts *service.AttemptService
	cycles   *service.CycleService
	payments *service.PaymentService
	rituals  *service.RitualService
	db       Pinger
	logger   *zap.Logger
}

func NewHandler(svc Services, logger *zap.Logger) *Handler {
	return &Handler{
		accounts: svc.Accounts,
		bank:     svc.Bank,
		attempts: svc.Attempts,
		cycles:   svc.Cycles,
		payments: svc.Payments,
		rituals:  svc.Rituals,
		db:       svc.DB,
		logger:   logger,
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}

// validator is implemented by request bodies that check themselves.
type validator interface {
	Validate() error
}

// decodeJSON reads the body into v and writes a 400 on failure. Returns
// false if the caller should stop.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return false
	}
	return true
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v validator) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if err := v.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// handleError maps service and domain errors to HTTP responses. Returns
// true if an error was handled (caller should return).
func (h *Handler) handleError(w http.ResponseWriter, err error, entity string) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, profile.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, cycle.ErrLocked):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, attempt.ErrAttemptSubmitted),
		errors.Is(err, attempt.ErrTimeOver),
		errors.Is(err, attempt.ErrNotSubmitted):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnknownPlan),
		errors.Is(err, service.ErrEmptyBank),
		errors.Is(err, attempt.ErrUnknownQuestion),
		errors.Is(err, attempt.ErrInvalidOption),
		errors.Is(err, attempt.ErrInvalidTag),
		errors.Is(err, attempt.ErrNotIncorrect),
		errors.Is(err, payment.ErrInvalidSignature):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", zap.String("entity", entity), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
	return true
}
