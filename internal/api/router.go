// internal/api/router.go
package api

import (
	"net/http"

	"go.uber.org/zap"
)

// RegisterRoutes mounts every API route on mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	auth := h.requireAuth
	admin := h.requireAdmin

	mux.HandleFunc("GET /health", h.health)

	// Auth
	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("POST /auth/logout", auth(h.logout))
	mux.HandleFunc("GET /me", auth(h.me))

	// Questions; answers are only shown to admins
	mux.HandleFunc("GET /questions", auth(h.listQuestions))
	mux.HandleFunc("POST /questions", admin(h.createQuestion))
	mux.HandleFunc("POST /questions/import", admin(h.importQuestions))
	mux.HandleFunc("GET /questions/export", admin(h.exportQuestions))
	mux.HandleFunc("GET /questions/{questionID}", auth(h.getQuestion))
	mux.HandleFunc("DELETE /questions/{questionID}", admin(h.deleteQuestion))

	// Tests
	mux.HandleFunc("GET /tests", auth(h.listTests))
	mux.HandleFunc("POST /tests", admin(h.createTest))
	mux.HandleFunc("GET /tests/{testID}", auth(h.getTest))
	mux.HandleFunc("POST /tests/{testID}/attempts", auth(h.startAttempt))

	// Attempts
	mux.HandleFunc("GET /attempts/{attemptID}", auth(h.getAttempt))
	mux.HandleFunc("PUT /attempts/{attemptID}/answers", auth(h.answerQuestion))
	mux.HandleFunc("POST /attempts/{attemptID}/submit", auth(h.submitAttempt))
	mux.HandleFunc("GET /attempts/{attemptID}/report", auth(h.getReport))
	mux.HandleFunc("POST /attempts/{attemptID}/tags", auth(h.addTag))
	mux.HandleFunc("DELETE /attempts/{attemptID}/tags", auth(h.removeTag))
	mux.HandleFunc("GET /tags", h.listTags)
	mux.HandleFunc("GET /dashboard", auth(h.dashboard))

	// Cycles
	mux.HandleFunc("GET /cycles", auth(h.listCycles))
	mux.HandleFunc("POST /cycles/{cycle}/personalized", auth(h.personalizedTest))

	// Payments
	mux.HandleFunc("POST /payments/orders", auth(h.createOrder))
	mux.HandleFunc("POST /payments/verify", auth(h.verifyPayment))
	mux.HandleFunc("GET /payments/status", auth(h.paymentStatus))

	// Rituals
	mux.HandleFunc("POST /rituals", auth(h.logRitual))
	mux.HandleFunc("GET /rituals/streak", auth(h.ritualStreak))
	mux.HandleFunc("POST /rituals/affirmation/check", auth(h.checkAffirmation))
}

type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
}

// health reports liveness and database reachability.
// @Summary      Health check
// @Tags         System
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unreachable"})
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}
