package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/neetprep/backend/internal/domain/cycle"
	"github.com/neetprep/backend/internal/domain/testpaper"
	"github.com/neetprep/backend/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateTestRequest struct {
	Title           string   `json:"title" example:"Cycle 1 · Test 1"`
	Kind            string   `json:"kind" example:"mock"`
	Subject         string   `json:"subject,omitempty" example:"physics"`
	Cycle           int      `json:"cycle,omitempty" example:"1"`
	Position        int      `json:"position,omitempty" example:"1"`
	DurationMinutes int      `json:"duration_minutes" example:"60"`
	QuestionIDs     []string `json:"question_ids"`
}

func (r *CreateTestRequest) Validate() error {
	if r.Title == "" {
		return errors.New("title is required")
	}
	if r.DurationMinutes <= 0 {
		return errors.New("duration_minutes must be positive")
	}
	if len(r.QuestionIDs) == 0 {
		return errors.New("question_ids is required")
	}
	return nil
}

type TestResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Kind            string    `json:"kind" example:"mock"`
	Subject         string    `json:"subject,omitempty"`
	Cycle           int       `json:"cycle,omitempty"`
	Position        int       `json:"position,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
	Locked          bool      `json:"locked"`
	CreatedAt       time.Time `json:"created_at"`
}

func toTestResponse(p *testpaper.TestPaper, statuses []cycle.Status) TestResponse {
	resp := TestResponse{
		ID:              p.ID,
		Title:           p.Title,
		Kind:            string(p.Kind),
		Subject:         string(p.Subject),
		Cycle:           p.Cycle,
		Position:        p.Position,
		DurationMinutes: int(p.Duration / time.Minute),
		QuestionCount:   len(p.QuestionIDs),
		CreatedAt:       p.CreatedAt,
	}
	if p.Gated() && statuses != nil {
		resp.Locked = cycle.CheckAccess(statuses, p.Cycle, p.Position) != nil
	}
	return resp
}

// ── Handlers ────────────────────────────────────────────────────────────────

// listTests lists the tests the user can see, with their lock state.
// @Summary      List tests
// @Tags         Tests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  TestResponse
// @Router       /tests [get]
func (h *Handler) listTests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := currentUser(r)

	papers, err := h.bank.ListTests(ctx, user.ID)
	if h.handleError(w, err, "test") {
		return
	}
	statuses, err := h.cycles.Statuses(ctx, user.ID)
	if h.handleError(w, err, "cycle") {
		return
	}

	resp := make([]TestResponse, len(papers))
	for i, p := range papers {
		resp[i] = toTestResponse(p, statuses)
	}
	respondJSON(w, http.StatusOK, resp)
}

// getTest returns one test.
// @Summary      Get a test
// @Tags         Tests
// @Produce      json
// @Security     BearerAuth
// @Param        testID  path      string  true  "Test ID"
// @Success      200     {object}  TestResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /tests/{testID} [get]
func (h *Handler) getTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := currentUser(r)

	p, err := h.bank.GetTest(ctx, user.ID, r.PathValue("testID"))
	if h.handleError(w, err, "test") {
		return
	}
	statuses, err := h.cycles.Statuses(ctx, user.ID)
	if h.handleError(w, err, "cycle") {
		return
	}
	respondJSON(w, http.StatusOK, toTestResponse(p, statuses))
}

// createTest adds a diagnostic or fixed mock test.
// @Summary      Create a test
// @Tags         Tests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      CreateTestRequest  true  "Test"
// @Success      201   {object}  TestResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /tests [post]
func (h *Handler) createTest(w http.ResponseWriter, r *http.Request) {
	var req CreateTestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, err := h.bank.CreateTest(r.Context(), service.TestInput{
		Title:       req.Title,
		Kind:        req.Kind,
		Subject:     req.Subject,
		Cycle:       req.Cycle,
		Position:    req.Position,
		Duration:    time.Duration(req.DurationMinutes) * time.Minute,
		QuestionIDs: req.QuestionIDs,
	})
	if h.handleError(w, err, "test") {
		return
	}
	respondJSON(w, http.StatusCreated, toTestResponse(p, nil))
}
