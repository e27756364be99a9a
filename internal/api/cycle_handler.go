package api

import (
	"net/http"
	"strconv"

	"github.com/neetprep/backend/internal/domain/cycle"
)

type CyclesResponse struct {
	Premium bool           `json:"premium"`
	Cycles  []cycle.Status `json:"cycles"`
}

// listCycles returns the lock state and progress of every cycle.
// @Summary      Cycle progress
// @Tags         Cycles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  CyclesResponse
// @Router       /cycles [get]
func (h *Handler) listCycles(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	statuses, err := h.cycles.Statuses(r.Context(), user.ID)
	if h.handleError(w, err, "cycle") {
		return
	}
	respondJSON(w, http.StatusOK, CyclesResponse{Premium: user.Premium, Cycles: statuses})
}

// personalizedTest returns the user's personalized test for the cycle,
// generating it on first request.
// @Summary      Personalized test
// @Description  Built from the weakest topics of the cycle's four fixed tests. Unlocks once all four are submitted.
// @Tags         Cycles
// @Produce      json
// @Security     BearerAuth
// @Param        cycle  path      int  true  "Cycle number"
// @Success      200    {object}  TestResponse
// @Failure      403    {object}  ErrorResponse  "cycle or test locked"
// @Router       /cycles/{cycle}/personalized [post]
func (h *Handler) personalizedTest(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("cycle"))
	if err != nil || n < 1 {
		respondError(w, http.StatusBadRequest, "cycle must be a positive number")
		return
	}

	p, err := h.cycles.Personalized(r.Context(), currentUser(r).ID, n)
	if h.handleError(w, err, "cycle") {
		return
	}
	respondJSON(w, http.StatusOK, toTestResponse(p, nil))
}
