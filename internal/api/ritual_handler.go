package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/neetprep/backend/internal/domain/ritual"
)

type LogRitualRequest struct {
	Kind            string `json:"kind" example:"breathing"`
	DurationSeconds int    `json:"duration_seconds" example:"76"`
	Completed       bool   `json:"completed"`
}

func (r *LogRitualRequest) Validate() error {
	if r.Kind == "" {
		return errors.New("kind is required")
	}
	if r.DurationSeconds < 0 {
		return errors.New("duration_seconds cannot be negative")
	}
	return nil
}

type AffirmationRequest struct {
	Affirmation string `json:"affirmation,omitempty"`
	Transcript  string `json:"transcript" example:"I am calm focused and ready"`
}

func (r *AffirmationRequest) Validate() error {
	if r.Transcript == "" {
		return errors.New("transcript is required")
	}
	return nil
}

type RitualLogResponse struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	DurationSeconds int       `json:"duration_seconds"`
	Completed       bool      `json:"completed"`
	LoggedAt        time.Time `json:"logged_at"`
}

type StreakResponse struct {
	Streak    int                     `json:"streak"`
	Breathing ritual.BreathingPattern `json:"breathing"`
	Recent    []RitualLogResponse     `json:"recent"`
}

// recentLogs is how many log entries the streak endpoint returns.
const recentLogs = 20

func toRitualLogResponse(l *ritual.Log) RitualLogResponse {
	return RitualLogResponse{
		ID:              l.ID,
		Kind:            string(l.Kind),
		DurationSeconds: int(l.Duration / time.Second),
		Completed:       l.Completed,
		LoggedAt:        l.LoggedAt,
	}
}

// logRitual records a breathing, meditation or affirmation session.
// @Summary      Log a ritual
// @Tags         Rituals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      LogRitualRequest  true  "Ritual"
// @Success      201   {object}  RitualLogResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /rituals [post]
func (h *Handler) logRitual(w http.ResponseWriter, r *http.Request) {
	var req LogRitualRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	kind, err := ritual.ParseKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	l, err := h.rituals.Log(r.Context(), currentUser(r).ID, kind, time.Duration(req.DurationSeconds)*time.Second, req.Completed)
	if h.handleError(w, err, "ritual") {
		return
	}
	respondJSON(w, http.StatusCreated, toRitualLogResponse(l))
}

// ritualStreak returns the daily ritual streak and recent sessions.
// @Summary      Ritual streak
// @Tags         Rituals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StreakResponse
// @Router       /rituals/streak [get]
func (h *Handler) ritualStreak(w http.ResponseWriter, r *http.Request) {
	sum, err := h.rituals.Summary(r.Context(), currentUser(r).ID)
	if h.handleError(w, err, "ritual") {
		return
	}

	resp := StreakResponse{Streak: sum.Streak, Breathing: ritual.Pattern478, Recent: []RitualLogResponse{}}
	for i, l := range sum.Logs {
		if i == recentLogs {
			break
		}
		resp.Recent = append(resp.Recent, toRitualLogResponse(l))
	}
	respondJSON(w, http.StatusOK, resp)
}

// checkAffirmation scores a spoken affirmation transcript.
// @Summary      Check affirmation
// @Description  Passes when at least 80% of the affirmation's words appear in the transcript. A pass is logged as a completed ritual.
// @Tags         Rituals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      AffirmationRequest  true  "Transcript"
// @Success      200   {object}  ritual.AffirmationResult
// @Router       /rituals/affirmation/check [post]
func (h *Handler) checkAffirmation(w http.ResponseWriter, r *http.Request) {
	var req AffirmationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.rituals.CheckAffirmation(r.Context(), currentUser(r).ID, req.Affirmation, req.Transcript)
	if h.handleError(w, err, "ritual") {
		return
	}
	respondJSON(w, http.StatusOK, res)
}
