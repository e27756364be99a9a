package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/neetprep/backend/internal/domain/attempt"
	"github.com/neetprep/backend/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type AnswerRequest struct {
	QuestionID string  `json:"question_id"`
	Chosen     *string `json:"chosen" example:"B"`
	TimeTaken  int     `json:"time_taken" example:"42"`
}

func (r *AnswerRequest) Validate() error {
	if r.QuestionID == "" {
		return errors.New("question_id is required")
	}
	if r.TimeTaken < 0 {
		return errors.New("time_taken cannot be negative")
	}
	return nil
}

type TagRequest struct {
	QuestionID string `json:"question_id"`
	Tag        string `json:"tag" example:"conceptual"`
}

func (r *TagRequest) Validate() error {
	if r.QuestionID == "" || r.Tag == "" {
		return errors.New("question_id and tag are required")
	}
	return nil
}

type AnswerResponse struct {
	QuestionID string  `json:"question_id"`
	Chosen     *string `json:"chosen"`
	TimeTaken  int     `json:"time_taken"`
}

type ResultResponse struct {
	QuestionID    string   `json:"question_id"`
	Chosen        *string  `json:"chosen"`
	CorrectOption string   `json:"correct_option"`
	IsCorrect     bool     `json:"is_correct"`
	TimeTaken     int      `json:"time_taken"`
	Tags          []string `json:"tags"`
}

type AttemptResponse struct {
	ID               string             `json:"id"`
	TestID           string             `json:"test_id"`
	Title            string             `json:"title"`
	Status           string             `json:"status" example:"in_progress"`
	StartedAt        time.Time          `json:"started_at"`
	Deadline         time.Time          `json:"deadline"`
	SubmittedAt      *time.Time         `json:"submitted_at,omitempty"`
	RemainingSeconds int                `json:"remaining_seconds"`
	Questions        []QuestionResponse `json:"questions"`
	Answers          []AnswerResponse   `json:"answers"`
	Results          []ResultResponse   `json:"results,omitempty"`
}

// toAttemptResponse hides correct answers until the attempt is submitted.
func toAttemptResponse(s *service.Session, now time.Time) AttemptResponse {
	a := s.Attempt
	resp := AttemptResponse{
		ID:               a.ID,
		TestID:           a.TestID,
		Title:            s.Paper.Title,
		Status:           string(a.Status),
		StartedAt:        a.StartedAt,
		Deadline:         a.Deadline,
		SubmittedAt:      a.SubmittedAt,
		RemainingSeconds: int(a.Remaining(now) / time.Second),
		Questions:        make([]QuestionResponse, len(s.Questions)),
		Answers:          []AnswerResponse{},
	}
	if a.Submitted() {
		resp.RemainingSeconds = 0
	}

	correct := make(map[string]string, len(s.Questions))
	for i, q := range s.Questions {
		if a.Submitted() {
			resp.Questions[i] = toQuestionResponse(q)
		} else {
			resp.Questions[i] = hiddenQuestion(q)
		}
		correct[q.ID] = q.CorrectOption
	}

	for _, qid := range a.QuestionIDs {
		if ans, ok := a.Answers[qid]; ok {
			resp.Answers = append(resp.Answers, AnswerResponse{
				QuestionID: qid,
				Chosen:     ans.Chosen,
				TimeTaken:  ans.TimeTaken,
			})
		}
	}

	for _, res := range a.Results {
		tags := res.Tags
		if tags == nil {
			tags = []string{}
		}
		resp.Results = append(resp.Results, ResultResponse{
			QuestionID:    res.QuestionID,
			Chosen:        res.Chosen,
			CorrectOption: correct[res.QuestionID],
			IsCorrect:     res.IsCorrect,
			TimeTaken:     res.TimeTaken,
			Tags:          tags,
		})
	}
	return resp
}

// ── Handlers ────────────────────────────────────────────────────────────────

// startAttempt starts (or resumes) the user's attempt at a test.
// @Summary      Start a test
// @Description  Resumes the open attempt if one is still on the clock. Questions are served without answers.
// @Tags         Attempts
// @Produce      json
// @Security     BearerAuth
// @Param        testID  path      string  true  "Test ID"
// @Success      201     {object}  AttemptResponse
// @Failure      403     {object}  ErrorResponse  "cycle locked"
// @Failure      404     {object}  ErrorResponse
// @Router       /tests/{testID}/attempts [post]
func (h *Handler) startAttempt(w http.ResponseWriter, r *http.Request) {
	sess, err := h.attempts.Start(r.Context(), currentUser(r).ID, r.PathValue("testID"))
	if h.handleError(w, err, "test") {
		return
	}
	respondJSON(w, http.StatusCreated, toAttemptResponse(sess, time.Now()))
}

// getAttempt returns an attempt with its questions and answers.
// @Summary      Get an attempt
// @Tags         Attempts
// @Produce      json
// @Security     BearerAuth
// @Param        attemptID  path      string  true  "Attempt ID"
// @Success      200        {object}  AttemptResponse
// @Failure      404        {object}  ErrorResponse
// @Router       /attempts/{attemptID} [get]
func (h *Handler) getAttempt(w http.ResponseWriter, r *http.Request) {
	sess, err := h.attempts.Get(r.Context(), currentUser(r).ID, r.PathValue("attemptID"))
	if h.handleError(w, err, "attempt") {
		return
	}
	respondJSON(w, http.StatusOK, toAttemptResponse(sess, time.Now()))
}

// answerQuestion records an answer. A null chosen clears it.
// @Summary      Answer a question
// @Tags         Attempts
// @Accept       json
// @Security     BearerAuth
// @Param        attemptID  path  string         true  "Attempt ID"
// @Param        body       body  AnswerRequest  true  "Answer"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse  "submitted or time over"
// @Router       /attempts/{attemptID}/answers [put]
func (h *Handler) answerQuestion(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	err := h.attempts.Answer(r.Context(), currentUser(r).ID, r.PathValue("attemptID"), req.QuestionID, req.Chosen, req.TimeTaken)
	if h.handleError(w, err, "attempt") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submitAttempt grades the attempt.
// @Summary      Submit an attempt
// @Tags         Attempts
// @Produce      json
// @Security     BearerAuth
// @Param        attemptID  path      string  true  "Attempt ID"
// @Success      200        {object}  analytics.Report
// @Failure      409        {object}  ErrorResponse  "already submitted"
// @Router       /attempts/{attemptID}/submit [post]
func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	report, err := h.attempts.Submit(r.Context(), currentUser(r).ID, r.PathValue("attemptID"))
	if h.handleError(w, err, "attempt") {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// getReport returns the analytics report of a submitted attempt.
// @Summary      Attempt report
// @Tags         Attempts
// @Produce      json
// @Security     BearerAuth
// @Param        attemptID  path      string  true  "Attempt ID"
// @Success      200        {object}  analytics.Report
// @Failure      409        {object}  ErrorResponse  "not submitted yet"
// @Router       /attempts/{attemptID}/report [get]
func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.attempts.Report(r.Context(), currentUser(r).ID, r.PathValue("attemptID"))
	if h.handleError(w, err, "attempt") {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// addTag tags an incorrect answer with a mistake category.
// @Summary      Tag a mistake
// @Tags         Attempts
// @Accept       json
// @Security     BearerAuth
// @Param        attemptID  path  string      true  "Attempt ID"
// @Param        body       body  TagRequest  true  "Tag"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Router       /attempts/{attemptID}/tags [post]
func (h *Handler) addTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	err := h.attempts.Tag(r.Context(), currentUser(r).ID, r.PathValue("attemptID"), req.QuestionID, req.Tag)
	if h.handleError(w, err, "attempt") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// removeTag removes a mistake tag.
// @Summary      Remove a mistake tag
// @Tags         Attempts
// @Accept       json
// @Security     BearerAuth
// @Param        attemptID  path  string      true  "Attempt ID"
// @Param        body       body  TagRequest  true  "Tag"
// @Success      204
// @Router       /attempts/{attemptID}/tags [delete]
func (h *Handler) removeTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	err := h.attempts.Untag(r.Context(), currentUser(r).ID, r.PathValue("attemptID"), req.QuestionID, req.Tag)
	if h.handleError(w, err, "attempt") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TagsResponse lists the mistake tags a result can carry.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// GET /tags
func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, TagsResponse{Tags: attempt.AllowedTags})
}

// dashboard summarises all submitted attempts.
// @Summary      Dashboard
// @Tags         Attempts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.Dashboard
// @Router       /dashboard [get]
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.attempts.Dashboard(r.Context(), currentUser(r).ID)
	if h.handleError(w, err, "dashboard") {
		return
	}
	respondJSON(w, http.StatusOK, d)
}
