package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/neetprep/backend/internal/domain/question"
	"github.com/neetprep/backend/internal/service"
	"github.com/neetprep/backend/internal/store"
)

// maxUploadBytes caps question import uploads.
const maxUploadBytes = 10 << 20

// ── Request / Response types ────────────────────────────────────────────────

type CreateQuestionRequest struct {
	Subject       string   `json:"subject" example:"physics"`
	Chapter       string   `json:"chapter" example:"Ray Optics"`
	Topic         string   `json:"topic" example:"Lens formula"`
	Difficulty    string   `json:"difficulty,omitempty" example:"medium"`
	Text          string   `json:"text" example:"The power of a lens of focal length 50 cm is"`
	Options       []string `json:"options" example:"1 D,2 D,0.5 D,5 D"`
	CorrectOption string   `json:"correct_option" example:"B"`
	IdealTime     int      `json:"ideal_time,omitempty" example:"60"`
	Explanation   string   `json:"explanation,omitempty"`
}

func (r *CreateQuestionRequest) Validate() error {
	if r.Subject == "" {
		return errors.New("subject is required")
	}
	if r.Text == "" {
		return errors.New("text is required")
	}
	if len(r.Options) != len(question.OptionLabels) {
		return errors.New("exactly 4 options are required")
	}
	if r.IdealTime < 0 {
		return errors.New("ideal_time cannot be negative")
	}
	return nil
}

// QuestionResponse is a bank question. CorrectOption and Explanation are
// only filled in for admins.
type QuestionResponse struct {
	ID            string   `json:"id"`
	Subject       string   `json:"subject" example:"physics"`
	Chapter       string   `json:"chapter" example:"Ray Optics"`
	Topic         string   `json:"topic" example:"Lens formula"`
	Difficulty    string   `json:"difficulty" example:"medium"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correct_option,omitempty" example:"B"`
	IdealTime     int      `json:"ideal_time" example:"60"`
	Explanation   string   `json:"explanation,omitempty"`
}

func toQuestionResponse(q *question.Question) QuestionResponse {
	return QuestionResponse{
		ID:            q.ID,
		Subject:       string(q.Subject),
		Chapter:       q.Chapter,
		Topic:         q.Topic,
		Difficulty:    string(q.Difficulty),
		Text:          q.Text,
		Options:       q.Options,
		CorrectOption: q.CorrectOption,
		IdealTime:     q.IdealTime,
		Explanation:   q.Explanation,
	}
}

// hiddenQuestion strips the answer and explanation for an open attempt.
func hiddenQuestion(q *question.Question) QuestionResponse {
	resp := toQuestionResponse(q)
	resp.CorrectOption = ""
	resp.Explanation = ""
	return resp
}

// bankView shows the answer key to admins only.
func bankView(r *http.Request, q *question.Question) QuestionResponse {
	if user := currentUser(r); user != nil && user.Admin {
		return toQuestionResponse(q)
	}
	return hiddenQuestion(q)
}

func questionFilter(r *http.Request) store.QuestionFilter {
	q := r.URL.Query()
	f := store.QuestionFilter{
		Subject:    q.Get("subject"),
		Chapter:    q.Get("chapter"),
		Topic:      q.Get("topic"),
		Difficulty: q.Get("difficulty"),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		f.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		f.Offset = n
	}
	return f
}

// ── Handlers ────────────────────────────────────────────────────────────────

// listQuestions lists the question bank. Answers are hidden unless the
// caller is an admin.
// @Summary      List questions
// @Tags         Questions
// @Produce      json
// @Security     BearerAuth
// @Param        subject     query     string  false  "physics, chemistry or biology"
// @Param        chapter     query     string  false  "Chapter"
// @Param        topic       query     string  false  "Topic"
// @Param        difficulty  query     string  false  "easy, medium or hard"
// @Param        limit       query     int     false  "Page size"
// @Param        offset      query     int     false  "Page offset"
// @Success      200         {array}   QuestionResponse
// @Router       /questions [get]
func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.bank.ListQuestions(r.Context(), questionFilter(r))
	if h.handleError(w, err, "question") {
		return
	}
	resp := make([]QuestionResponse, len(qs))
	for i, q := range qs {
		resp[i] = bankView(r, q)
	}
	respondJSON(w, http.StatusOK, resp)
}

// createQuestion adds one question to the bank.
// @Summary      Create a question
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      CreateQuestionRequest  true  "Question"
// @Success      201   {object}  QuestionResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /questions [post]
func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	q, err := h.bank.CreateQuestion(r.Context(), service.QuestionInput{
		Subject:       req.Subject,
		Chapter:       req.Chapter,
		Topic:         req.Topic,
		Difficulty:    req.Difficulty,
		Text:          req.Text,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		IdealTime:     req.IdealTime,
		Explanation:   req.Explanation,
	})
	if h.handleError(w, err, "question") {
		return
	}
	respondJSON(w, http.StatusCreated, toQuestionResponse(q))
}

// getQuestion returns one question.
// @Summary      Get a question
// @Tags         Questions
// @Produce      json
// @Security     BearerAuth
// @Param        questionID  path      string  true  "Question ID"
// @Success      200         {object}  QuestionResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /questions/{questionID} [get]
func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.bank.GetQuestion(r.Context(), r.PathValue("questionID"))
	if h.handleError(w, err, "question") {
		return
	}
	respondJSON(w, http.StatusOK, bankView(r, q))
}

// DELETE /questions/{questionID} (admin)
func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if h.handleError(w, h.bank.DeleteQuestion(r.Context(), r.PathValue("questionID")), "question") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
