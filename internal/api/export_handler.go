package api

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/importer"
)

// importQuestions loads a spreadsheet or CSV upload into the bank.
// @Summary      Import questions
// @Description  Columns: subject, chapter, topic, difficulty, text, options A-D, correct, ideal time, explanation. The first row is a header. Bad rows are reported and skipped.
// @Tags         Questions
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  ".xlsx or .csv file"
// @Success      201   {object}  importer.Result
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /questions/import [post]
func (h *Handler) importQuestions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	format, err := importer.FormatFromPath(header.Filename)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.bank.Import(r.Context(), file, format)
	if err != nil {
		h.logger.Warn("question import failed", zap.String("filename", header.Filename), zap.Error(err))
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

// exportQuestions downloads the (filtered) bank as a spreadsheet that can
// be imported again.
// @Summary      Export questions
// @Tags         Questions
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        subject  query  string  false  "physics, chemistry or biology"
// @Success      200
// @Failure      403   {object}  ErrorResponse
// @Router       /questions/export [get]
func (h *Handler) exportQuestions(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if h.handleError(w, h.bank.Export(r.Context(), &buf, questionFilter(r)), "question") {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=neet-questions.xlsx")
	w.Write(buf.Bytes())
}
