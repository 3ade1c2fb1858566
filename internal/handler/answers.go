package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/pairmatch/compat-server-go/internal/errors"
	"github.com/pairmatch/compat-server-go/internal/service"
)

type AnswersHandler struct {
	submissionService *service.SubmissionService
}

func NewAnswersHandler(submissionService *service.SubmissionService) *AnswersHandler {
	return &AnswersHandler{
		submissionService: submissionService,
	}
}

func (h *AnswersHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/submit", h.Submit)

	return r
}

type submitAnswersRequest struct {
	SessionCode string `json:"session_code"`
	PersonID    string `json:"person_id"`
	Answers     []int  `json:"answers"`
}

// POST /api/answers/submit
func (h *AnswersHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.SessionCode == "" {
		writeError(w, apperrors.MissingRequired("session_code"))
		return
	}
	if req.PersonID == "" {
		writeError(w, apperrors.MissingRequired("person_id"))
		return
	}

	if err := h.submissionService.Submit(r.Context(), req.SessionCode, req.PersonID, req.Answers); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Answers submitted successfully",
	})
}
