package handler

import (
	"net/http"

	"github.com/pairmatch/compat-server-go/internal/model"
)

type QuestionsHandler struct{}

func NewQuestionsHandler() *QuestionsHandler {
	return &QuestionsHandler{}
}

// GET /api/questions
func (h *QuestionsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": model.Questions,
	})
}
