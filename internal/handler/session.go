package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/pairmatch/compat-server-go/internal/errors"
	"github.com/pairmatch/compat-server-go/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
	statusService  *service.StatusService
	resultService  *service.ResultService
}

func NewSessionHandler(
	sessionService *service.SessionService,
	statusService *service.StatusService,
	resultService *service.ResultService,
) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		statusService:  statusService,
		resultService:  resultService,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/create", h.Create)
	r.Post("/join", h.Join)
	r.Get("/{sessionCode}/status", h.Status)
	r.Get("/{sessionCode}/result", h.Result)

	return r
}

type createSessionRequest struct {
	Name string `json:"name"`
}

// POST /api/session/create
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.Name == "" {
		writeError(w, apperrors.MissingRequired("name"))
		return
	}

	result, err := h.sessionService.Create(r.Context(), req.Name)
	if err != nil {
		log.Error().Err(err).Msg("failed to create session")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type joinSessionRequest struct {
	SessionCode string `json:"session_code"`
	Name        string `json:"name"`
}

// POST /api/session/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.SessionCode == "" {
		writeError(w, apperrors.MissingRequired("session_code"))
		return
	}
	if req.Name == "" {
		writeError(w, apperrors.MissingRequired("name"))
		return
	}

	result, err := h.sessionService.Join(r.Context(), req.SessionCode, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /api/session/{sessionCode}/status
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "sessionCode")

	snapshot, err := h.statusService.GetStatus(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// GET /api/session/{sessionCode}/result
func (h *SessionHandler) Result(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "sessionCode")

	result, err := h.resultService.GetResult(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
