package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/attuneai/attune/internal/engine"
	"github.com/attuneai/attune/pkg/types"
)

// maxBodyBytes caps request bodies. Profile imports carry memory summaries
// and get a larger allowance.
const (
	maxBodyBytes       = 64 << 10
	maxImportBodyBytes = 8 << 20
)

// APIHandlers serves the REST surface over the engine.
type APIHandlers struct {
	engine *engine.Engine
}

// NewAPIHandlers creates the handler set.
func NewAPIHandlers(e *engine.Engine) *APIHandlers {
	return &APIHandlers{engine: e}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeEngineError maps engine errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", err.Error())
	case errors.Is(err, engine.ErrInvalidText):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
		return false
	}
	return true
}

type turnRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// PostTurn handles POST /api/turns: one user utterance in, a context bundle
// out.
func (h *APIHandlers) PostTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if !decodeBody(w, r, maxBodyBytes, &req) {
		return
	}

	bundle, err := h.engine.HandleTurn(r.Context(), req.UserID, req.Text)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// PostResponse handles POST /api/responses: records the system's reply in
// the user's short-term buffer.
func (h *APIHandlers) PostResponse(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if !decodeBody(w, r, maxBodyBytes, &req) {
		return
	}

	if err := h.engine.RecordResponse(req.UserID, req.Text); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostEndSession handles POST /api/users/{id}/end-session.
func (h *APIHandlers) PostEndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.EndSession(r.Context(), r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostOnboarding handles POST /api/users/{id}/onboarding.
func (h *APIHandlers) PostOnboarding(w http.ResponseWriter, r *http.Request) {
	var data types.OnboardingData
	if !decodeBody(w, r, maxBodyBytes, &data) {
		return
	}

	if err := h.engine.ProcessOnboarding(r.PathValue("id"), data); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetExport handles GET /api/users/{id}/export.
func (h *APIHandlers) GetExport(w http.ResponseWriter, r *http.Request) {
	export, err := h.engine.ExportProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// PostImport handles POST /api/users/{id}/import.
func (h *APIHandlers) PostImport(w http.ResponseWriter, r *http.Request) {
	var export types.ProfileExport
	if !decodeBody(w, r, maxImportBodyBytes, &export) {
		return
	}

	if err := h.engine.ImportProfile(r.Context(), r.PathValue("id"), export); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser handles DELETE /api/users/{id}: full data erasure.
func (h *APIHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSummary handles GET /api/users/{id}/summary.
func (h *APIHandlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.UserSummary(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetStats handles GET /api/stats.
func (h *APIHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}
