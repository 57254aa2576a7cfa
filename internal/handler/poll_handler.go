package handler

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"livepoll/internal/domain"
	"livepoll/internal/service/poll"
	"livepoll/pkg/errors"
)

const maxRequestBody = 16 * 1024

// PollHandler exposes session status, history and presenter actions over HTTP
type PollHandler struct {
	coord  *poll.Coordinator
	logger *zap.Logger
}

func NewPollHandler(coord *poll.Coordinator, logger *zap.Logger) *PollHandler {
	return &PollHandler{coord: coord, logger: logger}
}

// HistoryResponse is the body of GET /api/poll/history
type HistoryResponse struct {
	Entries []domain.HistoryEntry `json:"entries"`
}

// GetStatus handles GET /api/poll/status
func (h *PollHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, h.coord.Status())
}

// GetHistory handles GET /api/poll/history
func (h *PollHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	resp := HistoryResponse{Entries: h.coord.History()}

	etag := generateETag(resp)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	respondJSON(w, http.StatusOK, resp)
}

// AskQuestion handles POST /api/poll/questions
func (h *PollHandler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	var req domain.AskQuestionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		respondError(w, r, errors.NewValidationError("Invalid request body", nil), h.logger)
		return
	}

	q, err := h.coord.AskQuestion(req.Text, req.Options, req.TimeLimitSeconds)
	if err != nil {
		respondError(w, r, errors.FromPollError(err), h.logger)
		return
	}
	respondJSON(w, http.StatusCreated, q)
}

// EndQuestion handles POST /api/poll/end
func (h *PollHandler) EndQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.EndQuestion(); err != nil {
		respondError(w, r, errors.FromPollError(err), h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveParticipant handles DELETE /api/poll/participants/{participantId}
func (h *PollHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantId")
	if participantID == "" {
		respondError(w, r, errors.NewValidationError("Participant ID is required", nil), h.logger)
		return
	}

	if err := h.coord.RemoveParticipant(participantID); err != nil {
		respondError(w, r, errors.FromPollError(err), h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func generateETag(data interface{}) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf(`"%x"`, hash)
}
