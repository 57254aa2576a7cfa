package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"livepoll/internal/middleware"
	"livepoll/pkg/errors"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, r *http.Request, appErr *errors.AppError, logger *zap.Logger) {
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(appErr))
	} else {
		logger.Debug("Request rejected", zap.String("path", r.URL.Path), zap.Error(appErr))
	}

	resp := errors.NewErrorResponse(appErr,
		middleware.GetRequestID(r.Context()),
		time.Now().UTC().Format(time.RFC3339))
	respondJSON(w, appErr.StatusCode, resp)
}

// NotFound writes the JSON 404 used for unknown routes
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, errors.NewNotFoundError("The requested resource was not found"), zap.NewNop())
}
