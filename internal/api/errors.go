package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"udo-backend/internal/ai"
	"udo-backend/internal/orchestrator"
	"udo-backend/internal/tasks"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain and AI errors onto HTTP statuses. AI messages are
// relayed as the upstream reported them.
func statusFor(err error) (int, string) {
	var aerr *ai.Error
	if errors.As(err, &aerr) {
		switch {
		case errors.Is(err, ai.ErrAuth):
			return http.StatusUnauthorized, aerr.Error()
		case errors.Is(err, ai.ErrRateLimit):
			return http.StatusTooManyRequests, aerr.Error()
		case errors.Is(err, ai.ErrQuota):
			return http.StatusPaymentRequired, aerr.Error()
		default:
			return http.StatusBadGateway, aerr.Error()
		}
	}

	switch {
	case errors.Is(err, tasks.ErrNotFound):
		return http.StatusNotFound, "task not found"
	case errors.Is(err, tasks.ErrInvalid), errors.Is(err, ai.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, orchestrator.ErrNoPendingTasks):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeMessage(w, status, msg)
}
