package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"udo-backend/internal/ai"
	"udo-backend/internal/analytics"
	"udo-backend/internal/orchestrator"
	"udo-backend/internal/tasks"
)

// aiProxy forwards one typed request to the gateway and returns its text
// verbatim as {"content": ...}.
func aiProxy(gateway orchestrator.Gateway, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body ai.WireRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid json")
			return
		}

		req, err := body.Request()
		if err != nil {
			writeError(w, logger, err)
			return
		}

		content, err := gateway.Complete(r.Context(), req)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": content})
	}
}

func getDailyPlan(store *tasks.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := store.DailyPlan(r.Context(), ownerID(r))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"plan": plan})
	}
}

func generateDailyPlan(orch *orchestrator.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := orch.GenerateDailyPlan(r.Context(), ownerID(r))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"plan": plan})
	}
}

func stats(store *tasks.Store, logger *zap.Logger, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := store.List(r.Context(), ownerID(r))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, analytics.Summarize(all, now()))
	}
}
