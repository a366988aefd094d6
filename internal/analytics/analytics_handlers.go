package analytics

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Client-reported events accepted by EventsHandler, with the properties each
// one may carry.
var clientEvents = map[string][]string{
	"app_opened":         {"cold_start", "from"},
	"focus_task_shown":   {"task_id", "priority_tier", "source"},
	"focus_task_changed": {"from_task_id", "to_task_id", "reason"},
}

// EventsHandler records a client-reported event. ownerID resolves the
// authenticated user from the request.
func EventsHandler(sink Sink, logger *zap.Logger, ownerID func(*http.Request) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := ownerID(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Event      string         `json:"event"`
			Properties map[string]any `json:"properties"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		allowed, known := clientEvents[body.Event]
		if !known {
			http.Error(w, "unknown event", http.StatusBadRequest)
			return
		}

		props := make(map[string]any, len(allowed))
		for _, k := range allowed {
			if v, ok := body.Properties[k]; ok {
				props[k] = v
			}
		}

		ctx := WithEnvelope(r.Context(), FromRequest(r))
		if err := sink.Log(ctx, Event{Name: body.Event, OwnerID: uid, Props: props}); err != nil {
			logger.Warn("failed to record analytics event", zap.String("event", body.Event), zap.Error(err))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
