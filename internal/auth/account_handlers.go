package auth

import (
	"context"
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// MeHandler echoes the owner id carried by the token.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			writeUnauthorized(w, "missing token")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user_id": uid})
	}
}

func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// tokens are stateless, the client drops its copy
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// DeleteAccountHandler removes everything stored for the caller.
func DeleteAccountHandler(purge func(ctx context.Context, userID string) (int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			writeUnauthorized(w, "missing token")
			return
		}

		n, err := purge(r.Context(), uid)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "delete account failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted_tasks": n})
	}
}
