package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"udo-backend/internal/auth"
	"udo-backend/internal/orchestrator"
	"udo-backend/internal/tasks"
)

// ----------------------
//      TASK CRUD
// ----------------------

func listTasks(store *tasks.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := ownerID(r)

		all, err := store.List(r.Context(), uid)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if all == nil {
			all = []tasks.Task{}
		}
		writeJSON(w, http.StatusOK, all)
	}
}

func createTask(orch *orchestrator.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			tasks.Draft
			Sanitize bool `json:"sanitize"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid json")
			return
		}

		t, err := orch.CreateTask(r.Context(), ownerID(r), body.Draft, body.Sanitize)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func getTask(store *tasks.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.Get(r.Context(), ownerID(r), r.PathValue("id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func patchTask(store *tasks.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p tasks.Patch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid json")
			return
		}

		t, err := store.Update(r.Context(), ownerID(r), r.PathValue("id"), p)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func deleteTask(store *tasks.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), ownerID(r), r.PathValue("id")); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func cycleTask(store *tasks.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.CycleStatus(r.Context(), ownerID(r), r.PathValue("id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// ----------------------
//     AI-BACKED FLOWS
// ----------------------

func askTutor(orch *orchestrator.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid json")
			return
		}

		msg, err := orch.AskTutor(r.Context(), ownerID(r), r.PathValue("id"), body.Question)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

func generatePlan(orch *orchestrator.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := orch.GenerateExecutionPlan(r.Context(), ownerID(r), r.PathValue("id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func prioritize(orch *orchestrator.Orchestrator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ranked, err := orch.Reprioritize(r.Context(), ownerID(r))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ranked)
	}
}

func ownerID(r *http.Request) string {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}
