// Package api serves the task API and the AI proxy over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"udo-backend/internal/analytics"
	"udo-backend/internal/auth"
	"udo-backend/internal/orchestrator"
)

// Deps is everything the router needs.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Gateway      orchestrator.Gateway
	Events       analytics.Sink
	Secret       []byte
	Logger       *zap.Logger
	Now          func() time.Time
}

// NewRouter wires every route. All routes except /health require a bearer
// token.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	events := d.Events
	if events == nil {
		events = analytics.Nop{}
	}
	store := d.Orchestrator.Store()
	orch := d.Orchestrator

	mux := http.NewServeMux()

	// Health endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	protected := http.NewServeMux()

	// ----- AI PROXY -----
	protected.Handle("POST /ai", aiProxy(d.Gateway, logger))

	// ----- TASKS API -----
	protected.Handle("GET /tasks", listTasks(store, logger))
	protected.Handle("POST /tasks", createTask(orch, logger))
	protected.Handle("POST /tasks/prioritize", prioritize(orch, logger))
	protected.Handle("GET /tasks/{id}", getTask(store, logger))
	protected.Handle("PATCH /tasks/{id}", patchTask(store, logger))
	protected.Handle("DELETE /tasks/{id}", deleteTask(store, logger))
	protected.Handle("POST /tasks/{id}/cycle", cycleTask(store, logger))
	protected.Handle("POST /tasks/{id}/chat", askTutor(orch, logger))
	protected.Handle("POST /tasks/{id}/plan", generatePlan(orch, logger))

	// ----- PLANS & STATS -----
	protected.Handle("GET /daily-plan", getDailyPlan(store, logger))
	protected.Handle("POST /daily-plan", generateDailyPlan(orch, logger))
	protected.Handle("GET /stats", stats(store, logger, now))
	protected.Handle("GET /me", auth.MeHandler())
	protected.Handle("POST /logout", auth.LogoutHandler())
	protected.Handle("DELETE /account", auth.DeleteAccountHandler(store.Purge))
	protected.Handle("POST /events", analytics.EventsHandler(events, logger, func(r *http.Request) (string, bool) {
		return auth.UserIDFromContext(r.Context())
	}))

	mux.Handle("/", auth.New(d.Secret).Wrap(withEnvelope(protected)))

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type", "Authorization",
			"X-Platform", "X-App-Version", "X-Session-Id", "X-Device-Locale", "Idempotency-Key",
		},
	})

	return c.Handler(logRequests(logger, mux))
}

func withEnvelope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(analytics.WithEnvelope(r.Context(), analytics.FromRequest(r))))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
