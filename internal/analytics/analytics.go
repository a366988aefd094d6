package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ctxKey string

const envelopeKey ctxKey = "analytics_envelope"

// Event names.
const (
	EventTaskCreated            = "task_created"
	EventTasksReprioritized     = "tasks_reprioritized"
	EventExecutionPlanGenerated = "execution_plan_generated"
	EventDailyPlanGenerated     = "daily_plan_generated"
	EventTutorTurn              = "tutor_turn"
)

// Envelope is what we store with every event.
type Envelope struct {
	SessionID      string
	Platform       string
	AppVersion     string
	DeviceLocale   string
	SourceEventKey string
}

// FromRequest extracts envelope fields from request headers.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "ios", "android", "web", "cli":
	default:
		platform = "unknown"
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	// Idempotency-Key wins over the legacy header
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		key = strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
	}

	return Envelope{
		SessionID:      strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:       platform,
		AppVersion:     strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale:   locale,
		SourceEventKey: key,
	}
}

func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, envelopeKey, env)
}

func EnvelopeFromContext(ctx context.Context) Envelope {
	env, _ := ctx.Value(envelopeKey).(Envelope)
	if env.Platform == "" {
		env.Platform = "unknown"
	}
	return env
}

// Event is one analytics record. Props must not carry raw task text.
type Event struct {
	Name    string
	OwnerID string
	Props   map[string]any
}

// Sink records events. Implementations must not fail the calling flow for a
// lost event; the returned error is for logging only.
type Sink interface {
	Log(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Log(context.Context, Event) error { return nil }

// LogSink writes events to a zap logger.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Log(ctx context.Context, e Event) error {
	if e.Name == "" || s.Logger == nil {
		return nil
	}
	env := EnvelopeFromContext(ctx)
	s.Logger.Info("analytics event",
		zap.String("event", e.Name),
		zap.String("user_id", e.OwnerID),
		zap.String("platform", env.Platform),
		zap.String("session_id", env.SessionID),
		zap.Any("props", e.Props),
	)
	return nil
}

// PostgresSink inserts events into analytics_events.
type PostgresSink struct {
	DB  *sql.DB
	now func() time.Time
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{DB: db, now: time.Now}
}

func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analytics_events (
			id               BIGSERIAL PRIMARY KEY,
			event_name       TEXT NOT NULL,
			event_time       TIMESTAMPTZ NOT NULL,
			user_id          TEXT NOT NULL,
			session_id       TEXT,
			platform         TEXT NOT NULL,
			app_version      TEXT NOT NULL DEFAULT '',
			device_locale    TEXT,
			source_event_key TEXT UNIQUE,
			properties       JSONB NOT NULL DEFAULT '{}'::jsonb
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure analytics schema: %w", err)
	}
	return nil
}

// Log inserts one event. A duplicate source_event_key is ignored.
func (s *PostgresSink) Log(ctx context.Context, e Event) error {
	if e.Name == "" || e.OwnerID == "" {
		return nil
	}

	props := e.Props
	if props == nil {
		props = map[string]any{}
	}
	b, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encode event properties: %w", err)
	}

	env := EnvelopeFromContext(ctx)

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO analytics_events (
			event_name, event_time,
			user_id, session_id,
			platform, app_version, device_locale,
			source_event_key,
			properties
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
		ON CONFLICT (source_event_key) DO NOTHING
	`, e.Name, s.now().UTC(),
		e.OwnerID, nullIfEmpty(env.SessionID),
		env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale),
		nullIfEmpty(env.SourceEventKey),
		string(b),
	)
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
