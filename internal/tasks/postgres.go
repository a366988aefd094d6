package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresRepository stores tasks in Postgres. chat_history is a JSONB blob
// and execution_plan plain text, as in the hosted schema.
type PostgresRepository struct {
	DB *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

// EnsureSchema creates the tables if they do not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id             UUID PRIMARY KEY,
			user_id        TEXT NOT NULL,
			title          TEXT NOT NULL,
			original_title TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT 'todo',
			priority       BIGINT NOT NULL DEFAULT 50,
			url            TEXT,
			notes          TEXT NOT NULL DEFAULT '',
			execution_plan TEXT NOT NULL DEFAULT '',
			chat_history   JSONB NOT NULL DEFAULT '[]'::jsonb,
			category       TEXT,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at   TIMESTAMPTZ
		)`,
		// scores are not clamped
		`ALTER TABLE tasks ALTER COLUMN priority TYPE BIGINT`,
		`CREATE INDEX IF NOT EXISTS tasks_user_created_idx ON tasks (user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS daily_plans (
			user_id    TEXT PRIMARY KEY,
			plan       TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const taskColumns = `id, user_id, title, original_title, description, status, priority,
	COALESCE(url,''), notes, execution_plan, chat_history, COALESCE(category,''),
	created_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var (
		t         Task
		history   []byte
		completed sql.NullTime
	)
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.OriginalTitle,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.URL,
		&t.Notes,
		&t.ExecutionPlan,
		&history,
		&t.Category,
		&t.CreatedAt,
		&completed,
	)
	if err != nil {
		return Task{}, err
	}

	t.ChatHistory = []ChatMessage{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &t.ChatHistory); err != nil {
			return Task{}, fmt.Errorf("decode chat_history for task %s: %w", t.ID, err)
		}
	}
	if completed.Valid {
		c := completed.Time
		t.CompletedAt = &c
	}
	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]Task, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var result []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (Task, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1 AND id = $2
	`, ownerID, id)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return Task{}, ErrNotFound
		}
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, t Task) error {
	history, err := encodeHistory(t.ChatHistory)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO tasks (
			id, user_id, title, original_title, description, status, priority,
			url, notes, execution_plan, chat_history, category, created_at, completed_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::jsonb,$12,$13,$14)
	`,
		t.ID,
		t.OwnerID,
		t.Title,
		t.OriginalTitle,
		t.Description,
		string(t.Status),
		t.Priority,
		nullIfEmpty(t.URL),
		t.Notes,
		t.ExecutionPlan,
		history,
		nullIfEmpty(t.Category),
		t.CreatedAt,
		nullTime(t),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns. id, user_id, original_title and
// created_at are never touched.
func (r *PostgresRepository) Update(ctx context.Context, t Task) error {
	history, err := encodeHistory(t.ChatHistory)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE tasks SET
			title = $3,
			description = $4,
			status = $5,
			priority = $6,
			url = $7,
			notes = $8,
			execution_plan = $9,
			chat_history = $10::jsonb,
			category = $11,
			completed_at = $12
		WHERE user_id = $1 AND id = $2
	`,
		t.OwnerID,
		t.ID,
		t.Title,
		t.Description,
		string(t.Status),
		t.Priority,
		nullIfEmpty(t.URL),
		t.Notes,
		t.ExecutionPlan,
		history,
		nullIfEmpty(t.Category),
		nullTime(t),
	)
	if err != nil {
		if isInvalidID(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1 AND id = $2`, ownerID, id)
	if err != nil && !isInvalidID(err) {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePriorities(ctx context.Context, ownerID string, updates []PriorityUpdate) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE tasks SET priority = $1 WHERE user_id = $2 AND id = $3`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.Priority, ownerID, u.ID); err != nil {
			return fmt.Errorf("update priority for %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetDailyPlan(ctx context.Context, ownerID string) (string, error) {
	var plan string
	err := r.DB.QueryRowContext(ctx, `SELECT plan FROM daily_plans WHERE user_id = $1`, ownerID).Scan(&plan)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get daily plan: %w", err)
	}
	return plan, nil
}

func (r *PostgresRepository) SaveDailyPlan(ctx context.Context, ownerID, plan string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO daily_plans (user_id, plan, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			updated_at = now()
	`, ownerID, plan)
	if err != nil {
		return fmt.Errorf("save daily plan: %w", err)
	}
	return nil
}

func encodeHistory(h []ChatMessage) (string, error) {
	if h == nil {
		h = []ChatMessage{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("encode chat_history: %w", err)
	}
	return string(b), nil
}

// isInvalidID reports a malformed uuid literal (invalid_text_representation).
// Ids come from callers, so a malformed one is simply a task that is not there.
func isInvalidID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t Task) sql.NullTime {
	if t.CompletedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t.CompletedAt, Valid: true}
}
