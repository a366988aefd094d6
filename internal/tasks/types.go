package tasks

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("task not found")
	ErrInvalid  = errors.New("invalid task")
)

// DefaultPriority is assigned on creation and by the prioritization fallback.
const DefaultPriority = 50

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Next is the status toggle: todo -> in_progress -> done -> todo.
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusTodo
	}
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Task struct {
	ID            string        `json:"id"`
	OwnerID       string        `json:"user_id"`
	Title         string        `json:"title"`
	OriginalTitle string        `json:"original_title"`
	Description   string        `json:"description"`
	Status        Status        `json:"status"`
	Priority      int           `json:"priority"`
	URL           string        `json:"url,omitempty"`
	Notes         string        `json:"notes"`
	ExecutionPlan string        `json:"execution_plan"`
	ChatHistory   []ChatMessage `json:"chat_history"`
	Category      string        `json:"category,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// Pending reports whether the task still needs work.
func (t Task) Pending() bool {
	return t.Status != StatusDone
}

func (t Task) clone() Task {
	if t.ChatHistory != nil {
		h := make([]ChatMessage, len(t.ChatHistory))
		copy(h, t.ChatHistory)
		t.ChatHistory = h
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		t.CompletedAt = &c
	}
	return t
}

// Draft is what a caller submits to create a task. Identity, timestamps and
// the AI-derived fields are assigned by the store.
type Draft struct {
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	Description   string `json:"description"`
	URL           string `json:"url"`
	Category      string `json:"category"`
	Priority      *int   `json:"priority"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Status        *Status `json:"status"`
	Priority      *int    `json:"priority"`
	URL           *string `json:"url"`
	Notes         *string `json:"notes"`
	ExecutionPlan *string `json:"execution_plan"`
	Category      *string `json:"category"`
}

// PriorityUpdate is one entry of a bulk re-scoring.
type PriorityUpdate struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
}

type Counts struct {
	Pending int `json:"pending"`
	Done    int `json:"done"`
}
