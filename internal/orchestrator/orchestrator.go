// Package orchestrator runs the AI-assisted task flows: reprioritizing the
// pending set, sanitizing new titles, and generating plans and tutor answers.
// Every flow reads a snapshot from the store, makes one gateway call and then
// writes back through the store.
package orchestrator

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"udo-backend/internal/ai"
	"udo-backend/internal/analytics"
	"udo-backend/internal/tasks"
)

// ErrNoPendingTasks is returned by GenerateDailyPlan when nothing is open.
var ErrNoPendingTasks = errors.New("no pending tasks")

// SanitizeWordLimit: titles with fewer words than this are rewritten by the AI.
const SanitizeWordLimit = 5

// Gateway is the AI call the orchestrator depends on.
type Gateway interface {
	Complete(ctx context.Context, req ai.Request) (string, error)
}

type Orchestrator struct {
	store   *tasks.Store
	gateway Gateway
	events  analytics.Sink
	logger  *zap.Logger
}

func New(store *tasks.Store, gateway Gateway, events analytics.Sink, logger *zap.Logger) *Orchestrator {
	if events == nil {
		events = analytics.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{store: store, gateway: gateway, events: events, logger: logger}
}

func (o *Orchestrator) Store() *tasks.Store { return o.store }

// Reprioritize scores the owner's pending tasks and returns them ordered by
// descending priority. A gateway failure leaves the store untouched and is
// returned as is. An unreadable reply resets every pending task to the
// default score.
func (o *Orchestrator) Reprioritize(ctx context.Context, ownerID string) ([]tasks.Task, error) {
	pending, err := o.store.Pending(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return []tasks.Task{}, nil
	}

	refs := make([]ai.TaskRef, len(pending))
	for i, t := range pending {
		refs[i] = ai.TaskRef{ID: t.ID, Title: t.Title}
	}

	reply, err := o.gateway.Complete(ctx, ai.NewPrioritize(refs))
	if err != nil {
		return nil, err
	}

	scores, perr := ai.ParsePriorities(reply, refs)
	if perr != nil {
		o.logger.Warn("unusable prioritize reply, falling back to default scores",
			zap.String("user_id", ownerID),
			zap.Error(perr),
		)
		scores = ai.DefaultScores(refs)
	}

	updates := make([]tasks.PriorityUpdate, len(scores))
	byID := make(map[string]int, len(scores))
	for i, s := range scores {
		updates[i] = tasks.PriorityUpdate{ID: s.ID, Priority: s.Score}
		byID[s.ID] = s.Score
	}
	if err := o.store.SetPriorities(ctx, ownerID, updates); err != nil {
		return nil, err
	}

	ranked := make([]tasks.Task, len(pending))
	copy(ranked, pending)
	for i := range ranked {
		if p, ok := byID[ranked[i].ID]; ok {
			ranked[i].Priority = p
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority > ranked[j].Priority
	})

	ids := make([]string, len(ranked))
	for i, t := range ranked {
		ids[i] = t.ID
	}
	o.store.Reorder(ownerID, ids)

	o.emit(ctx, analytics.Event{
		Name:    analytics.EventTasksReprioritized,
		OwnerID: ownerID,
		Props: map[string]any{
			"count":    len(ranked),
			"scored":   len(scores),
			"fallback": perr != nil,
		},
	})
	return ranked, nil
}

// CreateTask stores a new task. When sanitize is set and the title is short,
// the AI rewrites it first; if that fails the title is kept as typed.
func (o *Orchestrator) CreateTask(ctx context.Context, ownerID string, d tasks.Draft, sanitize bool) (tasks.Task, error) {
	raw := strings.TrimSpace(d.Title)
	if raw == "" {
		return tasks.Task{}, tasks.ErrInvalid
	}
	d.OriginalTitle = raw

	rewritten := false
	if sanitize && len(strings.Fields(raw)) < SanitizeWordLimit {
		text, err := o.gateway.Complete(ctx, ai.NewSanitize(raw))
		switch {
		case err != nil:
			o.logger.Warn("title sanitize failed, keeping original", zap.Error(err))
		case strings.TrimSpace(text) != "":
			d.Title = strings.TrimSpace(text)
			rewritten = true
		}
	}

	t, err := o.store.Create(ctx, ownerID, d)
	if err != nil {
		return tasks.Task{}, err
	}

	o.emit(ctx, analytics.Event{
		Name:    analytics.EventTaskCreated,
		OwnerID: ownerID,
		Props:   map[string]any{"task_id": t.ID, "sanitized": rewritten},
	})
	return t, nil
}

// GenerateExecutionPlan asks for a step-by-step plan and stores it on the task.
func (o *Orchestrator) GenerateExecutionPlan(ctx context.Context, ownerID, taskID string) (tasks.Task, error) {
	t, err := o.store.Get(ctx, ownerID, taskID)
	if err != nil {
		return tasks.Task{}, err
	}

	plan, err := o.gateway.Complete(ctx, ai.NewExecutionPlan(t.Title))
	if err != nil {
		return tasks.Task{}, err
	}

	t, err = o.store.Update(ctx, ownerID, taskID, tasks.Patch{ExecutionPlan: &plan})
	if err != nil {
		return tasks.Task{}, err
	}

	o.emit(ctx, analytics.Event{
		Name:    analytics.EventExecutionPlanGenerated,
		OwnerID: ownerID,
		Props:   map[string]any{"task_id": taskID},
	})
	return t, nil
}

// GenerateDailyPlan builds a plan over the pending titles and saves it.
func (o *Orchestrator) GenerateDailyPlan(ctx context.Context, ownerID string) (string, error) {
	pending, err := o.store.Pending(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if len(pending) == 0 {
		return "", ErrNoPendingTasks
	}

	titles := make([]string, len(pending))
	for i, t := range pending {
		titles[i] = t.Title
	}

	plan, err := o.gateway.Complete(ctx, ai.NewDailyPlan(titles))
	if err != nil {
		return "", err
	}
	if err := o.store.SaveDailyPlan(ctx, ownerID, plan); err != nil {
		return "", err
	}

	o.emit(ctx, analytics.Event{
		Name:    analytics.EventDailyPlanGenerated,
		OwnerID: ownerID,
		Props:   map[string]any{"tasks": len(titles)},
	})
	return plan, nil
}

// AskTutor records the question, asks the AI with the prior transcript and
// records the answer. The question stays recorded when the call fails.
func (o *Orchestrator) AskTutor(ctx context.Context, ownerID, taskID, question string) (tasks.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return tasks.ChatMessage{}, tasks.ErrInvalid
	}

	t, err := o.store.Get(ctx, ownerID, taskID)
	if err != nil {
		return tasks.ChatMessage{}, err
	}

	history := make([]ai.Turn, len(t.ChatHistory))
	for i, m := range t.ChatHistory {
		history[i] = ai.Turn{Role: string(m.Role), Content: m.Content}
	}

	if _, err := o.store.AppendChatMessage(ctx, ownerID, taskID, tasks.RoleUser, question); err != nil {
		return tasks.ChatMessage{}, err
	}

	answer, err := o.gateway.Complete(ctx, ai.NewTutor(t.Title, question, history))
	if err != nil {
		return tasks.ChatMessage{}, err
	}

	msg, err := o.store.AppendChatMessage(ctx, ownerID, taskID, tasks.RoleAssistant, answer)
	if err != nil {
		return tasks.ChatMessage{}, err
	}

	o.emit(ctx, analytics.Event{
		Name:    analytics.EventTutorTurn,
		OwnerID: ownerID,
		Props:   map[string]any{"task_id": taskID, "history_len": len(history)},
	})
	return msg, nil
}

func (o *Orchestrator) emit(ctx context.Context, e analytics.Event) {
	if err := o.events.Log(ctx, e); err != nil {
		o.logger.Warn("failed to record analytics event", zap.String("event", e.Name), zap.Error(err))
	}
}
