package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the single writer for task records. It applies the store-level
// rules (identity, timestamps, the done/completed_at coupling) on top of a
// Repository. Mutations are serialized; the last write wins.
type Store struct {
	repo Repository

	mu    sync.Mutex
	views map[string][]string // owner -> recorded view order

	now   func() time.Time
	newID func() string
}

func NewStore(repo Repository) *Store {
	return &Store{
		repo:  repo,
		views: make(map[string][]string),
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// ----------------------
//        READS
// ----------------------

// List returns the owner's tasks. Without a recorded order this is newest
// first; after Reorder the reordered ids follow any tasks created since.
func (s *Store) List(ctx context.Context, ownerID string) ([]Task, error) {
	all, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	view := s.views[ownerID]
	s.mu.Unlock()

	return arrange(all, view), nil
}

func (s *Store) Get(ctx context.Context, ownerID, id string) (Task, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// Resolve finds a task by full id or by a unique id prefix.
func (s *Store) Resolve(ctx context.Context, ownerID, ref string) (Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Task{}, ErrNotFound
	}

	all, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return Task{}, err
	}

	var match *Task
	for i := range all {
		if all[i].ID == ref {
			return all[i], nil
		}
		if strings.HasPrefix(all[i].ID, ref) {
			if match != nil {
				return Task{}, fmt.Errorf("%w: id prefix %q is ambiguous", ErrInvalid, ref)
			}
			match = &all[i]
		}
	}
	if match == nil {
		return Task{}, ErrNotFound
	}
	return *match, nil
}

// Pending returns every task whose status is not done, in List order.
func (s *Store) Pending(ctx context.Context, ownerID string) ([]Task, error) {
	all, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	pending := make([]Task, 0, len(all))
	for _, t := range all {
		if t.Pending() {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

func (s *Store) Counts(ctx context.Context, ownerID string) (Counts, error) {
	all, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return Counts{}, err
	}
	var c Counts
	for _, t := range all {
		if t.Pending() {
			c.Pending++
		} else {
			c.Done++
		}
	}
	return c, nil
}

func arrange(all []Task, view []string) []Task {
	if len(view) == 0 {
		return all
	}

	pos := make(map[string]int, len(view))
	for i, id := range view {
		pos[id] = i
	}

	out := make([]Task, 0, len(all))
	ordered := make([]Task, len(view))
	present := make([]bool, len(view))
	for _, t := range all {
		if i, ok := pos[t.ID]; ok {
			ordered[i] = t
			present[i] = true
			continue
		}
		out = append(out, t)
	}
	for i, t := range ordered {
		if present[i] {
			out = append(out, t)
		}
	}
	return out
}

// ----------------------
//      MUTATIONS
// ----------------------

func (s *Store) Create(ctx context.Context, ownerID string, d Draft) (Task, error) {
	title := strings.TrimSpace(d.Title)
	if ownerID == "" || title == "" {
		return Task{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}

	original := strings.TrimSpace(d.OriginalTitle)
	if original == "" {
		original = title
	}

	priority := DefaultPriority
	if d.Priority != nil {
		priority = *d.Priority
	}

	t := Task{
		ID:            s.newID(),
		OwnerID:       ownerID,
		Title:         title,
		OriginalTitle: original,
		Description:   d.Description,
		Status:        StatusTodo,
		Priority:      priority,
		URL:           strings.TrimSpace(d.URL),
		Category:      d.Category,
		ChatHistory:   []ChatMessage{},
		CreatedAt:     s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Insert(ctx, t); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Update applies the fields present in p. Moving into done stamps
// CompletedAt; moving out of done clears it.
func (s *Store) Update(ctx context.Context, ownerID, id string, p Patch) (Task, error) {
	return s.mutate(ctx, ownerID, id, func(t *Task) error {
		return s.apply(t, p)
	})
}

// mutate runs read, change and write under one lock.
func (s *Store) mutate(ctx context.Context, ownerID, id string, change func(t *Task) error) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return Task{}, err
	}

	if err := change(&t); err != nil {
		return Task{}, err
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s *Store) apply(t *Task, p Patch) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return fmt.Errorf("%w: title is required", ErrInvalid)
		}
		t.Title = title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		next := *p.Status
		if !next.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalid, next)
		}
		switch {
		case next == StatusDone && t.Status != StatusDone:
			now := s.now().UTC()
			t.CompletedAt = &now
		case next != StatusDone:
			t.CompletedAt = nil
		}
		t.Status = next
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.URL != nil {
		t.URL = strings.TrimSpace(*p.URL)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.ExecutionPlan != nil {
		t.ExecutionPlan = *p.ExecutionPlan
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	return nil
}

// CycleStatus moves the task one step along todo -> in_progress -> done -> todo.
func (s *Store) CycleStatus(ctx context.Context, ownerID, id string) (Task, error) {
	return s.mutate(ctx, ownerID, id, func(t *Task) error {
		next := t.Status.Next()
		return s.apply(t, Patch{Status: &next})
	})
}

// Delete removes the task. Deleting a missing task succeeds.
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	if view := s.views[ownerID]; len(view) > 0 {
		s.views[ownerID] = without(view, id)
	}
	return nil
}

// Purge deletes every task the owner has and clears their daily plan. It
// returns how many tasks were removed.
func (s *Store) Purge(ctx context.Context, ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	for i, t := range all {
		if err := s.repo.Delete(ctx, ownerID, t.ID); err != nil {
			return i, err
		}
	}
	if err := s.repo.SaveDailyPlan(ctx, ownerID, ""); err != nil {
		return len(all), err
	}
	delete(s.views, ownerID)
	return len(all), nil
}

// AppendChatMessage adds one turn to the task's transcript.
func (s *Store) AppendChatMessage(ctx context.Context, ownerID, taskID string, role Role, content string) (ChatMessage, error) {
	if role != RoleUser && role != RoleAssistant {
		return ChatMessage{}, fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.repo.Get(ctx, ownerID, taskID)
	if err != nil {
		return ChatMessage{}, err
	}

	msg := ChatMessage{
		ID:        s.newID(),
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
	}
	t.ChatHistory = append(t.ChatHistory, msg)

	if err := s.repo.Update(ctx, t); err != nil {
		return ChatMessage{}, err
	}
	return msg, nil
}

// SetPriorities writes priority-only updates in one repository call.
func (s *Store) SetPriorities(ctx context.Context, ownerID string, updates []PriorityUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.UpdatePriorities(ctx, ownerID, updates)
}

// Reorder records the viewing order for the given ids.
func (s *Store) Reorder(ownerID string, ids []string) {
	view := make([]string, len(ids))
	copy(view, ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[ownerID] = view
}

func (s *Store) DailyPlan(ctx context.Context, ownerID string) (string, error) {
	return s.repo.GetDailyPlan(ctx, ownerID)
}

func (s *Store) SaveDailyPlan(ctx context.Context, ownerID, plan string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.SaveDailyPlan(ctx, ownerID, plan)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
