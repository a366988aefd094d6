package tasks

import (
	"context"
	"sync"
)

// MemoryRepository keeps tasks in process memory. Tasks are stored in a map
// for lookup and a slice for newest-first iteration.
type MemoryRepository struct {
	mu    sync.Mutex
	tasks map[string]Task
	order []string // newest first
	plans map[string]string
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tasks: make(map[string]Task),
		plans: make(map[string]string),
	}
}

func (r *MemoryRepository) List(_ context.Context, ownerID string) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Task
	for _, id := range r.order {
		t := r.tasks[id]
		if t.OwnerID != ownerID {
			continue
		}
		out = append(out, t.clone())
	}
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, ownerID, id string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return Task{}, ErrNotFound
	}
	return t.clone(), nil
}

func (r *MemoryRepository) Insert(_ context.Context, t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[t.ID]; exists {
		return ErrInvalid
	}
	r.tasks[t.ID] = t.clone()
	r.order = append([]string{t.ID}, r.order...)
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.tasks[t.ID]
	if !ok || cur.OwnerID != t.OwnerID {
		return ErrNotFound
	}
	r.tasks[t.ID] = t.clone()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil
	}
	delete(r.tasks, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) UpdatePriorities(_ context.Context, ownerID string, updates []PriorityUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range updates {
		t, ok := r.tasks[u.ID]
		if !ok || t.OwnerID != ownerID {
			continue
		}
		t.Priority = u.Priority
		r.tasks[u.ID] = t
	}
	return nil
}

func (r *MemoryRepository) GetDailyPlan(_ context.Context, ownerID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plans[ownerID], nil
}

func (r *MemoryRepository) SaveDailyPlan(_ context.Context, ownerID, plan string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[ownerID] = plan
	return nil
}
