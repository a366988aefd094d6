package tasks

import "context"

// Repository is the persistence boundary for tasks. Every call is scoped to
// the owning user id; a task is invisible to any other owner.
//
// List returns newest first. Get and Update return ErrNotFound for a missing
// task; Delete of a missing task is not an error.
type Repository interface {
	List(ctx context.Context, ownerID string) ([]Task, error)
	Get(ctx context.Context, ownerID, id string) (Task, error)
	Insert(ctx context.Context, t Task) error
	Update(ctx context.Context, t Task) error
	Delete(ctx context.Context, ownerID, id string) error

	// UpdatePriorities writes only the priority column for every entry, all
	// or nothing. Ids that do not exist for the owner are skipped.
	UpdatePriorities(ctx context.Context, ownerID string, updates []PriorityUpdate) error

	GetDailyPlan(ctx context.Context, ownerID string) (string, error)
	SaveDailyPlan(ctx context.Context, ownerID, plan string) error
}
