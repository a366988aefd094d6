package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// taskRow is the gorm model behind SQLiteRepository.
type taskRow struct {
	ID            string `gorm:"primaryKey"`
	UserID        string `gorm:"index;not null"`
	Title         string `gorm:"not null"`
	OriginalTitle string `gorm:"not null"`
	Description   string
	Status        string `gorm:"not null"`
	Priority      int    `gorm:"not null"`
	URL           string
	Notes         string
	ExecutionPlan string
	ChatHistory   string // JSON
	Category      string
	CreatedAt     time.Time `gorm:"index"`
	CompletedAt   *time.Time
}

func (taskRow) TableName() string { return "tasks" }

type dailyPlanRow struct {
	UserID    string `gorm:"primaryKey"`
	Plan      string
	UpdatedAt time.Time
}

func (dailyPlanRow) TableName() string { return "daily_plans" }

// SQLiteRepository stores tasks in a local SQLite file through gorm. It backs
// the CLI when no Postgres is configured.
type SQLiteRepository struct {
	DB *gorm.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository runs the auto-migrations and returns the repository.
func NewSQLiteRepository(db *gorm.DB) (*SQLiteRepository, error) {
	if err := db.AutoMigrate(&taskRow{}, &dailyPlanRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLiteRepository{DB: db}, nil
}

func toRow(t Task) (taskRow, error) {
	history, err := encodeHistory(t.ChatHistory)
	if err != nil {
		return taskRow{}, err
	}
	return taskRow{
		ID:            t.ID,
		UserID:        t.OwnerID,
		Title:         t.Title,
		OriginalTitle: t.OriginalTitle,
		Description:   t.Description,
		Status:        string(t.Status),
		Priority:      t.Priority,
		URL:           t.URL,
		Notes:         t.Notes,
		ExecutionPlan: t.ExecutionPlan,
		ChatHistory:   history,
		Category:      t.Category,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
	}, nil
}

func fromRow(r taskRow) (Task, error) {
	t := Task{
		ID:            r.ID,
		OwnerID:       r.UserID,
		Title:         r.Title,
		OriginalTitle: r.OriginalTitle,
		Description:   r.Description,
		Status:        Status(r.Status),
		Priority:      r.Priority,
		URL:           r.URL,
		Notes:         r.Notes,
		ExecutionPlan: r.ExecutionPlan,
		ChatHistory:   []ChatMessage{},
		Category:      r.Category,
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
	}
	if r.ChatHistory != "" {
		if err := json.Unmarshal([]byte(r.ChatHistory), &t.ChatHistory); err != nil {
			return Task{}, fmt.Errorf("decode chat_history for task %s: %w", r.ID, err)
		}
	}
	return t, nil
}

func (r *SQLiteRepository) List(ctx context.Context, ownerID string) ([]Task, error) {
	var rows []taskRow
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]Task, 0, len(rows))
	for _, row := range rows {
		t, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, ownerID, id string) (Task, error) {
	var row taskRow
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND id = ?", ownerID, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, err
	}
	return fromRow(row)
}

func (r *SQLiteRepository) Insert(ctx context.Context, t Task) error {
	row, err := toRow(t)
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Create(&row).Error
}

func (r *SQLiteRepository) Update(ctx context.Context, t Task) error {
	row, err := toRow(t)
	if err != nil {
		return err
	}

	res := r.DB.WithContext(ctx).
		Model(&taskRow{}).
		Where("user_id = ? AND id = ?", t.OwnerID, t.ID).
		Select("title", "description", "status", "priority", "url", "notes",
			"execution_plan", "chat_history", "category", "completed_at").
		Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, ownerID, id string) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND id = ?", ownerID, id).
		Delete(&taskRow{}).Error
}

func (r *SQLiteRepository) UpdatePriorities(ctx context.Context, ownerID string, updates []PriorityUpdate) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			if err := tx.Model(&taskRow{}).
				Where("user_id = ? AND id = ?", ownerID, u.ID).
				Update("priority", u.Priority).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetDailyPlan(ctx context.Context, ownerID string) (string, error) {
	var row dailyPlanRow
	err := r.DB.WithContext(ctx).Where("user_id = ?", ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Plan, nil
}

func (r *SQLiteRepository) SaveDailyPlan(ctx context.Context, ownerID, plan string) error {
	row := dailyPlanRow{UserID: ownerID, Plan: plan, UpdatedAt: time.Now().UTC()}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"plan", "updated_at"}),
	}).Create(&row).Error
}
