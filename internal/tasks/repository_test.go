package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"udo-backend/internal/db"
)

// runRepositoryContract exercises the behaviour every Repository must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	seed := func(t *testing.T, repo Repository, ownerID string, titles ...string) []Task {
		t.Helper()
		var out []Task
		for i, title := range titles {
			task := Task{
				ID:            uuid.NewString(),
				OwnerID:       ownerID,
				Title:         title,
				OriginalTitle: title,
				Status:        StatusTodo,
				Priority:      DefaultPriority,
				ChatHistory:   []ChatMessage{},
				CreatedAt:     base.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, repo.Insert(ctx, task))
			out = append(out, task)
		}
		return out
	}

	t.Run("list is newest first and scoped by owner", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo, "alice", "first", "second", "third")
		seed(t, repo, "bob", "other")

		got, err := repo.List(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"third", "second", "first"}, titles(got))
	})

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "alice", uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update round trips mutable fields", func(t *testing.T) {
		repo := newRepo(t)
		task := seed(t, repo, "alice", "draft")[0]

		done := base.Add(time.Hour)
		task.Title = "final"
		task.Status = StatusDone
		task.CompletedAt = &done
		task.Notes = "shipped"
		task.ExecutionPlan = "<h4>Plan</h4>"
		task.ChatHistory = []ChatMessage{{ID: "m1", Role: RoleUser, Content: "hi", Timestamp: base}}
		require.NoError(t, repo.Update(ctx, task))

		got, err := repo.Get(ctx, "alice", task.ID)
		require.NoError(t, err)
		assert.Equal(t, "final", got.Title)
		assert.Equal(t, "draft", got.OriginalTitle)
		assert.Equal(t, StatusDone, got.Status)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, done.Equal(*got.CompletedAt))
		assert.Equal(t, "shipped", got.Notes)
		assert.Equal(t, "<h4>Plan</h4>", got.ExecutionPlan)
		require.Len(t, got.ChatHistory, 1)
		assert.Equal(t, "hi", got.ChatHistory[0].Content)
	})

	t.Run("update missing", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Update(ctx, Task{ID: uuid.NewString(), OwnerID: "alice", Title: "x", Status: StatusTodo})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		task := seed(t, repo, "alice", "x")[0]

		require.NoError(t, repo.Delete(ctx, "alice", task.ID))
		require.NoError(t, repo.Delete(ctx, "alice", task.ID))

		got, err := repo.List(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("update priorities touches only priority", func(t *testing.T) {
		repo := newRepo(t)
		ts := seed(t, repo, "alice", "a", "b")

		err := repo.UpdatePriorities(ctx, "alice", []PriorityUpdate{
			{ID: ts[0].ID, Priority: 90},
			{ID: ts[1].ID, Priority: 20},
			{ID: uuid.NewString(), Priority: 70},
		})
		require.NoError(t, err)

		a, err := repo.Get(ctx, "alice", ts[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 90, a.Priority)
		assert.Equal(t, "a", a.Title)

		b, err := repo.Get(ctx, "alice", ts[1].ID)
		require.NoError(t, err)
		assert.Equal(t, 20, b.Priority)
	})

	t.Run("insert keeps an explicit zero priority", func(t *testing.T) {
		repo := newRepo(t)
		task := Task{
			ID:            uuid.NewString(),
			OwnerID:       "alice",
			Title:         "someday",
			OriginalTitle: "someday",
			Status:        StatusTodo,
			Priority:      0,
			CreatedAt:     base,
		}
		require.NoError(t, repo.Insert(ctx, task))

		got, err := repo.Get(ctx, "alice", task.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Priority)
		assert.Equal(t, StatusTodo, got.Status)
	})

	t.Run("priorities beyond 32 bits are stored", func(t *testing.T) {
		repo := newRepo(t)
		task := seed(t, repo, "alice", "urgent")[0]

		huge := 1 << 40
		require.NoError(t, repo.UpdatePriorities(ctx, "alice", []PriorityUpdate{{ID: task.ID, Priority: huge}}))

		got, err := repo.Get(ctx, "alice", task.ID)
		require.NoError(t, err)
		assert.Equal(t, huge, got.Priority)
	})

	t.Run("daily plan upsert", func(t *testing.T) {
		repo := newRepo(t)

		plan, err := repo.GetDailyPlan(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, plan)

		require.NoError(t, repo.SaveDailyPlan(ctx, "alice", "one"))
		require.NoError(t, repo.SaveDailyPlan(ctx, "alice", "two"))

		plan, err = repo.GetDailyPlan(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "two", plan)
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository {
		return NewMemoryRepository()
	})
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	task := Task{ID: "a", OwnerID: "alice", Title: "x", Status: StatusTodo, ChatHistory: []ChatMessage{}}
	require.NoError(t, repo.Insert(ctx, task))

	got, err := repo.Get(ctx, "alice", "a")
	require.NoError(t, err)
	got.ChatHistory = append(got.ChatHistory, ChatMessage{ID: "m"})
	got.Title = "mutated"

	again, err := repo.Get(ctx, "alice", "a")
	require.NoError(t, err)
	assert.Equal(t, "x", again.Title)
	assert.Empty(t, again.ChatHistory)
}

func newSQLiteRepo(t *testing.T) Repository {
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "udo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.CloseSQLite(gdb) })

	repo, err := NewSQLiteRepository(gdb)
	require.NoError(t, err)
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	runRepositoryContract(t, newSQLiteRepo)
}

func TestStoreCreateZeroPriorityMatchesAcrossBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) Repository{
		"memory": func(*testing.T) Repository { return NewMemoryRepository() },
		"sqlite": newSQLiteRepo,
	}
	for name, newRepo := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := NewStore(newRepo(t))

			created, err := s.Create(ctx, "u", Draft{Title: "low", Priority: ptr(0)})
			require.NoError(t, err)
			assert.Equal(t, 0, created.Priority)

			stored, err := s.Get(ctx, "u", created.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, stored.Priority)
		})
	}
}

// TestPostgresRepository runs against a live database when
// UDO_TEST_POSTGRES_DSN is set.
func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("UDO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("UDO_TEST_POSTGRES_DSN not set")
	}

	runRepositoryContract(t, func(t *testing.T) Repository {
		sqlDB, err := db.Connect(dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = sqlDB.Close() })

		repo := NewPostgresRepository(sqlDB)
		require.NoError(t, repo.EnsureSchema(context.Background()))

		_, err = sqlDB.Exec(`TRUNCATE tasks, daily_plans`)
		require.NoError(t, err)
		return repo
	})
}
