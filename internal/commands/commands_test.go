package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"udo-backend/internal/ai"
	"udo-backend/internal/analytics"
	"udo-backend/internal/app"
	"udo-backend/internal/auth"
	"udo-backend/internal/config"
	"udo-backend/internal/orchestrator"
	"udo-backend/internal/tasks"
)

type providerFunc func(ctx context.Context, msgs []ai.Message) (string, error)

func (f providerFunc) Complete(ctx context.Context, msgs []ai.Message) (string, error) {
	return f(ctx, msgs)
}

type harness struct {
	t     *testing.T
	app   *app.App
	cfg   *config.Config
	reply string
	calls int
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		t:   t,
		cfg: &config.Config{Storage: config.StorageMemory, AIProvider: config.ProviderOllama, JWTSecret: "test-secret"},
	}

	store := tasks.NewStore(tasks.NewMemoryRepository())
	gw := ai.NewWithProvider("fake", providerFunc(func(context.Context, []ai.Message) (string, error) {
		h.calls++
		return h.reply, nil
	}), zap.NewNop())

	h.app = &app.App{
		Config:       h.cfg,
		Logger:       zap.NewNop(),
		Store:        store,
		Gateway:      gw,
		Events:       analytics.Nop{},
		Orchestrator: orchestrator.New(store, gw, analytics.Nop{}, zap.NewNop()),
	}
	return h
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()

	c := newCLI("test")
	c.cfg = h.cfg
	c.logger = zap.NewNop()
	c.open = func(context.Context) (*app.App, error) { return h.app, nil }

	root := c.root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) only(owner string) tasks.Task {
	h.t.Helper()
	all, err := h.app.Store.List(context.Background(), owner)
	require.NoError(h.t, err)
	require.Len(h.t, all, 1)
	return all[0]
}

func (h *harness) firstID() string {
	h.t.Helper()
	all, err := h.app.Store.List(context.Background(), "local")
	require.NoError(h.t, err)
	require.NotEmpty(h.t, all)
	return all[0].ID
}

func TestAddListDoneRemove(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("add", "write", "the", "report")
	assert.Contains(t, out, "write the report")
	assert.Zero(t, h.calls)

	task := h.only("local")
	prefix := task.ID[:8]

	assert.Contains(t, h.mustRun("ls"), "write the report")

	out = h.mustRun("done", prefix)
	assert.Contains(t, out, "Marked "+prefix+" as done")
	assert.Equal(t, tasks.StatusDone, h.only("local").Status)
	assert.NotContains(t, h.mustRun("ls", "--pending"), "write the report")

	h.mustRun("rm", prefix)
	assert.Contains(t, h.mustRun("ls"), "No tasks yet.")
}

func TestAddWithSanitize(t *testing.T) {
	h := newHarness(t)
	h.reply = "Complete a 30-minute gym session"

	out := h.mustRun("add", "-s", "gym")
	assert.Contains(t, out, "Complete a 30-minute gym session")
	assert.Equal(t, "gym", h.only("local").OriginalTitle)
}

func TestCycle(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "x")
	id := h.only("local").ID

	h.mustRun("cycle", id)
	assert.Equal(t, tasks.StatusInProgress, h.only("local").Status)
}

func TestUserFlagScopesTasks(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "--user", "alice", "alice task")

	assert.Contains(t, h.mustRun("ls"), "No tasks yet.")
	assert.Contains(t, h.mustRun("ls", "-u", "alice"), "alice task")
}

func TestUnknownTaskID(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("done", "nope")
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}

func TestPrioritize(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("prioritize")
	assert.Contains(t, out, "Nothing pending.")
	assert.Zero(t, h.calls)

	h.mustRun("add", "low")
	h.mustRun("add", "high")

	// newest first: 1 = high, 2 = low
	h.reply = `[{"index":1,"score":90},{"index":2,"score":10}]`
	out = h.mustRun("prioritize")
	require.Equal(t, 1, h.calls)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "high")
	assert.Contains(t, lines[1], "low")
}

func TestListByStoredPriority(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "low")
	h.mustRun("add", "high")

	lines := strings.Split(strings.TrimSpace(h.mustRun("ls")), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "high")

	all, err := h.app.Store.List(context.Background(), "local")
	require.NoError(t, err)
	updates := make([]tasks.PriorityUpdate, 0, len(all))
	for _, task := range all {
		score := 10
		if task.Title == "low" {
			score = 95
		}
		updates = append(updates, tasks.PriorityUpdate{ID: task.ID, Priority: score})
	}
	require.NoError(t, h.app.Store.SetPriorities(context.Background(), "local", updates))

	// scores persist, the in-memory view does not
	lines = strings.Split(strings.TrimSpace(h.mustRun("ls")), "\n")
	assert.Contains(t, lines[0], "high")

	lines = strings.Split(strings.TrimSpace(h.mustRun("ls", "--by-priority")), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "low")
	assert.Contains(t, lines[1], "high")
}

func TestPlanAndCached(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "learn go")
	id := h.only("local").ID

	_, err := h.run("plan", "--cached", id)
	assert.Error(t, err)

	h.reply = "<h4>Basics</h4><ul><li>Tour of Go</li></ul>"
	out := h.mustRun("plan", id)
	assert.Contains(t, out, "Basics")
	assert.Contains(t, out, "Tour of Go")

	out = h.mustRun("plan", "--cached", id)
	assert.Contains(t, out, "Tour of Go")
	assert.Equal(t, 1, h.calls)
}

func TestDaily(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("daily")
	assert.Contains(t, out, "Nothing pending")

	h.mustRun("add", "x")
	h.reply = "<p>Start with x</p>"
	assert.Contains(t, h.mustRun("daily"), "Start with x")
	assert.Contains(t, h.mustRun("daily"), "Start with x")
	assert.Equal(t, 1, h.calls)

	h.reply = "<p>Then x again</p>"
	assert.Contains(t, h.mustRun("daily", "--refresh"), "Then x again")
	assert.Equal(t, 2, h.calls)
}

func TestAsk(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "learn go")
	id := h.only("local").ID

	h.reply = "Start with the tour."
	out := h.mustRun("ask", id, "where", "do", "I", "start?")
	assert.Contains(t, out, "Start with the tour.")

	history := h.only("local").ChatHistory
	require.Len(t, history, 2)
	assert.Equal(t, "where do I start?", history[0].Content)
}

func TestAIErrorIsReturned(t *testing.T) {
	h := newHarness(t)
	h.app.Gateway = ai.NewWithProvider("fake", nil, zap.NewNop())
	h.app.Orchestrator = orchestrator.New(h.app.Store, h.app.Gateway, analytics.Nop{}, zap.NewNop())

	h.mustRun("add", "x")
	_, err := h.run("prioritize")
	assert.ErrorIs(t, err, ai.ErrAuth)
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "a")
	h.mustRun("add", "b")
	h.mustRun("done", h.firstID())

	out := h.mustRun("stats")
	assert.Contains(t, out, "pending 1")
	assert.Contains(t, out, "completed 1")
	assert.Contains(t, out, "rate 50%")
}

func TestToken(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("token", "--user", "alice")
	userID, err := auth.ParseToken([]byte("test-secret"), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)

	h.cfg.JWTSecret = ""
	_, err = h.run("token")
	assert.ErrorIs(t, err, errNoSecret)
}
