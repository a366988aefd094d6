package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireRequestKinds(t *testing.T) {
	req, err := WireRequest{Kind: KindSanitize, Prompt: "gym"}.Request()
	require.NoError(t, err)
	assert.Equal(t, Sanitize{Title: "gym"}, req)

	req, err = WireRequest{Kind: KindPrioritize, Tasks: twoRefs}.Request()
	require.NoError(t, err)
	assert.Equal(t, KindPrioritize, req.Kind())
	assert.Equal(t, twoRefs, req.(Prioritize).Tasks)

	req, err = WireRequest{Kind: KindExecutionPlan, TaskTitle: "launch"}.Request()
	require.NoError(t, err)
	assert.Equal(t, ExecutionPlan{TaskTitle: "launch"}, req)

	req, err = WireRequest{Kind: KindDailyPlan, Tasks: twoRefs}.Request()
	require.NoError(t, err)
	assert.Equal(t, DailyPlan{Titles: []string{"fix bug", "write report"}}, req)

	req, err = WireRequest{Kind: KindTutor, Prompt: "how?", TaskTitle: "sql"}.Request()
	require.NoError(t, err)
	assert.Equal(t, KindTutor, req.Kind())
}

func TestWireRequestRejects(t *testing.T) {
	for name, w := range map[string]WireRequest{
		"unknown kind":       {Kind: "poem"},
		"sanitize no prompt": {Kind: KindSanitize},
		"plan no title":      {Kind: KindExecutionPlan},
		"tutor no question":  {Kind: KindTutor, TaskTitle: "x"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := w.Request()
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestNewTutorCopiesAndCapsHistory(t *testing.T) {
	history := make([]Turn, 8)
	for i := range history {
		history[i] = Turn{Role: RoleUser, Content: string(rune('0' + i))}
	}

	req := NewTutor("t", "q", history).(Tutor)
	require.Len(t, req.History, TutorHistoryLimit)
	assert.Equal(t, "2", req.History[0].Content)

	history[7].Content = "changed"
	assert.Equal(t, "7", req.History[5].Content)
}
