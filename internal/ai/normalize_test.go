package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var twoRefs = []TaskRef{{ID: "a", Title: "fix bug"}, {ID: "b", Title: "write report"}}

func TestParsePrioritiesMapsIndexesToIDs(t *testing.T) {
	scores, err := ParsePriorities(`[{"index":1,"score":85},{"index":2,"score":42}]`, twoRefs)
	require.NoError(t, err)
	assert.Equal(t, []Score{{ID: "a", Score: 85}, {ID: "b", Score: 42}}, scores)
}

func TestParsePrioritiesIgnoresSurroundingProse(t *testing.T) {
	reply := "Sure! Here are the scores:\n```json\n[{\"index\": 2, \"score\": 90}, {\"index\": 1, \"score\": 10}]\n```\nLet me know [if] anything else."
	// the last ']' belongs to the prose, so the slice is not valid JSON
	_, err := ParsePriorities(reply, twoRefs)
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))

	reply = "Sure! Here are the scores:\n[{\"index\": 2, \"score\": 90}, {\"index\": 1, \"score\": 10}]\nDone."
	scores, err := ParsePriorities(reply, twoRefs)
	require.NoError(t, err)
	assert.Equal(t, []Score{{ID: "b", Score: 90}, {ID: "a", Score: 10}}, scores)
}

func TestParsePrioritiesDropsOutOfRangeIndexes(t *testing.T) {
	scores, err := ParsePriorities(`[{"index":0,"score":99},{"index":2,"score":70},{"index":3,"score":60}]`, twoRefs)
	require.NoError(t, err)
	assert.Equal(t, []Score{{ID: "b", Score: 70}}, scores)
}

func TestParsePrioritiesTruncatesAndDoesNotClamp(t *testing.T) {
	scores, err := ParsePriorities(`[{"index":1,"score":72.9},{"index":2,"score":140}]`, twoRefs)
	require.NoError(t, err)
	assert.Equal(t, []Score{{ID: "a", Score: 72}, {ID: "b", Score: 140}}, scores)
}

func TestParsePrioritiesSkipsIncompleteEntries(t *testing.T) {
	scores, err := ParsePriorities(`[{"index":1},{"score":20},{"index":2,"score":20}]`, twoRefs)
	require.NoError(t, err)
	assert.Equal(t, []Score{{ID: "b", Score: 20}}, scores)
}

func TestParsePrioritiesFailures(t *testing.T) {
	for name, reply := range map[string]string{
		"no array":      "I think fix bug matters most.",
		"empty":         "",
		"reversed":      "] then [",
		"not objects":   `[1, 2, 3]`,
		"broken json":   `[{"index": 1, "score": }]`,
		"string scores": `[{"index": "1", "score": "high"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePriorities(reply, twoRefs)
			var perr *ParseError
			require.Error(t, err)
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestNormalizePrioritiesFallsBackToDefaults(t *testing.T) {
	scores := NormalizePriorities("no idea, sorry", twoRefs)
	assert.Equal(t, []Score{{ID: "a", Score: 50}, {ID: "b", Score: 50}}, scores)
}

func TestNormalizePrioritiesKeepsValidEntries(t *testing.T) {
	scores := NormalizePriorities(`[{"index":1,"score":85},{"index":7,"score":1}]`, twoRefs)
	assert.Equal(t, []Score{{ID: "a", Score: 85}}, scores)
}

func TestDefaultScoresEmpty(t *testing.T) {
	assert.Empty(t, DefaultScores(nil))
}
