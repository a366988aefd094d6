package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultScore is assigned to every task when a prioritize reply is unusable.
const DefaultScore = 50

// Score is a priority for one task id. Scores are not clamped to [0,100].
type Score struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// ParseError reports a prioritize reply that could not be decoded. It never
// leaves NormalizePriorities.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse priorities: %s: %v", e.Reason, e.Err)
	}
	return "parse priorities: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

type rawScore struct {
	Index *float64 `json:"index"`
	Score *float64 `json:"score"`
}

// ParsePriorities extracts the text between the first '[' and the last ']'
// and decodes it as [{"index": n, "score": s}]. index is 1-based into refs;
// entries outside 1..len(refs) are dropped. Fractional values are truncated.
func ParsePriorities(text string, refs []TaskRef) ([]Score, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, &ParseError{Reason: "no JSON array in reply"}
	}

	var raw []rawScore
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, &ParseError{Reason: "invalid JSON array", Err: err}
	}

	scores := make([]Score, 0, len(raw))
	for _, r := range raw {
		if r.Index == nil || r.Score == nil {
			continue
		}
		idx := int(*r.Index)
		if idx < 1 || idx > len(refs) {
			continue
		}
		scores = append(scores, Score{ID: refs[idx-1].ID, Score: int(*r.Score)})
	}
	return scores, nil
}

// NormalizePriorities never fails: an undecodable reply yields DefaultScores.
func NormalizePriorities(text string, refs []TaskRef) []Score {
	scores, err := ParsePriorities(text, refs)
	if err != nil {
		return DefaultScores(refs)
	}
	return scores
}

// DefaultScores gives every ref DefaultScore, in order.
func DefaultScores(refs []TaskRef) []Score {
	scores := make([]Score, len(refs))
	for i, r := range refs {
		scores[i] = Score{ID: r.ID, Score: DefaultScore}
	}
	return scores
}
