package analytics

import (
	"math"
	"time"

	"udo-backend/internal/tasks"
)

// HighPriorityThreshold: a pending task scoring above it counts as high priority.
const HighPriorityThreshold = 70

// VelocityDays is the length of the completion history in a Summary.
const VelocityDays = 7

type DayCount struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Day       string `json:"day"`  // Mon, Tue, ...
	Completed int    `json:"completed"`
}

// Summary is the dashboard view over one owner's tasks.
type Summary struct {
	Total          int                  `json:"total"`
	Pending        int                  `json:"pending"`
	Completed      int                  `json:"completed"`
	CompletionRate int                  `json:"completion_rate"` // percent, rounded
	HighPriority   int                  `json:"high_priority"`
	ByStatus       map[tasks.Status]int `json:"by_status"`
	Velocity       []DayCount           `json:"velocity"` // oldest day first, ends today
}

// Summarize computes the KPIs and the completions per calendar day for the
// last VelocityDays days, in now's location.
func Summarize(all []tasks.Task, now time.Time) Summary {
	s := Summary{
		Total: len(all),
		ByStatus: map[tasks.Status]int{
			tasks.StatusTodo:       0,
			tasks.StatusInProgress: 0,
			tasks.StatusDone:       0,
		},
		Velocity: make([]DayCount, VelocityDays),
	}

	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	first := today.AddDate(0, 0, -(VelocityDays - 1))
	for i := range s.Velocity {
		d := first.AddDate(0, 0, i)
		s.Velocity[i] = DayCount{Date: d.Format("2006-01-02"), Day: d.Format("Mon")}
	}

	for _, t := range all {
		s.ByStatus[t.Status]++

		if t.Pending() {
			s.Pending++
			if t.Priority > HighPriorityThreshold {
				s.HighPriority++
			}
			continue
		}
		s.Completed++

		if t.CompletedAt == nil {
			continue
		}
		c := t.CompletedAt.In(loc)
		day := time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, loc)
		if day.Before(first) || day.After(today) {
			continue
		}
		// days are not always 24h long
		for i := range s.Velocity {
			if first.AddDate(0, 0, i).Equal(day) {
				s.Velocity[i].Completed++
				break
			}
		}
	}

	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}

// TierFromScore buckets a priority for display.
func TierFromScore(score int) string {
	switch {
	case score > HighPriorityThreshold:
		return "P1"
	case score >= 40:
		return "P2"
	default:
		return "P3"
	}
}
