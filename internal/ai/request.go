package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names one of the fixed AI request shapes.
type Kind string

const (
	KindSanitize      Kind = "sanitize"
	KindPrioritize    Kind = "prioritize"
	KindExecutionPlan Kind = "execution-plan"
	KindDailyPlan     Kind = "daily-plan"
	KindTutor         Kind = "tutor"
)

// TutorHistoryLimit is how many prior turns a tutor request carries.
const TutorHistoryLimit = 6

var ErrInvalidRequest = errors.New("invalid ai request")

// Request is one of Sanitize, Prioritize, ExecutionPlan, DailyPlan or Tutor.
// Each kind owns its prompt; the set is closed.
type Request interface {
	Kind() Kind
	messages() []Message
}

// TaskRef is the slice of a task a prioritize request needs.
type TaskRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Turn is one prior tutor exchange line.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Sanitize struct {
	Title string
}

type Prioritize struct {
	Tasks []TaskRef
}

type ExecutionPlan struct {
	TaskTitle string
}

type DailyPlan struct {
	Titles []string
}

type Tutor struct {
	TaskTitle string
	Question  string
	History   []Turn
}

func (Sanitize) Kind() Kind      { return KindSanitize }
func (Prioritize) Kind() Kind    { return KindPrioritize }
func (ExecutionPlan) Kind() Kind { return KindExecutionPlan }
func (DailyPlan) Kind() Kind     { return KindDailyPlan }
func (Tutor) Kind() Kind         { return KindTutor }

func NewSanitize(title string) Request { return Sanitize{Title: title} }

func NewPrioritize(tasks []TaskRef) Request {
	refs := make([]TaskRef, len(tasks))
	copy(refs, tasks)
	return Prioritize{Tasks: refs}
}

func NewExecutionPlan(taskTitle string) Request { return ExecutionPlan{TaskTitle: taskTitle} }

func NewDailyPlan(titles []string) Request {
	ts := make([]string, len(titles))
	copy(ts, titles)
	return DailyPlan{Titles: ts}
}

// NewTutor keeps only the most recent TutorHistoryLimit turns, oldest first.
func NewTutor(taskTitle, question string, history []Turn) Request {
	if len(history) > TutorHistoryLimit {
		history = history[len(history)-TutorHistoryLimit:]
	}
	h := make([]Turn, len(history))
	copy(h, history)
	return Tutor{TaskTitle: taskTitle, Question: question, History: h}
}

// WireRequest is the JSON body accepted by the AI proxy endpoint.
type WireRequest struct {
	Kind        Kind      `json:"kind"`
	Prompt      string    `json:"prompt,omitempty"`
	Tasks       []TaskRef `json:"tasks,omitempty"`
	TaskTitle   string    `json:"taskTitle,omitempty"`
	ChatHistory []Turn    `json:"chatHistory,omitempty"`
}

// Request converts the wire body into a typed request. prompt carries the
// title for sanitize and the question for tutor.
func (w WireRequest) Request() (Request, error) {
	switch w.Kind {
	case KindSanitize:
		if strings.TrimSpace(w.Prompt) == "" {
			return nil, fmt.Errorf("%w: sanitize needs a prompt", ErrInvalidRequest)
		}
		return NewSanitize(w.Prompt), nil
	case KindPrioritize:
		return NewPrioritize(w.Tasks), nil
	case KindExecutionPlan:
		title := w.TaskTitle
		if title == "" {
			title = w.Prompt
		}
		if strings.TrimSpace(title) == "" {
			return nil, fmt.Errorf("%w: execution-plan needs a taskTitle", ErrInvalidRequest)
		}
		return NewExecutionPlan(title), nil
	case KindDailyPlan:
		titles := make([]string, 0, len(w.Tasks))
		for _, t := range w.Tasks {
			titles = append(titles, t.Title)
		}
		return NewDailyPlan(titles), nil
	case KindTutor:
		if strings.TrimSpace(w.Prompt) == "" {
			return nil, fmt.Errorf("%w: tutor needs a prompt", ErrInvalidRequest)
		}
		return NewTutor(w.TaskTitle, w.Prompt, w.ChatHistory), nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, w.Kind)
	}
}
