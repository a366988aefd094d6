package ai

import (
	"fmt"
	"strconv"
	"strings"
)

// Message roles sent upstream.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one provider-neutral chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (r Sanitize) messages() []Message {
	return []Message{
		{Role: RoleSystem, Content: sanitizeSystemPrompt},
		{Role: RoleUser, Content: fmt.Sprintf("Rewrite this task into a specific, actionable goal: %q", r.Title)},
	}
}

func (r Prioritize) messages() []Message {
	return []Message{
		{Role: RoleSystem, Content: prioritizeSystemPrompt},
		{Role: RoleUser, Content: BuildPrioritizePrompt(r.Tasks)},
	}
}

func (r ExecutionPlan) messages() []Message {
	return []Message{
		{Role: RoleSystem, Content: executionPlanSystemPrompt},
		{Role: RoleUser, Content: fmt.Sprintf("Create a detailed step-by-step execution plan for this task: %q", r.TaskTitle)},
	}
}

func (r DailyPlan) messages() []Message {
	var b strings.Builder
	b.WriteString("Create a daily learning/preparation plan for these tasks:\n")
	for _, t := range r.Titles {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	return []Message{
		{Role: RoleSystem, Content: dailyPlanSystemPrompt},
		{Role: RoleUser, Content: b.String()},
	}
}

func (r Tutor) messages() []Message {
	msgs := make([]Message, 0, len(r.History)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: fmt.Sprintf(tutorSystemPrompt, r.TaskTitle)})
	for _, turn := range r.History {
		role := RoleUser
		if turn.Role == RoleAssistant {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: turn.Content})
	}
	return append(msgs, Message{Role: RoleUser, Content: r.Question})
}

// BuildPrioritizePrompt numbers the titles from 1 in the given order.
func BuildPrioritizePrompt(tasks []TaskRef) string {
	var b strings.Builder

	b.WriteString("Tasks:\n")
	for i, t := range tasks {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(t.Title)
		b.WriteString("\n")
	}
	b.WriteString("\nScore every task. Respond with the JSON array only.")

	return b.String()
}

// splitSystem separates the leading system message for providers that take
// it out of band.
func splitSystem(msgs []Message) (string, []Message) {
	if len(msgs) > 0 && msgs[0].Role == RoleSystem {
		return msgs[0].Content, msgs[1:]
	}
	return "", msgs
}
