package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"udo-backend/internal/analytics"
	"udo-backend/internal/tasks"
)

const (
	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorMuted         = "#6D7383"
	ColorAccentMain    = "#7C3AED"
	ColorAccentBright  = "#A78BFA"
	ColorHigh          = "#EF4444"
	ColorMedium        = "#F59E0B"
	ColorDone          = "#22C55E"
	ColorInProgress    = "#38BDF8"
)

var (
	HeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright))
	BulletStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentMain))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
	TitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	DoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted)).Strikethrough(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHigh))

	tierStyles = map[string]lipgloss.Style{
		"P1": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorHigh)),
		"P2": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMedium)),
		"P3": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)),
	}

	statusStyles = map[tasks.Status]lipgloss.Style{
		tasks.StatusTodo:       lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)),
		tasks.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorInProgress)),
		tasks.StatusDone:       lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDone)),
	}
)

var statusIcons = map[tasks.Status]string{
	tasks.StatusTodo:       "○",
	tasks.StatusInProgress: "◐",
	tasks.StatusDone:       "●",
}

// Priority renders a score colored by its tier.
func Priority(score int) string {
	return tierStyles[analytics.TierFromScore(score)].Render(fmt.Sprintf("%3d", score))
}

func Status(s tasks.Status) string {
	icon, ok := statusIcons[s]
	if !ok {
		icon = "?"
	}
	return statusStyles[s].Render(icon)
}

// ShortID is the id prefix the CLI prints and accepts.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// TaskLine is one row of the CLI task list.
func TaskLine(t tasks.Task) string {
	title := TitleStyle.Render(t.Title)
	if t.Status == tasks.StatusDone {
		title = DoneStyle.Render(t.Title)
	}

	var b strings.Builder
	b.WriteString(MutedStyle.Render(ShortID(t.ID)))
	b.WriteString("  ")
	b.WriteString(Priority(t.Priority))
	b.WriteString("  ")
	b.WriteString(Status(t.Status))
	b.WriteString("  ")
	b.WriteString(title)
	if t.OriginalTitle != "" && t.OriginalTitle != t.Title {
		b.WriteString(MutedStyle.Render("  (was: " + t.OriginalTitle + ")"))
	}
	return b.String()
}

// TaskList renders tasks one per line, or a placeholder when empty.
func TaskList(all []tasks.Task) string {
	if len(all) == 0 {
		return MutedStyle.Render("No tasks yet.")
	}
	lines := make([]string, len(all))
	for i, t := range all {
		lines[i] = TaskLine(t)
	}
	return strings.Join(lines, "\n")
}

// Summary renders the dashboard KPIs and the 7-day completion bars.
func Summary(s analytics.Summary) string {
	var b strings.Builder
	b.WriteString(HeadingStyle.Render("Overview"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  pending %d   completed %d   rate %d%%   high priority %d\n",
		s.Pending, s.Completed, s.CompletionRate, s.HighPriority)

	b.WriteString("\n")
	b.WriteString(HeadingStyle.Render("Last 7 days"))
	b.WriteString("\n")
	for _, d := range s.Velocity {
		bar := strings.Repeat("█", d.Completed)
		fmt.Fprintf(&b, "  %s %s %d\n", d.Day, BulletStyle.Render(bar), d.Completed)
	}
	return strings.TrimRight(b.String(), "\n")
}
