package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9"))
	descStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("238"))
)

var intro = []string{
	"The review process is important for keeping your list accurate, so you are working on the right thing.",
	"For each task you are shown, look at the metadata. Determine whether the task needs to be changed (enter 'e' to edit), or whether it is accurate (enter 'r' to mark as reviewed). You may skip a task ('enter') but a skipped task is not considered reviewed.",
	"You may stop at any time, and resume later, right where you left off. See 'man tasksh' for more details.",
}

// welcome returns the introduction, word-wrapped to width when known.
func welcome(width int) string {
	paras := make([]string, len(intro))
	for i, p := range intro {
		if width > 0 {
			p = lipgloss.NewStyle().Width(width).Render(p)
		}
		paras[i] = p
	}
	return "\n" + strings.Join(paras, "\n\n") + "\n\n"
}

// banner renders the "[n of m] description" line. With a known width the
// description is padded to fill the line, or cut short with "..." when it
// does not fit.
func banner(current, total, width int, message string) string {
	progress := fmt.Sprintf(" [%d of %d] ", current, total)
	desc := " " + message

	if width > 0 {
		room := width - len(progress) - 1
		msg := []rune(message)
		switch {
		case len(msg) < room:
			desc = " " + message + strings.Repeat(" ", room-len(msg))
		case room > 3:
			desc = " " + string(msg[:room-3]) + "..."
		default:
			desc = " ..."
		}
	}

	return progressStyle.Render(progress) + descStyle.Render(desc) + "\n"
}

func menu() string {
	return descStyle.Render(" (Enter) Skip, (e)dit, (c)ompleted, (d)eleted, Mark as (r)eviewed, (q)uit ") + " "
}
