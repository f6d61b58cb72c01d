package shell

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var contextStyles = []lipgloss.Style{
	lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")),
	lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")),
	lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("2")),
	lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("5")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("7")),
}

// Contexts is the stack of context names shown in the prompt.
type Contexts struct {
	names []string
}

// Push adds name on top of the stack.
func (c *Contexts) Push(name string) {
	c.names = append(c.names, name)
}

// Pop removes the most recent context, if any.
func (c *Contexts) Pop() {
	if len(c.names) > 0 {
		c.names = c.names[:len(c.names)-1]
	}
}

// Clear empties the stack.
func (c *Contexts) Clear() {
	c.names = nil
}

// Names returns the stack, oldest first.
func (c *Contexts) Names() []string {
	return append([]string(nil), c.names...)
}

// Compose renders the stack followed by a trailing space, or "" when empty.
// Pretty output gives each level its own colour.
func (c *Contexts) Compose(pretty bool) string {
	if len(c.names) == 0 {
		return ""
	}
	parts := make([]string, len(c.names))
	for i, name := range c.names {
		if pretty {
			parts[i] = contextStyles[i%len(contextStyles)].Render(" " + name + " ")
		} else {
			parts[i] = name
		}
	}
	return strings.Join(parts, " ") + " "
}

// Prompt returns the REPL prompt for text and the current contexts.
func Prompt(text string, contexts *Contexts) string {
	if decoration := contexts.Compose(true); decoration != "" {
		return text + " " + decoration + "> "
	}
	return text + "> "
}
