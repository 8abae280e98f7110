package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lexiz/internal/ui/theme"
)

var choiceLabels = "abcdefgh"

// MultiChoice is a pick-one list. Options can be chosen with the arrow
// keys and enter, or directly by their letter.
type MultiChoice struct {
	Options      []string
	CorrectIndex int
	Selected     int
	ChosenIndex  int
}

// NewMultiChoice creates a multiple-choice list with nothing chosen yet.
func NewMultiChoice(options []string, correctIndex int) MultiChoice {
	return MultiChoice{
		Options:      options,
		CorrectIndex: correctIndex,
		ChosenIndex:  -1,
	}
}

// Submitted reports whether an option has been chosen.
func (m MultiChoice) Submitted() bool { return m.ChosenIndex >= 0 }

// Update handles keyboard navigation and selection.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted() {
		return m, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		m.ChosenIndex = m.Selected
	default:
		if len(key) == 1 {
			if i := strings.Index(choiceLabels, key); i >= 0 && i < len(m.Options) {
				m.Selected = i
				m.ChosenIndex = i
			}
		}
	}
	return m, nil
}

// View renders the options; after submission the correct one is green
// and a wrong pick red.
func (m MultiChoice) View() string {
	var b strings.Builder
	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted() {
			prefix = "▸ "
		}
		line := prefix + string(choiceLabels[i]) + ")  " + opt

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case m.Submitted() && i == m.CorrectIndex:
			style = theme.Correct
		case m.Submitted() && i == m.ChosenIndex:
			style = theme.Incorrect
		case m.Submitted():
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Render(line) + "\n")
	}
	return b.String()
}

// IsCorrect returns true if the learner chose the correct answer.
func (m MultiChoice) IsCorrect() bool {
	return m.Submitted() && m.ChosenIndex == m.CorrectIndex
}
