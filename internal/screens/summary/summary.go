package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lexiz/internal/screen"
	"github.com/abhisek/lexiz/internal/session"
	"github.com/abhisek/lexiz/internal/spacedrep"
	"github.com/abhisek/lexiz/internal/ui/layout"
	"github.com/abhisek/lexiz/internal/ui/theme"
)

// SummaryScreen displays the result of a finished session.
type SummaryScreen struct {
	summary session.Summary
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary session.Summary) *SummaryScreen {
	return &SummaryScreen{summary: summary}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Done"},
		{Key: "Esc", Description: "Quit"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc", "q":
			return s, tea.Quit
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	center := func(str string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, str)
	}

	var b strings.Builder

	heading := "Session complete!"
	switch {
	case sum.Aborted():
		heading = "Session ended early"
	case sum.Candidates == 0:
		heading = "Nothing due right now"
	}
	b.WriteString(center(theme.Title.Render(heading)))
	b.WriteString("\n\n")

	if sum.Candidates == 0 {
		b.WriteString(center(theme.Hint.Render("Add words or come back later.")))
		return b.String()
	}

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("Duration: %d:%02d", mins, secs))))
	b.WriteString("\n\n")

	b.WriteString(center(theme.Body.Render(fmt.Sprintf(
		"Reviewed: %d/%d        Correct: %d        Accuracy: %.0f%%",
		sum.Reviewed, sum.Candidates, sum.Correct, sum.Accuracy*100))))
	b.WriteString("\n\n")

	var counts []string
	for _, r := range []spacedrep.Rating{spacedrep.RatingForgot, spacedrep.RatingHard, spacedrep.RatingGood, spacedrep.RatingEasy} {
		counts = append(counts, theme.RatingColor(string(r)).
			Render(fmt.Sprintf("%s %d", r, sum.Effective[r])))
	}
	b.WriteString(center(strings.Join(counts, "    ")))
	b.WriteString("\n")

	if len(sum.Transitions) > 0 {
		divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
			strings.Repeat("─", max(min(width-8, 60), 0)))
		b.WriteString("\n")
		b.WriteString(center(theme.Hint.Render("Progress")))
		b.WriteString("\n")
		b.WriteString(center(divider))
		b.WriteString("\n")
		for _, tr := range sum.Transitions {
			style := theme.Correct
			if !tr.Improved() {
				style = theme.Incorrect
			}
			b.WriteString(center(style.Render(fmt.Sprintf("%s: %s > %s", tr.ItemID, tr.From.Label(), tr.To.Label()))))
			b.WriteString("\n")
		}
	}

	return b.String()
}
