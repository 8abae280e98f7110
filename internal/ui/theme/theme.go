package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette: muted ink on slate, one warm accent for ratings.
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#0EA5E9") // Sky
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#EAB308") // Yellow
	Error     = lipgloss.Color("#EF4444") // Red
	Text      = lipgloss.Color("#F1F5F9")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Term = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)
)

// Card frames the prompt on the review screen.
var Card = lipgloss.NewStyle().
	Background(BgCard).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border).
	Padding(1, 2)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// RatingColor maps a rating name to the colour used for its key hint and
// summary count.
func RatingColor(rating string) lipgloss.Style {
	switch rating {
	case "forgot":
		return lipgloss.NewStyle().Foreground(Error)
	case "hard":
		return lipgloss.NewStyle().Foreground(Warning)
	case "good":
		return lipgloss.NewStyle().Foreground(Secondary)
	case "easy":
		return lipgloss.NewStyle().Foreground(Success)
	}
	return lipgloss.NewStyle().Foreground(TextDim)
}
