package review

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lexiz/internal/ui/components"
	"github.com/abhisek/lexiz/internal/ui/theme"
)

func (s *ReviewScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return centered(width, height, theme.Incorrect.Render("Error: "+s.errMsg))
	case s.confirmQuit:
		return centered(width, height,
			theme.Body.Render("End this session?")+"\n\n"+
				theme.Hint.Render("Reviews so far are kept."))
	case s.session == nil || s.stage == stageLoading && s.prompt.Item.ID == "":
		return centered(width, height, theme.Hint.Render("Loading due items..."))
	}
	return s.renderCard(width)
}

func (s *ReviewScreen) renderCard(width int) string {
	var b strings.Builder
	cardWidth := min(width-4, 72)

	pos, total := s.session.Position()
	done := pos - 1
	if s.session.Phase().Finished() {
		done = total
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		components.NewProgressBar(done, total, cardWidth).View()))
	b.WriteString("\n\n")

	p := s.prompt
	var card strings.Builder
	card.WriteString(theme.Hint.Render(p.Instruction()))
	card.WriteString("\n\n")
	card.WriteString(theme.Term.Render(p.Question()))
	card.WriteString("\n\n")

	if p.Typed() {
		card.WriteString(s.input.View())
	} else {
		card.WriteString(s.choice.View())
	}

	if s.stage == stageRevealed || s.stage == stageSaving {
		card.WriteString("\n\n")
		card.WriteString(s.renderReveal())
	}

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		theme.Card.Width(cardWidth).Render(card.String())))
	b.WriteString("\n")

	if s.lastOutcome != nil {
		o := s.lastOutcome
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Hint.Render(fmt.Sprintf("last: %s → next in %d day(s)",
				o.EffectiveRating, o.Record.Interval))))
	}
	return b.String()
}

func (s *ReviewScreen) renderReveal() string {
	var verdict string
	switch {
	case s.correct == nil:
		verdict = theme.Hint.Render("Answer:")
	case *s.correct:
		verdict = theme.Correct.Render("Correct:")
	default:
		verdict = theme.Incorrect.Render("Answer:")
	}
	line := verdict + " " + theme.Term.Render(s.prompt.Answer())

	if ex := s.prompt.Item.Example; ex != "" && !strings.Contains(s.prompt.Question(), ex) {
		line += "\n" + theme.Hint.Render(ex)
	}

	var ratings []string
	for _, k := range []string{"1", "2", "3", "4"} {
		r := ratingKeys[k]
		label := k + " " + string(r)
		if r == s.suggested() {
			label = "[" + label + "]"
		}
		ratings = append(ratings, theme.RatingColor(string(r)).Render(label))
	}
	out := line + "\n\n" + strings.Join(ratings, "   ")
	if s.notice != "" {
		out += "\n" + theme.Incorrect.Render(s.notice)
	}
	return out
}

func centered(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
