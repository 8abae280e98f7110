package review

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lexiz/internal/router"
	"github.com/abhisek/lexiz/internal/screen"
	"github.com/abhisek/lexiz/internal/screens/summary"
	sess "github.com/abhisek/lexiz/internal/session"
	"github.com/abhisek/lexiz/internal/spacedrep"
	"github.com/abhisek/lexiz/internal/ui/components"
	"github.com/abhisek/lexiz/internal/ui/layout"
)

// Service is the part of the session service the review screen drives.
type Service interface {
	Begin(ctx context.Context) (*sess.Session, error)
	Next(ctx context.Context) (sess.Prompt, bool, error)
	RecordOutcome(ctx context.Context, itemID string, rating spacedrep.Rating, responseTimeMs int64, method spacedrep.Method, dir spacedrep.Direction) (sess.Outcome, bool, error)
	Abort(ctx context.Context) (sess.Summary, error)
}

type stage int

const (
	stageLoading stage = iota
	stageAsking
	stageRevealed
	stageSaving
)

// ratingKeys maps the number keys to ratings in ascending recall strength.
var ratingKeys = map[string]spacedrep.Rating{
	"1": spacedrep.RatingForgot,
	"2": spacedrep.RatingHard,
	"3": spacedrep.RatingGood,
	"4": spacedrep.RatingEasy,
}

// ReviewScreen walks the learner through one session: show the card,
// take an answer, reveal, collect a rating, repeat.
type ReviewScreen struct {
	ctx context.Context
	svc Service
	now func() time.Time

	session *sess.Session
	prompt  sess.Prompt
	stage   stage

	input  components.TextInput
	choice components.MultiChoice

	shownAt    time.Time
	responseMs int64
	correct    *bool // nil when the learner revealed without answering

	confirmQuit bool
	lastOutcome *sess.Outcome
	notice      string // rejected rating, shown until the next one
	errMsg      string
}

var (
	_ screen.Screen          = (*ReviewScreen)(nil)
	_ screen.KeyHintProvider = (*ReviewScreen)(nil)
	_ screen.StatusProvider  = (*ReviewScreen)(nil)
)

// New creates a review screen. now may be nil.
func New(ctx context.Context, svc Service, now func() time.Time) *ReviewScreen {
	if now == nil {
		now = time.Now
	}
	return &ReviewScreen{ctx: ctx, svc: svc, now: now}
}

func (s *ReviewScreen) Init() tea.Cmd {
	return func() tea.Msg {
		ss, err := s.svc.Begin(s.ctx)
		return begunMsg{Session: ss, Err: err}
	}
}

func (s *ReviewScreen) Title() string {
	return "Review"
}

// Status shows the position in the session.
func (s *ReviewScreen) Status() string {
	if s.session == nil || s.stage == stageLoading {
		return ""
	}
	pos, total := s.session.Position()
	return components.NewProgressBar(pos, total, 0).Counter()
}

func (s *ReviewScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Quit"}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "End session"},
			{Key: "N", Description: "Keep going"},
		}
	case s.stage == stageRevealed:
		return []layout.KeyHint{
			{Key: "1", Description: "Forgot"},
			{Key: "2", Description: "Hard"},
			{Key: "3", Description: "Good"},
			{Key: "4", Description: "Easy"},
			{Key: "Enter", Description: "Suggested"},
		}
	case s.stage == stageAsking && s.prompt.Typed():
		return []layout.KeyHint{
			{Key: "Enter", Description: "Check / reveal"},
			{Key: "Esc", Description: "Quit"},
		}
	case s.stage == stageAsking:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "a-d", Description: "Pick"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Quit"}}
}

func (s *ReviewScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case begunMsg:
		return s.handleBegun(msg)
	case promptMsg:
		return s.handlePrompt(msg)
	case recordedMsg:
		return s.handleRecorded(msg)
	case finishedMsg:
		return s.handleFinished(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.stage == stageAsking && s.prompt.Typed() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *ReviewScreen) handleBegun(msg begunMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.session = msg.Session
	return s, s.next()
}

func (s *ReviewScreen) handlePrompt(msg promptMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, s.abort()
	}
	if !msg.OK {
		return s, s.finish()
	}

	s.prompt = msg.Prompt
	s.stage = stageAsking
	s.correct = nil
	s.responseMs = 0
	s.shownAt = s.now()
	if s.prompt.Typed() {
		s.input = components.NewTextInput("type the answer, or Enter to reveal", 64)
		return s, s.input.Init()
	}
	s.choice = components.NewMultiChoice(s.prompt.Choices, s.prompt.AnswerIndex)
	return s, nil
}

func (s *ReviewScreen) handleRecorded(msg recordedMsg) (screen.Screen, tea.Cmd) {
	if sess.IsInvalidInput(msg.Err) {
		s.notice = msg.Err.Error()
		s.stage = stageRevealed
		return s, nil
	}
	s.notice = ""
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, s.abort()
	}
	s.lastOutcome = &msg.Outcome
	s.stage = stageLoading
	if s.session.Phase().Finished() {
		return s, s.finish()
	}
	return s, s.next()
}

func (s *ReviewScreen) handleFinished(msg finishedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		if s.errMsg == "" {
			s.errMsg = msg.Err.Error()
		}
		return s, nil
	}
	if s.errMsg != "" {
		return s, nil
	}
	return s, func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(msg.Summary)}
	}
}

func (s *ReviewScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, tea.Quit
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			s.stage = stageSaving
			return s, s.abort()
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if key == "esc" {
		if s.stage == stageAsking || s.stage == stageRevealed {
			s.confirmQuit = true
		}
		return s, nil
	}

	switch s.stage {
	case stageAsking:
		return s.handleAnswerKey(msg)
	case stageRevealed:
		if key == "enter" {
			return s.rate(s.suggested())
		}
		if r, ok := ratingKeys[key]; ok {
			return s.rate(r)
		}
	}
	return s, nil
}

func (s *ReviewScreen) handleAnswerKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if !s.prompt.Typed() {
		s.choice, _ = s.choice.Update(msg)
		if s.choice.Submitted() {
			ok := s.choice.IsCorrect()
			s.reveal(&ok)
		}
		return s, nil
	}

	if msg.String() != "enter" {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}

	if s.input.Value() == "" {
		s.input.Submit(false)
		s.reveal(nil)
		return s, nil
	}
	ok := sess.MatchesAnswer(s.input.Value(), s.prompt.Expected())
	s.input.Submit(ok)
	s.reveal(&ok)
	return s, nil
}

// reveal stops the clock and shows the answer.
func (s *ReviewScreen) reveal(correct *bool) {
	s.responseMs = s.now().Sub(s.shownAt).Milliseconds()
	s.correct = correct
	s.stage = stageRevealed
}

// suggested is the rating offered on Enter: good for a right answer,
// forgot otherwise.
func (s *ReviewScreen) suggested() spacedrep.Rating {
	if s.correct != nil && *s.correct {
		return spacedrep.RatingGood
	}
	return spacedrep.RatingForgot
}

func (s *ReviewScreen) rate(r spacedrep.Rating) (screen.Screen, tea.Cmd) {
	s.stage = stageSaving
	p := s.prompt
	ms := s.responseMs
	return s, func() tea.Msg {
		out, _, err := s.svc.RecordOutcome(s.ctx, p.Item.ID, r, ms, p.Selection.Method, p.Direction)
		return recordedMsg{Outcome: out, Err: err}
	}
}

func (s *ReviewScreen) next() tea.Cmd {
	return func() tea.Msg {
		p, ok, err := s.svc.Next(s.ctx)
		return promptMsg{Prompt: p, OK: ok, Err: err}
	}
}

func (s *ReviewScreen) finish() tea.Cmd {
	ss := s.session
	return func() tea.Msg {
		sum, err := ss.Summary()
		return finishedMsg{Summary: sum, Err: err}
	}
}

func (s *ReviewScreen) abort() tea.Cmd {
	return func() tea.Msg {
		sum, err := s.svc.Abort(s.ctx)
		return finishedMsg{Summary: sum, Err: err}
	}
}
