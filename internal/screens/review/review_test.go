package review

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lexiz/internal/router"
	"github.com/abhisek/lexiz/internal/screens/summary"
	"github.com/abhisek/lexiz/internal/selector"
	sess "github.com/abhisek/lexiz/internal/session"
	"github.com/abhisek/lexiz/internal/spacedrep"
	"github.com/abhisek/lexiz/internal/store"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	now := t0
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func newService(t *testing.T, items int, methods ...spacedrep.Method) *sess.Service {
	t.Helper()
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	for i := range items {
		_, err := st.Items().AddItem(ctx, store.Item{
			Term:        fmt.Sprintf("palabra%d", i),
			Translation: fmt.Sprintf("word%d", i),
		}, t0.Add(-time.Hour))
		require.NoError(t, err)
	}

	selCfg := selector.DefaultConfig()
	selCfg.EnabledMethods = methods
	return sess.NewService(sess.Deps{
		Records:        st.Records(),
		Items:          st.Items(),
		Events:         st.Events(),
		Config:         sess.DefaultConfig(),
		SelectorConfig: selCfg,
		Rand:           rand.New(rand.NewPCG(7, 8)),
		Now:            func() time.Time { return t0 },
	})
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// step runs cmd and feeds its message back into the screen.
func step(t *testing.T, s *ReviewScreen, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	_, next := s.Update(cmd())
	return next
}

func start(t *testing.T, s *ReviewScreen) {
	t.Helper()
	step(t, s, step(t, s, s.Init()))
	require.Empty(t, s.errMsg)
}

func typeText(s *ReviewScreen, text string) {
	for _, r := range text {
		s.Update(keyPress(r))
	}
}

func summaryFrom(t *testing.T, cmd tea.Cmd) *summary.SummaryScreen {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok, "expected a screen replacement")
	sc, ok := msg.Screen.(*summary.SummaryScreen)
	require.True(t, ok)
	return sc
}

func TestReviewScreen_TypedSession(t *testing.T) {
	svc := newService(t, 2, spacedrep.MethodTraditional)
	s := New(context.Background(), svc, stepClock(1500*time.Millisecond))
	start(t, s)

	assert.Equal(t, stageAsking, s.stage)
	assert.Equal(t, "1/2", s.Status())
	assert.True(t, s.prompt.Typed())

	// Correct typed answer, accept the suggested rating.
	typeText(s, strings.ToUpper(s.prompt.Expected()))
	s.Update(specialKey(tea.KeyEnter))
	require.Equal(t, stageRevealed, s.stage)
	require.NotNil(t, s.correct)
	assert.True(t, *s.correct)
	assert.Equal(t, int64(1500), s.responseMs)
	assert.Equal(t, spacedrep.RatingGood, s.suggested())
	assert.Contains(t, s.View(80, 30), s.prompt.Answer())

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	step(t, s, step(t, s, cmd))
	require.NotNil(t, s.lastOutcome)
	assert.Equal(t, spacedrep.RatingGood, s.lastOutcome.Rating)
	assert.Equal(t, "2/2", s.Status())

	// Reveal without answering, rate forgot.
	s.Update(specialKey(tea.KeyEnter))
	require.Equal(t, stageRevealed, s.stage)
	assert.Nil(t, s.correct)
	_, cmd = s.Update(keyPress('1'))
	next := step(t, s, cmd)

	sc := summaryFrom(t, step(t, s, next))
	view := sc.View(80, 30)
	assert.Contains(t, view, "Session complete!")
	assert.Contains(t, view, "Reviewed: 2/2")

	sum, err := svc.Session().Summary()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Correct)
}

func TestReviewScreen_WrongAnswerSuggestsForgot(t *testing.T) {
	s := New(context.Background(), newService(t, 1, spacedrep.MethodTraditional), nil)
	start(t, s)

	typeText(s, "nonsense")
	s.Update(specialKey(tea.KeyEnter))
	require.NotNil(t, s.correct)
	assert.False(t, *s.correct)
	assert.Equal(t, spacedrep.RatingForgot, s.suggested())

	s.Update(keyPress('9'))
	assert.Equal(t, stageRevealed, s.stage, "unknown rating keys are ignored")
}

func TestReviewScreen_MultipleChoice(t *testing.T) {
	s := New(context.Background(), newService(t, 5, spacedrep.MethodMultipleChoice), nil)
	start(t, s)

	require.False(t, s.prompt.Typed())
	require.Len(t, s.prompt.Choices, sess.MaxChoices)
	assert.Equal(t, "a-d", s.KeyHints()[1].Key)

	s.Update(keyPress(rune('a' + s.prompt.AnswerIndex)))
	require.Equal(t, stageRevealed, s.stage)
	require.NotNil(t, s.correct)
	assert.True(t, *s.correct)

	_, cmd := s.Update(keyPress('4'))
	step(t, s, cmd)
	assert.Equal(t, spacedrep.RatingEasy, s.lastOutcome.Rating)
}

func TestReviewScreen_QuitConfirm(t *testing.T) {
	svc := newService(t, 3, spacedrep.MethodTraditional)
	s := New(context.Background(), svc, nil)
	start(t, s)

	s.Update(specialKey(tea.KeyEscape))
	assert.True(t, s.confirmQuit)
	assert.Equal(t, "Y", s.KeyHints()[0].Key)

	s.Update(keyPress('n'))
	assert.False(t, s.confirmQuit)
	assert.Equal(t, stageAsking, s.stage)

	s.Update(specialKey(tea.KeyEscape))
	_, cmd := s.Update(keyPress('y'))
	sc := summaryFrom(t, step(t, s, cmd))
	assert.Contains(t, sc.View(80, 30), "Session ended early")
	assert.Equal(t, sess.PhaseAborted, svc.Session().Phase())
}

func TestReviewScreen_NothingDue(t *testing.T) {
	s := New(context.Background(), newService(t, 0), nil)
	cmd := step(t, s, s.Init())
	cmd = step(t, s, cmd)

	sc := summaryFrom(t, step(t, s, cmd))
	assert.Contains(t, sc.View(80, 30), "Nothing due")
}

type failingService struct{ Service }

func (failingService) Begin(context.Context) (*sess.Session, error) {
	return nil, errors.New("database is locked")
}

func TestReviewScreen_BeginError(t *testing.T) {
	s := New(context.Background(), failingService{}, nil)
	step(t, s, s.Init())

	assert.Contains(t, s.View(80, 30), "database is locked")
	_, cmd := s.Update(keyPress('x'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestReviewScreen_RejectedRatingStaysRevealed(t *testing.T) {
	svc := newService(t, 1, spacedrep.MethodTraditional)
	s := New(context.Background(), svc, nil)
	start(t, s)

	s.Update(specialKey(tea.KeyEnter))
	require.Equal(t, stageRevealed, s.stage)

	s.Update(recordedMsg{Err: fmt.Errorf("%w: %q", spacedrep.ErrInvalidRating, "meh")})
	assert.Equal(t, stageRevealed, s.stage)
	assert.Empty(t, s.errMsg)
	assert.Contains(t, s.View(80, 30), "invalid rating")
	assert.Equal(t, sess.PhaseInProgress, svc.Session().Phase())

	_, cmd := s.Update(keyPress('3'))
	next := step(t, s, cmd)
	assert.Empty(t, s.notice)
	require.NotNil(t, s.lastOutcome)
	summaryFrom(t, step(t, s, next))
}
