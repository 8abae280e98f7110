package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/lexiz/internal/screen"
)

type stubScreen struct {
	title   string
	initRan bool
	got     []tea.Msg
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}

func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.got = append(s.got, msg)
	return s, nil
}

func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }

func TestRouter_PushPop(t *testing.T) {
	review := &stubScreen{title: "review"}
	r := New(review)

	summary := &stubScreen{title: "summary"}
	r.Push(summary)
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "summary", r.Active().Title())
	assert.True(t, summary.initRan)

	r.Pop()
	assert.Equal(t, 1, r.Depth())
	assert.Equal(t, "review", r.View(80, 24))

	r.Pop()
	assert.Equal(t, 1, r.Depth(), "bottom screen is never popped")
}

func TestRouter_ReplaceScreenMsg(t *testing.T) {
	r := New(&stubScreen{title: "review"})
	r.Push(&stubScreen{title: "confirm"})

	summary := &stubScreen{title: "summary"}
	r.Update(ReplaceScreenMsg{Screen: summary})

	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "summary", r.Active().Title())
	assert.True(t, summary.initRan)
}

func TestRouter_ForwardsOtherMessages(t *testing.T) {
	s := &stubScreen{title: "review"}
	r := New(s)
	r.Init()
	r.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.True(t, s.initRan)
	assert.Len(t, s.got, 1)
}
