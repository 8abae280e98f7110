package session

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lexiz/internal/selector"
	"github.com/abhisek/lexiz/internal/spacedrep"
	"github.com/abhisek/lexiz/internal/store"
)

func promptFor(m spacedrep.Method, dir spacedrep.Direction) Prompt {
	return Prompt{
		Item: store.Item{
			ID:          "casa",
			Term:        "casa",
			Translation: "house",
			Example:     "La casa es grande.",
			AudioURL:    "https://example.com/casa.mp3",
		},
		Selection: selector.Selection{Method: m},
		Direction: dir,
	}
}

func TestPrompt_CardText(t *testing.T) {
	tests := []struct {
		name     string
		method   spacedrep.Method
		dir      spacedrep.Direction
		question string
		answer   string
		expected string
		typed    bool
	}{
		{"traditional forward", spacedrep.MethodTraditional, spacedrep.DirectionForward, "casa", "house", "house", true},
		{"traditional reverse", spacedrep.MethodTraditional, spacedrep.DirectionReverse, "house", "casa", "casa", true},
		{"multiple choice", spacedrep.MethodMultipleChoice, spacedrep.DirectionForward, "casa", "house", "house", false},
		{"fill blank", spacedrep.MethodFillBlank, spacedrep.DirectionForward, "La _____ es grande.", "casa = house", "casa", true},
		{"audio", spacedrep.MethodAudioRecognition, spacedrep.DirectionForward, "Listen: https://example.com/casa.mp3", "casa = house", "casa", true},
		{"context", spacedrep.MethodContextSelection, spacedrep.DirectionReverse, "La casa es grande.", "house", "house", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := promptFor(tc.method, tc.dir)
			assert.Equal(t, tc.question, p.Question())
			assert.Equal(t, tc.answer, p.Answer())
			assert.Equal(t, tc.expected, p.Expected())
			assert.Equal(t, tc.typed, p.Typed())
			assert.NotEmpty(t, p.Instruction())
		})
	}
}

func TestBlankOut(t *testing.T) {
	assert.Equal(t, "_____ y otra _____", BlankOut("Casa y otra casa", "casa"))
	assert.Equal(t, "casamiento _____", BlankOut("casamiento", "casa"), "partial words are not blanked")
	assert.Equal(t, "Sin nada _____", BlankOut("Sin nada", "casa"))
	assert.Equal(t, "igual", BlankOut("igual", " "))
	assert.Equal(t, "The _____ sleeps", BlankOut("The cat sleeps", "cat"))
}

func TestBlankOut_NonASCII(t *testing.T) {
	tests := []struct {
		sentence, term, want string
	}{
		{"Ich gehe über die Brücke", "über", "Ich gehe _____ die Brücke"},
		{"Ich gehe über die Brücke.", "brücke", "Ich gehe über die _____."},
		{"Я ещё здесь", "ещё", "Я _____ здесь"},
		{"Über alles", "über", "_____ alles"},
		{"El niño y la niña", "niña", "El niño y la _____"},
		{"Gegenüber", "über", "Gegenüber _____"},
		{"überall", "über", "überall _____"},
	}
	for _, tt := range tests {
		t.Run(tt.term+"/"+tt.sentence, func(t *testing.T) {
			assert.Equal(t, tt.want, BlankOut(tt.sentence, tt.term))
		})
	}
}

func TestMatchesAnswer(t *testing.T) {
	assert.True(t, MatchesAnswer("  House ", "house"))
	assert.True(t, MatchesAnswer("big   house", "Big house"))
	assert.False(t, MatchesAnswer("", ""))
	assert.False(t, MatchesAnswer("home", "house"))
}

func TestBuildChoices(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	pool := []string{"dog", "cat", "House", "tree", "cat", "", "sun"}

	choices, idx := BuildChoices("house", pool, 4, rng)
	require.Len(t, choices, 4)
	assert.Equal(t, "house", choices[idx])

	seen := map[string]bool{}
	for _, c := range choices {
		assert.False(t, seen[c], "duplicate choice %q", c)
		seen[c] = true
		assert.NotEqual(t, "House", c, "case-insensitive duplicate of the answer")
	}

	choices, idx = BuildChoices("house", nil, 4, rng)
	assert.Equal(t, []string{"house"}, choices)
	assert.Equal(t, 0, idx)
}

func TestService_NextFillsChoices(t *testing.T) {
	f := newFixture(t, 5, func(d *Deps) {
		d.SelectorConfig.EnabledMethods = []spacedrep.Method{spacedrep.MethodMultipleChoice}
	})
	ctx := context.Background()
	_, err := f.svc.Begin(ctx)
	require.NoError(t, err)

	p, ok, err := f.svc.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, p.Choices, MaxChoices)
	assert.Equal(t, p.Answer(), p.Choices[p.AnswerIndex])
}
