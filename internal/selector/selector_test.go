package selector

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lexiz/internal/spacedrep"
)

func seeded() *Selector {
	return New(rand.New(rand.NewPCG(7, 11)))
}

func fullItem() Item {
	return Item{ID: "w1", HasAudio: true, HasContext: true}
}

func longHistory() []spacedrep.Method {
	return []spacedrep.Method{
		spacedrep.MethodTraditional,
		spacedrep.MethodTraditional,
		spacedrep.MethodMultipleChoice,
		spacedrep.MethodTraditional,
		spacedrep.MethodMultipleChoice,
		spacedrep.MethodTraditional,
	}
}

func TestSelect_NoMethodAvailable(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	cfg.EnabledMethods = []spacedrep.Method{spacedrep.MethodAudioRecognition}

	_, err := s.Select(Item{ID: "w1"}, nil, nil, cfg)
	assert.ErrorIs(t, err, ErrNoMethodAvailable)

	cfg = DefaultConfig()
	cfg.DisabledMethods = spacedrep.AllMethods()
	_, err = s.Select(fullItem(), nil, nil, cfg)
	assert.ErrorIs(t, err, ErrNoMethodAvailable)
}

func TestSelect_EmptyEnabledMeansAll(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	cfg.EnabledMethods = nil

	sel, err := s.Select(fullItem(), nil, nil, cfg)
	require.NoError(t, err)
	assert.Len(t, sel.Alternatives, len(spacedrep.AllMethods())-1)
}

func TestSelect_RespectsItemMaterial(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	item := Item{ID: "bare"}

	for range 200 {
		sel, err := s.Select(item, nil, nil, cfg)
		require.NoError(t, err)
		assert.Contains(t, []spacedrep.Method{spacedrep.MethodTraditional, spacedrep.MethodMultipleChoice}, sel.Method)
	}
}

func TestSelect_DisabledMethodsNeverChosen(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	cfg.DisabledMethods = []spacedrep.Method{spacedrep.MethodTraditional, spacedrep.MethodFillBlank}

	for range 500 {
		sel, err := s.Select(fullItem(), nil, nil, cfg)
		require.NoError(t, err)
		assert.NotEqual(t, spacedrep.MethodTraditional, sel.Method)
		assert.NotEqual(t, spacedrep.MethodFillBlank, sel.Method)
	}
}

func TestSelect_ExcludesRecentMethods(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	history := []spacedrep.Method{
		spacedrep.MethodFillBlank, // outside the window
		spacedrep.MethodTraditional,
		spacedrep.MethodMultipleChoice,
		spacedrep.MethodAudioRecognition,
	}

	seen := map[spacedrep.Method]bool{}
	for range 500 {
		sel, err := s.Select(fullItem(), history, nil, cfg)
		require.NoError(t, err)
		seen[sel.Method] = true
	}
	assert.Equal(t, map[spacedrep.Method]bool{
		spacedrep.MethodFillBlank:        true,
		spacedrep.MethodContextSelection: true,
	}, seen)
}

func TestSelect_RepeatsWhenExclusionWouldEmptySet(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	cfg.EnabledMethods = []spacedrep.Method{spacedrep.MethodTraditional}
	history := []spacedrep.Method{spacedrep.MethodTraditional}

	sel, err := s.Select(fullItem(), history, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, spacedrep.MethodTraditional, sel.Method)
	assert.Contains(t, sel.Reason, "repeats")
	assert.Empty(t, sel.Alternatives)
}

func TestSelect_UniformWithShortHistory(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	cfg.RepetitionWindow = 0
	// A weak method would attract most of the mass if weighting applied.
	perf := map[spacedrep.Method]Performance{
		spacedrep.MethodFillBlank: {Method: spacedrep.MethodFillBlank, Attempts: 10, Correct: 1},
	}
	history := []spacedrep.Method{spacedrep.MethodTraditional}

	counts := map[spacedrep.Method]int{}
	const n = 10000
	for range n {
		sel, err := s.Select(fullItem(), history, perf, cfg)
		require.NoError(t, err)
		counts[sel.Method]++
		assert.Contains(t, sel.Reason, "random")
	}
	for _, m := range spacedrep.AllMethods() {
		assert.InDelta(t, 0.2, float64(counts[m])/n, 0.03, "method %s", m)
	}
}

func TestSelect_UniformWhenVariationDisabled(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	cfg.RepetitionWindow = 0
	cfg.EnableVariation = false
	perf := map[spacedrep.Method]Performance{
		spacedrep.MethodFillBlank: {Attempts: 10, Correct: 1},
	}

	sel, err := s.Select(fullItem(), longHistory(), perf, cfg)
	require.NoError(t, err)
	assert.Equal(t, "random: variation disabled", sel.Reason)
	for _, c := range sel.Alternatives {
		assert.InDelta(t, 0.2, c.Score, 1e-9)
	}
}

func TestSelect_WeakMethodsGetWeaknessWeight(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	cfg.RepetitionWindow = 0
	perf := map[spacedrep.Method]Performance{
		spacedrep.MethodFillBlank:      {Attempts: 10, Correct: 3},
		spacedrep.MethodMultipleChoice: {Attempts: 20, Correct: 19},
		spacedrep.MethodTraditional:    {Attempts: 3, Correct: 0}, // too few attempts to be weak
	}

	counts := map[spacedrep.Method]int{}
	const n = 10000
	for range n {
		sel, err := s.Select(fullItem(), longHistory(), perf, cfg)
		require.NoError(t, err)
		counts[sel.Method]++

		var total float64
		for _, c := range sel.Alternatives {
			total += c.Score
		}
		assert.Less(t, total, 1.0)
	}
	assert.InDelta(t, 0.7, float64(counts[spacedrep.MethodFillBlank])/n, 0.02)

	// Remaining 0.3 spread over traditional, audio, context (1 each) and
	// multiple choice (0.5): 0.3/3.5 per neutral method.
	assert.InDelta(t, 0.3/3.5, float64(counts[spacedrep.MethodTraditional])/n, 0.015)
	assert.InDelta(t, 0.15/3.5, float64(counts[spacedrep.MethodMultipleChoice])/n, 0.015)
}

func TestSelect_MasteredMethodsGetReducedWeight(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	cfg.RepetitionWindow = 0
	cfg.EnabledMethods = []spacedrep.Method{spacedrep.MethodTraditional, spacedrep.MethodMultipleChoice}
	perf := map[spacedrep.Method]Performance{
		spacedrep.MethodMultipleChoice: {Attempts: 10, Correct: 10},
		spacedrep.MethodTraditional:    {Attempts: 10, Correct: 8},
	}

	var sel Selection
	var err error
	for sel.Method != spacedrep.MethodTraditional {
		sel, err = s.Select(fullItem(), longHistory(), perf, cfg)
		require.NoError(t, err)
	}
	require.Len(t, sel.Alternatives, 1)
	assert.Equal(t, ClassMastered, sel.Alternatives[0].Class)
	assert.InDelta(t, 1.0/3, sel.Alternatives[0].Score, 1e-9)
	assert.Equal(t, "balanced rotation", sel.Reason)
}

func TestSelect_OnlyWeakMethodsIsUniform(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	cfg.RepetitionWindow = 0
	cfg.EnabledMethods = []spacedrep.Method{spacedrep.MethodTraditional, spacedrep.MethodMultipleChoice}
	perf := map[spacedrep.Method]Performance{
		spacedrep.MethodTraditional:    {Attempts: 10, Correct: 2},
		spacedrep.MethodMultipleChoice: {Attempts: 10, Correct: 5},
	}

	sel, err := s.Select(fullItem(), longHistory(), perf, cfg)
	require.NoError(t, err)
	require.Len(t, sel.Alternatives, 1)
	assert.InDelta(t, 0.5, sel.Alternatives[0].Score, 1e-9)
	assert.Contains(t, sel.Reason, "weak method")
}

func TestSelect_AlternativesSortedByScore(t *testing.T) {
	s := seeded()
	cfg := DefaultConfig()
	cfg.RepetitionWindow = 0
	perf := map[spacedrep.Method]Performance{
		spacedrep.MethodAudioRecognition: {Attempts: 10, Correct: 2},
		spacedrep.MethodContextSelection: {Attempts: 10, Correct: 10},
	}

	for range 50 {
		sel, err := s.Select(fullItem(), longHistory(), perf, cfg)
		require.NoError(t, err)
		for i := 1; i < len(sel.Alternatives); i++ {
			assert.GreaterOrEqual(t, sel.Alternatives[i-1].Score, sel.Alternatives[i].Score)
		}
		assert.Len(t, sel.Alternatives, len(spacedrep.AllMethods())-1)
	}
}

func TestClassify(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name string
		perf Performance
		want Class
	}{
		{"no attempts", Performance{}, ClassNeutral},
		{"few attempts all wrong", Performance{Attempts: 4}, ClassNeutral},
		{"weak", Performance{Attempts: 10, Correct: 6}, ClassWeak},
		{"at weakness threshold", Performance{Attempts: 10, Correct: 7}, ClassNeutral},
		{"below mastery", Performance{Attempts: 20, Correct: 16}, ClassNeutral},
		{"at mastery threshold", Performance{Attempts: 20, Correct: 17}, ClassMastered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.perf, cfg))
		})
	}
}

func TestItemSupports(t *testing.T) {
	bare := Item{ID: "x"}
	assert.True(t, bare.Supports(spacedrep.MethodTraditional))
	assert.True(t, bare.Supports(spacedrep.MethodMultipleChoice))
	assert.False(t, bare.Supports(spacedrep.MethodAudioRecognition))
	assert.False(t, bare.Supports(spacedrep.MethodFillBlank))
	assert.False(t, bare.Supports(spacedrep.Method("bogus")))
	assert.True(t, fullItem().Supports(spacedrep.MethodContextSelection))
}
