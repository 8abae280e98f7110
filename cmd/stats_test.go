package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/lexiz/internal/selector"
	"github.com/abhisek/lexiz/internal/spacedrep"
)

func TestWriteStats(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fresh := spacedrep.NewRecord("a", now)
	learning := spacedrep.NewRecord("b", now)
	learning.TotalReviews = 3
	learning.Repetition = 2
	learning.Interval = 6
	learning.LastReviewDate = now
	learning.NextReviewDate = now.AddDate(0, 0, 6)

	perf := map[spacedrep.Method]selector.Performance{
		spacedrep.MethodTraditional:    {Method: spacedrep.MethodTraditional, Attempts: 10, Correct: 5},
		spacedrep.MethodMultipleChoice: {Method: spacedrep.MethodMultipleChoice, Attempts: 10, Correct: 9},
	}

	var out bytes.Buffer
	writeStats(&out, []spacedrep.Record{fresh, learning}, perf, selector.DefaultConfig(), now)

	s := out.String()
	assert.Contains(t, s, "Items: 2   Due now: 1")
	assert.Contains(t, s, "50%")
	assert.Contains(t, s, "weak")
	assert.Contains(t, s, "90%")
	assert.Contains(t, s, "mastered")
	assert.Contains(t, s, "audio_recognition")
}
