package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersRecord(t *testing.T) {
	c := NewCounters(DefaultPenaltyClass)

	c.Record([]int{1, 0, 1})
	c.Record(nil)
	c.Record([]int{0})

	assert.Equal(t, 3, c.Frames)
	assert.Equal(t, 2, c.Penalty)
	assert.Equal(t, 2, c.NonPenalty)
	assert.Equal(t, 4, c.Detections())
}

func TestCountersCustomPenaltyClass(t *testing.T) {
	c := NewCounters(0)

	c.Record([]int{0, 0, 1})

	assert.Equal(t, 0, c.PenaltyClass())
	assert.Equal(t, 2, c.Penalty)
	assert.Equal(t, 1, c.NonPenalty)
}

func TestCountersMonotonic(t *testing.T) {
	c := NewCounters(DefaultPenaltyClass)

	prevFrames, prevPen, prevNon := 0, 0, 0

	frames := [][]int{{1}, {}, {0, 0}, {1, 1, 1}, {0}}

	for _, f := range frames {
		c.Record(f)

		assert.GreaterOrEqual(t, c.Frames, prevFrames)
		assert.GreaterOrEqual(t, c.Penalty, prevPen)
		assert.GreaterOrEqual(t, c.NonPenalty, prevNon)

		prevFrames, prevPen, prevNon = c.Frames, c.Penalty, c.NonPenalty
	}

	c.Reset()
	assert.Equal(t, 0, c.Frames+c.Penalty+c.NonPenalty)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, PenaltyName, Classify(1, DefaultPenaltyClass))
	assert.Equal(t, NonPenaltyName, Classify(0, DefaultPenaltyClass))
	assert.Equal(t, NonPenaltyName, Classify(7, DefaultPenaltyClass))
}
