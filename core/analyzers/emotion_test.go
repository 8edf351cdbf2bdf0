package analyzers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmotionAnalyze_DetectsKeywordedEmotions(t *testing.T) {
	scores := EmotionAnalyze("I'm so curious about how does this work, it's wonderful and exciting")
	assert.Greater(t, scores[Curiosity], 0.0)
	assert.Greater(t, scores[Joy], 0.0)
	assert.Equal(t, 0.0, scores[Frustration])
}

func TestEmotionAnalyze_EveryEmotionPresentInOutput(t *testing.T) {
	scores := EmotionAnalyze("hello")
	assert.Len(t, scores, len(AllEmotions))
	for _, e := range AllEmotions {
		_, ok := scores[e]
		assert.True(t, ok, "missing emotion %s", e)
	}
}

func TestEmotionAnalyze_IsPure(t *testing.T) {
	text := "this is broken and annoying, ugh"
	first := EmotionAnalyze(text)
	second := EmotionAnalyze(text)
	assert.Equal(t, first, second)
}

func TestTracker_DecaysTowardNeutralBetweenObservations(t *testing.T) {
	tr := NewTracker()
	excited := tr.Observe("I'm so happy and delighted, this is great and wonderful")
	assert.Greater(t, excited[Joy], 0.0)

	settled := tr.Observe("okay")
	assert.Less(t, settled[Joy], excited[Joy])
}

func TestTracker_ObserveReturnsIndependentSnapshot(t *testing.T) {
	tr := NewTracker()
	first := tr.Observe("fine")
	first[Joy] = 99
	second := tr.Observe("fine")
	assert.NotEqual(t, 99.0, second[Joy])
}
