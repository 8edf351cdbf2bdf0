package predictive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictBoundedToFive(t *testing.T) {
	history := []string{
		"tell me about golang channels goroutines",
		"how about golang mutexes locking",
		"what about golang generics templates",
		"explain golang interfaces embedding",
		"describe golang modules packages",
		"summarize golang testing coverage",
	}
	preds := Predict(history, "more about golang concurrency patterns")
	assert.LessOrEqual(t, len(preds), maxPredictions)
}

func TestPredictIsPure(t *testing.T) {
	history := []string{"discuss golden ratio mathematics", "explain fibonacci sequence numbers"}
	a := Predict(history, "golden ratio convergence")
	b := Predict(history, "golden ratio convergence")
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}
}

func TestPredictRanksRecentFrequentTopicsHigher(t *testing.T) {
	history := []string{
		"golden ratio mathematics explained",
		"golden ratio appears frequently",
		"golden ratio convergence pattern",
	}
	preds := Predict(history, "golden ratio summary")
	require.NotEmpty(t, preds)
	assert.Equal(t, "golden", preds[0].Kind)
}

func TestAnalyzerHitRateTracksOutcomes(t *testing.T) {
	a := New(4)
	assert.Equal(t, 0.0, a.HitRate())

	a.RecordOutcome("turn-1", "golden", true)
	a.RecordOutcome("turn-2", "fibonacci", false)
	assert.InDelta(t, 0.5, a.HitRate(), 1e-9)
}

func TestAnalyzerLRUEvictsOldest(t *testing.T) {
	a := New(2)
	a.RecordOutcome("t1", "a", true)
	a.RecordOutcome("t2", "b", true)
	a.RecordOutcome("t3", "c", false)

	assert.Equal(t, 2, a.entries.Size())
	_, stillPresent := a.entries.Get("t1")
	assert.False(t, stillPresent)
}
