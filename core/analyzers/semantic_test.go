package analyzers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemanticValidate_EmptyTextIsZeroCoherence(t *testing.T) {
	coherence, issues := SemanticValidate("", nil)
	assert.Equal(t, 0.0, coherence)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "empty")
}

func TestSemanticValidate_NoContextDefaultsToFullOverlap(t *testing.T) {
	coherence, issues := SemanticValidate("a fairly diverse sentence about several distinct topics", nil)
	assert.Greater(t, coherence, 0.0)
	assert.NotContains(t, issues, "no overlap with supplied context")
}

func TestSemanticValidate_FlagsLowVocabularyDiversity(t *testing.T) {
	_, issues := SemanticValidate("the the the the the the the the", nil)
	assert.Contains(t, issues, "low vocabulary diversity")
}

func TestSemanticValidate_FlagsNoContextOverlap(t *testing.T) {
	_, issues := SemanticValidate("a sentence about cooking and recipes", []string{"astrophysics", "quantum"})
	assert.Contains(t, issues, "no overlap with supplied context")
}

func TestSemanticValidate_RewardsContextOverlap(t *testing.T) {
	withOverlap, _ := SemanticValidate("the orchestration pipeline handles phi convergence well", []string{"phi", "convergence"})
	withoutOverlap, _ := SemanticValidate("the orchestration pipeline handles phi convergence well", []string{"astrophysics"})
	assert.Greater(t, withOverlap, withoutOverlap)
}
