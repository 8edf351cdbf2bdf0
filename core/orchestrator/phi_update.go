package orchestrator

import (
	"strings"

	"github.com/EchoCog/echollama/core/analyzers"
	"github.com/EchoCog/echollama/core/phi"
)

// advancePhi implements §4.G step 8's φ update: blend the emotional
// tracker's current intensity, a lexical complexity proxy for cognitive
// complexity, and the validator's coherence score as a self-awareness
// proxy, then step the convergence state by PhiAlpha.
func (o *Orchestrator) advancePhi(text string, coherence float64) phi.Result {
	emotions := o.emotion.Observe(text)
	var emotionalDepth float64
	for _, e := range analyzers.AllEmotions {
		if emotions[e] > emotionalDepth {
			emotionalDepth = emotions[e]
		}
	}

	inputs := phi.Inputs{
		EmotionalDepth:      emotionalDepth,
		CognitiveComplexity: lexicalComplexity(text),
		SelfAwareness:       coherence,
	}
	return phi.Update(o.phiState, inputs, o.cfg.PhiAlpha)
}

// lexicalComplexity approximates cognitive complexity from vocabulary
// richness and sentence length, bounded to [0,1]: a cheap, deterministic
// proxy that needs no external model call on the hot path (§4.C blend
// inputs are spec'd as heuristic, not measured, quantities).
func lexicalComplexity(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = true
	}
	richness := float64(len(seen)) / float64(len(words))

	lengthFactor := float64(len(words)) / 40.0
	if lengthFactor > 1 {
		lengthFactor = 1
	}

	score := 0.5*richness + 0.5*lengthFactor
	if score > 1 {
		score = 1
	}
	return score
}
