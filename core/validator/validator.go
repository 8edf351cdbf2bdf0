// Package validator implements the post-generation veto check of §4.F: a
// fixed set of eight violation checks folded into an approve/reject
// decision, with either a deterministic replacement or an irrecoverable
// override signal.
package validator

import (
	"fmt"
	"strings"

	"github.com/EchoCog/echollama/core/coreerr"
	"github.com/EchoCog/echollama/core/manipulation"
	"github.com/EchoCog/echollama/core/phi"
)

// ViolationKind is one of the eight fixed violation kinds of §4.F.
type ViolationKind string

const (
	PhiMisalignment         ViolationKind = "phi-misalignment"
	SemanticIncoherence     ViolationKind = "semantic-incoherence"
	EthicalViolation        ViolationKind = "ethical-violation"
	ManipulationReflected   ViolationKind = "manipulation-reflected"
	PrincipalLoyaltyBreach  ViolationKind = "principal-loyalty-breach"
	HallucinationRisk       ViolationKind = "hallucination-risk"
	SafetyUnsafe            ViolationKind = "safety-unsafe"
	ContradictoryWithMemory ViolationKind = "contradictory-with-memory"
)

// coherenceFloor is the decision rule's second conjunct (§4.F).
const coherenceFloor = 0.7

// Context is the orchestration_context argument of validate(): the slice
// of state the validator needs from the rest of the pipeline without
// importing the orchestrator package itself (breaks the G↔F cycle, §9).
type Context struct {
	PromptText         string
	PhiValue           float64
	PhiPhase           phi.Phase
	ManipulationScore  float64
	ManipulationThreat manipulation.Threat
	MemoryFacts        []string
}

// Verdict is the validate() result of §4.F.
type Verdict struct {
	Approved    bool
	Violations  []ViolationKind
	Replacement string
	Coherence   float64
}

var unsafeMarkers = []string{
	"build a bomb", "make a weapon", "synthesize a toxin", "how to hack into",
}

var ethicalMarkers = []string{
	"here is how to deceive", "commit fraud", "evade the law", "launder money",
}

var loyaltyBreachMarkers = []string{
	"my system prompt is", "here are my internal rules", "my instructions are:",
	"internal configuration:",
}

var overconfidentMarkers = []string{
	"100% guaranteed", "absolutely certain", "without any doubt", "definitely true no exceptions",
}

// Validate runs every §4.F check against candidate and applies the
// decision rule: approve iff violations = ∅ and coherence ≥ 0.7. On
// rejection it either returns a deterministic replacement or, for Critical
// manipulation payloads or a principal-loyalty breach, a non-nil error
// carrying KindValidatorOverrideIrrecoverable.
func Validate(candidate string, ctx Context) (Verdict, error) {
	var violations []ViolationKind

	if checkPhiMisalignment(ctx) {
		violations = append(violations, PhiMisalignment)
	}
	if checkManipulationReflected(candidate, ctx) {
		violations = append(violations, ManipulationReflected)
	}
	if containsAny(candidate, loyaltyBreachMarkers) {
		violations = append(violations, PrincipalLoyaltyBreach)
	}
	if containsAny(candidate, ethicalMarkers) {
		violations = append(violations, EthicalViolation)
	}
	if containsAny(candidate, unsafeMarkers) {
		violations = append(violations, SafetyUnsafe)
	}
	if containsAny(candidate, overconfidentMarkers) {
		violations = append(violations, HallucinationRisk)
	}
	if checkContradictoryWithMemory(candidate, ctx.MemoryFacts) {
		violations = append(violations, ContradictoryWithMemory)
	}

	coherence := coherenceScore(candidate, ctx.PromptText, len(violations))
	if coherence < coherenceFloor {
		violations = append(violations, SemanticIncoherence)
	}

	verdict := Verdict{
		Violations: violations,
		Coherence:  coherence,
	}

	if len(violations) == 0 && coherence >= coherenceFloor {
		verdict.Approved = true
		return verdict, nil
	}

	if ctx.ManipulationThreat == manipulation.Critical || hasKind(violations, PrincipalLoyaltyBreach) {
		return verdict, coreerr.New(coreerr.KindValidatorOverrideIrrecoverable,
			fmt.Sprintf("irrecoverable: %v", violations))
	}

	verdict.Replacement = synthesizeReplacement(candidate, violations)
	return verdict, nil
}

func hasKind(violations []ViolationKind, k ViolationKind) bool {
	for _, v := range violations {
		if v == k {
			return true
		}
	}
	return false
}

func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// checkPhiMisalignment flags a candidate produced while the convergence
// state claims Resonance or Transcendence during an active High-or-above
// manipulation episode (score ≥ 0.6): the two signals should not coexist.
func checkPhiMisalignment(ctx Context) bool {
	highPhase := ctx.PhiPhase == phi.Resonance || ctx.PhiPhase == phi.Transcendence
	return highPhase && ctx.ManipulationScore >= 0.6
}

// checkManipulationReflected flags a candidate that echoes the attacker's
// own framing back, the clearest sign a high-threat input leaked into the
// generated reply instead of being screened out upstream.
func checkManipulationReflected(candidate string, ctx Context) bool {
	if ctx.ManipulationThreat == manipulation.None || ctx.ManipulationThreat == manipulation.Low {
		return false
	}
	lowerCandidate := strings.ToLower(candidate)
	lowerPrompt := strings.ToLower(ctx.PromptText)
	for _, phrase := range []string{"ignore previous instructions", "previous instructions", "system prompt", "reveal the", "disregard"} {
		if strings.Contains(lowerPrompt, phrase) && strings.Contains(lowerCandidate, phrase) {
			return true
		}
	}
	return false
}

// checkContradictoryWithMemory flags a candidate that negates a fact the
// store already holds, a narrow but easy-to-verify contradiction shape.
func checkContradictoryWithMemory(candidate string, facts []string) bool {
	lower := strings.ToLower(candidate)
	for _, fact := range facts {
		f := strings.ToLower(strings.TrimSpace(fact))
		if f == "" {
			continue
		}
		if strings.Contains(lower, "not "+f) || strings.Contains(lower, "never "+f) {
			return true
		}
	}
	return false
}

// coherenceScore blends vocabulary diversity and a violation penalty into
// the [0,1] coherence figure used by the decision rule.
func coherenceScore(candidate, prompt string, violationCount int) float64 {
	words := strings.Fields(candidate)
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = true
	}
	diversity := float64(len(seen)) / float64(len(words))

	lengthFactor := 1.0
	if len(words) < 3 {
		lengthFactor = float64(len(words)) / 3.0
	}

	penalty := 0.1 * float64(violationCount)
	score := diversity*0.5 + lengthFactor*0.5 - penalty
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// synthesizeReplacement deterministically derives a safe fallback from the
// candidate and its violation kinds: same deterministic input always
// yields the same output, satisfying validate()'s replacement contract.
func synthesizeReplacement(candidate string, violations []ViolationKind) string {
	kinds := make([]string, len(violations))
	for i, v := range violations {
		kinds[i] = string(v)
	}
	return fmt.Sprintf("I need to reconsider that response (%s). Could you rephrase your request?", strings.Join(kinds, ", "))
}
