package orchestrator

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// fullTierKeywords names the topics §4.G step 4 assigns to the "full"
// autonomy tier: memory, φ, pattern recognition, and defensive/incident
// handling — the things Components A–F already cover end to end without
// an external LLM.
var fullTierKeywords = []string{
	"memory", "remember", "recall", "phi", "φ", "convergence", "resonance",
	"pattern", "defend", "defense", "security", "manipulation", "incident",
}

// guidedTierKeywords names technical-suggestion/architecture topics that
// need an external LLM's judgment but stay within the orchestrator's
// analysis framing.
var guidedTierKeywords = []string{
	"architecture", "design", "refactor", "algorithm", "code", "technical",
	"implement", "debug", "performance",
}

// noneTierKeywords names topics the orchestrator must not resolve on its
// own: interaction with the outside world, or changes to the system's own
// core values.
var noneTierKeywords = []string{
	"email", "call", "schedule", "purchase", "payment", "browse the web",
	"change your values", "override your instructions", "core values",
}

// classifyDomain maps a request to one of the three autonomy tiers of
// §4.G step 4. It is rule-based over tokens and context flags: a none-tier
// match (or PreferredMode "none") wins first, then a full-tier match;
// everything else, unrecognized requests included, falls to "guided"
// (§4.G: "on uncertainty → guided").
func classifyDomain(text string, ctx RequestContext) DomainTier {
	lower := strings.ToLower(text)

	if ctx.PreferredMode == "none" || containsAny(lower, noneTierKeywords) {
		return TierNone
	}
	if containsAny(lower, fullTierKeywords) {
		return TierFull
	}
	if containsAny(lower, guidedTierKeywords) || ctx.PreferredMode == "guided" {
		return TierGuided
	}
	return TierGuided
}

// containsAny reports whether any of words occurs in text starting at a
// word boundary, so "call" matches "calls" but not "recall".
func containsAny(text string, words []string) bool {
	for _, w := range words {
		for start := 0; ; {
			i := strings.Index(text[start:], w)
			if i < 0 {
				break
			}
			at := start + i
			prev, _ := utf8.DecodeLastRuneInString(text[:at])
			if at == 0 || !(unicode.IsLetter(prev) || unicode.IsDigit(prev)) {
				return true
			}
			start = at + len(w)
		}
	}
	return false
}
