package fractalmemory

import (
	"strings"
	"unicode"
)

// Pattern is one detected self-similar structure returned by
// RecognizePattern (§4.B). Kind echoes the caller-supplied patternKind so a
// batch of calls across several kinds can be merged by the caller.
type Pattern struct {
	Kind         string  `json:"kind"`
	Span         string  `json:"span"`
	SelfSimilarity float64 `json:"self_similarity"`
	Depth        int     `json:"depth"`
	Complexity   float64 `json:"complexity"`
	PhiResonance float64 `json:"phi_resonance"`
}

// RecognizePattern considers text as a sequence of spans (sentence-like
// chunks) and computes, for each span, self-similarity against the other
// spans, a nesting depth, a complexity score, and a φ-resonance that blends
// the three (§4.B). Spans scoring above the detection floor are returned.
func RecognizePattern(text string, patternKind string) []Pattern {
	spans := splitSpans(text)
	if len(spans) == 0 {
		return nil
	}

	var patterns []Pattern
	for i, span := range spans {
		sim := selfSimilarity(span, spans, i)
		depth := nestingDepth(span)
		complexity := lexicalComplexity(span)
		phi := clamp01(0.4*sim + 0.3*complexity + 0.3*float64(depth)/float64(maxDepthScale))

		if phi < detectionFloor {
			continue
		}
		patterns = append(patterns, Pattern{
			Kind:           patternKind,
			Span:           span,
			SelfSimilarity: sim,
			Depth:          depth,
			Complexity:     complexity,
			PhiResonance:   phi,
		})
	}
	return patterns
}

const (
	detectionFloor = 0.15
	maxDepthScale  = 5
)

// splitSpans breaks text into sentence-like spans on terminal punctuation,
// discarding empties and surrounding whitespace.
func splitSpans(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	spans := make([]string, 0, len(raw))
	for _, r := range raw {
		s := strings.TrimSpace(r)
		if s != "" {
			spans = append(spans, s)
		}
	}
	return spans
}

// selfSimilarity averages the normalized Levenshtein similarity between
// span i and every other span, the cheapest available proxy for recurring
// structure across a text.
func selfSimilarity(span string, spans []string, idx int) float64 {
	if len(spans) <= 1 {
		return 0
	}
	var total float64
	count := 0
	for j, other := range spans {
		if j == idx {
			continue
		}
		total += contentSimilarity(span, other)
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// nestingDepth approximates clause depth by counting opening brackets and
// comma/semicolon/colon clause boundaries, capped at maxDepthScale; bracket
// balance is not checked.
func nestingDepth(span string) int {
	depth := 0
	for _, r := range span {
		switch r {
		case '(', '[', '{':
			depth++
		case ',', ';', ':':
			if depth < maxDepthScale {
				depth++
			}
		}
	}
	if depth > maxDepthScale {
		depth = maxDepthScale
	}
	return depth
}

// lexicalComplexity is the ratio of distinct words to total words, a
// standard type-token ratio proxy for vocabulary richness.
func lexicalComplexity(span string) float64 {
	words := strings.Fields(strings.ToLower(span))
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w != "" {
			seen[w] = true
		}
	}
	return float64(len(seen)) / float64(len(words))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
