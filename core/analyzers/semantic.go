package analyzers

import "strings"

// SemanticValidate implements semantic_validate(text, context) of §4.I:
// a coherence score in [0,1] plus any issues found, derived from
// vocabulary diversity and agreement with the supplied context terms.
func SemanticValidate(text string, context []string) (float64, []string) {
	var issues []string

	words := strings.Fields(text)
	if len(words) == 0 {
		return 0, []string{"empty text"}
	}

	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = true
	}
	diversity := float64(len(seen)) / float64(len(words))
	if diversity < 0.3 {
		issues = append(issues, "low vocabulary diversity")
	}

	overlap := 0.0
	if len(context) > 0 {
		lower := strings.ToLower(text)
		var matched int
		for _, term := range context {
			if term == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(term)) {
				matched++
			}
		}
		overlap = float64(matched) / float64(len(context))
		if overlap == 0 {
			issues = append(issues, "no overlap with supplied context")
		}
	} else {
		overlap = 1
	}

	coherence := 0.6*diversity + 0.4*overlap
	if coherence > 1 {
		coherence = 1
	}
	if coherence < 0 {
		coherence = 0
	}
	return coherence, issues
}
