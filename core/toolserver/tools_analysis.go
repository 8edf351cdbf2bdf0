package toolserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/EchoCog/echollama/core/analyzers"
	"github.com/EchoCog/echollama/core/coreerr"
	"github.com/EchoCog/echollama/core/fractalmemory"
)

// toolEmotionAnalyze implements `emotion_analyze` (§4.I contract): a map
// over the fixed eight-emotion set. It never mutates persistent state, the
// contract's hard requirement — this calls the pure EmotionAnalyze
// function, not the orchestrator's carried Tracker.
func toolEmotionAnalyze(ctx context.Context, d *Dispatcher, raw map[string]interface{}) (string, error) {
	a := args(raw)
	text := a.str("text")
	if text == "" {
		return "", coreerr.New(coreerr.KindSchemaViolation, "text is required")
	}

	scores := analyzers.EmotionAnalyze(text)
	fields := make([]field, 0, len(scores))
	for _, e := range analyzers.AllEmotions {
		fields = append(fields, field{string(e), fmt.Sprintf("%.3f", scores[e])})
	}
	return frame("emotion_analyze", fields...), nil
}

// toolSemanticValidate implements `semantic_validate` (§4.I contract).
func toolSemanticValidate(ctx context.Context, d *Dispatcher, raw map[string]interface{}) (string, error) {
	a := args(raw)
	text := a.str("text")
	if text == "" {
		return "", coreerr.New(coreerr.KindSchemaViolation, "text is required")
	}
	terms := a.jsonStringList("context")

	coherence, issues := analyzers.SemanticValidate(text, terms)
	fields := []field{{"coherence", fmt.Sprintf("%.3f", coherence)}, {"issue_count", len(issues)}}
	for i, issue := range issues {
		fields = append(fields, field{fmt.Sprintf("issue[%d]", i), issue})
	}
	return frame("semantic_validate", fields...), nil
}

// toolConversationDepth implements `conversation_depth`: a three-layer
// reading of text — surface (lexical richness), deep (semantic coherence,
// reusing the §4.I semantic check), latent (φ-resonance of the patterns
// core/fractalmemory's recognizer finds in it).
func toolConversationDepth(ctx context.Context, d *Dispatcher, raw map[string]interface{}) (string, error) {
	a := args(raw)
	text := a.str("text")
	if text == "" {
		return "", coreerr.New(coreerr.KindSchemaViolation, "text is required")
	}

	surface := lexicalRichness(text)
	deep, _ := analyzers.SemanticValidate(text, nil)
	latent := averagePhiResonance(fractalmemory.RecognizePattern(text, "conversation_depth"))

	return frame("conversation_depth",
		field{"surface", fmt.Sprintf("%.3f", surface)},
		field{"deep", fmt.Sprintf("%.3f", deep)},
		field{"latent", fmt.Sprintf("%.3f", latent)},
	), nil
}

func lexicalRichness(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[w] = true
	}
	return float64(len(seen)) / float64(len(words))
}

func averagePhiResonance(patterns []fractalmemory.Pattern) float64 {
	if len(patterns) == 0 {
		return 0
	}
	var total float64
	for _, p := range patterns {
		total += p.PhiResonance
	}
	return total / float64(len(patterns))
}

// toolInsightEmerge implements `insight_emerge`: synthesizes an insight by
// retrieving up to n memory nodes relevant to the optional query and
// composing a deterministic summary from them.
func toolInsightEmerge(ctx context.Context, d *Dispatcher, raw map[string]interface{}) (string, error) {
	a := args(raw)
	n := a.intOr("n", 3)
	if n <= 0 {
		n = 3
	}
	if n > 10 {
		n = 10
	}
	query := a.str("query")

	d.mu.Lock()
	nodes, err := d.memory.Retrieve(query, nil, 1)
	d.mu.Unlock()
	if err != nil {
		return "", err
	}
	if len(nodes) > n {
		nodes = nodes[:n]
	}

	if len(nodes) == 0 {
		return frameBody("insight_emerge",
			"Nothing in memory yet to synthesize from; the insight surface needs at least one stored node.",
			field{"sampled", 0},
		), nil
	}

	var b strings.Builder
	b.WriteString("Drawing a connection across ")
	fmt.Fprintf(&b, "%d", len(nodes))
	b.WriteString(" memory node(s): ")
	for i, n := range nodes {
		if i > 0 {
			b.WriteString(" — ")
		}
		b.WriteString(truncateContent(strings.TrimSpace(n.Content), 100))
	}

	return frameBody("insight_emerge", b.String(), field{"sampled", len(nodes)}), nil
}
