package toolserver

import (
	"context"
	"fmt"

	"github.com/EchoCog/echollama/core/coreerr"
	"github.com/EchoCog/echollama/core/fractalmemory"
)

// parseKind maps the tool-facing lowercase kind string to fractalmemory.Kind,
// failing with SchemaViolation on anything outside the closed set (§3).
func parseKind(s string) (fractalmemory.Kind, error) {
	switch s {
	case "root":
		return fractalmemory.Root, nil
	case "branch":
		return fractalmemory.Branch, nil
	case "leaf":
		return fractalmemory.Leaf, nil
	case "seed":
		return fractalmemory.Seed, nil
	default:
		return "", coreerr.New(coreerr.KindSchemaViolation, fmt.Sprintf("unrecognized kind %q", s))
	}
}

// toolMemoryStore implements `memory_store`: §4.B store(), surfaced with
// its failure kinds (HierarchyViolation, MissingParent) unwrapped to the
// §4.H error line rather than a generic failure.
func toolMemoryStore(ctx context.Context, d *Dispatcher, raw map[string]interface{}) (string, error) {
	a := args(raw)
	kind, err := parseKind(a.str("kind"))
	if err != nil {
		return "", err
	}
	content := a.str("content")
	if content == "" {
		return "", coreerr.New(coreerr.KindSchemaViolation, "content is required")
	}
	metadata := a.jsonField("metadata")
	parent := a.str("parent")

	d.mu.Lock()
	id, storeErr := d.memory.Store(kind, content, metadata, parent)
	d.mu.Unlock()
	if storeErr != nil {
		return "", storeErr
	}

	return frame("memory_store",
		field{"id", id},
		field{"kind", kind},
		field{"parent", parent},
	), nil
}

// toolMemoryRetrieve implements `memory_retrieve`: §4.B retrieve().
func toolMemoryRetrieve(ctx context.Context, d *Dispatcher, raw map[string]interface{}) (string, error) {
	a := args(raw)
	query := a.str("query")
	depth := a.intOr("depth", 1)

	var kindFilter *fractalmemory.Kind
	if ks := a.str("kind"); ks != "" {
		k, err := parseKind(ks)
		if err != nil {
			return "", err
		}
		kindFilter = &k
	}

	d.mu.Lock()
	nodes, err := d.memory.Retrieve(query, kindFilter, depth)
	d.mu.Unlock()
	if err != nil {
		return "", err
	}

	fields := []field{{"count", len(nodes)}}
	for i, n := range nodes {
		if i >= 10 {
			break
		}
		fields = append(fields, field{fmt.Sprintf("node[%d]", i), fmt.Sprintf("%s (%s) phi=%.2f: %s", n.ID, n.Kind, n.Phi, truncateContent(n.Content, 80))})
	}
	return frame("memory_retrieve", fields...), nil
}

func truncateContent(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// toolMemoryPatternSearch implements `memory_pattern_search`: §4.B
// recognize_pattern().
func toolMemoryPatternSearch(ctx context.Context, d *Dispatcher, raw map[string]interface{}) (string, error) {
	a := args(raw)
	text := a.str("text")
	if text == "" {
		return "", coreerr.New(coreerr.KindSchemaViolation, "text is required")
	}
	patternKind := a.strOr("pattern_kind", "general")

	patterns := fractalmemory.RecognizePattern(text, patternKind)

	fields := []field{{"count", len(patterns)}}
	for i, p := range patterns {
		if i >= 10 {
			break
		}
		fields = append(fields, field{
			fmt.Sprintf("pattern[%d]", i),
			fmt.Sprintf("similarity=%.2f depth=%d complexity=%.2f phi=%.2f span=%q", p.SelfSimilarity, p.Depth, p.Complexity, p.PhiResonance, truncateContent(p.Span, 60)),
		})
	}
	return frame("memory_pattern_search", fields...), nil
}
