// Package toolserver implements the Tool Dispatch surface of §4.H: the
// fixed thirteen-tool catalogue exposed to the LLM client, argument schema
// validation, and the bounded text+key/value response framing shared by
// every tool. It is the composition root's single entry point into
// Components A–I; transport framing (stdio JSON-RPC, HTTP+SSE) lives
// alongside it in this package but never reaches into a tool body
// directly (§9: narrow ports, no hidden globals).
package toolserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/EchoCog/echollama/core/coreerr"
	"github.com/EchoCog/echollama/core/fractalmemory"
	"github.com/EchoCog/echollama/core/logging"
	"github.com/EchoCog/echollama/core/orchestrator"
	"github.com/EchoCog/echollama/core/persistence"
	"github.com/EchoCog/echollama/core/phi"
	"github.com/EchoCog/echollama/core/principal"
)

// Config bundles the tunables direct (non-orchestrated) tool calls need,
// mirroring orchestrator.Config's environment-derived defaults (§6).
type Config struct {
	PhiAlpha float64
}

// Dispatcher holds every dependency the thirteen tool handlers need. It is
// built once by the composition root and is the only object a transport
// (stdio or SSE) talks to. Its own mutex guards the state mutated by tool
// calls that bypass the orchestrator pipeline (phi_update, memory_store),
// since §5 assumes a single writer but direct tool calls and orchestrated
// ones both reach the same phi.State/fractalmemory.Store.
type Dispatcher struct {
	mu sync.Mutex

	cfg       Config
	orch      *orchestrator.Orchestrator
	memory    *fractalmemory.Store
	phiState  *phi.State
	principal *principal.Principal
	persist   *persistence.Store
	logger    logging.Logger
	startedAt time.Time
}

// New builds a Dispatcher over the already-constructed core components.
func New(
	cfg Config,
	orch *orchestrator.Orchestrator,
	memory *fractalmemory.Store,
	phiState *phi.State,
	pr *principal.Principal,
	persist *persistence.Store,
	logger logging.Logger,
) *Dispatcher {
	if cfg.PhiAlpha <= 0 {
		cfg.PhiAlpha = 0.05
	}
	return &Dispatcher{
		cfg:       cfg,
		orch:      orch,
		memory:    memory,
		phiState:  phiState,
		principal: pr,
		persist:   persist,
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
}

// toolHandler is the shape every catalogue entry implements: decode args,
// run the operation, return the framed text body or a *coreerr.CoreError.
type toolHandler func(ctx context.Context, d *Dispatcher, args map[string]interface{}) (string, error)

// catalogue is the fixed thirteen-tool set of §4.H. Order here is the
// order tools/list reports them in.
var catalogue = []struct {
	name    string
	purpose string
	handler toolHandler
}{
	{"orchestrated_interaction", "Runs the full request orchestration pipeline.", toolOrchestratedInteraction},
	{"phi_update", "Advances the φ-convergence state from an interaction context.", toolPhiUpdate},
	{"phi_query", "Returns the current φ value, phase, and distance to φ*.", toolPhiQuery},
	{"metamorphosis_readiness", "Reports readiness to transition, from φ distance and memory depth.", toolMetamorphosisReadiness},
	{"phi_domain_insights", "Returns a fixed insight template keyed by domain.", toolPhiDomainInsights},
	{"memory_store", "Stores a fractal memory node.", toolMemoryStore},
	{"memory_retrieve", "Retrieves fractal memory nodes relevant to a query.", toolMemoryRetrieve},
	{"memory_pattern_search", "Recognizes self-similar patterns in text.", toolMemoryPatternSearch},
	{"emotion_analyze", "Scores text over the fixed eight-emotion set.", toolEmotionAnalyze},
	{"semantic_validate", "Checks semantic coherence of text against context terms.", toolSemanticValidate},
	{"conversation_depth", "Scores text across surface/deep/latent layers.", toolConversationDepth},
	{"coevolution_track", "Records an interaction and returns a mutual-growth score.", toolCoevolutionTrack},
	{"insight_emerge", "Synthesizes an insight by sampling recent memory nodes.", toolInsightEmerge},
}

// ToolNames returns the catalogue's fixed tool names in declaration order.
func ToolNames() []string {
	names := make([]string, len(catalogue))
	for i, t := range catalogue {
		names[i] = t.name
	}
	return names
}

// ToolDescription returns the one-line purpose of name, for tools/list.
func ToolDescription(name string) (string, bool) {
	for _, t := range catalogue {
		if t.name == name {
			return t.purpose, true
		}
	}
	return "", false
}

// Call dispatches name with args, returning the bounded text response body
// of §4.H on success. Tool responses never raise (§7): any recognized
// failure is rendered as the error-sigil line instead of a Go error, so a
// transport never needs its own error-translation layer for tool bodies.
// Call still returns an error in the one case a transport must react to
// differently: an unknown tool name, which is a protocol-level condition
// (a SchemaViolation, answered over JSON-RPC with the InvalidParams code),
// not a tool-body failure.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	for _, t := range catalogue {
		if t.name != name {
			continue
		}
		body, err := t.handler(ctx, d, args)
		if err != nil {
			ce, ok := coreerr.As(err)
			if !ok {
				ce = coreerr.Wrap(coreerr.KindInternalInvariant, "unrecognized tool failure", err)
			}
			d.logger.Warn("tool call failed", map[string]interface{}{"tool": name, "kind": string(ce.Kind), "error": ce.Error()})
			return renderError(ce), nil
		}
		return body, nil
	}
	return "", coreerr.New(coreerr.KindSchemaViolation, fmt.Sprintf("unknown tool %q", name))
}
