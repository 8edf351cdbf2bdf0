package toolserver

import (
	"context"
	"fmt"

	"github.com/EchoCog/echollama/core/orchestrator"
)

// toolOrchestratedInteraction implements the `orchestrated_interaction`
// tool: the primary entry point that runs the full §4.G pipeline for a
// single user turn.
func toolOrchestratedInteraction(ctx context.Context, d *Dispatcher, raw map[string]interface{}) (string, error) {
	a := args(raw)
	userInput := a.str("user_input")
	contextArgs := args(a.jsonField("context"))

	req := orchestrator.Request{
		ID:   a.str("request_id"),
		Text: userInput,
		Context: orchestrator.RequestContext{
			UserID:        contextArgs.str("user_id"),
			SessionKind:   contextArgs.str("session_kind"),
			EmotionalHint: contextArgs.str("emotional_hint"),
			PreferredMode: contextArgs.str("preferred_mode"),
		},
	}

	d.mu.Lock()
	if d.principal != nil && req.Context.UserID != "" && req.Context.UserID == d.principal.ID {
		d.principal.Observe(userInput)
	}
	resp := d.orch.Process(ctx, req)
	d.mu.Unlock()

	return frameBody("orchestrated_interaction", resp.Text,
		field{"mode", resp.Mode},
		field{"state", resp.State},
		field{"confidence", fmt.Sprintf("%.3f", resp.Confidence)},
		field{"manipulation_score", fmt.Sprintf("%.3f", resp.ManipulationScore)},
		field{"manipulation_threat", resp.ManipulationThreat},
		field{"validator_approved", resp.Verdict.Approved},
		field{"validator_coherence", fmt.Sprintf("%.3f", resp.Verdict.Coherence)},
		field{"predictions", len(resp.Predictions)},
		field{"memory_leaf_id", resp.NewLeafID},
	), nil
}
