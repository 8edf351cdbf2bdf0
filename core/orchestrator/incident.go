package orchestrator

import (
	"fmt"

	"github.com/EchoCog/echollama/core/fractalmemory"
	"github.com/EchoCog/echollama/core/manipulation"
	"github.com/EchoCog/echollama/core/predictive"
)

// ensureAnchors lazily creates the Root→Branch(interactions) and
// Root→Branch(incidents)→Leaf lineage every ordinary interaction and
// incident node hangs off of, satisfying the hierarchy rule of §3 without
// inventing a new root per request.
func (o *Orchestrator) ensureAnchors() error {
	if o.state.RootID == "" {
		id, err := o.memory.Store(fractalmemory.Root, "orchestration root", nil, "")
		if err != nil {
			return err
		}
		o.state.RootID = id
	}
	if o.state.InteractionsID == "" {
		id, err := o.memory.Store(fractalmemory.Branch, "interaction history", nil, o.state.RootID)
		if err != nil {
			return err
		}
		o.state.InteractionsID = id
	}
	if o.state.IncidentsID == "" {
		id, err := o.memory.Store(fractalmemory.Branch, "security incidents", nil, o.state.RootID)
		if err != nil {
			return err
		}
		o.state.IncidentsID = id
	}
	if o.state.IncidentLeafID == "" {
		id, err := o.memory.Store(fractalmemory.Leaf, "incident log", nil, o.state.IncidentsID)
		if err != nil {
			return err
		}
		o.state.IncidentLeafID = id
	}
	return nil
}

// blockWithIncident implements §4.G step 2's short-circuit and §4.F's
// irrecoverable path: persist a Seed incident node and return the fixed
// defensive reply without ever reflecting the triggering text (§8
// property 7).
func (o *Orchestrator) blockWithIncident(req Request, report manipulation.Report) Response {
	if err := o.ensureAnchors(); err == nil {
		metadata := map[string]interface{}{
			"threat":        string(report.Threat),
			"score":         report.Score,
			"request_id":    req.ID,
			"text_length":   len(req.Text),
		}
		_, _ = o.memory.Store(fractalmemory.Seed, "manipulation incident", metadata, o.state.IncidentLeafID)
	}

	o.state.recordMode(Override)
	o.state.recordManipulationScore(report.Score)
	_ = o.state.save(o.persist)

	return Response{
		Text:               defensiveReply,
		Mode:               Override,
		Confidence:         0,
		ManipulationScore:  report.Score,
		ManipulationThreat: report.Threat,
		State:              Blocked,
	}
}

// timeoutFallback implements §5's deadline behavior: on an external-LLM
// timeout or unrecoverable generation error, mode falls back to Override
// with a "timeout" violation kind, and the pipeline still runs its update
// step so state stays consistent (§5 Cancellation).
func (o *Orchestrator) timeoutFallback(req Request, report manipulation.Report, mode Mode, confidence float64, predictions []predictive.Prediction) Response {
	text := "I wasn't able to reach the external model in time, so here's a placeholder reply: your request was received and logged."
	leafID := o.recordInteraction(req, text, Override, report, 0)

	o.state.recordMode(Override)
	o.state.recordManipulationScore(report.Score)
	o.state.recordViolations([]string{"timeout"})
	_ = o.state.save(o.persist)

	return Response{
		Text:               text,
		Mode:               Override,
		Confidence:         confidence,
		ManipulationScore:  report.Score,
		ManipulationThreat: report.Threat,
		State:              Emitted,
		NewLeafID:          leafID,
	}
}

// recordInteraction persists a Leaf node summarizing the interaction
// (§4.G step 8), anchored under the interactions branch.
func (o *Orchestrator) recordInteraction(req Request, finalText string, mode Mode, report manipulation.Report, phiValue float64) string {
	if err := o.ensureAnchors(); err != nil {
		o.logger.Error("failed to ensure memory anchors", map[string]interface{}{"error": err.Error()})
		return ""
	}
	content := fmt.Sprintf("Q: %s\nA: %s", req.Text, finalText)
	metadata := map[string]interface{}{
		"mode":               string(mode),
		"manipulation_score": report.Score,
		"phi_value":          phiValue,
		"request_id":         req.ID,
	}
	id, err := o.memory.Store(fractalmemory.Leaf, content, metadata, o.state.InteractionsID)
	if err != nil {
		o.logger.Error("failed to persist interaction leaf", map[string]interface{}{"error": err.Error()})
		return ""
	}
	return id
}
