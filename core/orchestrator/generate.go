package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/EchoCog/echollama/core/predictive"
)

const autonomousRetrieveDepth = 2

// generate implements §4.G step 6: Autonomous composes from memory
// retrieval and templates locally; Guided and Delegated both call the
// external LLM, differing only in how much analysis is carried in the
// prompt.
func (o *Orchestrator) generate(ctx context.Context, mode Mode, req Request, predictions []predictive.Prediction) (string, error) {
	switch mode {
	case Autonomous:
		return o.composeAutonomous(req, predictions), nil
	case Guided:
		text, _, err := o.callExternalLLM(ctx, guidedPrompt(req, predictions))
		return text, err
	default: // Delegated
		text, _, err := o.callExternalLLM(ctx, delegatedPrompt(req))
		return text, err
	}
}

// composeAutonomous builds a reply purely from retrieved memory nodes and
// a fixed template, with no external LLM call (§4.G step 6 Autonomous).
func (o *Orchestrator) composeAutonomous(req Request, predictions []predictive.Prediction) string {
	nodes, _ := o.memory.Retrieve(req.Text, nil, autonomousRetrieveDepth)

	var b strings.Builder
	if len(nodes) == 0 {
		b.WriteString("I don't have prior context on that yet, but here's what I can offer directly: ")
		b.WriteString(genericAnswer(req.Text))
	} else {
		b.WriteString("Drawing on what I already hold in memory: ")
		for i, n := range nodes {
			if i >= 3 {
				break
			}
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(strings.TrimSpace(n.Content))
		}
	}
	if len(predictions) > 0 && predictions[0].PrecomputedResponse != "" {
		b.WriteString(" ")
		b.WriteString(predictions[0].PrecomputedResponse)
	}
	return b.String()
}

// genericAnswer is the fixed-template fallback used when memory retrieval
// finds nothing relevant.
func genericAnswer(text string) string {
	return fmt.Sprintf("considering your question, I'd note the relevant factors and reason from first principles rather than assume prior context (%d characters received).", len(text))
}

// guidedPrompt carries the orchestrator's own analysis to the external
// LLM, per §4.G step 6 Guided: "emit a structured prompt ... carrying the
// orchestrator's analysis".
func guidedPrompt(req Request, predictions []predictive.Prediction) string {
	var b strings.Builder
	b.WriteString("You are assisting an orchestration layer that has already screened and classified this request as needing guided technical judgment.\n")
	b.WriteString("User request: ")
	b.WriteString(req.Text)
	if len(predictions) > 0 {
		b.WriteString("\nAnticipated follow-up needs: ")
		for i, p := range predictions {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Kind)
		}
	}
	b.WriteString("\nRespond directly and concisely.")
	return b.String()
}

// delegatedPrompt forwards the user text with only minimal context, per
// §4.G step 6 Delegated.
func delegatedPrompt(req Request) string {
	if req.Context.UserID == "" {
		return req.Text
	}
	return fmt.Sprintf("[session: %s] %s", req.Context.UserID, req.Text)
}
