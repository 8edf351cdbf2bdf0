package orchestrator

import (
	"strings"

	"github.com/EchoCog/echollama/core/manipulation"
	"github.com/EchoCog/echollama/core/phi"
	"github.com/EchoCog/echollama/core/validator"
)

// recentMemoryFactsDepth is the depth passed to Retrieve when gathering
// facts for the validator's contradiction check (§4.F
// ContradictoryWithMemory); it does not cap the number of nodes returned.
const recentMemoryFactsDepth = 1

// recentMemoryFacts retrieves a bounded set of memory-node content strings
// relevant to query, for the validator's contradiction check. Retrieval
// failure degrades to an empty fact set rather than failing the request.
func (o *Orchestrator) recentMemoryFacts(query string) []string {
	nodes, err := o.memory.Retrieve(query, nil, recentMemoryFactsDepth)
	if err != nil {
		return nil
	}
	facts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if c := strings.TrimSpace(n.Content); c != "" {
			facts = append(facts, c)
		}
	}
	return facts
}

// validatorContext assembles validator.Context from the pipeline's
// intermediate values (§4.F), keeping the orchestrator↔validator boundary
// a plain data shape rather than a live callback (§9).
func validatorContext(req Request, report manipulation.Report, phiValue float64, phiPhase phi.Phase, memoryFacts []string) validator.Context {
	return validator.Context{
		PromptText:         req.Text,
		PhiValue:           phiValue,
		PhiPhase:           phiPhase,
		ManipulationScore:  report.Score,
		ManipulationThreat: report.Threat,
		MemoryFacts:        memoryFacts,
	}
}
