package orchestrator

import (
	"github.com/EchoCog/echollama/core/phi"
	"github.com/EchoCog/echollama/core/validator"
)

// PhiQueryPort is the narrow read-only view of the φ-state machine the
// validator needs (§9: break the orchestrator↔validator cycle with
// interface abstractions rather than a shared mutable type).
type PhiQueryPort interface {
	Query() (value float64, phaseName phi.Phase, distance float64)
}

// ValidatorPort is the narrow view of the validator the orchestrator
// depends on. The concrete implementation wraps core/validator.Validate;
// tests can substitute a stub (§8 S5: a validator stub that always
// rejects).
type ValidatorPort interface {
	Validate(candidate string, ctx validator.Context) (validator.Verdict, error)
}

// defaultValidator adapts the stateless validator.Validate function to
// ValidatorPort.
type defaultValidator struct{}

func (defaultValidator) Validate(candidate string, ctx validator.Context) (validator.Verdict, error) {
	return validator.Validate(candidate, ctx)
}

// phiPort adapts a live *phi.State to PhiQueryPort.
type phiPort struct {
	state *phi.State
}

func (p *phiPort) Query() (float64, phi.Phase, float64) {
	v := p.state.Value
	return v, phi.ClassifyPhase(v), phi.Distance(v)
}
