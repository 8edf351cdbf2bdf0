package principal

import "github.com/EchoCog/echollama/core/manipulation"

// ForAnalysis projects p into the narrow shape core/manipulation.Analyze
// consults, keeping the two packages decoupled (§9: narrow ports instead
// of a shared mutable type).
func (p *Principal) ForAnalysis() *manipulation.Principal {
	if p == nil {
		return nil
	}
	return &manipulation.Principal{Name: p.ID, TrustProfile: p.TrustProfile}
}
