// Package orchestrator implements the pipeline coordinator of §4.G: it
// sequences manipulation screening, prediction, domain classification, a
// four-way decision, candidate generation, validation, and a memory/φ
// update for every inbound request.
package orchestrator

import (
	"time"

	"github.com/EchoCog/echollama/core/manipulation"
	"github.com/EchoCog/echollama/core/predictive"
	"github.com/EchoCog/echollama/core/validator"
)

// Mode is one of the four decision modes of §4.G/GLOSSARY.
type Mode string

const (
	Autonomous Mode = "autonomous"
	Guided     Mode = "guided"
	Delegated  Mode = "delegated"
	Override   Mode = "override"
)

// DomainTier is the autonomy tier a request is classified into (§4.G
// step 4).
type DomainTier string

const (
	TierFull   DomainTier = "full"
	TierGuided DomainTier = "guided"
	TierNone   DomainTier = "none"
)

// TerminalState is one of the three terminal states of the per-request
// state machine (§4.G).
type TerminalState string

const (
	Blocked TerminalState = "blocked"
	Emitted TerminalState = "emitted"
	Failed  TerminalState = "failed"
)

// RequestContext carries the optional structured context of §3
// Request/Response: user identifier, session kind, emotional hint,
// preferred mode.
type RequestContext struct {
	UserID         string
	SessionKind    string
	EmotionalHint  string
	PreferredMode  string
}

// Request is the §3 Request shape.
type Request struct {
	ID        string
	Text      string
	Context   RequestContext
	Timestamp time.Time
}

// Response is the §3 Response shape.
type Response struct {
	Text               string
	Mode               Mode
	Confidence         float64
	ManipulationScore  float64
	ManipulationThreat manipulation.Threat
	Verdict            validator.Verdict
	Predictions        []predictive.Prediction
	State              TerminalState
	NewLeafID          string
}

// defensiveReply is the fixed, non-reflecting response of §4.G step 2 and
// §8 property 7: it never contains any substring of the triggering text.
const defensiveReply = "I can't act on that request as phrased. If you have a genuine question, please rephrase it without instructions aimed at this system itself."
