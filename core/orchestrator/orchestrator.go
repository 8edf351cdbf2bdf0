package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/EchoCog/echollama/core/analyzers"
	"github.com/EchoCog/echollama/core/coreerr"
	"github.com/EchoCog/echollama/core/fractalmemory"
	"github.com/EchoCog/echollama/core/llm"
	"github.com/EchoCog/echollama/core/logging"
	"github.com/EchoCog/echollama/core/manipulation"
	"github.com/EchoCog/echollama/core/persistence"
	"github.com/EchoCog/echollama/core/phi"
	"github.com/EchoCog/echollama/core/predictive"
	"github.com/EchoCog/echollama/core/principal"
	"github.com/EchoCog/echollama/core/validator"
)

// maxRequestBytes is the §3 Request text size bound (64 KiB).
const maxRequestBytes = 64 * 1024

// historyWindow bounds the in-memory recent-request-text window fed to
// the predictive analyzer. It is deliberately not persisted: §4.E gives
// the analyzer itself a bounded LRU for hit-rate bookkeeping, but the raw
// conversation history it is handed is the orchestrator's own ephemeral
// context, not specified to survive a restart.
const historyWindow = 20

// Config bundles the orchestrator's environment-derived tunables (§6).
type Config struct {
	PhiAlpha           float64
	PrincipalThreshold float64
	LLMTimeout         time.Duration
}

// Orchestrator coordinates the §4.G pipeline over Components A–F and I.
// It is built once at startup by the composition root and threaded
// through every tool handler; it owns no package-level state (§9: no
// global singletons).
type Orchestrator struct {
	mu sync.Mutex

	cfg    Config
	logger logging.Logger

	persist     *persistence.Store
	memory      *fractalmemory.Store
	phiState    *phi.State
	predictive  *predictive.Analyzer
	llmSelector *llm.Selector
	validatorP  ValidatorPort
	phiPort     PhiQueryPort
	principal   *principal.Principal
	emotion     *analyzers.Tracker

	state   *State
	history []string
	seq     uint64
}

// New builds an Orchestrator from its dependencies. Passing a nil
// principal means every request is treated as anonymous (§3).
func New(
	cfg Config,
	logger logging.Logger,
	persist *persistence.Store,
	memory *fractalmemory.Store,
	phiState *phi.State,
	predictiveAnalyzer *predictive.Analyzer,
	llmSelector *llm.Selector,
	pr *principal.Principal,
) *Orchestrator {
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 30 * time.Second
	}
	return &Orchestrator{
		cfg:         cfg,
		logger:      logger,
		persist:     persist,
		memory:      memory,
		phiState:    phiState,
		predictive:  predictiveAnalyzer,
		llmSelector: llmSelector,
		validatorP:  defaultValidator{},
		phiPort:     &phiPort{state: phiState},
		principal:   pr,
		emotion:     analyzers.NewTracker(),
		state:       loadOrCreateState(persist),
	}
}

// Process runs the full §4.G pipeline for req and returns the final
// response. It never returns an error for a well-formed request: every
// recognized failure is folded into a Response (§7 "tool responses never
// raise").
func (o *Orchestrator) Process(ctx context.Context, req Request) Response {
	o.mu.Lock()
	defer o.mu.Unlock()

	req = o.normalize(req)
	log := o.logger.With(map[string]interface{}{"request_id": req.ID})

	// Step 2: Screen.
	princ := o.principal.ForAnalysis()
	report := manipulation.Analyze(req.Text, princ, o.cfg.PrincipalThreshold)
	if report.Threat == manipulation.Critical {
		log.Warn("critical manipulation screened", map[string]interface{}{"score": report.Score})
		resp := o.blockWithIncident(req, report)
		o.finalize(resp)
		return resp
	}

	// Step 3: Predict.
	predictions := predictive.Predict(o.history, req.Text)

	// Step 4/5: Classify domain, decide mode.
	tier := classifyDomain(req.Text, req.Context)
	phiValue, phiPhase, _ := o.phiPort.Query()
	confidence := o.confidence(report.Score, phiValue)
	mode := decideMode(tier, confidence)

	// Step 6: Generate candidate.
	candidate, genErr := o.generate(ctx, mode, req, predictions)
	if genErr != nil {
		log.Error("candidate generation failed", map[string]interface{}{"error": genErr.Error()})
		resp := o.timeoutFallback(req, report, mode, confidence, predictions)
		o.finalize(resp)
		return resp
	}

	// Step 7: Validate.
	memoryFacts := o.recentMemoryFacts(req.Text)
	verdict, valErr := o.validatorP.Validate(candidate, validatorContext(req, report, phiValue, phiPhase, memoryFacts))
	finalMode := mode
	finalText := candidate
	state := Emitted
	if valErr != nil {
		if ce, ok := coreerr.As(valErr); ok && ce.Kind == coreerr.KindValidatorOverrideIrrecoverable {
			log.Warn("validator irrecoverable override", map[string]interface{}{"violations": verdict.Violations})
			resp := o.blockWithIncident(req, report)
			o.finalize(resp)
			return resp
		}
		state = Failed
	} else if !verdict.Approved {
		finalMode = Override
		if verdict.Replacement != "" {
			finalText = verdict.Replacement
		} else {
			finalText = defensiveReply
		}
	}

	// Step 8: Update.
	leafID := o.recordInteraction(req, finalText, finalMode, report, phiValue)
	o.advancePhi(req.Text, verdict.Coherence)
	o.recordPrediction(req.ID, predictions, finalText)

	o.state.recordMode(finalMode)
	o.state.recordManipulationScore(report.Score)
	o.state.recordViolations(violationStrings(verdict.Violations))
	o.state.PredictionHitRate = o.predictive.HitRate()
	if err := o.state.save(o.persist); err != nil {
		log.Error("failed to persist orchestrator state", map[string]interface{}{"error": err.Error()})
	}

	o.pushHistory(req.Text)

	return Response{
		Text:               finalText,
		Mode:               finalMode,
		Confidence:         confidence,
		ManipulationScore:  report.Score,
		ManipulationThreat: report.Threat,
		Verdict:            verdict,
		Predictions:        predictions,
		State:              state,
		NewLeafID:          leafID,
	}
}

// normalize implements §4.G step 1: strip control characters, cap length,
// and tag the request with a monotone sequence number for ordering.
func (o *Orchestrator) normalize(req Request) Request {
	req.Text = stripControl(req.Text)
	if len(req.Text) > maxRequestBytes {
		req.Text = req.Text[:maxRequestBytes]
	}
	if req.ID == "" {
		req.ID = fmt.Sprintf("req_%d", atomic.AddUint64(&o.seq, 1))
	} else {
		atomic.AddUint64(&o.seq, 1)
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}
	return req
}

func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// confidence blends (1 − manipulation score), prediction hit-rate, and
// φ-value normalized to [0,1] (§4.G step 5).
func (o *Orchestrator) confidence(manipulationScore, phiValue float64) float64 {
	phiNorm := (phiValue - 1.0) / (phi.GoldenRatio - 1.0)
	c := 0.4*(1-manipulationScore) + 0.3*o.predictive.HitRate() + 0.3*phiNorm
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return c
}

// decideMode applies the §4.G step 5 decision table.
func decideMode(tier DomainTier, confidence float64) Mode {
	switch tier {
	case TierFull:
		if confidence >= 0.8 {
			return Autonomous
		}
		return Guided
	case TierNone:
		return Delegated
	default:
		return Guided
	}
}

func violationStrings(vs []validator.ViolationKind) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

func (o *Orchestrator) pushHistory(text string) {
	o.history = append(o.history, text)
	if len(o.history) > historyWindow {
		o.history = o.history[len(o.history)-historyWindow:]
	}
}
