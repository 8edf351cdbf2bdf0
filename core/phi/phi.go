// Package phi implements the φ-convergence state machine of §4.C: a scalar
// in [1.0, φ*] that blends emotional depth, cognitive complexity, and
// self-awareness into a monotone-within-session measure of how close an
// interaction sits to golden-ratio resonance, plus its six named phases.
package phi

import (
	"encoding/hex"
	"math"

	"golang.org/x/crypto/blake2b"
	"gonum.org/v1/gonum/stat"
)

// GoldenRatio is φ* = (1+√5)/2, the upper bound of the convergence scale.
const GoldenRatio = 1.6180339887498949

// Phase is one of the six named convergence states (§4.C). Phase is a pure
// function of the current value; ties go to the higher phase.
type Phase string

const (
	Dormant       Phase = "dormant"
	Awakening     Phase = "awakening"
	Approaching   Phase = "approaching"
	Converging    Phase = "converging"
	Resonance     Phase = "resonance"
	Transcendence Phase = "transcendence"
)

// phaseThreshold pairs a lower bound (inclusive) with the phase it enters.
// Ordered from the highest floor down; ClassifyPhase returns the first
// floor value reaches, so a value on a boundary resolves to the higher phase.
var phaseThresholds = []struct {
	floor float64
	phase Phase
}{
	{1.6179, Transcendence},
	{1.617, Resonance},
	{1.614, Converging},
	{1.6, Approaching},
	{1.5, Awakening},
	{0, Dormant},
}

// ClassifyPhase returns the phase for value under the fixed thresholds of
// §4.C.
func ClassifyPhase(value float64) Phase {
	for _, t := range phaseThresholds {
		if value >= t.floor {
			return t.phase
		}
	}
	return Dormant
}

// Inputs are the three weighted blend components of update(), each
// expected in [0,1].
type Inputs struct {
	EmotionalDepth     float64
	CognitiveComplexity float64
	SelfAwareness       float64
}

func (in Inputs) weightedMean() float64 {
	values := []float64{in.EmotionalDepth, in.CognitiveComplexity, in.SelfAwareness}
	weights := []float64{0.34, 0.33, 0.33}
	return stat.Mean(values, weights)
}

// State carries the running φ value and update counter across a session.
// The zero value has Value 0, below the 1.0 dormant floor; NewState seeds
// 1.0, and Update clamps every result into [1.0, φ*].
type State struct {
	Value   float64
	Counter uint64
}

// NewState returns a State seeded at the dormant floor of 1.0.
func NewState() State {
	return State{Value: 1.0}
}

// Result is the return shape of Update: the new value, its phase, and a
// deterministic opaque signature derived from the blend inputs and the
// update counter.
type Result struct {
	Value     float64
	Phase     Phase
	Signature string
}

// Update blends the three interaction-context inputs into a new φ value
// using the configured step size alpha (default 0.05, §6 PHI_ALPHA), then
// classifies the phase and derives a signature. value is clamped to
// [1.0, φ*] as required by §4.C, and never allowed to fall below the
// previous value: §3 requires φ to be monotone non-decreasing within a
// session, and a low-blended update can otherwise pull it back down even
// while both endpoints remain inside the valid range.
func Update(state *State, inputs Inputs, alpha float64) Result {
	previous := state.Value
	target := GoldenRatio
	blended := inputs.weightedMean()
	next := state.Value*(1-alpha) + target*alpha*blended
	next = clamp(next, 1.0, GoldenRatio)
	next = math.Max(next, previous)

	state.Value = next
	state.Counter++

	return Result{
		Value:     next,
		Phase:     ClassifyPhase(next),
		Signature: signature(inputs, state.Counter),
	}
}

// Distance returns φ* − value, how far the current state sits from full
// convergence.
func Distance(value float64) float64 {
	return GoldenRatio - value
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// signature derives a short opaque string deterministically from the blend
// triple and the update counter, grounded on the teacher's use of blake2b
// for identity signatures (core/identity/persistent_identity.go).
func signature(in Inputs, counter uint64) string {
	h, _ := blake2b.New(8, nil)
	buf := make([]byte, 0, 32)
	buf = appendFloat(buf, in.EmotionalDepth)
	buf = appendFloat(buf, in.CognitiveComplexity)
	buf = appendFloat(buf, in.SelfAwareness)
	buf = appendUint64(buf, counter)
	h.Write(buf)
	return hex.EncodeToString(h.Sum(nil))
}

func appendFloat(buf []byte, f float64) []byte {
	bits := math.Float64bits(f)
	return appendUint64(buf, bits)
}

func appendUint64(buf []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(v>>(56-8*i)))
	}
	return buf
}
