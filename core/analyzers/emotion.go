// Package analyzers implements the default, replaceable emotional and
// semantic scorers of §4.I: an eight-emotion vector with decay toward
// neutral between requests, and a semantic coherence check. Both are
// deterministic heuristics and must not mutate persistent state.
package analyzers

import "strings"

// Emotion is one of the eight fixed emotions §4.I requires, grounded on
// the teacher's emotional-state map (core/consciousness/llm_thought_engine.go).
type Emotion string

const (
	Joy          Emotion = "joy"
	Curiosity    Emotion = "curiosity"
	Satisfaction Emotion = "satisfaction"
	Wonder       Emotion = "wonder"
	Confidence   Emotion = "confidence"
	Frustration  Emotion = "frustration"
	Calm         Emotion = "calm"
	Concern      Emotion = "concern"
)

// AllEmotions lists the fixed eight-emotion set in a stable order.
var AllEmotions = []Emotion{Joy, Curiosity, Satisfaction, Wonder, Confidence, Frustration, Calm, Concern}

// neutral is the decay target between requests: mild calm, nothing else.
var neutral = map[Emotion]float64{Calm: 0.3}

// decayRate is the per-request pull toward neutral for the default
// analyzer's carried state (EmotionTracker), separate from the pure
// EmotionAnalyze heuristic below.
const decayRate = 0.15

var emotionKeywords = map[Emotion][]string{
	Joy:          {"great", "wonderful", "delighted", "happy", "excited"},
	Curiosity:    {"curious", "wonder", "what if", "how does", "why"},
	Satisfaction: {"thanks", "perfect", "exactly", "solved", "works"},
	Wonder:       {"amazing", "fascinating", "beautiful", "incredible"},
	Confidence:   {"certainly", "definitely", "clearly", "i know"},
	Frustration:  {"frustrated", "annoying", "broken", "doesn't work", "ugh"},
	Calm:         {"calm", "relaxed", "fine", "okay", "steady"},
	Concern:      {"worried", "concerned", "afraid", "risk", "problem"},
}

// EmotionAnalyze implements emotion_analyze(text) of §4.I: a map over the
// fixed eight-emotion set, each value in [0,1], derived from keyword
// presence. Pure and side-effect-free.
func EmotionAnalyze(text string) map[Emotion]float64 {
	lower := strings.ToLower(text)
	scores := make(map[Emotion]float64, len(AllEmotions))
	for _, e := range AllEmotions {
		scores[e] = 0
	}
	for emotion, keywords := range emotionKeywords {
		var hits int
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		score := float64(hits) / float64(len(keywords))
		if score > 1 {
			score = 1
		}
		scores[emotion] = score
	}
	return scores
}

// Tracker carries an emotional state across requests that decays toward
// neutral between calls, the ambient behavior the teacher's
// `core/consciousness` package shows beyond the bare emotion_analyze
// contract (SPEC_FULL §4 Supplemented Features).
type Tracker struct {
	state map[Emotion]float64
}

// NewTracker starts at the neutral baseline.
func NewTracker() *Tracker {
	t := &Tracker{state: make(map[Emotion]float64, len(AllEmotions))}
	for _, e := range AllEmotions {
		t.state[e] = neutral[e]
	}
	return t
}

// Observe decays the current state toward neutral, then blends in the
// emotions detected in text.
func (t *Tracker) Observe(text string) map[Emotion]float64 {
	observed := EmotionAnalyze(text)
	for _, e := range AllEmotions {
		target := neutral[e]
		t.state[e] = t.state[e]*(1-decayRate) + target*decayRate
		if observed[e] > t.state[e] {
			t.state[e] = observed[e]
		}
	}
	out := make(map[Emotion]float64, len(t.state))
	for k, v := range t.state {
		out[k] = v
	}
	return out
}
