// Package predictive implements the short-lived follow-up predictor of
// §4.E: a pure predict() over conversation history plus a bounded LRU of
// recent (history, prediction) pairs used only for hit-rate bookkeeping,
// the decay/boost weighting grounded on the teacher's interest-pattern
// scoring (core/consciousness/interest_pattern_tracker.go).
package predictive

import (
	"math"
	"sort"
	"strings"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
)

// maxPredictions bounds predict()'s return count (§4.E).
const maxPredictions = 5

// Prediction is one candidate follow-up need.
type Prediction struct {
	Kind                string
	Probability         float64
	PrecomputedResponse string
}

// topicScore mirrors the teacher's InterestScore shape, trimmed to the
// fields the predictor actually needs: frequency and recency. recencyAge
// is measured in turns-since-last-mention (0 = current turn).
type topicScore struct {
	frequency int
	recencyAge float64
}

// Analyzer holds no state relevant to predict() itself; lruEntry tracks
// observed (history, prediction) outcomes purely for hit-rate reporting.
// The outcome window is a linkedhashmap rather than a hand-rolled
// slice+map pair: insertion order gives eviction its "oldest first" order
// for free, and re-inserting a touched key moves it to the tail in one
// Remove+Put instead of an O(n) slice splice.
type Analyzer struct {
	capacity int
	entries  *linkedhashmap.Map[string, *lruEntry]
}

type lruEntry struct {
	predictedKind string
	hit           bool
	resolved      bool
}

// New builds an Analyzer whose outcome LRU holds at most capacity entries.
func New(capacity int) *Analyzer {
	if capacity <= 0 {
		capacity = 64
	}
	return &Analyzer{capacity: capacity, entries: linkedhashmap.New[string, *lruEntry]()}
}

// Predict returns up to five follow-up predictions for current given the
// prior history. It is pure: calling it twice with identical arguments
// yields identical results, and it never touches the outcome LRU.
func Predict(history []string, current string) []Prediction {
	scores := scoreTopics(history, current)

	preds := make([]Prediction, 0, len(scores))
	for topic, s := range scores {
		prob := topicProbability(s)
		preds = append(preds, Prediction{
			Kind:        topic,
			Probability: prob,
		})
	}
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Probability != preds[j].Probability {
			return preds[i].Probability > preds[j].Probability
		}
		return preds[i].Kind < preds[j].Kind
	})
	if len(preds) > maxPredictions {
		preds = preds[:maxPredictions]
	}
	for i := range preds {
		if preds[i].Probability >= 0.6 {
			preds[i].PrecomputedResponse = "Would you like more detail on " + preds[i].Kind + "?"
		}
	}
	return preds
}

// scoreTopics extracts a frequency/recency profile per distinct word token
// across history plus current, treating position in the slice as a
// recency proxy (index 0 = oldest).
func scoreTopics(history []string, current string) map[string]*topicScore {
	all := append(append([]string{}, history...), current)
	scores := make(map[string]*topicScore)
	lastIdx := len(all) - 1

	for i, turn := range all {
		for _, word := range tokenize(turn) {
			s, ok := scores[word]
			if !ok {
				s = &topicScore{}
				scores[word] = s
			}
			s.frequency++
			s.recencyAge = float64(lastIdx - i)
		}
	}
	return scores
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 3 {
			out = append(out, f)
		}
	}
	return out
}

// topicProbability blends recency and frequency the way the teacher's
// calculateScore does, collapsed to the two signals predict() can derive
// from a plain history slice.
func topicProbability(s *topicScore) float64 {
	recency := math.Exp(-s.recencyAge / 3.0)
	frequency := math.Log(float64(s.frequency)+1.0) / 5.0
	if frequency > 1.0 {
		frequency = 1.0
	}
	prob := 0.6*recency + 0.4*frequency
	if prob > 1.0 {
		prob = 1.0
	}
	if prob < 0 {
		prob = 0
	}
	return prob
}

// RecordOutcome reports whether predictedKind was borne out for the given
// historyKey, feeding the bounded outcome LRU used for hit-rate reporting.
// This is the only stateful surface the analyzer exposes (§4.E).
func (a *Analyzer) RecordOutcome(historyKey, predictedKind string, hit bool) {
	if e, ok := a.entries.Get(historyKey); ok {
		e.predictedKind = predictedKind
		e.hit = hit
		e.resolved = true
		a.entries.Remove(historyKey)
		a.entries.Put(historyKey, e)
		return
	}
	if a.entries.Size() >= a.capacity {
		if keys := a.entries.Keys(); len(keys) > 0 {
			a.entries.Remove(keys[0])
		}
	}
	a.entries.Put(historyKey, &lruEntry{predictedKind: predictedKind, hit: hit, resolved: true})
}

// HitRate returns the observed success rate over the current LRU window.
func (a *Analyzer) HitRate() float64 {
	if a.entries.Empty() {
		return 0
	}
	var hits, resolved int
	for _, e := range a.entries.Values() {
		if !e.resolved {
			continue
		}
		resolved++
		if e.hit {
			hits++
		}
	}
	if resolved == 0 {
		return 0
	}
	return float64(hits) / float64(resolved)
}
