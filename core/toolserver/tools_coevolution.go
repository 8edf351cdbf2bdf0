package toolserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/EchoCog/echollama/core/analyzers"
	"github.com/EchoCog/echollama/core/persistence"
)

// coevolutionStateName is the top-level singleton file name of §6
// "coevolution_history.json".
const coevolutionStateName = "coevolution_history"

// coevolutionWindowSize bounds the persisted entry history.
const coevolutionWindowSize = 200

// coevolutionEntry is one recorded turn of mutual growth tracking.
type coevolutionEntry struct {
	Timestamp          time.Time `json:"timestamp"`
	UserContribution   string    `json:"user_contribution"`
	SystemContribution string    `json:"system_contribution"`
	MutualScore        float64   `json:"mutual_score"`
}

// coevolutionHistory is the persisted shape of coevolution_history.json.
type coevolutionHistory struct {
	Entries []coevolutionEntry `json:"entries"`
}

func loadCoevolutionHistory(persist *persistence.Store) coevolutionHistory {
	var h coevolutionHistory
	if err := persist.LoadState(coevolutionStateName, &h); err != nil {
		return coevolutionHistory{}
	}
	return h
}

func (h *coevolutionHistory) record(entry coevolutionEntry) {
	h.Entries = append(h.Entries, entry)
	if len(h.Entries) > coevolutionWindowSize {
		h.Entries = h.Entries[len(h.Entries)-coevolutionWindowSize:]
	}
}

func (h coevolutionHistory) averageScore() float64 {
	if len(h.Entries) == 0 {
		return 0
	}
	var total float64
	for _, e := range h.Entries {
		total += e.MutualScore
	}
	return total / float64(len(h.Entries))
}

// toolCoevolutionTrack implements `coevolution_track`: records the pair of
// contributions and returns a mutual-growth score blending emotional
// engagement on both sides and how much the two contributions share
// vocabulary, a proxy for whether the exchange is actually building on
// itself rather than talking past itself.
func toolCoevolutionTrack(ctx context.Context, d *Dispatcher, raw map[string]interface{}) (string, error) {
	a := args(raw)
	userText := a.str("user_contribution")
	systemText := a.str("system_contribution")

	score := mutualGrowthScore(userText, systemText)

	d.mu.Lock()
	history := loadCoevolutionHistory(d.persist)
	history.record(coevolutionEntry{
		Timestamp:          time.Now().UTC(),
		UserContribution:   userText,
		SystemContribution: systemText,
		MutualScore:        score,
	})
	_ = d.persist.SaveState(coevolutionStateName, history)
	avg := history.averageScore()
	total := len(history.Entries)
	d.mu.Unlock()

	return frame("coevolution_track",
		field{"mutual_score", fmt.Sprintf("%.3f", score)},
		field{"running_average", fmt.Sprintf("%.3f", avg)},
		field{"recorded_entries", total},
	), nil
}

// mutualGrowthScore blends shared-vocabulary overlap with the combined
// emotional engagement (non-Calm emotion strength) on both sides.
func mutualGrowthScore(userText, systemText string) float64 {
	if userText == "" && systemText == "" {
		return 0
	}
	overlap := vocabularyOverlap(userText, systemText)

	userEngagement := engagement(analyzers.EmotionAnalyze(userText))
	systemEngagement := engagement(analyzers.EmotionAnalyze(systemText))

	score := 0.5*overlap + 0.25*userEngagement + 0.25*systemEngagement
	return clamp01(score)
}

// vocabularyOverlap is the Jaccard similarity of the two texts' word sets,
// in [0,1].
func vocabularyOverlap(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	shared := 0
	for w := range wordsA {
		if wordsB[w] {
			shared++
		}
	}
	union := len(wordsA) + len(wordsB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func wordSet(text string) map[string]bool {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func engagement(scores map[analyzers.Emotion]float64) float64 {
	var total float64
	count := 0
	for e, v := range scores {
		if e == analyzers.Calm {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return clamp01(total / float64(count) * 2)
}
