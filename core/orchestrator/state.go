package orchestrator

import (
	"time"

	"github.com/EchoCog/echollama/core/persistence"
)

// manipulationWindowSize bounds the rolling window of recent manipulation
// scores kept in State (§3 Orchestrator State).
const manipulationWindowSize = 50

// State is the persisted §3 "Orchestrator State": counters per decision
// mode, a rolling window of recent manipulation scores, running
// validator-violation tallies by kind, and the prediction hit-rate last
// observed from the predictive analyzer.
type State struct {
	Counters           map[Mode]int    `json:"counters"`
	ManipulationWindow []float64       `json:"manipulation_window"`
	ViolationTallies   map[string]int  `json:"violation_tallies"`
	PredictionHitRate  float64         `json:"prediction_hit_rate"`
	TotalRequests      uint64          `json:"total_requests"`
	LastUpdated        time.Time       `json:"last_updated"`

	// Anchors are lazily-created fractal-memory nodes every interaction and
	// incident hangs off of, so ordinary requests and Critical-manipulation
	// incidents never need to invent new root/branch nodes per call.
	RootID          string `json:"root_id"`
	InteractionsID  string `json:"interactions_branch_id"`
	IncidentsID     string `json:"incidents_branch_id"`
	IncidentLeafID  string `json:"incident_leaf_id"`
}

// NewState returns a zero-valued State with initialized maps.
func NewState() *State {
	return &State{
		Counters:         make(map[Mode]int),
		ViolationTallies: make(map[string]int),
	}
}

const stateFileName = "orchestrator_state"

// loadOrCreateState reads the persisted orchestrator state, seeding a
// fresh one when none exists (first run, §6).
func loadOrCreateState(persist *persistence.Store) *State {
	var s State
	if err := persist.LoadState(stateFileName, &s); err == nil {
		if s.Counters == nil {
			s.Counters = make(map[Mode]int)
		}
		if s.ViolationTallies == nil {
			s.ViolationTallies = make(map[string]int)
		}
		return &s
	}
	return NewState()
}

func (s *State) save(persist *persistence.Store) error {
	s.LastUpdated = time.Now().UTC()
	return persist.SaveState(stateFileName, s)
}

// recordManipulationScore appends score to the bounded rolling window.
func (s *State) recordManipulationScore(score float64) {
	s.ManipulationWindow = append(s.ManipulationWindow, score)
	if len(s.ManipulationWindow) > manipulationWindowSize {
		s.ManipulationWindow = s.ManipulationWindow[len(s.ManipulationWindow)-manipulationWindowSize:]
	}
}

// recordMode increments the counter for mode (§8 property 6: mode always
// belongs to the closed {Autonomous,Guided,Delegated,Override} set, which
// Mode's type already enforces).
func (s *State) recordMode(mode Mode) {
	s.Counters[mode]++
	s.TotalRequests++
}

// recordViolations tallies each violation kind observed in a verdict.
func (s *State) recordViolations(kinds []string) {
	for _, k := range kinds {
		s.ViolationTallies[k]++
	}
}
