package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/EchoCog/echollama/core/coreerr"
)

// stateEnvelope wraps every top-level singleton file (orchestrator_state.json,
// phi_state.json, coevolution_history.json, principal.json) with the
// same version tag the per-kind indices carry (§6 "Persisted state layout").
type stateEnvelope struct {
	Version string          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// statePath returns the absolute path of a top-level state file under the
// store's root, e.g. SaveState("orchestrator_state", ...) writes
// "<root>/orchestrator_state.json".
func (s *Store) statePath(name string) string {
	return filepath.Join(s.root, name+".json")
}

// SaveState atomically persists one of the top-level singleton files named
// in §6 (orchestrator state, φ state, coevolution history, principal
// state). Unlike Put/Get it is not filed under a per-kind index; there is
// exactly one file per name.
func (s *Store) SaveState(name string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		return coreerr.Wrap(coreerr.KindIOFailure, "marshal state "+name, err)
	}
	env := stateEnvelope{Version: SchemaVersion, Data: raw}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return coreerr.Wrap(coreerr.KindIOFailure, "marshal state envelope "+name, err)
	}
	return atomicWrite(s.statePath(name), data)
}

// LoadState reads a top-level singleton file into out. A missing file is
// reported as ErrMissing so callers can seed a fresh default; an unknown
// version fails with KindVersionMismatch (§6).
func (s *Store) LoadState(name string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.statePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrMissing
		}
		return coreerr.Wrap(coreerr.KindIOFailure, "read state "+name, err)
	}
	var env stateEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return coreerr.Wrap(coreerr.KindCorruptBlob, "decode state envelope "+name, err)
	}
	if env.Version != SchemaVersion {
		return coreerr.New(coreerr.KindVersionMismatch, name+" carries version "+env.Version)
	}
	return json.Unmarshal(env.Data, out)
}
