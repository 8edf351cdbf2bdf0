// Package fractalmemory implements the four-layer typed memory tree of
// §4.B: Root, Branch, Leaf and Seed nodes persisted through core/persistence,
// with bidirectional parent/child links and a fixed hierarchy rule.
package fractalmemory

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/EchoCog/echollama/core/coreerr"
)

// Kind is one of the four node kinds named in §3.
type Kind string

const (
	Root   Kind = "root"
	Branch Kind = "branch"
	Leaf   Kind = "leaf"
	Seed   Kind = "seed"
)

// indexKind maps a node Kind to the persistence.Store "kind" bucket it is
// filed under (§6 "Persisted state layout" uses the plural directory
// names roots/branches/leaves/seeds).
func (k Kind) indexKind() string {
	switch k {
	case Root:
		return "roots"
	case Branch:
		return "branches"
	case Leaf:
		return "leaves"
	case Seed:
		return "seeds"
	default:
		return string(k)
	}
}

// allowedChildren encodes the hierarchy rule of §3(iii):
// Root→Branch, Branch→{Branch, Leaf}, Leaf→Seed, Seed→∅.
func allowedChildren(parent Kind) map[Kind]bool {
	switch parent {
	case Root:
		return map[Kind]bool{Branch: true}
	case Branch:
		return map[Kind]bool{Branch: true, Leaf: true}
	case Leaf:
		return map[Kind]bool{Seed: true}
	case Seed:
		return map[Kind]bool{}
	default:
		return map[Kind]bool{}
	}
}

// Node is the memory node type of §3: a stable identifier, kind, free-text
// content, optional parent, child set, φ-resonance, creation timestamp, and
// a key/value metadata map.
type Node struct {
	ID        string                 `json:"id"`
	Kind      Kind                   `json:"kind"`
	Content   string                 `json:"content"`
	Parent    string                 `json:"parent,omitempty"`
	Children  []string               `json:"children,omitempty"`
	Phi       float64                `json:"phi_resonance"`
	CreatedAt time.Time              `json:"created_at"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// newID allocates an identifier of the form <kind>_<12-hex> (§4.B store).
func newID(kind Kind) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", coreerr.Wrap(coreerr.KindIOFailure, "generate node id", err)
	}
	return fmt.Sprintf("%s_%s", kind, hex.EncodeToString(buf)), nil
}
