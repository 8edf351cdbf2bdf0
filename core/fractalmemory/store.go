package fractalmemory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/EchoCog/echollama/core/coreerr"
	"github.com/EchoCog/echollama/core/persistence"
)

// defaultRetrieveLimit is the bounded result count of retrieve() (§4.B).
const defaultRetrieveLimit = 10

// graphMirrorTimeout bounds how long a single mirror write may block Store.
const graphMirrorTimeout = 2 * time.Second

// GraphMirror is an optional secondary index nodes are mirrored into after
// a successful Store, keyed by node id. *persistence.DgraphClient
// implements this when DGRAPH_ENDPOINT (§6) names a reachable cluster; its
// absence, like the Redis cache's, never affects correctness, only whether
// the graph index stays queryable.
type GraphMirror interface {
	UpsertNode(ctx context.Context, nodeID string, node interface{}) error
}

// Store is the fractal memory layer over the persistence.Store (§4.B). It
// owns no locking of its own: every operation that mutates the hierarchy
// runs inside persist.Atomic so the bidirectional-link invariant is never
// observed half-updated.
type Store struct {
	persist *persistence.Store
	graph   GraphMirror
}

// New wraps an already-open persistence.Store.
func New(persist *persistence.Store) *Store {
	return &Store{persist: persist}
}

// AttachGraphMirror wires an optional graph-backed mirror. Every node
// persisted by Store after this call is best-effort upserted into g; a
// mirror failure is never propagated to the caller.
func (s *Store) AttachGraphMirror(g GraphMirror) {
	s.graph = g
}

// Store allocates a node of kind under parent (empty for Root), validates
// the hierarchy rule, persists it, and establishes the bidirectional link
// with its parent. Returns the new node's id.
func (s *Store) Store(kind Kind, content string, metadata map[string]interface{}, parent string) (string, error) {
	var id string
	var stored Node
	err := s.persist.Atomic(func(tx *persistence.Tx) error {
		if kind != Root {
			if parent == "" {
				return coreerr.New(coreerr.KindMissingParent, "non-root node requires a parent id")
			}
			var parentNode Node
			if err := tx.Get(nodeKindFromID(parent).indexKind(), parent, &parentNode); err != nil {
				if err == persistence.ErrMissing {
					return coreerr.New(coreerr.KindMissingParent, "parent "+parent+" not found")
				}
				return err
			}
			if !allowedChildren(parentNode.Kind)[kind] {
				return coreerr.New(coreerr.KindHierarchyViolation, string(parentNode.Kind)+" cannot parent "+string(kind))
			}
		} else if parent != "" {
			return coreerr.New(coreerr.KindHierarchyViolation, "root node cannot have a parent")
		}

		newNodeID, err := newID(kind)
		if err != nil {
			return err
		}
		id = newNodeID

		node := Node{
			ID:        id,
			Kind:      kind,
			Content:   content,
			Parent:    parent,
			Metadata:  metadata,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Put(kind.indexKind(), id, node); err != nil {
			return err
		}
		stored = node

		if parent != "" {
			var parentNode Node
			parentKind := nodeKindFromID(parent)
			if err := tx.Get(parentKind.indexKind(), parent, &parentNode); err != nil {
				return err
			}
			parentNode.Children = append(parentNode.Children, id)
			if err := tx.Put(parentKind.indexKind(), parent, parentNode); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		s.mirrorNode(id, stored)
	}
	return id, err
}

// mirrorNode best-effort upserts a freshly stored node into the attached
// GraphMirror, if any. Errors are swallowed: the mirror is a queryable
// convenience, never the source of truth.
func (s *Store) mirrorNode(id string, node Node) {
	if s.graph == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), graphMirrorTimeout)
	defer cancel()
	_ = s.graph.UpsertNode(ctx, id, node)
}

// nodeKindFromID recovers the Kind encoded in a node id's "<kind>_" prefix.
func nodeKindFromID(id string) Kind {
	if i := strings.IndexByte(id, '_'); i > 0 {
		return Kind(id[:i])
	}
	return ""
}

// Get returns a single node by id.
func (s *Store) Get(id string) (Node, error) {
	var node Node
	err := s.persist.Get(nodeKindFromID(id).indexKind(), id, &node)
	return node, err
}

// scoredNode pairs a node with its retrieve() relevance score.
type scoredNode struct {
	node  Node
	score float64
}

// Retrieve returns up to defaultRetrieveLimit nodes ranked by a relevance
// score combining content similarity to query and φ-resonance (§4.B). When
// kind is non-nil only nodes of that kind are considered. depth bounds the
// number of ancestry hops walked when expanding a match upward.
func (s *Store) Retrieve(query string, kind *Kind, depth int) ([]Node, error) {
	kinds := []Kind{Root, Branch, Leaf, Seed}
	if kind != nil {
		kinds = []Kind{*kind}
	}

	var scored []scoredNode
	for _, k := range kinds {
		entries := s.persist.List(k.indexKind())
		for _, e := range entries {
			var node Node
			if err := s.persist.Get(k.indexKind(), e.ID, &node); err != nil {
				continue
			}
			sim := contentSimilarity(query, node.Content)
			score := 0.7*sim + 0.3*node.Phi
			scored = append(scored, scoredNode{node: node, score: score})
		}
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	seen := make(map[string]bool)
	var out []Node
	for _, sn := range scored {
		if len(out) >= defaultRetrieveLimit {
			break
		}
		if seen[sn.node.ID] {
			continue
		}
		seen[sn.node.ID] = true
		out = append(out, sn.node)

		for hops, cur := 0, sn.node; hops < depth && cur.Parent != ""; hops++ {
			parent, err := s.Get(cur.Parent)
			if err != nil {
				break
			}
			if !seen[parent.ID] {
				seen[parent.ID] = true
				out = append(out, parent)
			}
			cur = parent
		}
	}
	if len(out) > defaultRetrieveLimit {
		out = out[:defaultRetrieveLimit]
	}
	return out, nil
}

// contentSimilarity scores two strings in [0,1] via normalized Levenshtein
// distance, the metric the teacher's pack grounds text similarity on
// (agnivade/levenshtein).
func contentSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

// Count returns the number of persisted nodes of kind, per the per-kind
// index (§3 invariant (iv)).
func (s *Store) Count(kind Kind) int {
	return len(s.persist.List(kind.indexKind()))
}

// TotalCount returns the number of persisted nodes across all four kinds,
// the memory-depth signal `metamorphosis_readiness` blends with φ distance.
func (s *Store) TotalCount() int {
	total := 0
	for _, k := range []Kind{Root, Branch, Leaf, Seed} {
		total += s.Count(k)
	}
	return total
}

// CheckInvariants verifies every §3 invariant over the whole store: every
// non-Root node's parent exists and names it as a child, and every
// parent/child pair respects the hierarchy rule.
func (s *Store) CheckInvariants() error {
	for _, k := range []Kind{Root, Branch, Leaf, Seed} {
		for _, e := range s.persist.List(k.indexKind()) {
			var node Node
			if err := s.persist.Get(k.indexKind(), e.ID, &node); err != nil {
				return coreerr.Wrap(coreerr.KindInternalInvariant, "unreadable node "+e.ID, err)
			}
			if node.Kind != Root {
				if node.Parent == "" {
					return coreerr.New(coreerr.KindInternalInvariant, node.ID+" has no parent")
				}
				parent, err := s.Get(node.Parent)
				if err != nil {
					return coreerr.Wrap(coreerr.KindInternalInvariant, node.ID+" parent "+node.Parent+" missing", err)
				}
				if !allowedChildren(parent.Kind)[node.Kind] {
					return coreerr.New(coreerr.KindInternalInvariant, parent.ID+" cannot parent "+node.ID)
				}
				if !contains(parent.Children, node.ID) {
					return coreerr.New(coreerr.KindInternalInvariant, parent.ID+" does not list "+node.ID+" as a child")
				}
			}
			for _, childID := range node.Children {
				child, err := s.Get(childID)
				if err != nil {
					return coreerr.Wrap(coreerr.KindInternalInvariant, node.ID+" child "+childID+" missing", err)
				}
				if child.Parent != node.ID {
					return coreerr.New(coreerr.KindInternalInvariant, childID+" does not name "+node.ID+" as parent")
				}
			}
		}
	}
	return nil
}

func contains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
