// Package persistence implements the durable mapping from typed identifier
// to JSON blob described in §4.A: atomic writes, per-kind ordered indices,
// and an in-process cache kept current on every write.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/EchoCog/echollama/core/coreerr"
)

// SchemaVersion is written into every persisted blob and index file. An
// on-disk file carrying a different version fails the read with
// KindVersionMismatch rather than being silently reinterpreted.
const SchemaVersion = "2.0.0"

// IndexEntry is one row of a per-kind ordered index (§6 "Persisted state
// layout").
type IndexEntry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type indexFile struct {
	Version string       `json:"version"`
	Entries []IndexEntry `json:"entries"`
}

type cacheEntry struct {
	raw       json.RawMessage
	createdAt time.Time
}

// Store is the single-writer, single-process typed blob store of §4.A.
// Cross-process coordination is explicitly out of scope (§5); the mutex
// below is the only coordination primitive required.
type Store struct {
	mu           sync.Mutex
	root         string
	cache        map[string]map[string]cacheEntry // kind -> id -> entry
	index        map[string][]IndexEntry          // kind -> ordered entries
	cacheBackend Cache                             // optional Redis read-through, nil when REDIS_URL unset
}

// Open creates or attaches to a store rooted at dir. Indices are rebuilt
// from the directory listing whenever the stored index disagrees with it,
// satisfying the restart-consistency guarantee of §4.A/S4.
func Open(dir string) (*Store, error) {
	s := &Store{
		root:  dir,
		cache: make(map[string]map[string]cacheEntry),
		index: make(map[string][]IndexEntry),
	}
	for _, kind := range []string{"roots", "branches", "leaves", "seeds"} {
		if err := os.MkdirAll(filepath.Join(dir, kind), 0o755); err != nil {
			return nil, coreerr.Wrap(coreerr.KindIOFailure, "create kind directory", err)
		}
		if err := s.rebuildIndex(kind); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) kindDir(kind string) string { return filepath.Join(s.root, kind) }

func (s *Store) blobPath(kind, id string) string {
	return filepath.Join(s.kindDir(kind), id+".json")
}

func (s *Store) indexPath(kind string) string {
	return filepath.Join(s.kindDir(kind), "index.json")
}

// rebuildIndex reconciles the on-disk index.json with the directory
// listing; on disagreement the directory listing wins (§4.A Guarantees).
func (s *Store) rebuildIndex(kind string) error {
	entries, _ := os.ReadDir(s.kindDir(kind))
	onDisk := make(map[string]time.Time)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "index.json" || filepath.Ext(name) != ".json" {
			continue
		}
		id := name[:len(name)-len(".json")]
		info, err := e.Info()
		if err != nil {
			continue
		}
		onDisk[id] = info.ModTime().UTC()
	}

	stored := s.readIndexFile(kind)
	storedIDs := make(map[string]bool, len(stored))
	for _, e := range stored {
		storedIDs[e.ID] = true
	}

	agree := len(stored) == len(onDisk)
	if agree {
		for id := range onDisk {
			if !storedIDs[id] {
				agree = false
				break
			}
		}
	}

	var final []IndexEntry
	if agree {
		final = stored
	} else {
		final = make([]IndexEntry, 0, len(onDisk))
		for id, ts := range onDisk {
			final = append(final, IndexEntry{ID: id, CreatedAt: ts})
		}
		sort.Slice(final, func(i, j int) bool { return final[i].CreatedAt.Before(final[j].CreatedAt) })
		if err := s.writeIndexFile(kind, final); err != nil {
			return err
		}
	}
	s.index[kind] = final
	return nil
}

func (s *Store) readIndexFile(kind string) []IndexEntry {
	data, err := os.ReadFile(s.indexPath(kind))
	if err != nil {
		return nil
	}
	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil
	}
	return idx.Entries
}

func (s *Store) writeIndexFile(kind string, entries []IndexEntry) error {
	idx := indexFile{Version: SchemaVersion, Entries: entries}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return coreerr.Wrap(coreerr.KindIOFailure, "marshal index", err)
	}
	return atomicWrite(s.indexPath(kind), data)
}

// atomicWrite commits data via temp-file-plus-rename so partial writes are
// never visible (§4.A Guarantees).
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return coreerr.Wrap(coreerr.KindIOFailure, "write temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return coreerr.Wrap(coreerr.KindIOFailure, "rename temp file", err)
	}
	return nil
}

// Put commits value atomically under kind/id. Overwriting an existing id
// updates its index entry's timestamp in place rather than reordering it.
func (s *Store) Put(kind, id string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(kind, id, value)
}

func (s *Store) putLocked(kind, id string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return coreerr.Wrap(coreerr.KindIOFailure, "marshal blob", err)
	}
	if err := atomicWrite(s.blobPath(kind, id), raw); err != nil {
		return err
	}

	now := time.Now().UTC()
	if s.cache[kind] == nil {
		s.cache[kind] = make(map[string]cacheEntry)
	}
	s.cache[kind][id] = cacheEntry{raw: raw, createdAt: now}
	if s.cacheBackend != nil {
		s.cacheBackend.Set(context.Background(), kind+"/"+id, raw, cacheTTL)
	}

	entries := s.index[kind]
	found := false
	for i := range entries {
		if entries[i].ID == id {
			entries[i].CreatedAt = now
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, IndexEntry{ID: id, CreatedAt: now})
	}
	s.index[kind] = entries
	return s.writeIndexFile(kind, entries)
}

// ErrMissing is returned by Get when the id does not exist; callers use
// errors.Is or a direct nil-check pattern in the teacher's idiom.
var ErrMissing = fmt.Errorf("persistence: value not found")

// Get decodes the JSON blob for kind/id into out, or returns ErrMissing. Corrupt blobs
// are quarantined (renamed with a .corrupt suffix) and the read fails with
// KindCorruptBlob.
func (s *Store) Get(kind, id string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(kind, id, out)
}

func (s *Store) getLocked(kind, id string, out interface{}) error {
	if kc, ok := s.cache[kind]; ok {
		if entry, ok := kc[id]; ok {
			return json.Unmarshal(entry.raw, out)
		}
	}

	if s.cacheBackend != nil {
		if raw, ok := s.cacheBackend.Get(context.Background(), kind+"/"+id); ok {
			return json.Unmarshal(raw, out)
		}
	}

	path := s.blobPath(kind, id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrMissing
		}
		return coreerr.Wrap(coreerr.KindIOFailure, "read blob", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		quarantined := path + ".corrupt"
		_ = os.Rename(path, quarantined)
		return coreerr.Wrap(coreerr.KindCorruptBlob, fmt.Sprintf("%s/%s quarantined as %s", kind, id, filepath.Base(quarantined)), err)
	}
	if s.cache[kind] == nil {
		s.cache[kind] = make(map[string]cacheEntry)
	}
	s.cache[kind][id] = cacheEntry{raw: data}
	return nil
}

// List returns the index entries for kind in insertion order.
func (s *Store) List(kind string) []IndexEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]IndexEntry, len(s.index[kind]))
	copy(out, s.index[kind])
	return out
}

// Tx is the lock-free view of Store handed to an Atomic callback: it
// reaches the same underlying maps and files as Put/Get but without
// re-acquiring Store's mutex, since Atomic already holds it for the
// duration of the callback.
type Tx struct{ s *Store }

// Put is Store.Put without the redundant lock acquisition.
func (t *Tx) Put(kind, id string, value interface{}) error { return t.s.putLocked(kind, id, value) }

// Get is Store.Get without the redundant lock acquisition.
func (t *Tx) Get(kind, id string, out interface{}) error { return t.s.getLocked(kind, id, out) }

// Atomic runs fn under the store's exclusive in-process lock, handing it a
// Tx so a check-then-write sequence (e.g. fractalmemory's hierarchy
// validation before linking a new node) observes a consistent snapshot.
// Cross-process coordination is not required (§4.A; single writer
// assumed).
func (s *Store) Atomic(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{s: s})
}

// Delete removes a blob and its index entry. The core components never
// call this directly (memory nodes are never deleted, §3 Lifecycles); it
// exists for the quarantine/backup maintenance paths.
func (s *Store) Delete(kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.blobPath(kind, id)); err != nil && !os.IsNotExist(err) {
		return coreerr.Wrap(coreerr.KindIOFailure, "remove blob", err)
	}
	delete(s.cache[kind], id)

	entries := s.index[kind]
	filtered := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			filtered = append(filtered, e)
		}
	}
	s.index[kind] = filtered
	return s.writeIndexFile(kind, filtered)
}
