package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	supabase "github.com/supabase-community/supabase-go"
)

// kvTable is the single table the Supabase-backed cache reads and writes:
// key text primary key, value jsonb, updated_at timestamptz.
const kvTable = "echo_kv_cache"

// SupabaseCache is the cloud-backed alternate to RedisCache (§6
// SUPABASE_URL/SUPABASE_KEY, §9 OQ3's "optional cache"), grounded on the
// teacher's Supabase persistence sketch (core/memory/supabase_active.go).
// Like RedisCache, its absence must never affect correctness — every
// method degrades to a miss rather than an error.
type SupabaseCache struct {
	client *supabase.Client
}

type kvRow struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// NewSupabaseCache builds a cache against a Supabase project's REST API.
func NewSupabaseCache(url, apiKey string) (*SupabaseCache, error) {
	if url == "" || apiKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY must both be set")
	}
	client, err := supabase.NewClient(url, apiKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, err
	}
	return &SupabaseCache{client: client}, nil
}

// Get returns the cached blob for key, or (nil, false) on a miss or any
// Supabase error.
func (c *SupabaseCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	data, _, err := c.client.From(kvTable).Select("value", "", false).Eq("key", key).Execute()
	if err != nil {
		return nil, false
	}
	var rows []kvRow
	if err := json.Unmarshal(data, &rows); err != nil || len(rows) == 0 {
		return nil, false
	}
	return rows[0].Value, true
}

// Set upserts value under key. ttl is not enforced server-side by this
// backend (no TTL column); it is accepted only to satisfy the Cache
// interface shared with RedisCache.
func (c *SupabaseCache) Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) {
	row := kvRow{Key: key, Value: value}
	_, _, _ = c.client.From(kvTable).Upsert(row, "key", "", "").Execute()
}

// Close is a no-op: the Supabase REST client holds no long-lived
// connection to release.
func (c *SupabaseCache) Close() error { return nil }
