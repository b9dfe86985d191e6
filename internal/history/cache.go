package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/quiz"
	"github.com/unisupport/unisupport/internal/recommend"
)

// ErrRecommendationGeneration wraps generator failures. The cache is left
// untouched when it is returned.
var ErrRecommendationGeneration = errors.New("recommendation generation failed")

// KV keys of the single cache slot.
const (
	KeyContent  = "recommendations:content"
	KeySnapshot = "recommendations:snapshot"
	KeyCategory = "recommendations:category"
)

// KV is a string key-value store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Generator produces recommendations for a profile and its attempts.
type Generator interface {
	GenerateRecommendations(ctx context.Context, profile auth.Profile, attempts []quiz.Attempt) ([]recommend.Recommendation, error)
}

// Result is what Load and Refresh return.
type Result struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
	FromCache       bool                       `json:"from_cache"`
	SnapshotKey     string                     `json:"snapshot_key"`
	CategoryID      string                     `json:"category_id"`

	// Stale is set when a newer response was already stored, so this one
	// was not written.
	Stale bool `json:"stale,omitempty"`
}

// Cache holds one category's recommendations, keyed by the history snapshot
// they were generated for.
type Cache struct {
	kv  KV
	gen Generator

	mu     sync.Mutex
	seq    uint64
	stored uint64
}

// NewCache creates a cache over kv that fills misses from gen.
func NewCache(kv KV, gen Generator) *Cache {
	return &Cache{kv: kv, gen: gen}
}

// Load returns cached recommendations when the stored snapshot key and
// category match attempts; otherwise it generates and stores new ones.
func (c *Cache) Load(ctx context.Context, profile auth.Profile, categoryID string, attempts []quiz.Attempt) (Result, error) {
	key := SnapshotKey(attempts)
	seq := c.nextSeq()

	if recs, ok := c.lookup(ctx, categoryID, key); ok {
		return Result{Recommendations: recs, FromCache: true, SnapshotKey: key, CategoryID: categoryID}, nil
	}
	return c.generate(ctx, seq, profile, categoryID, key, attempts)
}

// Refresh always generates and overwrites the cache.
func (c *Cache) Refresh(ctx context.Context, profile auth.Profile, categoryID string, attempts []quiz.Attempt) (Result, error) {
	key := SnapshotKey(attempts)
	seq := c.nextSeq()
	return c.generate(ctx, seq, profile, categoryID, key, attempts)
}

// Cached reports the stored slot without generating anything.
func (c *Cache) Cached(ctx context.Context) (Result, bool) {
	content, ok, err := c.kv.Get(ctx, KeyContent)
	if err != nil || !ok || content == "" {
		return Result{}, false
	}
	var recs []recommend.Recommendation
	if err := json.Unmarshal([]byte(content), &recs); err != nil {
		return Result{}, false
	}
	snap, _, _ := c.kv.Get(ctx, KeySnapshot)
	cat, _, _ := c.kv.Get(ctx, KeyCategory)
	return Result{Recommendations: recs, FromCache: true, SnapshotKey: snap, CategoryID: cat}, true
}

func (c *Cache) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// lookup treats any read failure as a miss.
func (c *Cache) lookup(ctx context.Context, categoryID, key string) ([]recommend.Recommendation, bool) {
	snap, ok, err := c.kv.Get(ctx, KeySnapshot)
	if err != nil || !ok || snap != key {
		return nil, false
	}
	cat, ok, err := c.kv.Get(ctx, KeyCategory)
	if err != nil || !ok || cat != categoryID {
		return nil, false
	}
	content, ok, err := c.kv.Get(ctx, KeyContent)
	if err != nil || !ok || content == "" {
		return nil, false
	}
	var recs []recommend.Recommendation
	if err := json.Unmarshal([]byte(content), &recs); err != nil {
		return nil, false
	}
	return recs, true
}

func (c *Cache) generate(ctx context.Context, seq uint64, profile auth.Profile, categoryID, key string, attempts []quiz.Attempt) (Result, error) {
	recs, err := c.gen.GenerateRecommendations(ctx, profile, attempts)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRecommendationGeneration, err)
	}
	res := Result{Recommendations: recs, SnapshotKey: key, CategoryID: categoryID}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.stored {
		res.Stale = true
		return res, nil
	}
	if err := c.store(ctx, categoryID, key, recs); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to cache recommendations: %v\n", err)
		return res, nil
	}
	c.stored = seq
	return res, nil
}

// store writes the snapshot key last so a partial write never produces a
// hit for the wrong content.
func (c *Cache) store(ctx context.Context, categoryID, key string, recs []recommend.Recommendation) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	if err := c.kv.Set(ctx, KeySnapshot, ""); err != nil {
		return err
	}
	if err := c.kv.Set(ctx, KeyContent, string(data)); err != nil {
		return err
	}
	if err := c.kv.Set(ctx, KeyCategory, categoryID); err != nil {
		return err
	}
	return c.kv.Set(ctx, KeySnapshot, key)
}
