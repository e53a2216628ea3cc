package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llmschema"
)

// CacheResponses memoizes successful completions in an LRU keyed by the
// prompt and schema fingerprint. Reruns over an unchanged summary corpus hit
// the cache instead of the provider.
func CacheResponses(maxEntries int) Middleware {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return func(next Client) Client {
		cache, err := lru.New[string, json.RawMessage](maxEntries)
		if err != nil {
			// Only reachable with a non-positive size, which is guarded above.
			return next
		}
		return &cached{next: next, cache: cache}
	}
}

type cached struct {
	next  Client
	cache *lru.Cache[string, json.RawMessage]
}

func (c *cached) Name() string                { return c.next.Name() }
func (c *cached) Close() error                { return c.next.Close() }
func (c *cached) CountTokens(text string) int { return c.next.CountTokens(text) }
func (c *cached) TokenCapacity() int          { return c.next.TokenCapacity() }

func (c *cached) Complete(ctx context.Context, taskID, prompt string, schema *llmschema.Schema) (json.RawMessage, error) {
	key := cacheKey(prompt, schema)
	if raw, ok := c.cache.Get(key); ok {
		return raw, nil
	}
	raw, err := c.next.Complete(ctx, taskID, prompt, schema)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, raw)
	return raw, nil
}

func cacheKey(prompt string, schema *llmschema.Schema) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	if schema != nil {
		h.Write([]byte(schema.Fingerprint()))
	}
	return hex.EncodeToString(h.Sum(nil))
}
