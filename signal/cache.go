package signal

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// CachingClassifier memoizes another Classifier's results in an in-process
// ristretto cache. Agents resubmit the same descriptions often (retries,
// heartbeats), and the keyword scan is linear in description length.
//
// Cached results equal what the wrapped classifier returns, so routing stays
// deterministic whether or not an entry is admitted or evicted.
type CachingClassifier struct {
	inner Classifier
	cache *ristretto.Cache[string, Set]
}

// NewCachingClassifier wraps inner with a cache holding up to maxBytes of
// description text. Call Close to release the cache.
func NewCachingClassifier(inner Classifier, maxBytes int64) (*CachingClassifier, error) {
	if inner == nil {
		return nil, fmt.Errorf("caching classifier: inner classifier is required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("caching classifier: max bytes must be > 0, got %d", maxBytes)
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, Set]{
		NumCounters: max(maxBytes/100*10, 100), // ~10x expected items
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("caching classifier: %w", err)
	}
	return &CachingClassifier{inner: inner, cache: c}, nil
}

// Extract returns the cached set for description, computing and caching it
// on a miss. Flags are applied after lookup so the cache is keyed by text only.
func (c *CachingClassifier) Extract(description string, flags Flags) Set {
	set, ok := c.cache.Get(description)
	if !ok {
		set = c.inner.Extract(description, Flags{})
		c.cache.Set(description, set, int64(len(description))+1)
	}
	set.RequiresVision = flags.RequiresVision
	return set
}

// Wait blocks until buffered cache writes are applied.
func (c *CachingClassifier) Wait() {
	c.cache.Wait()
}

// Close shuts down the cache and releases resources.
func (c *CachingClassifier) Close() {
	c.cache.Close()
}
