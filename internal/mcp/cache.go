package mcp

import (
	"github.com/maypok86/otter"

	"github.com/mvp-joe/treegrep/internal/extract"
	"github.com/mvp-joe/treegrep/internal/languages"
)

// ExtractorCache caches compiled extractors keyed by (language, query).
// MCP clients tend to re-run the same query across calls, and query
// compilation is the expensive part of a small extraction.
type ExtractorCache struct {
	cache otter.Cache[string, *extract.Extractor]
}

// NewExtractorCache creates a cache holding up to capacity extractors.
func NewExtractorCache(capacity int) (*ExtractorCache, error) {
	cache, err := otter.MustBuilder[string, *extract.Extractor](capacity).Build()
	if err != nil {
		return nil, err
	}
	return &ExtractorCache{cache: cache}, nil
}

// Get returns a cached extractor for the language/query pair, compiling and
// caching one on miss. A query compile error is returned as-is and is not
// cached.
func (c *ExtractorCache) Get(lang languages.Language, query string) (*extract.Extractor, error) {
	key := lang.Name() + "\x00" + query

	if extractor, ok := c.cache.Get(key); ok {
		return extractor, nil
	}

	compiled, err := lang.CompileQuery(query)
	if err != nil {
		return nil, err
	}

	extractor := extract.New(lang, compiled)
	c.cache.Set(key, extractor)
	return extractor, nil
}

// Close releases the cache.
func (c *ExtractorCache) Close() {
	c.cache.Close()
}
