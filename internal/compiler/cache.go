package compiler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes successful compilations for the lifetime of one run. The
// key covers the preset list and the source bytes, so two environments that
// resolve the same presets for identical content share one invocation.
// Failures are never cached. Safe for concurrent use.
type Cache struct {
	inner   Compiler
	results *lru.Cache[string, []byte]
}

// NewCache wraps inner with an LRU holding up to size results.
func NewCache(size int, inner Compiler) (*Cache, error) {
	results, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner, results: results}, nil
}

// Compile implements Compiler.
func (c *Cache) Compile(ctx context.Context, path string, presets []Preset, src []byte) ([]byte, error) {
	key := cacheKey(presets, src)
	if out, ok := c.results.Get(key); ok {
		return out, nil
	}
	out, err := c.inner.Compile(ctx, path, presets, src)
	if err != nil {
		return nil, err
	}
	c.results.Add(key, out)
	return out, nil
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.results.Len()
}

func cacheKey(presets []Preset, src []byte) string {
	h := sha256.New()
	for _, p := range presets {
		io.WriteString(h, p.Name)
		h.Write([]byte{0})
		for _, a := range p.Args {
			io.WriteString(h, a)
			h.Write([]byte{0})
		}
		h.Write([]byte{0xff})
	}
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}
