package matcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"yashubustudio/issuematch/emb"
)

// Embedder exposes the minimal surface required by the service layer.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
	ModelID() string
}

// Backend computes embeddings for texts that are not cached.
type Backend interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// CachedEmbedder puts an in-memory map and an optional VectorCache in front of
// a Backend. Only cache misses reach the backend, in one call per EmbedTexts.
type CachedEmbedder struct {
	backend Backend
	cache   VectorCache
	modelID string

	mu       sync.RWMutex
	memCache map[string][]float32
}

// NewCachedEmbedder wraps backend. cache may be nil.
func NewCachedEmbedder(modelID string, backend Backend, cache VectorCache) *CachedEmbedder {
	return &CachedEmbedder{
		backend:  backend,
		cache:    cache,
		modelID:  modelID,
		memCache: make(map[string][]float32),
	}
}

// NewEmbedder builds the backend selected by cfg.Provider.
func NewEmbedder(cfg EmbedderConfig, cache VectorCache) (*CachedEmbedder, error) {
	switch cfg.Provider {
	case ProviderORT, "":
		if cfg.ModelID == "" && cfg.ModelPath != "" {
			cfg.ModelID = filepath.Base(cfg.ModelPath)
		}
		encoder := &emb.Encoder{}
		if err := encoder.Init(emb.Config{
			OrtDLL:        cfg.OrtDLL,
			ModelPath:     cfg.ModelPath,
			TokenizerPath: cfg.TokenizerPath,
			MaxSeqLen:     cfg.MaxSeqLen,
			Dimension:     cfg.Dimension,
		}); err != nil {
			return nil, err
		}
		return NewCachedEmbedder(cfg.ModelID, &ortBackend{enc: encoder}, cache), nil
	case ProviderHTTP:
		client, err := emb.NewHTTPClient(emb.HTTPConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BatchSize: cfg.BatchSize,
			Timeout:   cfg.Timeout.Std(),
		})
		if err != nil {
			return nil, err
		}
		modelID := cfg.ModelID
		if modelID == "" {
			modelID = client.Model()
		}
		return NewCachedEmbedder(modelID, httpBackend{client: client}, cache), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// Close releases the backend and the cache.
func (c *CachedEmbedder) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	if c.backend != nil {
		errs = append(errs, c.backend.Close())
		c.backend = nil
	}
	if c.cache != nil {
		errs = append(errs, c.cache.Close())
		c.cache = nil
	}
	c.memCache = nil
	return errors.Join(errs...)
}

// ModelID returns the identifier used for cache keys.
func (c *CachedEmbedder) ModelID() string {
	return c.modelID
}

// EmbedText embeds a single string with caching.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts returns one vector per text in input order. Duplicate texts are
// sent to the backend once.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("embedder is not initialized")
	}
	out := make([][]float32, len(texts))
	pending := make(map[string][]int)
	var missing []string
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := cacheKey(c.modelID, text)
		if vec := c.getFromMemory(key); vec != nil {
			out[i] = vec
			continue
		}
		if idx, ok := pending[key]; ok {
			pending[key] = append(idx, i)
			continue
		}
		if vec, ok := c.loadFromCache(ctx, key); ok {
			c.storeInMemory(key, vec)
			out[i] = cloneVector(vec)
			continue
		}
		pending[key] = []int{i}
		missing = append(missing, text)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.backend.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("backend returned %d vectors for %d texts", len(vecs), len(missing))
	}
	for n, text := range missing {
		key := cacheKey(c.modelID, text)
		vec := vecs[n]
		c.storeInMemory(key, vec)
		if c.cache != nil {
			_ = c.cache.Put(ctx, key, vec)
		}
		for _, i := range pending[key] {
			out[i] = cloneVector(vec)
		}
	}
	return out, nil
}

func (c *CachedEmbedder) getFromMemory(key string) []float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if vec, ok := c.memCache[key]; ok {
		return cloneVector(vec)
	}
	return nil
}

func (c *CachedEmbedder) storeInMemory(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.memCache != nil {
		c.memCache[key] = cloneVector(vec)
	}
}

// loadFromCache treats unreadable entries as misses; they are recomputed and
// overwritten.
func (c *CachedEmbedder) loadFromCache(ctx context.Context, key string) ([]float32, bool) {
	if c.cache == nil {
		return nil, false
	}
	vec, ok, err := c.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	return vec, true
}

type ortBackend struct {
	enc *emb.Encoder
}

func (b *ortBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := b.enc.Encode(t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (b *ortBackend) Close() error {
	b.enc.Close()
	return nil
}

type httpBackend struct {
	client *emb.HTTPClient
}

func (b httpBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return b.client.Embed(ctx, texts)
}

func (b httpBackend) Close() error { return nil }
