package matcher

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// VectorCache stores embeddings keyed by model and text between runs.
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Put(ctx context.Context, key string, vec []float32) error
	Close() error
}

// NewVectorCache builds the cache selected by cfg. CacheNone returns nil.
func NewVectorCache(ctx context.Context, cfg CacheConfig) (VectorCache, error) {
	switch cfg.Driver {
	case CacheNone, "":
		return nil, nil
	case CacheDisk:
		c, err := newDiskCache(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case CacheRedis:
		c, err := newRedisCache(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func cacheKey(modelID, text string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, modelID)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

// encodeVector writes a little-endian uint32 length followed by the float32 values.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4+len(vec)*4)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(vec)))
	off := 4
	for _, v := range vec {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, errors.New("cache entry too small")
	}
	length := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) != length*4 {
		return nil, errors.New("cache entry length mismatch")
	}
	vec := make([]float32, length)
	for i := 0; i < length; i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4 : (i+1)*4]))
	}
	return vec, nil
}

type diskCache struct {
	dir string
}

func newDiskCache(dir string) (*diskCache, error) {
	if dir == "" {
		return nil, errors.New("disk cache needs a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &diskCache{dir: dir}, nil
}

func (c *diskCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	path := filepath.Join(c.dir, key+".bin")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	vec, err := decodeVector(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return vec, true, nil
}

func (c *diskCache) Put(_ context.Context, key string, vec []float32) error {
	return writeFileAtomic(filepath.Join(c.dir, key+".bin"), encodeVector(vec))
}

func (c *diskCache) Close() error { return nil }

type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func newRedisCache(ctx context.Context, cfg RedisConfig) (*redisCache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis cache needs an address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &redisCache{client: client, prefix: cfg.Prefix, ttl: cfg.TTL.Std()}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	vec, err := decodeVector(data)
	if err != nil {
		return nil, false, fmt.Errorf("redis %s: %w", key, err)
	}
	return vec, true, nil
}

func (c *redisCache) Put(ctx context.Context, key string, vec []float32) error {
	if err := c.client.Set(ctx, c.prefix+key, encodeVector(vec), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
