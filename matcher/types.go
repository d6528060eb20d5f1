package matcher

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultThreshold is the minimum cosine similarity a comparator issue must reach.
const DefaultThreshold float32 = 0.5

// Provider selects the embedding backend.
type Provider string

const (
	// ProviderORT runs a local ONNX sentence-embedding model.
	ProviderORT Provider = "ort"
	// ProviderHTTP calls an OpenAI-compatible /embeddings endpoint.
	ProviderHTTP Provider = "http"
)

// CacheDriver selects where computed embeddings are kept between runs.
type CacheDriver string

const (
	CacheNone  CacheDriver = "none"
	CacheDisk  CacheDriver = "disk"
	CacheRedis CacheDriver = "redis"
)

// MatchCandidate is the best issue of one comparator region for an origin issue.
type MatchCandidate struct {
	ComparatorRegion     string  `json:"comparator_region"`
	ComparatorRegionCode string  `json:"comparator_region_code"`
	ComparatorIssueText  string  `json:"comparator_issue_text"`
	Score                float32 `json:"score"`
	Explanation          string  `json:"explanation"`
}

// MatchResult holds the ranked cross-region candidates for one (region, theme, issue) triple.
type MatchResult struct {
	OriginRegion     string           `json:"origin_region"`
	OriginRegionCode string           `json:"origin_region_code"`
	ThemeID          string           `json:"theme_id"`
	ThemeName        string           `json:"theme_name"`
	OriginIssueText  string           `json:"origin_issue_text"`
	Candidates       []MatchCandidate `json:"ranked_candidates"`
}

// Scope restricts the outer region/theme loops. Empty fields mean "all".
type Scope struct {
	Region string
	Theme  string
}

// EmbedderConfig wraps the configuration for the embedding backend.
type EmbedderConfig struct {
	Provider      Provider `json:"provider" yaml:"provider"`
	OrtDLL        string   `json:"ortDll" yaml:"ortDll"`
	ModelPath     string   `json:"modelPath" yaml:"modelPath"`
	TokenizerPath string   `json:"tokenizerPath" yaml:"tokenizerPath"`
	MaxSeqLen     int      `json:"maxSeqLen" yaml:"maxSeqLen"`
	Dimension     int      `json:"dimension,omitempty" yaml:"dimension,omitempty"`
	ModelID       string   `json:"modelId" yaml:"modelId"`
	BaseURL       string   `json:"baseUrl" yaml:"baseUrl"`
	APIKey        string   `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	Model         string   `json:"model" yaml:"model"`
	BatchSize     int      `json:"batchSize" yaml:"batchSize"`
	Timeout       Duration `json:"timeout" yaml:"timeout"`
}

// RedisConfig holds the connection settings for the redis embedding cache.
type RedisConfig struct {
	Addr     string   `json:"addr" yaml:"addr"`
	Password string   `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int      `json:"db" yaml:"db"`
	Prefix   string   `json:"prefix" yaml:"prefix"`
	TTL      Duration `json:"ttl" yaml:"ttl"`
}

// CacheConfig controls the embedding cache.
type CacheConfig struct {
	Driver CacheDriver `json:"driver" yaml:"driver"`
	Dir    string      `json:"dir" yaml:"dir"`
	Redis  RedisConfig `json:"redis" yaml:"redis"`
}

// CorpusConfig controls how corpus and lexicon files are read.
type CorpusConfig struct {
	Fields           FieldCandidates `json:"fields" yaml:"fields"`
	UnicodeNormalize bool            `json:"unicodeNormalize" yaml:"unicodeNormalize"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Config aggregates runtime settings persisted to config.json or config.yaml.
type Config struct {
	// Threshold is nil when unset; an explicit 0 is kept.
	Threshold   *float32       `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Workers     int            `json:"workers" yaml:"workers"`
	LexiconPath string         `json:"lexiconPath" yaml:"lexiconPath"`
	CorpusPath  string         `json:"corpusPath" yaml:"corpusPath"`
	OutputPath  string         `json:"outputPath" yaml:"outputPath"`
	Corpus      CorpusConfig   `json:"corpus" yaml:"corpus"`
	Embedder    EmbedderConfig `json:"embedder" yaml:"embedder"`
	Cache       CacheConfig    `json:"cache" yaml:"cache"`
	Log         LogConfig      `json:"log" yaml:"log"`
}

// MatchThreshold returns the configured threshold or DefaultThreshold.
func (c Config) MatchThreshold() float32 {
	if c.Threshold == nil {
		return DefaultThreshold
	}
	return *c.Threshold
}

// Float32 returns a pointer to v.
func Float32(v float32) *float32 { return &v }

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Threshold == nil {
		c.Threshold = Float32(DefaultThreshold)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.LexiconPath == "" {
		c.LexiconPath = "Data/kamus_tema.json"
	}
	if c.CorpusPath == "" {
		c.CorpusPath = "Data/data_pemda.json"
	}
	if c.OutputPath == "" {
		c.OutputPath = "Output/hasil.json"
	}
	c.Corpus.Fields = c.Corpus.Fields.withDefaults()
	if c.Embedder.Provider == "" {
		c.Embedder.Provider = ProviderORT
	}
	if c.Embedder.MaxSeqLen == 0 {
		c.Embedder.MaxSeqLen = 512
	}
	if c.Embedder.BatchSize <= 0 {
		c.Embedder.BatchSize = 64
	}
	if c.Embedder.Model == "" {
		c.Embedder.Model = "intfloat/multilingual-e5-large"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheDisk
	}
	if c.Cache.Driver == CacheDisk && c.Cache.Dir == "" {
		c.Cache.Dir = "./cache"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "isu:emb:"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Duration is a time.Duration that reads and writes as a string such as "90s".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

func (d *Duration) set(raw any) error {
	switch v := raw.(type) {
	case nil:
		*d = 0
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case string:
		if v == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}
