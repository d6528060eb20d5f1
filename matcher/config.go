package matcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.json"

// Environment variables that override file settings.
const (
	EnvEmbedAPIKey = "ISUMATCH_EMBED_API_KEY"
	EnvRedisAddr   = "ISUMATCH_REDIS_ADDR"
)

// LoadConfig loads configuration from the given path or the default config.json.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
// A missing file yields the defaults. Values from a .env file in the working
// directory are applied on top.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return cfg, fmt.Errorf("%w: read config: %v", ErrConfigLoad, err)
	default:
		if err := decodeConfig(path, data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: decode config %s: %v", ErrConfigLoad, filepath.Base(path), err)
		}
	}
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()
	applyEnv(&cfg)
	cfg.ApplyDefaults()
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	cfg.Embedder.APIKey = ""
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return writeFileAtomic(path, data)
}

func decodeConfig(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvEmbedAPIKey)); v != "" {
		cfg.Embedder.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		cfg.Cache.Redis.Addr = v
	}
}

// writeFileAtomic writes to a temporary sibling and renames it into place so
// readers never observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	return writeFilesAtomic(pendingFile{path: path, data: data})
}
