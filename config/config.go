// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/careerfit/ai"
	"github.com/poiesic/careerfit/chunker"
	"github.com/poiesic/careerfit/websearch"
	"gopkg.in/yaml.v3"
)

// Results backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Environment variables that override file values.
const (
	EnvAPIKey       = "CAREERFIT_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvTavilyAPIKey = "TAVILY_API_KEY"
	EnvDataDir      = "CAREERFIT_DATA_DIR"
)

// AIConfig configures the embedding and generation endpoints.
type AIConfig struct {
	EmbeddingHost   string  `yaml:"embedding_host"`
	GenerationHost  string  `yaml:"generation_host"`
	EmbeddingModel  string  `yaml:"embedding_model"`
	GenerationModel string  `yaml:"generation_model"`
	APIKey          string  `yaml:"api_key,omitempty"`
	Temperature     float64 `yaml:"temperature"`
}

// IndexConfig controls chunking and embedding of documents.
type IndexConfig struct {
	ChunkSize      int      `yaml:"chunk_size"`
	ChunkOverlap   int      `yaml:"chunk_overlap"`
	EmbedBatchSize int      `yaml:"embed_batch_size"`
	Workers        int      `yaml:"workers"`
	Include        []string `yaml:"include,omitempty"` // doublestar patterns for folder indexing
	Exclude        []string `yaml:"exclude,omitempty"`
}

// SearchConfig controls similarity search.
type SearchConfig struct {
	MaxQueryLength int `yaml:"max_query_length"` // runes
	CacheEntries   int `yaml:"cache_entries"`    // cached query embeddings, 0 disables
	TopK           int `yaml:"top_k"`
}

// PipelineConfig bounds external calls and concurrent runs.
type PipelineConfig struct {
	CallTimeout       time.Duration `yaml:"call_timeout"`
	StageTimeout      time.Duration `yaml:"stage_timeout"`
	MaxAttempts       int           `yaml:"max_attempts"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	MaxConcurrentRuns int           `yaml:"max_concurrent_runs"`
}

// StorageConfig locates the chunk store and the result store.
type StorageConfig struct {
	Path           string `yaml:"path"`
	InMemory       bool   `yaml:"in_memory,omitempty"`
	ResultsBackend string `yaml:"results_backend"`
	ChunkBackend   string `yaml:"chunk_backend"`
	SQLitePath     string `yaml:"sqlite_path,omitempty"`
}

// UsesSQLite reports whether any store is kept in SQLite.
func (s StorageConfig) UsesSQLite() bool {
	return s.ResultsBackend == BackendSQLite || s.ChunkBackend == BackendSQLite
}

// WebSearchConfig configures company URL lookups.
type WebSearchConfig struct {
	Provider          string  `yaml:"provider"`
	Endpoint          string  `yaml:"endpoint,omitempty"`
	APIKey            string  `yaml:"api_key,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	MaxURLs           int     `yaml:"max_urls"`
	MaxResults        int     `yaml:"max_results"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// Config is the root application configuration.
type Config struct {
	AI        AIConfig        `yaml:"ai"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Storage   StorageConfig   `yaml:"storage"`
	WebSearch WebSearchConfig `yaml:"websearch"`
	Server    ServerConfig    `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the config at path. A missing file yields defaults. Environment
// overrides are applied after the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./careerfit.yaml first, then
// ~/.config/careerfit/config.yaml. If neither exists it writes the defaults
// to the user path and returns them.
func LoadDefault() (*Config, string, error) {
	cwdPath := "careerfit.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// LoadEnvFiles loads .env style files into the process environment. Missing
// files are ignored; variables already set are kept.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Save writes cfg to path, creating directories as needed. Secrets are not
// written.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out := *cfg
	out.AI.APIKey = ""
	out.WebSearch.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "careerfit", "config.yaml"), nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".careerfit"
	}
	return filepath.Join(home, ".careerfit")
}

func applyDefaults(cfg *Config) {
	aiDefaults := ai.DefaultConfig()
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = aiDefaults.EmbeddingHost
	}
	if cfg.AI.GenerationHost == "" {
		cfg.AI.GenerationHost = aiDefaults.GenerationHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = aiDefaults.EmbeddingModel
	}
	if cfg.AI.GenerationModel == "" {
		cfg.AI.GenerationModel = aiDefaults.GenerationModel
	}

	if cfg.Index.ChunkSize == 0 {
		cfg.Index.ChunkSize = chunker.DefaultSize
	}
	if cfg.Index.ChunkOverlap == 0 {
		cfg.Index.ChunkOverlap = chunker.DefaultOverlap
	}
	if cfg.Index.EmbedBatchSize == 0 {
		cfg.Index.EmbedBatchSize = 16
	}
	if cfg.Index.Workers == 0 {
		cfg.Index.Workers = 4
	}

	if cfg.Search.MaxQueryLength == 0 {
		cfg.Search.MaxQueryLength = 1000
	}
	if cfg.Search.CacheEntries == 0 {
		cfg.Search.CacheEntries = 1024
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 3
	}

	if cfg.Pipeline.CallTimeout == 0 {
		cfg.Pipeline.CallTimeout = 60 * time.Second
	}
	if cfg.Pipeline.StageTimeout == 0 {
		cfg.Pipeline.StageTimeout = 3 * time.Minute
	}
	if cfg.Pipeline.MaxAttempts == 0 {
		cfg.Pipeline.MaxAttempts = 2
	}
	if cfg.Pipeline.RetryDelay == 0 {
		cfg.Pipeline.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Pipeline.MaxConcurrentRuns == 0 {
		cfg.Pipeline.MaxConcurrentRuns = 4
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(defaultDataDir(), "data")
	}
	if cfg.Storage.ResultsBackend == "" {
		cfg.Storage.ResultsBackend = BackendBadger
	}
	if cfg.Storage.ChunkBackend == "" {
		cfg.Storage.ChunkBackend = BackendBadger
	}
	if cfg.Storage.UsesSQLite() && cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = filepath.Join(filepath.Dir(cfg.Storage.Path), "results.db")
	}

	if cfg.WebSearch.Provider == "" {
		cfg.WebSearch.Provider = websearch.ProviderTavily
	}
	if cfg.WebSearch.RequestsPerSecond == 0 {
		cfg.WebSearch.RequestsPerSecond = 1
	}
	if cfg.WebSearch.Burst == 0 {
		cfg.WebSearch.Burst = 3
	}
	if cfg.WebSearch.MaxURLs == 0 {
		cfg.WebSearch.MaxURLs = 3
	}
	if cfg.WebSearch.MaxResults == 0 {
		cfg.WebSearch.MaxResults = 3
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
}

func applyEnv(cfg *Config) {
	if v := firstEnv(EnvAPIKey, EnvOpenAIAPIKey); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv(EnvTavilyAPIKey); v != "" {
		cfg.WebSearch.APIKey = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.Storage.Path = filepath.Join(v, "data")
		if cfg.Storage.UsesSQLite() {
			cfg.Storage.SQLitePath = filepath.Join(v, "results.db")
		}
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := c.ProviderConfig().Validate(); err != nil {
		return err
	}
	if c.Index.ChunkSize <= 0 || c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index: chunk_overlap (%d) must be in [0, chunk_size (%d))", c.Index.ChunkOverlap, c.Index.ChunkSize)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search: top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Pipeline.MaxAttempts <= 0 {
		return fmt.Errorf("pipeline: max_attempts must be positive, got %d", c.Pipeline.MaxAttempts)
	}
	if c.Pipeline.CallTimeout < 0 || c.Pipeline.StageTimeout < 0 {
		return errors.New("pipeline: timeouts must not be negative")
	}
	for name, backend := range map[string]string{
		"results_backend": c.Storage.ResultsBackend,
		"chunk_backend":   c.Storage.ChunkBackend,
	} {
		if backend != BackendBadger && backend != BackendSQLite {
			return fmt.Errorf("storage: unknown %s %q", name, backend)
		}
	}
	if c.Storage.UsesSQLite() && c.Storage.SQLitePath == "" {
		return errors.New("storage: sqlite_path is required for the sqlite backend")
	}
	switch strings.ToLower(c.WebSearch.Provider) {
	case websearch.ProviderTavily, websearch.ProviderDuckDuckGo, websearch.ProviderNone:
	default:
		return fmt.Errorf("websearch: unknown provider %q", c.WebSearch.Provider)
	}
	return nil
}

// ProviderConfig converts the ai section into an ai.Config.
func (c *Config) ProviderConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithGenerationHost(c.AI.GenerationHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithGenerationModel(c.AI.GenerationModel),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithTemperature(c.AI.Temperature),
	)
}

// SearcherConfig converts the websearch section into a websearch.Config.
func (c *Config) SearcherConfig() websearch.Config {
	return websearch.Config{
		Provider:          c.WebSearch.Provider,
		Endpoint:          c.WebSearch.Endpoint,
		APIKey:            c.WebSearch.APIKey,
		RequestsPerSecond: c.WebSearch.RequestsPerSecond,
		Burst:             c.WebSearch.Burst,
	}
}
