package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAPIKey, EnvOpenAIAPIKey, EnvTavilyAPIKey, EnvDataDir} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 500, cfg.Index.ChunkSize)
	assert.Equal(t, 50, cfg.Index.ChunkOverlap)
	assert.Equal(t, 1000, cfg.Search.MaxQueryLength)
	assert.Equal(t, 3, cfg.WebSearch.MaxURLs)
	assert.Equal(t, 60*time.Second, cfg.Pipeline.CallTimeout)
	assert.Equal(t, BackendBadger, cfg.Storage.ResultsBackend)
	assert.Equal(t, BackendBadger, cfg.Storage.ChunkBackend)
	assert.False(t, cfg.Storage.UsesSQLite())
	assert.Equal(t, ":8000", cfg.Server.Addr)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default().Index, cfg.Index)
	})

	t.Run("file values and duration strings", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "careerfit.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
ai:
  generation_model: llama3.1
index:
  chunk_size: 200
  chunk_overlap: 20
pipeline:
  call_timeout: 15s
  stage_timeout: 2m
storage:
  path: /var/lib/careerfit/data
  results_backend: sqlite
websearch:
  provider: duckduckgo
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "llama3.1", cfg.AI.GenerationModel)
		assert.Equal(t, "embeddinggemma", cfg.AI.EmbeddingModel)
		assert.Equal(t, 200, cfg.Index.ChunkSize)
		assert.Equal(t, 15*time.Second, cfg.Pipeline.CallTimeout)
		assert.Equal(t, 2*time.Minute, cfg.Pipeline.StageTimeout)
		assert.Equal(t, "/var/lib/careerfit/results.db", cfg.Storage.SQLitePath)
		require.NoError(t, cfg.Validate())
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("index: [1, 2"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("environment overrides secrets", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvOpenAIAPIKey, "sk-openai")
		t.Setenv(EnvTavilyAPIKey, "tvly-key")
		dataDir := t.TempDir()
		t.Setenv(EnvDataDir, dataDir)

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "sk-openai", cfg.AI.APIKey)
		assert.Equal(t, "tvly-key", cfg.WebSearch.APIKey)
		assert.Equal(t, filepath.Join(dataDir, "data"), cfg.Storage.Path)

		t.Setenv(EnvAPIKey, "sk-careerfit")
		cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "sk-careerfit", cfg.AI.APIKey)
	})
}

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Pipeline.RetryDelay = 750 * time.Millisecond
	cfg.AI.APIKey = "secret"

	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, loaded.Pipeline.RetryDelay)
	assert.Equal(t, cfg.Storage, loaded.Storage)
	assert.Equal(t, "secret", cfg.AI.APIKey, "Save must not modify its argument")
}

func TestLoadDefault_WritesUserConfig(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "careerfit", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, 500, cfg.Index.ChunkSize)
}

func TestLoadEnvFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TAVILY_API_KEY=from-dotenv\n"), 0o600))
	os.Unsetenv(EnvTavilyAPIKey)

	require.NoError(t, LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-dotenv", os.Getenv(EnvTavilyAPIKey))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap not below size", func(c *Config) { c.Index.ChunkOverlap = c.Index.ChunkSize }},
		{"unknown results backend", func(c *Config) { c.Storage.ResultsBackend = "mongo" }},
		{"unknown chunk backend", func(c *Config) { c.Storage.ChunkBackend = "chroma" }},
		{"sqlite chunks without path", func(c *Config) {
			c.Storage.ChunkBackend = BackendSQLite
			c.Storage.SQLitePath = ""
		}},
		{"unknown web provider", func(c *Config) { c.WebSearch.Provider = "bing" }},
		{"temperature out of range", func(c *Config) { c.AI.Temperature = 3 }},
		{"non-positive top k", func(c *Config) { c.Search.TopK = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.WebSearch.APIKey = "tvly"

	assert.Equal(t, "tvly", cfg.SearcherConfig().APIKey)
	assert.Equal(t, cfg.AI.GenerationModel, cfg.ProviderConfig().GenerationModel)
	assert.Equal(t, "none", func() string {
		p := cfg.ProviderConfig()
		p.Normalize()
		return p.APIKey
	}())
}
