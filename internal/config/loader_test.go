package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWithFileDefaults(t *testing.T) {
	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, "qdrant", cfg.Backend.Driver)
	assert.Equal(t, 0.6, cfg.Search.VectorWeight)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithFileMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "documents", cfg.Backend.Collection)
}

func TestLoadWithFileYAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  driver: chromem
  collection: handbook
search:
  min_score: 0.2
  cache_ttl: 90s
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "chromem", cfg.Backend.Driver)
	assert.Equal(t, "handbook", cfg.Backend.Collection)
	assert.Equal(t, 0.2, cfg.Search.MinScore)
	assert.Equal(t, 90*time.Second, cfg.Search.CacheTTL)
	assert.Equal(t, 6334, cfg.Backend.Port, "unset fields keep their defaults")
}

func TestLoadWithFileEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
backend:
  host: from-yaml
`)
	t.Setenv("SEARCHD_BACKEND_HOST", "from-env")
	t.Setenv("SEARCHD_SEARCH_MIN_SCORE", "0.45")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Backend.Host)
	assert.Equal(t, 0.45, cfg.Search.MinScore, "compound field names map through the first underscore only")
}

func TestLoadWithFileInvalidYAML(t *testing.T) {
	path := writeConfig(t, "backend: [not: a: map")

	_, err := LoadWithFile(path)
	assert.Error(t, err)
}

func TestLoadWithFileRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
backend:
  driver: bolt
`)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend")
}

func TestLoadWithFileRejectsOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.yaml")
	big := make([]byte, maxConfigFileSize+1)
	for i := range big {
		big[i] = '#'
	}
	require.NoError(t, os.WriteFile(path, big, 0o600))

	_, err := LoadWithFile(path)
	assert.Error(t, err)
}
