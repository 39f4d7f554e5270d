package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load("/nonexistent/path/studentdb.yaml")
	require.Error(t, err)

	cfg := Default()
	assert.Equal(t, "data", cfg.Storage.Dir)
	assert.Equal(t, "student1", cfg.Storage.Name)
	assert.Equal(t, 3, cfg.Storage.Order)
	assert.Equal(t, "none", cfg.Storage.Compression)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studentdb.yaml")
	content := `
storage:
  dir: "/var/lib/studentdb"
  name: "student2"
  order: 5
  compression: snappy
log:
  level: debug
  file: studentdb.log
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/studentdb", cfg.Storage.Dir)
	assert.Equal(t, "student2", cfg.Storage.Name)
	assert.Equal(t, 5, cfg.Storage.Order)
	assert.Equal(t, "snappy", cfg.Storage.Compression)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "studentdb.log", cfg.Log.File)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studentdb.toml")
	content := `
[storage]
name = "toml_db"
order = 1
compression = "lz4"

[log]
level = "warn"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "toml_db", cfg.Storage.Name)
	assert.Equal(t, "data", cfg.Storage.Dir)
	// orders below 3 fall back to the default
	assert.Equal(t, 3, cfg.Storage.Order)
	assert.Equal(t, "lz4", cfg.Storage.Compression)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [1, 2"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}
