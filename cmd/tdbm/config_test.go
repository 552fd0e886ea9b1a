package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tdbm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver: mysql
dsn: user:pass@tcp(localhost)/app
target: ./model
package: example.com/app/model
cache_dir: .tdbm-cache
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Driver)
	assert.Equal(t, "user:pass@tcp(localhost)/app", cfg.DSN)
	assert.Equal(t, "./model", cfg.Target)
	assert.Equal(t, "example.com/app/model", cfg.Package)
	assert.Equal(t, ".tdbm-cache", cfg.CacheDir)
	assert.NoError(t, cfg.validate())
}

func TestLoadConfigExplicitPathMustExist(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tdbm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: [broken"), 0o644))
	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestConfigOverride(t *testing.T) {
	cfg := &fileConfig{Driver: "mysql", DSN: "from-file", Target: "./model"}
	cfg.override("postgres", "", "", "example.com/m", "public", "")
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "from-file", cfg.DSN)
	assert.Equal(t, "./model", cfg.Target)
	assert.Equal(t, "example.com/m", cfg.Package)
	assert.Equal(t, "public", cfg.Schema)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  fileConfig
	}{
		{"missing driver", fileConfig{DSN: "x", Target: "t", Package: "p"}},
		{"missing dsn", fileConfig{Driver: "mysql", Target: "t", Package: "p"}},
		{"missing target", fileConfig{Driver: "mysql", DSN: "x", Package: "p"}},
		{"missing package", fileConfig{Driver: "mysql", DSN: "x", Target: "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.validate())
		})
	}
}
