package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().DBPath, cfg.DBPath)
	assert.Equal(t, DefaultConfig().ListenAddr, cfg.ListenAddr)
	assert.Equal(t, 10*time.Minute, cfg.PDFCacheTTL)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "inspector.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
db_path: /tmp/site.db
export_dir: /tmp/exports
pdf_cache_ttl: 30s
cors_origins:
  - http://tablet.local
`), 0o644))
	t.Setenv("INSPECTOR_LISTEN_ADDR", "0.0.0.0:9000")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/site.db", cfg.DBPath)
	assert.Equal(t, "/tmp/exports", cfg.ExportDir)
	assert.Equal(t, 30*time.Second, cfg.PDFCacheTTL)
	assert.Equal(t, []string{"http://tablet.local"}, cfg.CORSOrigins)
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
