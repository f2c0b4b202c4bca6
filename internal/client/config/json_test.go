package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"seqassist"}, args...)
}

func TestParseJson_OverlaysFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"api_base_url": "https://api.example.com",
		"request_timeout": "45s",
		"database_path": "/tmp/creds.db"
	}`), 0o600))
	withArgs(t, "-c", path)

	var cfg Config
	cfg.LoadDefaults()
	parseJson(&cfg)

	require.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	require.Equal(t, 45*time.Second, cfg.RequestTimeout)
	require.Equal(t, "/tmp/creds.db", cfg.DatabasePath)
	require.Equal(t, "seqassist.key", cfg.KeyFilePath, "fields absent from JSON keep defaults")
}

func TestParseJson_NoFlagIsNoop(t *testing.T) {
	withArgs(t)

	var cfg Config
	cfg.LoadDefaults()
	parseJson(&cfg)

	require.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
}

func TestParseJson_PanicsOnMissingFile(t *testing.T) {
	withArgs(t, "-c", filepath.Join(t.TempDir(), "absent.json"))

	var cfg Config
	cfg.LoadDefaults()
	require.Panics(t, func() { parseJson(&cfg) })
}
