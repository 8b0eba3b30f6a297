package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inDir runs the test from dir so the implicit config lookup is isolated.
func inDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	inDir(t, t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, "esquery.db", cfg.Local.Path)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Elastic.Addresses)
	assert.Equal(t, 5*time.Minute, cfg.Elastic.SniffInterval)
	assert.Equal(t, 10000, cfg.Planner.Window)
	assert.Equal(t, 100, cfg.Planner.TopHits)
	assert.Equal(t, NamingIdentity, cfg.Planner.Naming)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	inDir(t, dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: elastic
index: people
elastic:
  addresses: ["http://es1:9200", "http://es2:9200"]
  username: reader
  sniff: true
planner:
  window: 500
  timezone: UTC
`), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, BackendElastic, cfg.Backend)
	assert.Equal(t, "people", cfg.Index)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.Elastic.Addresses)
	assert.Equal(t, "reader", cfg.Elastic.Username)
	assert.True(t, cfg.Elastic.Sniff)
	assert.Equal(t, 500, cfg.Planner.Window)
	assert.Equal(t, 100, cfg.Planner.TopHits)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_ImplicitFile(t *testing.T) {
	dir := t.TempDir()
	inDir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "esquery.yaml"), []byte("index: implicit\n"), 0o644))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "implicit", cfg.Index)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	inDir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "esquery.yaml"), []byte("index: fromfile\n"), 0o644))
	t.Setenv("ESQUERY_INDEX", "fromenv")
	t.Setenv("ESQUERY_PLANNER_WINDOW", "250")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Index)
	assert.Equal(t, 250, cfg.Planner.Window)
}

func TestLoad_MissingNamedFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Backend: BackendLocal,
			Local:   LocalConfig{Path: "x.db"},
			Planner: PlannerConfig{Window: 10, TopHits: 1, Naming: NamingIdentity},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Backend = "solr" }, "backend must be"},
		{"elastic without addresses", func(c *Config) { c.Backend = BackendElastic }, "elastic.addresses"},
		{"local without path", func(c *Config) { c.Local.Path = "" }, "local.path"},
		{"zero window", func(c *Config) { c.Planner.Window = 0 }, "planner.window"},
		{"zero top hits", func(c *Config) { c.Planner.TopHits = 0 }, "planner.top_hits"},
		{"unknown naming", func(c *Config) { c.Planner.Naming = "snake" }, "planner.naming"},
		{"bad timezone", func(c *Config) { c.Planner.Timezone = "Mars/Olympus" }, "planner.timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireIndex(t *testing.T) {
	_, err := (&Config{}).RequireIndex()
	assert.Error(t, err)

	idx, err := (&Config{Index: "people"}).RequireIndex()
	require.NoError(t, err)
	assert.Equal(t, "people", idx)
}
