package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baselines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database: /var/lib/app/log.db
replica: S2
schema_file: schema.cue
log_level: debug
metrics_file: /var/lib/node_exporter/baselines.prom
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Database:    "/var/lib/app/log.db",
		Replica:     "S2",
		SchemaFile:  "schema.cue",
		LogLevel:    "debug",
		MetricsFile: "/var/lib/node_exporter/baselines.prom",
	}, cfg)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "replica: S3\n"))
	require.NoError(t, err)
	assert.Equal(t, "baselines.db", cfg.Database)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "S3", cfg.Replica)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("BASELINES_DATABASE", "/tmp/env.db")
	t.Setenv("BASELINES_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "database: file.db\nreplica: S1\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "S1", cfg.Replica)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown field", "databse: x.db\n", "field databse not found"},
		{"bad level", "log_level: loud\n", "log_level must be one of"},
		{"empty database", "database: \"\"\n", "database is required"},
		{"malformed", "database: [\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
