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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "data/lod.db", cfg.Database.Path)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
	assert.Equal(t, 5, cfg.Rules.LegalSeverityThreshold)
	assert.Equal(t, 50000.0, cfg.Rules.LegalCostThreshold)
	assert.Equal(t, 7, cfg.Rules.WingSeverityThreshold)
	assert.Equal(t, 30, cfg.Rules.AppealWindowDays)
	assert.Equal(t, 180, cfg.Rules.DeathAppealWindowDays)
	assert.Equal(t, 10*time.Second, cfg.Notifier.Timeout)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8081
database:
  path: /tmp/test.db
rules:
  appeal_window_days: 45
notifier:
  webhook_url: http://localhost:9000/hook
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, 45, cfg.Rules.AppealWindowDays)
	assert.Equal(t, "http://localhost:9000/hook", cfg.Notifier.WebhookURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, true},
		{"negative threshold", func(c *Config) { c.Rules.LegalSeverityThreshold = -1 }, true},
		{"zero appeal window", func(c *Config) { c.Rules.AppealWindowDays = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:   ServerConfig{Port: 8080},
				Database: DatabaseConfig{Path: "data/lod.db"},
				Rules: RulesConfig{
					LegalSeverityThreshold: 5,
					WingSeverityThreshold:  7,
					AppealWindowDays:       30,
					DeathAppealWindowDays:  180,
				},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
