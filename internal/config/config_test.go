package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, "{}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:4000", cfg.Listen.Addr())
	assert.Equal(t, 15, cfg.Game.MobTarget)
	assert.Equal(t, 3, cfg.Game.MobDifficulty)
	assert.Equal(t, 60*time.Second, cfg.Game.SpawnInterval)
	assert.Equal(t, 45*time.Second, cfg.Game.MoveInterval)
	assert.Equal(t, 10*time.Minute, cfg.Game.LockInterval)
	assert.Equal(t, 5*time.Minute, cfg.Game.LightInterval)
	assert.Equal(t, 1, cfg.Game.SafeRoom)
	assert.Equal(t, 0.95, cfg.Game.DeathPenalty)
	assert.Equal(t, 0.75, cfg.Game.RespawnHPFraction)
	assert.Equal(t, 10, cfg.Game.ShutdownCountdown)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfigFile(t, `
listen:
  port: 5555
game:
  mob_target: 3
  mob_difficulty: 2
  spawn_interval: 5s
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5555, cfg.Listen.Port)
	assert.Equal(t, 3, cfg.Game.MobTarget)
	assert.Equal(t, 2, cfg.Game.MobDifficulty)
	assert.Equal(t, 5*time.Second, cfg.Game.SpawnInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, "{}\n")
	t.Setenv("UAMUD_LISTEN_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Listen.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Name: "game", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5432/game?sslmode=disable", d.DSN())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "bad listen port",
			mutate:  func(c *Config) { c.Listen.Port = 0 },
			wantMsg: "listen.port",
		},
		{
			name:    "bad sslmode",
			mutate:  func(c *Config) { c.Database.SSLMode = "maybe" },
			wantMsg: "database.sslmode",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantMsg: "logging.level",
		},
		{
			name:    "negative mob target",
			mutate:  func(c *Config) { c.Game.MobTarget = -1 },
			wantMsg: "game.mob_target",
		},
		{
			name:    "zero spawn interval",
			mutate:  func(c *Config) { c.Game.SpawnInterval = 0 },
			wantMsg: "game.spawn_interval",
		},
		{
			name:    "death penalty above one",
			mutate:  func(c *Config) { c.Game.DeathPenalty = 1.5 },
			wantMsg: "game.death_penalty",
		},
		{
			name:    "inverted spawn room range",
			mutate:  func(c *Config) { c.Game.SpawnRoomMin = 10; c.Game.SpawnRoomMax = 5 },
			wantMsg: "game.spawn_room_min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
