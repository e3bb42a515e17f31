// Package config provides Viper-based configuration loading for the game server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ListenConfig holds the client TCP listener settings.
type ListenConfig struct {
	// Host is the bind address for the client listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port clients connect to.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for client connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for client connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (l ListenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds world-simulation and combat tuning.
type GameConfig struct {
	// MobTarget is the mob population the spawner maintains.
	MobTarget int `mapstructure:"mob_target"`
	// MobDifficulty multiplies mob damage output. Recommended 2-4.
	MobDifficulty int `mapstructure:"mob_difficulty"`
	// SpawnInterval is the period of the population-maintenance process.
	SpawnInterval time.Duration `mapstructure:"spawn_interval"`
	// MoveInterval is the period of the mob-wandering process.
	MoveInterval time.Duration `mapstructure:"move_interval"`
	// LockInterval is the period of the door re-locking process.
	LockInterval time.Duration `mapstructure:"lock_interval"`
	// LightInterval is the period of the day/night lighting cycle.
	LightInterval time.Duration `mapstructure:"light_interval"`
	// RetaliateDelay is how long a hostile mob waits before striking a
	// character that entered (or shares) its room.
	RetaliateDelay time.Duration `mapstructure:"retaliate_delay"`
	// SafeRoom is the room characters respawn in after dying.
	SafeRoom int `mapstructure:"safe_room"`
	// EntryRoom is the starting room; mobs never spawn into or wander here.
	EntryRoom int `mapstructure:"entry_room"`
	// SpawnRoomMin and SpawnRoomMax bound the random spawn room id.
	SpawnRoomMin int `mapstructure:"spawn_room_min"`
	SpawnRoomMax int `mapstructure:"spawn_room_max"`
	// DeathPenalty is the fraction of experience kept after death (0..1].
	DeathPenalty float64 `mapstructure:"death_penalty"`
	// RespawnHPFraction is the fraction of max HP restored on respawn.
	RespawnHPFraction float64 `mapstructure:"respawn_hp_fraction"`
	// ShutdownCountdown is the number of one-second shutdown warnings.
	ShutdownCountdown int `mapstructure:"shutdown_countdown"`
	// DialogueDir is an optional directory of Lua dialogue scripts.
	DialogueDir string `mapstructure:"dialogue_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Listen   ListenConfig   `mapstructure:"listen"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateListen(c.Listen); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateListen(l ListenConfig) error {
	var errs []string
	if l.Host == "" {
		errs = append(errs, "listen.host must not be empty")
	}
	if l.Port < 1 || l.Port > 65535 {
		errs = append(errs, fmt.Sprintf("listen.port must be 1-65535, got %d", l.Port))
	}
	if l.ReadTimeout < 0 {
		errs = append(errs, "listen.read_timeout must not be negative")
	}
	if l.WriteTimeout < 0 {
		errs = append(errs, "listen.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.MobTarget < 0 {
		errs = append(errs, fmt.Sprintf("game.mob_target must be >= 0, got %d", g.MobTarget))
	}
	if g.MobDifficulty < 1 {
		errs = append(errs, fmt.Sprintf("game.mob_difficulty must be >= 1, got %d", g.MobDifficulty))
	}
	for name, d := range map[string]time.Duration{
		"game.spawn_interval": g.SpawnInterval,
		"game.move_interval":  g.MoveInterval,
		"game.lock_interval":  g.LockInterval,
		"game.light_interval": g.LightInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be > 0", name))
		}
	}
	if g.RetaliateDelay < 0 {
		errs = append(errs, "game.retaliate_delay must not be negative")
	}
	if g.SafeRoom < 1 {
		errs = append(errs, fmt.Sprintf("game.safe_room must be >= 1, got %d", g.SafeRoom))
	}
	if g.EntryRoom < 1 {
		errs = append(errs, fmt.Sprintf("game.entry_room must be >= 1, got %d", g.EntryRoom))
	}
	if g.SpawnRoomMin < 1 || g.SpawnRoomMax < g.SpawnRoomMin {
		errs = append(errs, fmt.Sprintf("game.spawn_room_min..max must form a valid range, got %d..%d", g.SpawnRoomMin, g.SpawnRoomMax))
	}
	if g.DeathPenalty <= 0 || g.DeathPenalty > 1 {
		errs = append(errs, fmt.Sprintf("game.death_penalty must be in (0, 1], got %v", g.DeathPenalty))
	}
	if g.RespawnHPFraction <= 0 || g.RespawnHPFraction > 1 {
		errs = append(errs, fmt.Sprintf("game.respawn_hp_fraction must be in (0, 1], got %v", g.RespawnHPFraction))
	}
	if g.ShutdownCountdown < 1 {
		errs = append(errs, fmt.Sprintf("game.shutdown_countdown must be >= 1, got %d", g.ShutdownCountdown))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with UAMUD_ prefix
	v.SetEnvPrefix("UAMUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("unmarshalling default config: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen.host", "0.0.0.0")
	v.SetDefault("listen.port", 4000)
	v.SetDefault("listen.read_timeout", "15m")
	v.SetDefault("listen.write_timeout", "30s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "uamud")
	v.SetDefault("database.password", "uamud")
	v.SetDefault("database.name", "uamud")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.mob_target", 15)
	v.SetDefault("game.mob_difficulty", 3)
	v.SetDefault("game.spawn_interval", "60s")
	v.SetDefault("game.move_interval", "45s")
	v.SetDefault("game.lock_interval", "10m")
	v.SetDefault("game.light_interval", "5m")
	v.SetDefault("game.retaliate_delay", "5s")
	v.SetDefault("game.safe_room", 1)
	v.SetDefault("game.entry_room", 1)
	v.SetDefault("game.spawn_room_min", 2)
	v.SetDefault("game.spawn_room_max", 29)
	v.SetDefault("game.death_penalty", 0.95)
	v.SetDefault("game.respawn_hp_fraction", 0.75)
	v.SetDefault("game.shutdown_countdown", 10)
	v.SetDefault("game.dialogue_dir", "")
}
