// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Nil fields are unset.
type FileConfig struct {
	Server   ServerFile   `toml:"server"`
	Store    StoreFile    `toml:"store"`
	Auth     AuthFile     `toml:"auth"`
	Cache    CacheFile    `toml:"cache"`
	Log      LogFile      `toml:"log"`
	Practice PracticeFile `toml:"practice"`
}

// ServerFile maps HTTP server settings.
type ServerFile struct {
	Addr               *string  `toml:"addr"`
	ReadTimeoutSec     *int     `toml:"read-timeout-sec"`
	WriteTimeoutSec    *int     `toml:"write-timeout-sec"`
	ShutdownTimeoutSec *int     `toml:"shutdown-timeout-sec"`
	AllowedOrigins     []string `toml:"allowed-origins"`
}

// StoreFile maps database settings.
type StoreFile struct {
	Driver *string `toml:"driver"`
	DSN    *string `toml:"dsn"`
}

// AuthFile maps token and hashing settings.
type AuthFile struct {
	JWTSecret  *string `toml:"jwt-secret"`
	TokenTTL   *string `toml:"token-ttl"`
	BcryptCost *int    `toml:"bcrypt-cost"`
}

// CacheFile maps analysis cache settings.
type CacheFile struct {
	RedisURL *string `toml:"redis-url"`
	Size     *int    `toml:"size"`
	TTL      *string `toml:"ttl"`
}

// LogFile maps logger settings.
type LogFile struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// PracticeFile maps practice-related settings.
type PracticeFile struct {
	User        *string  `toml:"user"`
	Duration    *int     `toml:"duration"`
	Words       *int     `toml:"words"`
	CapsPct     *float64 `toml:"caps"`
	PunctPct    *float64 `toml:"punct"`
	PunctSet    *string  `toml:"punct-set"`
	WordList    *string  `toml:"wordlist"`
	FocusErrors *bool    `toml:"focus-errors"`
	FocusTop    *int     `toml:"focus-top"`
	FocusFactor *float64 `toml:"focus-factor"`
	FocusWindow *int     `toml:"focus-window"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template is written by `typetrack config` when no file exists yet.
const Template = `# typetrack configuration

[server]
# addr = ":5000"
# allowed-origins = ["http://localhost:3000"]

[store]
# driver = "sqlite"      # or "postgres"
# dsn = ""               # file path for sqlite, connection URL for postgres

[auth]
# jwt-secret = ""
# token-ttl = "168h"
# bcrypt-cost = 8

[cache]
# redis-url = ""         # empty keeps analyses in memory
# size = 1024
# ttl = "10m"

[log]
# level = "info"
# format = "text"

[practice]
# user = ""
# duration = 30
# words = 40
# caps = 0
# punct = 0
# focus-errors = false
`
