package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the fully resolved configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Log      LogConfig
	Practice PracticeDefaults
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type StoreConfig struct {
	Driver string
	DSN    string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type CacheConfig struct {
	RedisURL string
	Size     int
	TTL      time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// PracticeDefaults seeds the practice command's flags.
type PracticeDefaults struct {
	User        string
	Duration    int
	Words       int
	CapsPct     float64
	PunctPct    float64
	PunctSet    string
	WordList    string
	FocusErrors bool
	FocusTop    int
	FocusFactor float64
	FocusWindow int
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":5000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 20 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000"},
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    DefaultDBPath(),
		},
		Auth: AuthConfig{
			TokenTTL:   7 * 24 * time.Hour,
			BcryptCost: 8,
		},
		Cache: CacheConfig{
			Size: 1024,
			TTL:  10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Practice: PracticeDefaults{
			Duration:    30,
			Words:       40,
			PunctSet:    ".,?!;:",
			WordList:    DefaultWordListPath(),
			FocusTop:    10,
			FocusFactor: 3,
			FocusWindow: 20,
		},
	}
}

// Load resolves defaults, the TOML file at path, the .env file at envPath
// and TYPETRACK_* environment variables, later sources winning.
func Load(path, envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}
	file, err := LoadConfig(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Defaults()
	if err := cfg.applyFile(file); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(f FileConfig) error {
	applyString(&c.Server.Addr, f.Server.Addr)
	applySeconds(&c.Server.ReadTimeout, f.Server.ReadTimeoutSec)
	applySeconds(&c.Server.WriteTimeout, f.Server.WriteTimeoutSec)
	applySeconds(&c.Server.ShutdownTimeout, f.Server.ShutdownTimeoutSec)
	if f.Server.AllowedOrigins != nil {
		c.Server.AllowedOrigins = f.Server.AllowedOrigins
	}

	applyString(&c.Store.Driver, f.Store.Driver)
	applyString(&c.Store.DSN, f.Store.DSN)

	applyString(&c.Auth.JWTSecret, f.Auth.JWTSecret)
	if err := applyDuration(&c.Auth.TokenTTL, f.Auth.TokenTTL, "auth.token-ttl"); err != nil {
		return err
	}
	applyInt(&c.Auth.BcryptCost, f.Auth.BcryptCost)

	applyString(&c.Cache.RedisURL, f.Cache.RedisURL)
	applyInt(&c.Cache.Size, f.Cache.Size)
	if err := applyDuration(&c.Cache.TTL, f.Cache.TTL, "cache.ttl"); err != nil {
		return err
	}

	applyString(&c.Log.Level, f.Log.Level)
	applyString(&c.Log.Format, f.Log.Format)

	p := f.Practice
	applyString(&c.Practice.User, p.User)
	applyInt(&c.Practice.Duration, p.Duration)
	applyInt(&c.Practice.Words, p.Words)
	applyFloat(&c.Practice.CapsPct, p.CapsPct)
	applyFloat(&c.Practice.PunctPct, p.PunctPct)
	applyString(&c.Practice.PunctSet, p.PunctSet)
	applyString(&c.Practice.WordList, p.WordList)
	if p.FocusErrors != nil {
		c.Practice.FocusErrors = *p.FocusErrors
	}
	applyInt(&c.Practice.FocusTop, p.FocusTop)
	applyFloat(&c.Practice.FocusFactor, p.FocusFactor)
	applyInt(&c.Practice.FocusWindow, p.FocusWindow)
	return nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = getEnv("TYPETRACK_HTTP_ADDR", c.Server.Addr)
	c.Server.ReadTimeout = time.Duration(getEnvInt("TYPETRACK_HTTP_READ_TIMEOUT_SEC", int(c.Server.ReadTimeout/time.Second))) * time.Second
	c.Server.WriteTimeout = time.Duration(getEnvInt("TYPETRACK_HTTP_WRITE_TIMEOUT_SEC", int(c.Server.WriteTimeout/time.Second))) * time.Second
	c.Server.ShutdownTimeout = time.Duration(getEnvInt("TYPETRACK_HTTP_SHUTDOWN_TIMEOUT_SEC", int(c.Server.ShutdownTimeout/time.Second))) * time.Second
	if origins := getEnv("TYPETRACK_CORS_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	c.Store.Driver = getEnv("TYPETRACK_STORE_DRIVER", c.Store.Driver)
	c.Store.DSN = getEnv("TYPETRACK_DATABASE_URL", c.Store.DSN)

	c.Auth.JWTSecret = getEnv("TYPETRACK_JWT_SECRET", c.Auth.JWTSecret)
	ttl, err := getEnvDuration("TYPETRACK_TOKEN_TTL", c.Auth.TokenTTL)
	if err != nil {
		return err
	}
	c.Auth.TokenTTL = ttl
	c.Auth.BcryptCost = getEnvInt("TYPETRACK_BCRYPT_COST", c.Auth.BcryptCost)

	c.Cache.RedisURL = getEnv("TYPETRACK_REDIS_URL", c.Cache.RedisURL)
	c.Cache.Size = getEnvInt("TYPETRACK_CACHE_SIZE", c.Cache.Size)

	c.Log.Level = getEnv("TYPETRACK_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("TYPETRACK_LOG_FORMAT", c.Log.Format)
	return nil
}

// Validate checks settings shared by every command. Serving additionally
// requires a token secret.
func (c Config) Validate(serving bool) error {
	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		return fmt.Errorf("store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		return fmt.Errorf("store.dsn must not be empty")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt-cost must be between 4 and 31")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token-ttl must be > 0")
	}
	if c.Practice.Duration != 15 && c.Practice.Duration != 30 {
		return fmt.Errorf("practice.duration must be 15 or 30")
	}
	if c.Practice.Words <= 0 {
		return fmt.Errorf("practice.words must be > 0")
	}
	if !serving {
		return nil
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server timeouts must be > 0")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt-secret (or TYPETRACK_JWT_SECRET) must be set to serve")
	}
	return nil
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func applyInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func applyFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func applySeconds(dst *time.Duration, v *int) {
	if v != nil {
		*dst = time.Duration(*v) * time.Second
	}
}

func applyDuration(dst *time.Duration, v *string, key string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
