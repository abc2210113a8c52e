package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gorilla/securecookie"
)

const defaultDatabaseURL = "sqlite://roleguard.db"

type Config struct {
	HTTPAddr    string
	DatabaseURL string

	SessionHashKey  []byte // base64
	SessionBlockKey []byte // base64, 16/24/32 bytes
	SessionMaxAge   time.Duration

	LogLevel string
	LogDir   string

	// zero rate disables login throttling
	LoginRatePerSec float64
	LoginRateBurst  int

	DevMode bool
}

// fileConfig mirrors Config in the optional TOML file. Keys stay base64 strings.
type fileConfig struct {
	HTTPAddr           string  `toml:"http_addr"`
	DatabaseURL        string  `toml:"database_url"`
	SessionHashKey     string  `toml:"session_hash_key"`
	SessionBlockKey    string  `toml:"session_block_key"`
	SessionMaxAgeHours int     `toml:"session_max_age_hours"`
	LogLevel           string  `toml:"log_level"`
	LogDir             string  `toml:"log_dir"`
	LoginRatePerSec    float64 `toml:"login_rate_per_sec"`
	LoginRateBurst     int     `toml:"login_rate_burst"`
	DevMode            bool    `toml:"dev_mode"`
}

func FromEnv() (Config, error) {
	return Load("")
}

// Load reads the TOML file at path (if any) and applies environment overrides.
func Load(path string) (Config, error) {
	fc := fileConfig{
		HTTPAddr:           ":8080",
		DatabaseURL:        defaultDatabaseURL,
		SessionMaxAgeHours: 14 * 24,
		LogLevel:           "info",
		LoginRateBurst:     5,
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	fc.HTTPAddr = envDefault("HTTP_ADDR", fc.HTTPAddr)
	fc.DatabaseURL = envDefault("DATABASE_URL", fc.DatabaseURL)
	fc.SessionHashKey = envDefault("SESSION_HASH_KEY", fc.SessionHashKey)
	fc.SessionBlockKey = envDefault("SESSION_BLOCK_KEY", fc.SessionBlockKey)
	fc.LogLevel = envDefault("LOG_LEVEL", fc.LogLevel)
	fc.LogDir = envDefault("LOG_DIR", fc.LogDir)
	if v := strings.TrimSpace(os.Getenv("DEV_MODE")); v != "" {
		fc.DevMode = v == "1" || strings.EqualFold(v, "true")
	}

	cfg := Config{
		HTTPAddr:    fc.HTTPAddr,
		DatabaseURL: fc.DatabaseURL,
		LogLevel:    fc.LogLevel,
		LogDir:      fc.LogDir,
		DevMode:     fc.DevMode,
	}

	hours, err := envInt("SESSION_MAX_AGE_HOURS", fc.SessionMaxAgeHours)
	if err != nil {
		return cfg, err
	}
	if hours < 1 {
		return cfg, fmt.Errorf("SESSION_MAX_AGE_HOURS must be positive")
	}
	cfg.SessionMaxAge = time.Duration(hours) * time.Hour

	cfg.LoginRateBurst, err = envInt("LOGIN_RATE_BURST", fc.LoginRateBurst)
	if err != nil {
		return cfg, err
	}
	cfg.LoginRatePerSec = fc.LoginRatePerSec
	if v := strings.TrimSpace(os.Getenv("LOGIN_RATE_PER_SEC")); v != "" {
		cfg.LoginRatePerSec, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid LOGIN_RATE_PER_SEC: %w", err)
		}
	}
	if cfg.LoginRatePerSec < 0 || cfg.LoginRateBurst < 1 {
		return cfg, fmt.Errorf("LOGIN_RATE_PER_SEC must be >= 0 and LOGIN_RATE_BURST >= 1")
	}

	if fc.SessionHashKey == "" && fc.SessionBlockKey == "" && cfg.DevMode {
		// keys die with the process; every restart logs everyone out
		cfg.SessionHashKey = securecookie.GenerateRandomKey(32)
		cfg.SessionBlockKey = securecookie.GenerateRandomKey(32)
		return cfg, nil
	}
	cfg.SessionHashKey, err = mustB64("SESSION_HASH_KEY", fc.SessionHashKey)
	if err != nil {
		return cfg, err
	}
	cfg.SessionBlockKey, err = mustB64("SESSION_BLOCK_KEY", fc.SessionBlockKey)
	if err != nil {
		return cfg, err
	}
	switch len(cfg.SessionBlockKey) {
	case 16, 24, 32:
	default:
		return cfg, fmt.Errorf("SESSION_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", len(cfg.SessionBlockKey))
	}
	return cfg, nil
}

// String masks the session keys.
func (c Config) String() string {
	return fmt.Sprintf("Config{HTTPAddr: %s, DatabaseURL: %s, SessionKeys: ***, DevMode: %t}",
		c.HTTPAddr, redactURL(c.DatabaseURL), c.DevMode)
}

func envDefault(k, d string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	return v
}

func envInt(k string, d int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", k, err)
	}
	return n, nil
}

func mustB64(k, v string) ([]byte, error) {
	if v == "" {
		return nil, fmt.Errorf("%s is required (base64)", k)
	}
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func redactURL(u string) string {
	at := strings.LastIndex(u, "@")
	scheme := strings.Index(u, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return u
	}
	return u[:scheme+3] + "***" + u[at:]
}
