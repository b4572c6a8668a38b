package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL          = "http://localhost:5000/api"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultRetentionDays   = 7
	DefaultEmotionDwell    = 8 * time.Second
	DefaultMaxMessageChars = 1000
)

// Environment overrides, applied after the config file.
const (
	EnvAPIURL         = "MELO_API_URL"
	EnvProfile        = "MELO_PROFILE"
	EnvRequestTimeout = "MELO_REQUEST_TIMEOUT"
	EnvRetentionDays  = "MELO_RETENTION_DAYS"
)

// Config represents the global ~/.melo/config.toml.
type Config struct {
	APIURL                string   `toml:"api_url"`
	DefaultProfile        string   `toml:"default_profile"`
	RequestTimeout        Duration `toml:"request_timeout"`
	RetentionDays         int      `toml:"retention_days"`
	EmotionDwell          Duration `toml:"emotion_dwell"`
	MaxMessageChars       int      `toml:"max_message_chars"`
	StrictValidation      bool     `toml:"strict_validation"`
	ConfirmDestructive    bool     `toml:"confirm_destructive"`
	EndConversationNotice bool     `toml:"end_conversation_notice"`
}

// Duration is a time.Duration written as "30s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:             DefaultAPIURL,
		RequestTimeout:     Duration{DefaultRequestTimeout},
		RetentionDays:      DefaultRetentionDays,
		EmotionDwell:       Duration{DefaultEmotionDwell},
		MaxMessageChars:    DefaultMaxMessageChars,
		ConfirmDestructive: true,
	}
}

// Load reads config from the given path on top of the defaults.
// Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve builds the effective configuration: .env in the working directory,
// then defaults, then the config file if present, then MELO_* variables.
func Resolve(path string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvProfile); v != "" {
		c.DefaultProfile = v
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		c.RequestTimeout = Duration{d}
	}
	if v := os.Getenv(EnvRetentionDays); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRetentionDays, err)
		}
		c.RetentionDays = n
	}
	return nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url %q must be an absolute http(s) URL", c.APIURL)
	}
	if c.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("request_timeout must be > 0")
	}
	if c.EmotionDwell.Duration <= 0 {
		return fmt.Errorf("emotion_dwell must be > 0")
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be >= 1")
	}
	if c.MaxMessageChars < 1 {
		return fmt.Errorf("max_message_chars must be >= 1")
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
