// Package config loads agenttalk settings from YAML files, .env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL        = "http://localhost:5000"
	DefaultTheme          = "dark"
	DefaultRounds         = 2
	DefaultLogLevel       = "debug"
	DefaultRequestTimeout = 30 * time.Second

	dirName  = ".agenttalk"
	fileName = "config.yaml"
)

// Environment variable names.
const (
	EnvBaseURL  = "AGENTTALK_BASE_URL"
	EnvTheme    = "AGENTTALK_THEME"
	EnvLogLevel = "AGENTTALK_LOG_LEVEL"
	EnvRounds   = "AGENTTALK_ROUNDS"
)

// Config is the merged client configuration.
type Config struct {
	BaseURL        string            `yaml:"base_url"`
	Theme          string            `yaml:"theme"`
	Rounds         int               `yaml:"rounds"`
	LogLevel       string            `yaml:"log_level"`
	RequestTimeout time.Duration     `yaml:"request_timeout"`
	Agents         map[string]string `yaml:"agents"` // agent name -> emoji
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		Theme:          DefaultTheme,
		Rounds:         DefaultRounds,
		LogLevel:       DefaultLogLevel,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Loader resolves configuration sources. Zero fields fall back to the
// process environment.
type Loader struct {
	HomeDir string
	WorkDir string
	// File replaces both the global and the repo config file when set.
	File   string
	Getenv func(string) string
}

// Load reads configuration in increasing precedence: defaults, the global
// file, the repo file, .env in the working directory, then the environment.
func Load() (*Config, error) {
	return Loader{}.Load()
}

// Load resolves the configuration.
func (l Loader) Load() (*Config, error) {
	if l.Getenv == nil {
		l.Getenv = os.Getenv
	}
	if l.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		l.WorkDir = wd
	}
	if l.HomeDir == "" {
		// Without a home directory the global file is skipped.
		l.HomeDir, _ = os.UserHomeDir()
	}

	cfg := Default()

	var files []string
	if l.File != "" {
		files = []string{l.File}
	} else {
		if l.HomeDir != "" {
			files = append(files, filepath.Join(l.HomeDir, dirName, fileName))
		}
		files = append(files, filepath.Join(l.WorkDir, dirName, fileName))
	}
	for _, path := range files {
		if err := mergeFile(cfg, path, l.File != ""); err != nil {
			return nil, err
		}
	}

	dotenv, err := readDotenv(filepath.Join(l.WorkDir, ".env"))
	if err != nil {
		return nil, err
	}
	getenv := func(key string) string {
		if v := l.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a single config file without defaults.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := mergeFile(&cfg, path, true); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeFile overlays the keys present in path onto cfg. A missing file is
// an error only when required.
func mergeFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func readDotenv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vars, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := getenv(EnvTheme); v != "" {
		c.Theme = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvRounds); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvRounds, err)
		}
		c.Rounds = n
	}
	return nil
}

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q: must be an http or https URL", c.BaseURL)
	}

	c.Theme = strings.ToLower(strings.TrimSpace(c.Theme))
	switch c.Theme {
	case "":
		c.Theme = DefaultTheme
	case "dark", "light":
	default:
		return fmt.Errorf("unknown theme %q, must be dark or light", c.Theme)
	}

	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	return nil
}

// Save writes cfg to dir/.agenttalk/config.yaml.
func (c *Config) Save(dir string) error {
	cfgDir := filepath.Join(dir, dirName)
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("creating %s directory: %w", dirName, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	path := filepath.Join(cfgDir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
