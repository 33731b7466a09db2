package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// AppName names the config directory and the keychain service.
const AppName = "cmsctl"

// Credential store kinds.
const (
	StoreKeychain = "keychain"
	StoreFile     = "file"
	StoreMemory   = "memory"
)

// API holds the remote endpoint settings.
type API struct {
	BaseURL        string `yaml:"base_url" toml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// Auth holds session and credential store settings.
type Auth struct {
	EmailDomain     string `yaml:"email_domain" toml:"email_domain"`
	Store           string `yaml:"store" toml:"store"`
	KeychainService string `yaml:"keychain_service" toml:"keychain_service"`
	TokenPath       string `yaml:"token_path" toml:"token_path"`
}

// Selector holds the remote search settings.
type Selector struct {
	DelayMS int  `yaml:"delay_ms" toml:"delay_ms"`
	Preload bool `yaml:"preload" toml:"preload"`
}

// Log holds log output settings.
type Log struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Config is the full cmsctl configuration.
type Config struct {
	API      API      `yaml:"api" toml:"api"`
	Auth     Auth     `yaml:"auth" toml:"auth"`
	Selector Selector `yaml:"selector" toml:"selector"`
	Log      Log      `yaml:"log" toml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 15,
		},
		Auth: Auth{
			EmailDomain:     "uade.edu.ar",
			Store:           StoreKeychain,
			KeychainService: AppName,
		},
		Selector: Selector{
			DelayMS: 1500,
			Preload: true,
		},
		Log: Log{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Timeout is API.TimeoutSeconds as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Delay is Selector.DelayMS as a duration.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Selector.DelayMS) * time.Millisecond
}

// DefaultConfigPath is config.yaml under the user config directory.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", goerr.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(dir, AppName, "config.yaml"), nil
}

// Load locates, parses and validates a configuration file. An empty path
// means DefaultConfigPath; a missing file is not an error. envFiles are read
// with godotenv; when none are given an optional .env in the working
// directory is used. Real environment variables win over .env entries.
func Load(path string, envFiles ...string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	dotenv, err := readDotenv(envFiles)
	if err != nil {
		return nil, "", false, err
	}
	if err := cfg.applyEnv(lookupWith(dotenv)); err != nil {
		return nil, "", false, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, goerr.Wrap(err, "stat config", goerr.V("path", path))
	}
	return path, true, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "read config", goerr.V("path", path))
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, cfg)
	default:
		return goerr.New("unsupported config format", goerr.V("path", path))
	}
	if err != nil {
		return goerr.Wrap(err, "parse config", goerr.V("path", path))
	}
	return nil
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.Auth.EmailDomain = strings.TrimPrefix(strings.TrimSpace(c.Auth.EmailDomain), "@")
	c.Auth.Store = strings.ToLower(strings.TrimSpace(c.Auth.Store))
	c.Auth.KeychainService = strings.TrimSpace(c.Auth.KeychainService)
	c.Auth.TokenPath = strings.TrimSpace(c.Auth.TokenPath)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}
