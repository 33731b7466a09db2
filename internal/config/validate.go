package config

import (
	"net/url"

	"github.com/m-mizutani/goerr/v2"

	"github.com/goliatone/go-cms-forms/internal/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if c.Selector.DelayMS < 0 {
		return goerr.New("selector.delay_ms must not be negative", goerr.V("delay_ms", c.Selector.DelayMS))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return goerr.Wrap(err, "log.level")
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return goerr.Wrap(err, "log.format")
	}
	return nil
}

func (c *Config) validateAPI() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return goerr.New("api.base_url must be an http(s) URL", goerr.V("base_url", c.API.BaseURL))
	}
	if c.API.TimeoutSeconds <= 0 {
		return goerr.New("api.timeout_seconds must be positive", goerr.V("timeout_seconds", c.API.TimeoutSeconds))
	}
	return nil
}

func (c *Config) validateAuth() error {
	switch c.Auth.Store {
	case StoreKeychain:
		if c.Auth.KeychainService == "" {
			return goerr.New("auth.keychain_service is required for the keychain store")
		}
	case StoreFile, StoreMemory:
	default:
		return goerr.New("auth.store must be keychain, file or memory", goerr.V("store", c.Auth.Store))
	}
	return nil
}
