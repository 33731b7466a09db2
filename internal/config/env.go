package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CMS_"

type lookupFunc func(key string) (string, bool)

func readDotenv(files []string) (map[string]string, error) {
	if len(files) == 0 {
		values, err := godotenv.Read(".env")
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, goerr.Wrap(err, "read .env")
		}
		return values, nil
	}
	values, err := godotenv.Read(files...)
	if err != nil {
		return nil, goerr.Wrap(err, "read env files", goerr.V("files", files))
	}
	return values, nil
}

func lookupWith(dotenv map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return goerr.Wrap(err, "invalid integer in environment", goerr.V("key", EnvPrefix+key), goerr.V("value", v))
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return goerr.Wrap(err, "invalid boolean in environment", goerr.V("key", EnvPrefix+key), goerr.V("value", v))
		}
		*dst = b
		return nil
	}

	str("API_BASE_URL", &c.API.BaseURL)
	str("AUTH_EMAIL_DOMAIN", &c.Auth.EmailDomain)
	str("AUTH_STORE", &c.Auth.Store)
	str("AUTH_KEYCHAIN_SERVICE", &c.Auth.KeychainService)
	str("AUTH_TOKEN_PATH", &c.Auth.TokenPath)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	if err := num("API_TIMEOUT_SECONDS", &c.API.TimeoutSeconds); err != nil {
		return err
	}
	if err := num("SELECTOR_DELAY_MS", &c.Selector.DelayMS); err != nil {
		return err
	}
	return flag("SELECTOR_PRELOAD", &c.Selector.Preload)
}
