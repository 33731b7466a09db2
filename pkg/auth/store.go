package auth

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/m-mizutani/goerr/v2"
	"github.com/zalando/go-keyring"
)

// ErrNotFound is returned by Store.Load when no token is stored.
var ErrNotFound = errors.New("auth: token not found")

// Store persists the session token across process runs.
type Store interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (string, error)
	Delete(ctx context.Context) error
}

const keychainAccount = "token"

// KeychainStore keeps the token in the OS keychain (macOS Keychain, Windows
// Credential Manager, Linux Secret Service).
type KeychainStore struct {
	service string
}

// NewKeychainStore stores the token under service.
func NewKeychainStore(service string) *KeychainStore {
	return &KeychainStore{service: service}
}

// Save implements Store.
func (s *KeychainStore) Save(_ context.Context, token string) error {
	if err := keyring.Set(s.service, keychainAccount, token); err != nil {
		return goerr.Wrap(err, "save token to keychain", goerr.V("service", s.service))
	}
	return nil
}

// Load implements Store.
func (s *KeychainStore) Load(_ context.Context) (string, error) {
	secret, err := keyring.Get(s.service, keychainAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", goerr.Wrap(err, "load token from keychain", goerr.V("service", s.service))
	}
	return secret, nil
}

// Delete implements Store.
func (s *KeychainStore) Delete(_ context.Context) error {
	if err := keyring.Delete(s.service, keychainAccount); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return goerr.Wrap(err, "delete token from keychain", goerr.V("service", s.service))
	}
	return nil
}

// FileStore keeps the token in a file readable only by the current user.
type FileStore struct {
	path string
}

// NewFileStore stores the token at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultTokenPath is the token file under the user config directory.
func DefaultTokenPath(app string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", goerr.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(dir, app, "token"), nil
}

// Path returns the token file location.
func (s *FileStore) Path() string {
	return s.path
}

// withLock runs fn holding the lock file next to the token: shared for
// readers, exclusive for writers.
func (s *FileStore) withLock(shared bool, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return goerr.Wrap(err, "create token dir", goerr.V("path", s.path))
	}
	lock := flock.New(s.path + ".lock")
	acquire := lock.Lock
	if shared {
		acquire = lock.RLock
	}
	if err := acquire(); err != nil {
		return goerr.Wrap(err, "lock token file", goerr.V("path", s.path))
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return fn()
}

// Save implements Store. The token is written to a temporary file and
// renamed over the old one, so readers see either token in full.
func (s *FileStore) Save(_ context.Context, token string) error {
	return s.withLock(false, func() error {
		tmp, err := os.CreateTemp(filepath.Dir(s.path), ".token-*")
		if err != nil {
			return goerr.Wrap(err, "create temp token", goerr.V("path", s.path))
		}
		defer func() {
			_ = os.Remove(tmp.Name())
		}()
		if _, err := tmp.WriteString(token + "\n"); err != nil {
			_ = tmp.Close()
			return goerr.Wrap(err, "write token", goerr.V("path", s.path))
		}
		if err := tmp.Close(); err != nil {
			return goerr.Wrap(err, "close token", goerr.V("path", s.path))
		}
		if err := os.Rename(tmp.Name(), s.path); err != nil {
			return goerr.Wrap(err, "replace token", goerr.V("path", s.path))
		}
		return nil
	})
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context) (string, error) {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	var token string
	err := s.withLock(true, func() error {
		raw, err := os.ReadFile(s.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return ErrNotFound
			}
			return goerr.Wrap(err, "read token", goerr.V("path", s.path))
		}
		token = strings.TrimSpace(string(raw))
		return nil
	})
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context) error {
	return s.withLock(false, func() error {
		if err := os.Remove(s.path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return ErrNotFound
			}
			return goerr.Wrap(err, "remove token", goerr.V("path", s.path))
		}
		return nil
	})
}

// MemoryStore keeps the token for the lifetime of the process.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNotFound
	}
	return s.token, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return ErrNotFound
	}
	s.token = ""
	return nil
}
