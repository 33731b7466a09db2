package selector

import (
	"context"
	"log/slog"
	"time"
)

// DefaultDelay is the idle period before a typed query is fetched.
const DefaultDelay = 1500 * time.Millisecond

// DefaultTimeout bounds a single remote fetch so the loading flag always
// resolves.
const DefaultTimeout = 15 * time.Second

// Option configures a Selector.
type Option func(*Selector)

// WithDelay overrides the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(s *Selector) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithTimeout overrides the per-fetch timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Selector) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Selector) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger used for fetch failures and dropped responses.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithContext sets the parent context of background fetches. Close cancels
// the derived context.
func WithContext(ctx context.Context) Option {
	return func(s *Selector) {
		if ctx != nil {
			s.parent = ctx
		}
	}
}

// WithName labels log records, e.g. "genres".
func WithName(name string) Option {
	return func(s *Selector) {
		s.name = name
	}
}
