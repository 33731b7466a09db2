// Package selector implements the debounced remote option search used by
// relational form fields.
//
// Every keystroke resets a single-slot timer; only when the delay elapses
// without further input is the remote collaborator queried with the latest
// text. Results are cached by exact query for the lifetime of the Selector,
// concurrent fetches of the same query share one remote call, and each fetch
// is tagged with a sequence number so a response that arrives after a newer
// query was issued is dropped instead of overwriting the current options.
package selector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/model"
)

// FetchFunc queries the remote collaborator for options matching query.
type FetchFunc func(ctx context.Context, query string) ([]model.Option, error)

// State is what a control renders.
type State struct {
	Query       string
	Options     []model.Option
	Loading     bool
	Unavailable bool
}

// Selector is one debounced search control. Create one per form field; the
// cache is never shared across instances.
type Selector struct {
	fetch   FetchFunc
	clock   Clock
	delay   time.Duration
	timeout time.Duration
	logger  *slog.Logger
	name    string
	parent  context.Context

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group
	wg     sync.WaitGroup

	mu        sync.Mutex
	timer     Timer
	timerGen  uint64
	seq       uint64
	cache     map[string][]model.Option
	state     State
	listeners map[int]func(State)
	nextID    int
	closed    bool
}

// New builds a selector around fetch.
func New(fetch FetchFunc, opts ...Option) *Selector {
	s := &Selector{
		fetch:     fetch,
		clock:     realClock{},
		delay:     DefaultDelay,
		timeout:   DefaultTimeout,
		parent:    context.Background(),
		cache:     make(map[string][]model.Option),
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	s.ctx, s.cancel = context.WithCancel(s.parent)
	return s
}

// State returns a snapshot of the control state.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn for state changes and returns its removal func.
func (s *Selector) Subscribe(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Input records a keystroke. Any pending timer is cancelled and a new one is
// started; the fetch happens only if no other keystroke arrives in time.
func (s *Selector) Input(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	gen := s.timerGen
	s.state.Query = query
	s.state.Loading = true
	s.timer = s.clock.AfterFunc(s.delay, func() { s.onTimer(gen, query) })
	st, listeners := s.snapshot(), s.listenersLocked()
	s.mu.Unlock()
	emit(listeners, st)
}

// Preload fetches the default option set (empty query) right away so the
// control is usable before anything is typed.
func (s *Selector) Preload() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.mu.Unlock()
	s.fire("")
}

// Search resolves query synchronously, bypassing the debounce. It shares the
// cache, deduplication and stale-drop rules with Input and never fails: a
// fetch error yields no options.
func (s *Selector) Search(ctx context.Context, query string) []model.Option {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.stopTimerLocked()
	s.mu.Unlock()

	tag, cached, ok := s.issue(query)
	if ok {
		return cached
	}
	opts, err := s.resolve(ctx, tag, query)
	if err != nil {
		return nil
	}
	return opts
}

// Close discards the control: the pending timer is stopped and in-flight
// fetches see a cancelled context.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.cancel()
}

func (s *Selector) onTimer(gen uint64, query string) {
	s.mu.Lock()
	if s.closed || gen != s.timerGen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()
	s.fire(query)
}

func (s *Selector) fire(query string) {
	tag, _, cached := s.issue(query)
	if cached {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.resolve(s.ctx, tag, query)
	}()
}

// issue makes query the active one. Cached results are applied immediately.
func (s *Selector) issue(query string) (uint64, []model.Option, bool) {
	s.mu.Lock()
	s.seq++
	tag := s.seq
	s.state.Query = query
	cached, ok := s.cache[query]
	if ok {
		s.state.Options = cloneOptions(cached)
		s.state.Loading = false
		s.state.Unavailable = false
	} else {
		s.state.Loading = true
	}
	st, listeners := s.snapshot(), s.listenersLocked()
	s.mu.Unlock()

	emit(listeners, st)
	return tag, cloneOptions(cached), ok
}

func (s *Selector) resolve(ctx context.Context, tag uint64, query string) ([]model.Option, error) {
	if ctx == nil {
		ctx = s.ctx
	}
	v, err, shared := s.group.Do(query, func() (any, error) {
		fetchCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return s.fetch(fetchCtx, query)
	})
	opts, _ := v.([]model.Option)

	s.mu.Lock()
	if err == nil && !s.closed {
		s.cache[query] = cloneOptions(opts)
	}
	if tag != s.seq {
		s.mu.Unlock()
		s.logger.Debug("dropping stale options",
			"selector", s.name, "query", query, "shared", shared)
		return cloneOptions(opts), err
	}
	s.state.Loading = false
	if err != nil {
		s.state.Unavailable = true
	} else {
		s.state.Options = cloneOptions(opts)
		s.state.Unavailable = false
	}
	st, listeners := s.snapshot(), s.listenersLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("option fetch failed",
			append([]any{"selector", s.name, "query", query}, logging.ErrorAttrs(err)...)...)
	}
	emit(listeners, st)
	return cloneOptions(opts), err
}

func (s *Selector) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Selector) snapshot() State {
	st := s.state
	st.Options = cloneOptions(s.state.Options)
	return st
}

func (s *Selector) listenersLocked() []func(State) {
	if len(s.listeners) == 0 {
		return nil
	}
	out := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func emit(listeners []func(State), st State) {
	for _, fn := range listeners {
		fn(st)
	}
}

func cloneOptions(opts []model.Option) []model.Option {
	if opts == nil {
		return nil
	}
	return append([]model.Option{}, opts...)
}
