// Package auth holds the login session: it exchanges credentials for a token,
// persists the token in a credential store and decides the initial route from
// whatever token survived the previous run.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/form"
	"github.com/goliatone/go-cms-forms/pkg/validation"
)

// Route is where the client should go next.
type Route string

const (
	RouteHome  Route = "/home"
	RouteLogin Route = "/login"
)

// DefaultEmailDomain is appended to bare user names.
const DefaultEmailDomain = "uade.edu.ar"

const fallbackLoginMessage = "No se pudo iniciar sesión"

// Identity is the authenticated user as returned by the Auth API.
type Identity struct {
	Token    string `json:"token"`
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido,omitempty"`
	Email    string `json:"email,omitempty"`
}

// API is the remote Auth collaborator.
type API interface {
	Login(ctx context.Context, email, password string) (Identity, error)
	Verify(ctx context.Context, token string) (Identity, error)
}

// State is what the login screen renders.
type State struct {
	Waiting  bool
	Message  string
	Errors   map[string]validation.FieldError
	Identity *Identity
}

// Option customises a Session.
type Option func(*Session)

// WithEmailDomain overrides the domain appended to bare user names. An empty
// domain disables the completion.
func WithEmailDomain(domain string) Option {
	return func(s *Session) {
		s.domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session is the process-wide authentication state.
type Session struct {
	api    API
	store  Store
	domain string
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	token     string
	listeners map[int]func(State)
	nextID    int
}

// NewSession builds a session over api and store.
func NewSession(api API, store Store, opts ...Option) *Session {
	s := &Session{
		api:       api,
		store:     store,
		domain:    DefaultEmailDomain,
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
	return s
}

// Domain returns the configured email domain.
func (s *Session) Domain() string {
	return s.domain
}

// NormalizeEmail appends the configured domain when user carries none.
func (s *Session) NormalizeEmail(user string) string {
	user = strings.TrimSpace(user)
	if user == "" || s.domain == "" || strings.Contains(user, "@") {
		return user
	}
	return user + "@" + s.domain
}

// Login exchanges credentials for a token. On failure the state carries the
// remote message and field errors and nothing is stored.
func (s *Session) Login(ctx context.Context, email, password string) error {
	email = s.NormalizeEmail(email)

	s.update(func(st *State) {
		st.Message = ""
		st.Errors = nil
		st.Waiting = true
	})
	defer s.update(func(st *State) {
		st.Waiting = false
	})

	identity, err := s.api.Login(ctx, email, password)
	if err == nil && strings.TrimSpace(identity.Token) == "" {
		err = errors.New("auth: login response carried no token")
	}
	if err != nil {
		s.fail(err)
		return err
	}
	if err := s.store.Save(ctx, identity.Token); err != nil {
		s.logger.Error("persist token failed", logging.ErrorAttrs(err)...)
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.token = identity.Token
	s.mu.Unlock()
	s.update(func(st *State) {
		id := identity
		st.Identity = &id
	})
	s.logger.Info("logged in", "email", email)
	return nil
}

func (s *Session) fail(err error) {
	message := ""
	var fields map[string]validation.FieldError

	var rejection form.Rejection
	if errors.As(err, &rejection) {
		mapping := form.MapRemoteErrors([]string{"email", "password"}, rejection.FieldMessages())
		for field, messages := range mapping.Fields {
			if fields == nil {
				fields = make(map[string]validation.FieldError)
			}
			fields[field] = validation.FieldError{Code: validation.CodeRemote, Message: strings.Join(messages, ". ")}
		}
		message = strings.Join(form.MergeMessages([]string{rejection.FormMessage()}, mapping.Form...), ". ")
	}
	if message == "" {
		message = fallbackLoginMessage
	}

	s.logger.Warn("login failed", logging.ErrorAttrs(err)...)
	s.update(func(st *State) {
		st.Message = message
		st.Errors = fields
	})
}

// Restore reads the stored token and verifies it. The client starts on
// RouteHome only when the Auth API accepts the token.
func (s *Session) Restore(ctx context.Context) Route {
	token, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("load token failed", logging.ErrorAttrs(err)...)
		}
		return RouteLogin
	}
	identity, err := s.api.Verify(ctx, token)
	if err != nil {
		s.logger.Info("stored token rejected", logging.ErrorAttrs(err)...)
		return RouteLogin
	}
	if identity.Token == "" {
		identity.Token = token
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.update(func(st *State) {
		st.Identity = &identity
	})
	return RouteHome
}

// Logout forgets the token locally and in the store.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	s.update(func(st *State) {
		*st = State{}
	})
	if err := s.store.Delete(ctx); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Token returns the current bearer token, if any.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// State returns a snapshot of the login state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn for state changes and returns its removal func.
func (s *Session) Subscribe(fn func(State)) func() {
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

func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	st := s.snapshot()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()
	for _, l := range listeners {
		l(st)
	}
}

func (s *Session) snapshot() State {
	st := s.state
	if s.state.Errors != nil {
		st.Errors = make(map[string]validation.FieldError, len(s.state.Errors))
		for k, v := range s.state.Errors {
			st.Errors[k] = v
		}
	}
	if s.state.Identity != nil {
		id := *s.state.Identity
		st.Identity = &id
	}
	return st
}
