package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/auth"
	"github.com/goliatone/go-cms-forms/pkg/validation"
)

type loginRejection struct {
	message string
	fields  map[string][]string
}

func (e *loginRejection) Error() string                      { return e.message }
func (e *loginRejection) FormMessage() string                { return e.message }
func (e *loginRejection) FieldMessages() map[string][]string { return e.fields }

type stubAuthAPI struct {
	logins []string
	valid  map[string]string
}

func (s *stubAuthAPI) Login(_ context.Context, email, password string) (auth.Identity, error) {
	s.logins = append(s.logins, email)
	if s.valid[email] != password {
		return auth.Identity{}, &loginRejection{
			message: "Credenciales inválidas",
			fields:  map[string][]string{"body.password": {"Contraseña incorrecta"}},
		}
	}
	return auth.Identity{Token: "tok-" + email, Nombre: "Ada"}, nil
}

func (s *stubAuthAPI) Verify(_ context.Context, token string) (auth.Identity, error) {
	for email := range s.valid {
		if token == "tok-"+email {
			return auth.Identity{Nombre: "Ada", Email: email}, nil
		}
	}
	return auth.Identity{}, errors.New("invalid token")
}

func newSession(api auth.API, store auth.Store) *auth.Session {
	return auth.NewSession(api, store, auth.WithLogger(logging.Discard()))
}

func TestSession_FailedLoginShowsMessageAndStoresNothing(t *testing.T) {
	api := &stubAuthAPI{valid: map[string]string{"user@uade.edu.ar": "secret"}}
	store := &auth.MemoryStore{}
	session := newSession(api, store)

	var waitingSeen bool
	session.Subscribe(func(st auth.State) {
		if st.Waiting {
			waitingSeen = true
		}
	})

	err := session.Login(context.Background(), "user@uade.edu.ar", "wrong")
	if err == nil {
		t.Fatalf("expected login error")
	}

	st := session.State()
	if st.Message != "Credenciales inválidas" {
		t.Fatalf("message = %q", st.Message)
	}
	want := map[string]validation.FieldError{
		"password": {Code: validation.CodeRemote, Message: "Contraseña incorrecta"},
	}
	if diff := cmp.Diff(want, st.Errors); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if st.Waiting || !waitingSeen {
		t.Fatalf("waiting flag must be raised then cleared (seen=%v, final=%v)", waitingSeen, st.Waiting)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("no token must be stored, load err = %v", err)
	}
	if session.Token() != "" {
		t.Fatalf("session token must stay empty")
	}
}

func TestSession_LoginAppendsDomainAndPersistsToken(t *testing.T) {
	api := &stubAuthAPI{valid: map[string]string{"ada@uade.edu.ar": "secret"}}
	store := &auth.MemoryStore{}
	session := newSession(api, store)

	if err := session.Login(context.Background(), "ada", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if diff := cmp.Diff([]string{"ada@uade.edu.ar"}, api.logins); diff != "" {
		t.Fatalf("login emails mismatch (-want +got):\n%s", diff)
	}
	token, err := store.Load(context.Background())
	if err != nil || token != "tok-ada@uade.edu.ar" {
		t.Fatalf("stored token = %q, %v", token, err)
	}
	st := session.State()
	if st.Identity == nil || st.Identity.Nombre != "Ada" || st.Message != "" {
		t.Fatalf("unexpected state %#v", st)
	}
}

func TestSession_RestoreRoutes(t *testing.T) {
	api := &stubAuthAPI{valid: map[string]string{"ada@uade.edu.ar": "secret"}}
	ctx := context.Background()

	empty := newSession(api, &auth.MemoryStore{})
	if got := empty.Restore(ctx); got != auth.RouteLogin {
		t.Fatalf("no token route = %q", got)
	}

	stale := &auth.MemoryStore{}
	_ = stale.Save(ctx, "tok-expired")
	if got := newSession(api, stale).Restore(ctx); got != auth.RouteLogin {
		t.Fatalf("rejected token route = %q", got)
	}

	good := &auth.MemoryStore{}
	_ = good.Save(ctx, "tok-ada@uade.edu.ar")
	session := newSession(api, good)
	if got := session.Restore(ctx); got != auth.RouteHome {
		t.Fatalf("valid token route = %q", got)
	}
	if session.Token() != "tok-ada@uade.edu.ar" {
		t.Fatalf("token not restored")
	}
}

func TestSession_LogoutClearsStore(t *testing.T) {
	api := &stubAuthAPI{valid: map[string]string{"ada@uade.edu.ar": "secret"}}
	store := &auth.MemoryStore{}
	session := newSession(api, store)
	ctx := context.Background()

	if err := session.Login(ctx, "ada@uade.edu.ar", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := session.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := session.Logout(ctx); err != nil {
		t.Fatalf("second logout should be a no-op: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("token still stored")
	}
}

func TestSession_NormalizeEmail(t *testing.T) {
	session := auth.NewSession(nil, nil, auth.WithEmailDomain("@example.org"))
	cases := map[string]string{
		"ada":             "ada@example.org",
		" ada@other.com ": "ada@other.com",
		"":                "",
	}
	for in, want := range cases {
		if got := session.NormalizeEmail(in); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
