package fakeapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-forms/internal/fakeapi"
	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/model"
)

func newServer() *fakeapi.Server {
	return fakeapi.New(fakeapi.WithLogger(logging.Discard()))
}

func login(t *testing.T, srv http.Handler) string {
	t.Helper()
	body := bytes.NewBufferString(`{"email":"admin@uade.edu.ar","password":"admin"}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil || out.Token == "" {
		t.Fatalf("decode login: %v", err)
	}
	return out.Token
}

func TestServer_LoginRejectsWrongPassword(t *testing.T) {
	srv := newServer()
	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"email":"admin@uade.edu.ar","password":"nope"}`)

	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", body))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var out map[string]any
	_ = json.NewDecoder(rec.Body).Decode(&out)
	if out["message"] == "" {
		t.Fatalf("expected a message, got %v", out)
	}
}

func TestServer_SearchRequiresToken(t *testing.T) {
	srv := newServer()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/genres?search=dra", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}

	token := login(t, srv)
	req := httptest.NewRequest(http.MethodGet, "/api/genres?search=dra", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Data []model.Option `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]model.Option{{ID: 7, Label: "Drama"}}, out.Data); diff != "" {
		t.Fatalf("genres mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_CreateContentReportsFieldErrors(t *testing.T) {
	srv := newServer()
	token := login(t, srv)

	payload := `{"title":"Sintel","genres":[7,99],"maturity_rating_id":42}`
	req := httptest.NewRequest(http.MethodPost, "/api/contents", bytes.NewBufferString(payload))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var out struct {
		Fields map[string][]string `json:"fields"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&out)
	want := map[string][]string{
		"genres[1]":          {"Género inexistente"},
		"maturity_rating_id": {"Calificación inexistente"},
	}
	if diff := cmp.Diff(want, out.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}
