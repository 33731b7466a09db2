package users_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/draft"
	"github.com/goliatone/go-cms-forms/pkg/form"
	"github.com/goliatone/go-cms-forms/pkg/notify"
	"github.com/goliatone/go-cms-forms/pkg/users"
)

type recordingAPI struct {
	payloads []users.Payload
}

func (r *recordingAPI) CreateUser(_ context.Context, p users.Payload) (users.User, error) {
	r.payloads = append(r.payloads, p)
	return users.User{ID: 1, Nombre: p.Nombre, Apellido: p.Apellido, Email: p.Email}, nil
}

func fill(f *users.Form, values map[string]string) {
	for name, value := range values {
		f.Binder.Text(name)(draft.ChangeEvent{Value: value})
	}
}

func TestForm_BlankFieldWarnsAndDoesNotSubmit(t *testing.T) {
	api := &recordingAPI{}
	sink := &notify.Recorder{}
	f := users.NewForm(api, sink, logging.Discard())
	fill(f, map[string]string{"nombre": "Linus", "apellido": "Torvalds", "email": "  "})

	out := f.Submit(context.Background())

	if out.Status != form.StatusInvalid {
		t.Fatalf("status = %v, want invalid", out.Status)
	}
	if len(api.payloads) != 0 {
		t.Fatalf("no user must be created")
	}
	want := []notify.Entry{{Message: users.MissingFieldsMessage, Severity: notify.SeverityWarning}}
	if diff := cmp.Diff(want, sink.Entries()); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_SubmitAddsFixedFields(t *testing.T) {
	api := &recordingAPI{}
	f := users.NewForm(api, nil, logging.Discard())
	fill(f, map[string]string{
		"nombre":   "Linus",
		"apellido": "Torvalds",
		"email":    "linus@uade.edu.ar",
		"password": " secreto ",
	})

	out := f.Submit(context.Background())
	if !out.OK() {
		t.Fatalf("submit failed: %#v", out)
	}

	want := []users.Payload{{
		Nombre:   "Linus",
		Apellido: "Torvalds",
		Email:    "linus@uade.edu.ar",
		Password: " secreto ",
		Telefono: "",
		Tenant:   "Cms",
	}}
	if diff := cmp.Diff(want, api.payloads); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}
