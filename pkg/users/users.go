// Package users implements the staff user form. Unlike the content form it
// only checks that every field is filled in and reports failures through a
// single warning notification.
package users

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/draft"
	"github.com/goliatone/go-cms-forms/pkg/form"
	"github.com/goliatone/go-cms-forms/pkg/notify"
	"github.com/goliatone/go-cms-forms/pkg/validation"
)

// Field names.
const (
	FieldNombre   = "nombre"
	FieldApellido = "apellido"
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Fields lists the form fields in display order.
var Fields = []string{FieldNombre, FieldApellido, FieldEmail, FieldPassword}

// Tenant is the tenant every user created here belongs to.
const Tenant = "Cms"

// MissingFieldsMessage is the warning shown when a field is blank.
const MissingFieldsMessage = "Complete los campos obligatorios"

// Payload is the wire shape of a new user.
type Payload struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Telefono string `json:"telefono"`
	Tenant   string `json:"tenant"`
}

// User is a created staff member.
type User struct {
	ID       int64  `json:"id,omitempty"`
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Email    string `json:"email"`
}

// API is the remote user collaborator.
type API interface {
	CreateUser(ctx context.Context, payload Payload) (User, error)
}

// Form is one user creation form.
type Form struct {
	Draft        *draft.Draft
	Binder       *draft.Binder
	Orchestrator *form.Orchestrator
}

// NewForm assembles the form. A nil sink drops notifications.
func NewForm(api API, sink notify.Sink, logger *slog.Logger) *Form {
	if logger == nil {
		logger = logging.Default()
	}
	initial := make(map[string]any, len(Fields))
	for _, name := range Fields {
		initial[name] = ""
	}
	d := draft.New(initial)
	return &Form{
		Draft:  d,
		Binder: draft.NewBinder(d),
		Orchestrator: form.New(
			form.WithName("user"),
			form.WithValidator(validation.Required(Fields...)),
			form.WithInvalidMessage(MissingFieldsMessage),
			form.WithSuccessMessage("Usuario creado"),
			form.WithFields(Fields...),
			form.WithTransform(BuildPayload),
			form.WithSubmit(func(ctx context.Context, payload any) (any, error) {
				p, ok := payload.(Payload)
				if !ok {
					return nil, goerr.New("unexpected payload type")
				}
				return api.CreateUser(ctx, p)
			}),
			form.WithNotifier(sink),
			form.WithLogger(logger),
		),
	}
}

// Submit runs the presence check and, when it passes, creates the user.
func (f *Form) Submit(ctx context.Context) form.Outcome {
	return f.Orchestrator.Submit(ctx, f.Draft)
}

// BuildPayload adds the fixed telefono and tenant values. The password is
// sent as typed.
func BuildPayload(values map[string]any) (any, error) {
	get := func(name string) string {
		s, _ := values[name].(string)
		return strings.TrimSpace(s)
	}
	password, _ := values[FieldPassword].(string)
	return Payload{
		Nombre:   get(FieldNombre),
		Apellido: get(FieldApellido),
		Email:    get(FieldEmail),
		Password: password,
		Telefono: "",
		Tenant:   Tenant,
	}, nil
}
