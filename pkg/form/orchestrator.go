// Package form runs the submit cycle of a form: validate the draft, guard
// against double submission, build the payload, call the remote collaborator
// and fold its answer back into per-field state.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/draft"
	"github.com/goliatone/go-cms-forms/pkg/notify"
	"github.com/goliatone/go-cms-forms/pkg/validation"
)

// Status is the result of one Submit call.
type Status int

const (
	// StatusInvalid means local validation failed; nothing was sent.
	StatusInvalid Status = iota + 1
	// StatusBusy means a previous submission is still in flight.
	StatusBusy
	// StatusSubmitted means the collaborator accepted the payload.
	StatusSubmitted
	// StatusRejected means the collaborator (or payload building) failed.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusBusy:
		return "busy"
	case StatusSubmitted:
		return "submitted"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome reports what happened on submit.
type Outcome struct {
	Status  Status
	Result  any
	Errors  map[string]validation.FieldError
	Message string
}

// OK reports whether the submission was accepted.
func (o Outcome) OK() bool {
	return o.Status == StatusSubmitted
}

// TransformFunc turns validated draft values into the wire payload.
type TransformFunc func(values map[string]any) (any, error)

// SubmitFunc sends the payload to the remote collaborator.
type SubmitFunc func(ctx context.Context, payload any) (any, error)

// Rejection is implemented by remote errors that carry a displayable message
// and per-field validation messages.
type Rejection interface {
	error
	FormMessage() string
	FieldMessages() map[string][]string
}

// FieldState is what a control shows under an input.
type FieldState struct {
	Error      bool
	HelperText string
}

// State is the observable orchestrator state.
type State struct {
	Busy    bool
	Errors  map[string]validation.FieldError
	Message string
}

// ErrNoSubmitter is returned when the orchestrator has no collaborator.
var ErrNoSubmitter = errors.New("form: no submit collaborator configured")

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithValidator sets the validator run before submission.
func WithValidator(v validation.Validator) Option {
	return func(o *Orchestrator) {
		o.validator = v
	}
}

// WithTransform sets the payload builder. Without one the raw values map is
// sent.
func WithTransform(fn TransformFunc) Option {
	return func(o *Orchestrator) {
		o.transform = fn
	}
}

// WithSubmit sets the remote collaborator.
func WithSubmit(fn SubmitFunc) Option {
	return func(o *Orchestrator) {
		o.submit = fn
	}
}

// WithNotifier routes rejection and success messages to sink.
func WithNotifier(sink notify.Sink) Option {
	return func(o *Orchestrator) {
		if sink != nil {
			o.notifier = sink
		}
	}
}

// WithSuccessMessage sets the notification sent after an accepted submit.
func WithSuccessMessage(message string) Option {
	return func(o *Orchestrator) {
		o.successMessage = strings.TrimSpace(message)
	}
}

// WithInvalidMessage sets the warning sent when local validation fails.
func WithInvalidMessage(message string) Option {
	return func(o *Orchestrator) {
		o.invalidMessage = strings.TrimSpace(message)
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFields lists the field names remote errors may be mapped onto.
func WithFields(names ...string) Option {
	return func(o *Orchestrator) {
		o.fields = append([]string(nil), names...)
	}
}

// WithFieldAliases maps payload key names back to the draft fields they were
// built from, so remote errors keyed by wire names land on the right field.
func WithFieldAliases(aliases map[string]string) Option {
	return func(o *Orchestrator) {
		if o.aliases == nil {
			o.aliases = make(map[string]string, len(aliases))
		}
		for wire, field := range aliases {
			o.aliases[wire] = field
		}
	}
}

// WithName labels log lines.
func WithName(name string) Option {
	return func(o *Orchestrator) {
		o.name = name
	}
}

// Orchestrator owns the submit cycle of one form instance.
type Orchestrator struct {
	validator      validation.Validator
	transform      TransformFunc
	submit         SubmitFunc
	notifier       notify.Sink
	logger         *slog.Logger
	fields         []string
	aliases        map[string]string
	name           string
	successMessage string
	invalidMessage string

	mu        sync.Mutex
	busy      bool
	errors    map[string]validation.FieldError
	message   string
	listeners map[int]func(State)
	nextID    int
}

// New builds an orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		notifier:  notify.Noop{},
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = logging.Default()
	}
	if len(o.fields) == 0 {
		if schema, ok := o.validator.(*validation.Schema); ok {
			o.fields = schema.Fields()
		}
	}
	return o
}

// Submit validates d and, when valid, sends it. The draft is never modified.
func (o *Orchestrator) Submit(ctx context.Context, d *draft.Draft) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	values := d.Values()

	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		o.logger.Debug("submit ignored while busy", "form", o.name)
		return Outcome{Status: StatusBusy}
	}
	if o.validator != nil {
		if res := o.validator.Validate(values); !res.Valid {
			o.errors = res.Errors
			o.message = ""
			st, listeners := o.snapshot(), o.listenersLocked()
			o.mu.Unlock()
			emit(listeners, st)
			o.logger.Debug("draft rejected locally", "form", o.name, "fields", res.Fields())
			if o.invalidMessage != "" {
				o.notifier.Notify(o.invalidMessage, notify.SeverityWarning)
			}
			return Outcome{Status: StatusInvalid, Errors: cloneErrors(res.Errors)}
		}
	}
	o.busy = true
	o.errors = nil
	o.message = ""
	st, listeners := o.snapshot(), o.listenersLocked()
	o.mu.Unlock()
	emit(listeners, st)

	out := o.send(ctx, values)

	o.mu.Lock()
	o.busy = false
	o.errors = cloneErrors(out.Errors)
	o.message = out.Message
	st, listeners = o.snapshot(), o.listenersLocked()
	o.mu.Unlock()
	emit(listeners, st)

	switch out.Status {
	case StatusSubmitted:
		if o.successMessage != "" {
			o.notifier.Notify(o.successMessage, notify.SeveritySuccess)
		}
	case StatusRejected:
		if out.Message != "" {
			o.notifier.Notify(out.Message, notify.SeverityError)
		}
	}
	return out
}

// send runs the payload builder and the collaborator. A panic in either is
// converted into a rejection.
func (o *Orchestrator) send(ctx context.Context, values map[string]any) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := goerr.New("submit panicked", goerr.V("form", o.name), goerr.V("panic", fmt.Sprint(r)))
			o.logger.Error("submit panicked", logging.ErrorAttrs(err)...)
			out = Outcome{Status: StatusRejected, Message: err.Error()}
		}
	}()

	if o.submit == nil {
		return o.reject(ErrNoSubmitter)
	}
	var payload any = values
	if o.transform != nil {
		built, err := o.transform(values)
		if err != nil {
			return o.reject(goerr.Wrap(err, "build payload", goerr.V("form", o.name)))
		}
		payload = built
	}

	result, err := o.submit(ctx, payload)
	if err != nil {
		return o.reject(err)
	}
	o.logger.Info("form submitted", "form", o.name)
	return Outcome{Status: StatusSubmitted, Result: result}
}

func (o *Orchestrator) reject(err error) Outcome {
	out := Outcome{Status: StatusRejected}

	var rejection Rejection
	if errors.As(err, &rejection) {
		mapping := MapRemoteErrorsWithAliases(o.fields, o.aliases, rejection.FieldMessages())
		for field, messages := range mapping.Fields {
			if out.Errors == nil {
				out.Errors = make(map[string]validation.FieldError)
			}
			out.Errors[field] = validation.FieldError{
				Code:    validation.CodeRemote,
				Message: strings.Join(messages, ". "),
			}
		}
		lines := MergeMessages(nil, rejection.FormMessage())
		lines = MergeMessages(lines, mapping.Form...)
		out.Message = strings.Join(lines, ". ")
	}
	if out.Message == "" && len(out.Errors) == 0 {
		out.Message = err.Error()
	}

	o.logger.Warn("submission rejected",
		append([]any{"form", o.name, "fields", len(out.Errors)}, logging.ErrorAttrs(err)...)...)
	return out
}

// Busy reports whether a submission is in flight. Controls should be disabled
// while it is true.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Errors returns the current per-field errors.
func (o *Orchestrator) Errors() map[string]validation.FieldError {
	o.mu.Lock()
	defer o.mu.Unlock()
	return cloneErrors(o.errors)
}

// Message returns the current top-level message.
func (o *Orchestrator) Message() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.message
}

// FieldStatus returns the error flag and helper text for name. Without an
// error the helper text is defaultHelp.
func (o *Orchestrator) FieldStatus(name, defaultHelp string) FieldState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if fe, ok := o.errors[name]; ok {
		return FieldState{Error: true, HelperText: fe.Message}
	}
	return FieldState{HelperText: defaultHelp}
}

// ClearErrors drops every error and the top-level message.
func (o *Orchestrator) ClearErrors() {
	o.mu.Lock()
	o.errors = nil
	o.message = ""
	st, listeners := o.snapshot(), o.listenersLocked()
	o.mu.Unlock()
	emit(listeners, st)
}

// Subscribe registers fn for state changes and returns its removal func.
func (o *Orchestrator) Subscribe(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.listeners, id)
	}
}

// Fields lists the names remote errors are mapped onto.
func (o *Orchestrator) Fields() []string {
	return append([]string(nil), o.fields...)
}

// Validator exposes the configured validator.
func (o *Orchestrator) Validator() validation.Validator {
	return o.validator
}

func (o *Orchestrator) snapshot() State {
	return State{Busy: o.busy, Errors: cloneErrors(o.errors), Message: o.message}
}

func (o *Orchestrator) listenersLocked() []func(State) {
	out := make([]func(State), 0, len(o.listeners))
	for _, fn := range o.listeners {
		out = append(out, fn)
	}
	return out
}

func emit(listeners []func(State), st State) {
	for _, fn := range listeners {
		fn(st)
	}
}

func cloneErrors(src map[string]validation.FieldError) map[string]validation.FieldError {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]validation.FieldError, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
