// Package tui drives the CMS forms from a terminal. Each field of a form
// definition becomes one prompt; relational fields are resolved through a
// search selector; a failed submit re-prompts only the fields that failed.
package tui

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"

	"github.com/goliatone/go-cms-forms/pkg/draft"
	"github.com/goliatone/go-cms-forms/pkg/form"
	"github.com/goliatone/go-cms-forms/pkg/model"
	"github.com/goliatone/go-cms-forms/pkg/selector"
	"github.com/goliatone/go-cms-forms/pkg/validation"
)

// DefaultMaxAttempts bounds submit retries and empty searches.
const DefaultMaxAttempts = 5

const (
	msgRetry       = "¿Reintentar?"
	msgBack        = "¿Volver al paso anterior?"
	msgNoResults   = "Sin resultados"
	msgUnavailable = "Opciones no disponibles"
	searchHelp     = "Dejá vacío para ver todas las opciones"
)

// Theme captures optional formatting hints applied when printing messages.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
	Color       bool
}

// Option configures a Prompter.
type Option func(*Prompter)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(p *Prompter) {
		if driver != nil {
			p.driver = driver
		}
	}
}

// WithTheme applies message prefixes and colour.
func WithTheme(theme Theme) Option {
	return func(p *Prompter) {
		p.theme = theme
	}
}

// WithMaxAttempts bounds retries. Zero or less means unbounded.
func WithMaxAttempts(n int) Option {
	return func(p *Prompter) {
		p.maxAttempts = n
	}
}

// Prompter renders forms as a sequence of prompts.
type Prompter struct {
	driver      PromptDriver
	theme       Theme
	maxAttempts int
	errColor    *color.Color
}

// New builds a prompter backed by the survey driver unless overridden.
func New(opts ...Option) *Prompter {
	p := &Prompter{
		theme:       Theme{ErrorPrefix: "✗ ", Color: true},
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.driver == nil {
		p.driver = NewSurveyDriver(nil)
	}
	p.errColor = color.New(color.FgRed)
	if !p.theme.Color {
		p.errColor.DisableColor()
	}
	return p
}

// Target binds a form definition to the draft it edits and the action that
// submits it.
type Target struct {
	Form     model.FormModel
	Binder   *draft.Binder
	Handlers map[string]draft.Handler
	Sources  map[string]*selector.Selector
	Submit   func(ctx context.Context) form.Outcome
}

// Run prompts every field, submits, and keeps re-prompting the failing fields
// until the submit succeeds or the user gives up.
func (p *Prompter) Run(ctx context.Context, t Target) (form.Outcome, error) {
	if t.Binder == nil || t.Submit == nil {
		return form.Outcome{}, goerr.New("tui target requires a binder and a submit func", goerr.V("form", t.Form.ID))
	}
	names := t.Form.FieldNames()
	var errs map[string]validation.FieldError

	for attempt := 1; ; attempt++ {
		if err := p.Fill(ctx, t, names, errs); err != nil {
			return form.Outcome{}, err
		}
		out := t.Submit(ctx)
		if out.OK() {
			return out, nil
		}

		failing := failingFields(t.Form, out.Errors)
		if p.exhausted(attempt) {
			return out, goerr.Wrap(ErrTooManyAttempts, "submit", goerr.V("form", t.Form.ID), goerr.V("attempts", attempt))
		}
		if len(failing) > 0 {
			names, errs = failing, out.Errors
			continue
		}

		retry, err := p.driver.Confirm(ctx, ConfirmConfig{Message: msgRetry, Default: true})
		if err != nil {
			return out, err
		}
		if !retry {
			return out, nil
		}
		names, errs = nil, nil
	}
}

// Fill prompts the named fields of t in form order. Fields with an entry in
// errs print their error before the prompt.
func (p *Prompter) Fill(ctx context.Context, t Target, names []string, errs map[string]validation.FieldError) error {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}
	for _, field := range t.Form.Fields {
		if _, ok := wanted[field.Name]; !ok {
			continue
		}
		if fe, ok := errs[field.Name]; ok {
			if err := p.Error(ctx, fmt.Sprintf("%s: %s", displayLabel(field), fe.Message)); err != nil {
				return err
			}
		}
		if err := p.promptField(ctx, t, field); err != nil {
			return err
		}
	}
	return nil
}

// Info prints msg with the info prefix.
func (p *Prompter) Info(ctx context.Context, msg string) error {
	return p.driver.Info(ctx, p.theme.InfoPrefix+msg)
}

// Error prints msg with the error prefix and colour.
func (p *Prompter) Error(ctx context.Context, msg string) error {
	return p.driver.Info(ctx, p.errColor.Sprint(p.theme.ErrorPrefix+msg))
}

func (p *Prompter) exhausted(attempt int) bool {
	return p.maxAttempts > 0 && attempt >= p.maxAttempts
}

func (p *Prompter) promptField(ctx context.Context, t Target, field model.Field) error {
	switch field.Widget {
	case model.WidgetSelect, model.WidgetMultiSelect:
		return p.promptRelation(ctx, t, field)
	case model.WidgetNumber:
		return p.promptNumber(ctx, t, field)
	default:
		return p.promptText(ctx, t, field)
	}
}

func (p *Prompter) promptText(ctx context.Context, t Target, field model.Field) error {
	value, err := p.ask(ctx, field, t.Binder.Draft().String(field.Name))
	if err != nil {
		return err
	}
	handler := t.Handlers[field.Name]
	if handler == nil {
		handler = t.Binder.Text(field.Name)
	}
	handler(draft.ChangeEvent{Value: value})
	return nil
}

func (p *Prompter) promptNumber(ctx context.Context, t Target, field model.Field) error {
	current := ""
	if v, ok := t.Binder.Draft().Get(field.Name); ok {
		if f, ok := validation.AsFloat(v); ok && !math.IsNaN(f) {
			current = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	value, err := p.ask(ctx, field, current)
	if err != nil {
		return err
	}
	handler := t.Handlers[field.Name]
	if handler == nil {
		handler = t.Binder.Number(field.Name)
	}
	handler(draft.ChangeEvent{Value: value})
	return nil
}

func (p *Prompter) ask(ctx context.Context, field model.Field, current string) (string, error) {
	label := displayLabel(field)
	help := displayHelp(field)
	switch field.Widget {
	case model.WidgetPassword:
		return p.driver.Password(ctx, InputConfig{Message: label, Help: help})
	case model.WidgetTextArea:
		return p.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: current, Help: help})
	default:
		return p.driver.Input(ctx, InputConfig{Message: label, Default: current, Help: help})
	}
}

// promptRelation asks for search text, resolves it through the field's
// selector and lets the user pick among the results.
func (p *Prompter) promptRelation(ctx context.Context, t Target, field model.Field) error {
	sel := t.Sources[field.Source]
	if sel == nil {
		return goerr.New("no selector bound to field", goerr.V("field", field.Name), goerr.V("source", field.Source))
	}
	label := displayLabel(field)

	for attempt := 1; ; attempt++ {
		query, err := p.driver.Input(ctx, InputConfig{Message: "Buscar " + strings.TrimSuffix(label, " *"), Help: searchHelp})
		if err != nil {
			return err
		}
		query = strings.TrimSpace(query)
		options := sel.Search(ctx, query)
		if len(options) > 0 {
			if field.Widget == model.WidgetMultiSelect {
				return p.pickMany(ctx, t, field, options)
			}
			return p.pickOne(ctx, t, field, options)
		}

		msg := msgNoResults
		if query != "" {
			msg = fmt.Sprintf("%s para %q", msgNoResults, query)
		}
		if sel.State().Unavailable {
			msg = msgUnavailable
		}
		if err := p.Error(ctx, msg); err != nil {
			return err
		}
		if p.exhausted(attempt) {
			return goerr.Wrap(ErrNoOptions, "search", goerr.V("field", field.Name))
		}
	}
}

func (p *Prompter) pickMany(ctx context.Context, t Target, field model.Field, options []model.Option) error {
	raw, _ := t.Binder.Draft().Get(field.Name)
	current, _ := raw.(model.Selection)

	indices, err := p.driver.MultiSelect(ctx, ChoiceConfig{
		Message:  displayLabel(field),
		Options:  options,
		Selected: current.IDs(),
		Help:     displayHelp(field),
	})
	if err != nil {
		return err
	}

	chosen := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		chosen[idx] = struct{}{}
	}
	// Options outside this result page keep their previous state.
	next := current
	for i, opt := range options {
		if _, ok := chosen[i]; ok {
			next = next.Add(opt)
		} else {
			next = next.Remove(opt.ID)
		}
	}
	t.Binder.Selection(field.Name)(next)
	return nil
}

func (p *Prompter) pickOne(ctx context.Context, t Target, field model.Field, options []model.Option) error {
	var selected []int64
	if raw, ok := t.Binder.Draft().Get(field.Name); ok {
		if current, ok := raw.(model.Option); ok && !current.IsZero() {
			selected = []int64{current.ID}
		}
	}
	idx, err := p.driver.Select(ctx, ChoiceConfig{
		Message:  displayLabel(field),
		Options:  options,
		Selected: selected,
		Help:     displayHelp(field),
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(options) {
		t.Binder.Single(field.Name)(nil)
		return nil
	}
	opt := options[idx]
	t.Binder.Single(field.Name)(&opt)
	return nil
}

// failingFields lists the fields of fm holding an error, in form order.
func failingFields(fm model.FormModel, errs map[string]validation.FieldError) []string {
	if len(errs) == 0 {
		return nil
	}
	var out []string
	for _, field := range fm.Fields {
		if _, ok := errs[field.Name]; ok {
			out = append(out, field.Name)
		}
	}
	return out
}

func displayLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func displayHelp(field model.Field) string {
	if field.Help != "" {
		return field.Help
	}
	return field.Placeholder
}
