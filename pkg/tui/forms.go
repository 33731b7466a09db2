package tui

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/goliatone/go-cms-forms/pkg/auth"
	"github.com/goliatone/go-cms-forms/pkg/content"
	"github.com/goliatone/go-cms-forms/pkg/draft"
	"github.com/goliatone/go-cms-forms/pkg/form"
	"github.com/goliatone/go-cms-forms/pkg/model"
	"github.com/goliatone/go-cms-forms/pkg/selector"
	"github.com/goliatone/go-cms-forms/pkg/users"
	"github.com/goliatone/go-cms-forms/pkg/validation"
)

// ContentTarget binds the content form. Image fields go through their
// preview handlers so the confirmed URL follows the typed one.
func ContentTarget(f *content.Form, fm model.FormModel) Target {
	fm.Submit = f.SubmitLabel()
	return Target{
		Form:   fm,
		Binder: f.Binder,
		Handlers: map[string]draft.Handler{
			content.FieldURLImage:         f.Image.Handler(f.Binder),
			content.FieldVerticalURLImage: f.VerticalImage.Handler(f.Binder),
		},
		Sources: contentSources(f.Genres, f.Ratings),
		Submit:  f.Submit,
	}
}

// UserTarget binds the user creation form.
func UserTarget(f *users.Form, fm model.FormModel) Target {
	return Target{
		Form:   fm,
		Binder: f.Binder,
		Submit: f.Submit,
	}
}

func contentSources(genres, ratings *selector.Selector) map[string]*selector.Selector {
	return map[string]*selector.Selector{
		content.FieldGenres:         genres,
		content.FieldMaturityRating: ratings,
	}
}

// RunWizard walks the content stepper: each step is prompted and validated
// before moving on, and a failed final submit returns to the first step
// holding an error. Entering a later step offers to go back first; going
// back keeps every value entered so far.
func (p *Prompter) RunWizard(ctx context.Context, w *content.Wizard, fm model.FormModel) (form.Outcome, error) {
	flow := w.Flow
	sources := contentSources(w.Genres, w.Ratings)

	var names []string
	var errs map[string]validation.FieldError
	failures := 0

	for {
		step := flow.Step()
		if names == nil {
			names = step.Fields
			if err := p.Info(ctx, fmt.Sprintf("Paso %d de %d", flow.Current()+1, flow.Len())); err != nil {
				return form.Outcome{}, err
			}
			if flow.Current() > 0 {
				back, err := p.driver.Confirm(ctx, ConfirmConfig{Message: msgBack})
				if err != nil {
					return form.Outcome{}, err
				}
				if back && flow.Back() {
					names, errs = nil, nil
					continue
				}
			}
		}
		t := Target{Form: fm, Binder: draft.NewBinder(flow.Draft()), Sources: sources}
		if err := p.Fill(ctx, t, names, errs); err != nil {
			return form.Outcome{}, err
		}

		res, ok := flow.Next()
		if !ok {
			failures++
			if p.exhausted(failures) {
				return form.Outcome{}, goerr.Wrap(ErrTooManyAttempts, "step", goerr.V("step", step.Name))
			}
			names, errs = failingFields(fm, res.Errors), res.Errors
			continue
		}
		if !flow.IsFinal() || step.Name != flow.Step().Name {
			names, errs = nil, nil
			continue
		}

		out, err := flow.Submit(ctx)
		if err != nil {
			return out, err
		}
		if out.OK() {
			return out, nil
		}
		failures++
		if p.exhausted(failures) {
			return out, goerr.Wrap(ErrTooManyAttempts, "submit", goerr.V("form", fm.ID))
		}

		errs = flow.Errors()
		if failing := failingFields(fm, errs); len(failing) > 0 {
			// nil re-prompts the whole step
			names = stepFailures(flow.Step().Fields, failing)
			continue
		}
		retry, err := p.driver.Confirm(ctx, ConfirmConfig{Message: msgRetry, Default: true})
		if err != nil {
			return out, err
		}
		if !retry {
			return out, nil
		}
		names, errs = []string{}, nil
	}
}

func stepFailures(stepFields, failing []string) []string {
	inStep := make(map[string]struct{}, len(stepFields))
	for _, name := range stepFields {
		inStep[name] = struct{}{}
	}
	var out []string
	for _, name := range failing {
		if _, ok := inStep[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Login prompts for credentials until the session accepts them.
func (p *Prompter) Login(ctx context.Context, session *auth.Session, fm model.FormModel) (auth.Identity, error) {
	d := draft.New(map[string]any{"email": "", "password": ""})
	t := Target{Form: fm, Binder: draft.NewBinder(d)}
	names := fm.FieldNames()
	var errs map[string]validation.FieldError

	for attempt := 1; ; attempt++ {
		if err := p.Fill(ctx, t, names, errs); err != nil {
			return auth.Identity{}, err
		}
		err := session.Login(ctx, d.String("email"), d.String("password"))
		st := session.State()
		if err == nil && st.Identity != nil {
			if err := p.Info(ctx, "Hola "+st.Identity.Nombre); err != nil {
				return auth.Identity{}, err
			}
			return *st.Identity, nil
		}
		if err := p.Error(ctx, st.Message); err != nil {
			return auth.Identity{}, err
		}
		if p.exhausted(attempt) {
			return auth.Identity{}, goerr.Wrap(ErrTooManyAttempts, "login", goerr.V("attempts", attempt))
		}
		errs = st.Errors
		names = failingFields(fm, errs)
		if len(names) == 0 {
			names = fm.FieldNames()
		}
	}
}
