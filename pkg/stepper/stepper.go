// Package stepper splits one logical submission across ordered steps. Each
// step owns a disjoint set of fields, its own draft and its own schema; the
// final submit runs the form orchestrator over the union of every step.
package stepper

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/goliatone/go-cms-forms/pkg/draft"
	"github.com/goliatone/go-cms-forms/pkg/form"
	"github.com/goliatone/go-cms-forms/pkg/validation"
)

var (
	// ErrNotFinalStep is returned by Submit before the last step is reached.
	ErrNotFinalStep = errors.New("stepper: submit is only available on the final step")
	// ErrStepLocked is returned by GoTo when an earlier step is incomplete.
	ErrStepLocked = errors.New("stepper: step not reachable yet")
)

// Step declares one stage of the flow.
type Step struct {
	Name     string
	Fields   []string
	Schema   validation.Validator
	Defaults map[string]any
}

// Flow is the step state machine.
type Flow struct {
	orch  *form.Orchestrator
	steps []Step

	mu       sync.Mutex
	current  int
	drafts   []*draft.Draft
	complete []bool
	errors   map[string]validation.FieldError
}

// New builds a flow positioned on the first step. Steps must be non-empty and
// must not share fields.
func New(orch *form.Orchestrator, steps ...Step) (*Flow, error) {
	if orch == nil {
		return nil, goerr.New("stepper requires an orchestrator")
	}
	if len(steps) == 0 {
		return nil, goerr.New("stepper requires at least one step")
	}
	owner := make(map[string]string)
	f := &Flow{
		orch:     orch,
		steps:    make([]Step, len(steps)),
		drafts:   make([]*draft.Draft, len(steps)),
		complete: make([]bool, len(steps)),
	}
	for i, step := range steps {
		for _, field := range step.Fields {
			if prev, dup := owner[field]; dup {
				return nil, goerr.New("field belongs to more than one step",
					goerr.V("field", field), goerr.V("step", step.Name), goerr.V("owner", prev))
			}
			owner[field] = step.Name
		}
		step.Fields = append([]string(nil), step.Fields...)
		f.steps[i] = step
		f.drafts[i] = draft.New(pick(step.Defaults, step.Fields))
	}
	return f, nil
}

// Current returns the index of the active step.
func (f *Flow) Current() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Step returns the active step declaration.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.steps[f.current]
}

// Steps returns every step in order.
func (f *Flow) Steps() []Step {
	return append([]Step(nil), f.steps...)
}

// Len is the number of steps.
func (f *Flow) Len() int {
	return len(f.steps)
}

// IsFinal reports whether the active step is the last one.
func (f *Flow) IsFinal() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current == len(f.steps)-1
}

// Draft returns the draft of the active step.
func (f *Flow) Draft() *draft.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drafts[f.current]
}

// DraftAt returns the draft of step i.
func (f *Flow) DraftAt(i int) *draft.Draft {
	if i < 0 || i >= len(f.drafts) {
		return nil
	}
	return f.drafts[i]
}

// Errors returns the errors of the last Next or Submit call.
func (f *Flow) Errors() map[string]validation.FieldError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneErrors(f.errors)
}

// Next validates the active step and advances when it passes. On the final
// step a passing validation keeps the cursor in place.
func (f *Flow) Next() (validation.Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := f.validateLocked(f.current)
	if !res.Valid {
		f.errors = res.Errors
		f.complete[f.current] = false
		return res, false
	}
	f.errors = nil
	f.complete[f.current] = true
	if f.current < len(f.steps)-1 {
		f.current++
	}
	return res, true
}

// Back moves to the previous step without validating. Every draft is kept.
func (f *Flow) Back() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == 0 {
		return false
	}
	f.current--
	f.errors = nil
	return true
}

// GoTo jumps to step i. Earlier steps are always reachable; later ones only
// when every step before them has passed validation.
func (f *Flow) GoTo(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.steps) {
		return goerr.New("step index out of range", goerr.V("index", i))
	}
	for j := 0; j < i; j++ {
		if !f.complete[j] {
			return goerr.Wrap(ErrStepLocked, "goto", goerr.V("index", i), goerr.V("incomplete", f.steps[j].Name))
		}
	}
	f.current = i
	f.errors = nil
	return nil
}

// Values merges every step draft.
func (f *Flow) Values() map[string]any {
	out := make(map[string]any)
	for i, d := range f.drafts {
		for k, v := range d.Subset(f.steps[i].Fields...) {
			out[k] = v
		}
	}
	return out
}

// Submit runs the orchestrator over all steps. A local validation failure
// moves the cursor to the first step holding an error.
func (f *Flow) Submit(ctx context.Context) (form.Outcome, error) {
	f.mu.Lock()
	if f.current != len(f.steps)-1 {
		f.mu.Unlock()
		return form.Outcome{}, ErrNotFinalStep
	}
	f.mu.Unlock()

	merged := draft.New(f.Values())
	out := f.orch.Submit(ctx, merged)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = cloneErrors(out.Errors)
	if out.Status == form.StatusInvalid || (out.Status == form.StatusRejected && len(out.Errors) > 0) {
		if idx := f.firstStepWith(out.Errors); idx >= 0 {
			f.current = idx
			for j := idx; j < len(f.complete); j++ {
				f.complete[j] = false
			}
		}
	}
	return out, nil
}

func (f *Flow) validateLocked(i int) validation.Result {
	step := f.steps[i]
	if step.Schema == nil {
		return validation.Result{Valid: true}
	}
	return step.Schema.Validate(f.drafts[i].Subset(step.Fields...))
}

func (f *Flow) firstStepWith(errs map[string]validation.FieldError) int {
	for i, step := range f.steps {
		for _, field := range step.Fields {
			if _, ok := errs[field]; ok {
				return i
			}
		}
	}
	return -1
}

func pick(values map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		if v, ok := values[field]; ok {
			out[field] = v
		}
	}
	return out
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
