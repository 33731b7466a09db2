package draft

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-cms-forms/pkg/model"
)

// ChangeEvent is a raw input change coming from a control.
type ChangeEvent struct {
	Value string
}

// Handler applies a change event to the draft. Replaying the same event has
// the same effect.
type Handler func(ChangeEvent)

// Binder produces change handlers that write into one draft. Handlers never
// validate; validation is deferred to submission.
type Binder struct {
	draft *Draft
}

// NewBinder binds handlers to d.
func NewBinder(d *Draft) *Binder {
	return &Binder{draft: d}
}

// Draft returns the bound draft.
func (b *Binder) Draft() *Draft {
	return b.draft
}

// Text stores the raw string.
func (b *Binder) Text(field string) Handler {
	return func(ev ChangeEvent) {
		b.draft.Set(field, ev.Value)
	}
}

// Number casts the raw string to a float64. Values that do not parse are
// stored as NaN so the schema reports them at submit time.
func (b *Binder) Number(field string) Handler {
	return func(ev ChangeEvent) {
		b.draft.Set(field, ParseNumber(ev.Value))
	}
}

// ParseNumber converts input text the way a numeric control does.
func ParseNumber(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Selection stores a multi-select value.
func (b *Binder) Selection(field string) func(model.Selection) {
	return func(sel model.Selection) {
		b.draft.Set(field, sel)
	}
}

// Single stores a single-select value; nil clears it.
func (b *Binder) Single(field string) func(*model.Option) {
	return func(opt *model.Option) {
		if opt == nil {
			b.draft.Set(field, nil)
			return
		}
		b.draft.Set(field, *opt)
	}
}

// Preview tracks the last value of a field that passed a format check. It is
// what previews render while the raw field may still hold partial input.
type Preview struct {
	mu        sync.RWMutex
	field     string
	check     func(string) bool
	confirmed string
}

// Preview binds a derived preview to field. The confirmed value starts from
// the draft's current value when it passes check.
func (b *Binder) Preview(field string, check func(string) bool) *Preview {
	p := &Preview{field: field, check: check}
	if current := b.draft.String(field); p.accepts(current) {
		p.confirmed = current
	}
	return p
}

// Handler writes the raw value and re-evaluates the preview.
func (p *Preview) Handler(b *Binder) Handler {
	return func(ev ChangeEvent) {
		b.draft.Set(p.field, ev.Value)
		if p.accepts(ev.Value) {
			p.mu.Lock()
			p.confirmed = ev.Value
			p.mu.Unlock()
		}
	}
}

// Field reports the bound field name.
func (p *Preview) Field() string {
	return p.field
}

// Confirmed returns the last accepted value.
func (p *Preview) Confirmed() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.confirmed
}

func (p *Preview) accepts(value string) bool {
	if p.check == nil {
		return true
	}
	return p.check(value)
}
