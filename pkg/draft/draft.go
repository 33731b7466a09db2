// Package draft holds in-memory, not-yet-submitted form state and the
// binding layer that turns raw input change events into draft writes.
package draft

import (
	"slices"
	"sync"

	"github.com/goliatone/go-cms-forms/pkg/model"
)

// Change describes one write applied to a draft.
type Change struct {
	Field string
	Old   any
	New   any
}

// Observer is notified after every write.
type Observer func(Change)

// Draft tracks field values for one form instance. It is safe for
// concurrent use; observers run outside the lock, in write order per caller.
type Draft struct {
	mu        sync.RWMutex
	values    map[string]any
	observers map[int]Observer
	nextID    int
}

// New seeds a draft with a copy of initial.
func New(initial map[string]any) *Draft {
	return &Draft{
		values:    cloneValues(initial),
		observers: make(map[int]Observer),
	}
}

// Get returns the value stored for field.
func (d *Draft) Get(field string) (any, bool) {
	if d == nil {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.values[field]
	return v, ok
}

// String returns the string stored for field or "".
func (d *Draft) String(field string) string {
	v, _ := d.Get(field)
	s, _ := v.(string)
	return s
}

// Set writes value into field and notifies observers.
func (d *Draft) Set(field string, value any) {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.values == nil {
		d.values = make(map[string]any)
	}
	old := d.values[field]
	d.values[field] = value
	observers := d.snapshotObservers()
	d.mu.Unlock()

	change := Change{Field: field, Old: old, New: value}
	for _, fn := range observers {
		fn(change)
	}
}

// Merge writes every entry of values.
func (d *Draft) Merge(values map[string]any) {
	for field, value := range values {
		d.Set(field, deepCopy(value))
	}
}

// Values returns a copy of all values.
func (d *Draft) Values() map[string]any {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return cloneValues(d.values)
}

// Subset returns a copy of the listed fields that are present.
func (d *Draft) Subset(fields ...string) map[string]any {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		if v, ok := d.values[field]; ok {
			out[field] = deepCopy(v)
		}
	}
	return out
}

// Subscribe registers fn and returns a function that removes it.
func (d *Draft) Subscribe(fn Observer) func() {
	if d == nil || fn == nil {
		return func() {}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.observers == nil {
		d.observers = make(map[int]Observer)
	}
	id := d.nextID
	d.nextID++
	d.observers[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.observers, id)
	}
}

func (d *Draft) snapshotObservers() []Observer {
	if len(d.observers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(d.observers))
	for id := range d.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Observer, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.observers[id])
	}
	return out
}

func cloneValues(src map[string]any) map[string]any {
	if len(src) == 0 {
		return make(map[string]any)
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneValues(typed)
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []model.Option:
		return append([]model.Option(nil), typed...)
	case *model.Option:
		if typed == nil {
			return typed
		}
		clone := *typed
		return &clone
	default:
		// model.Selection is copy-on-write, strings and numbers are values.
		return typed
	}
}
