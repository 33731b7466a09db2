package model

// Selection is an ordered set of Options unique by identifier. The zero value
// is an empty selection ready to use.
type Selection struct {
	items []Option
}

// NewSelection builds a selection from opts, dropping repeated identifiers.
func NewSelection(opts ...Option) Selection {
	var s Selection
	for _, opt := range opts {
		s = s.Add(opt)
	}
	return s
}

// Add returns a selection with opt appended. Re-selecting an identifier that
// is already present is a no-op.
func (s Selection) Add(opt Option) Selection {
	if s.Contains(opt.ID) {
		return s
	}
	items := make([]Option, len(s.items), len(s.items)+1)
	copy(items, s.items)
	return Selection{items: append(items, opt)}
}

// Remove returns a selection without the option identified by id.
func (s Selection) Remove(id int64) Selection {
	if !s.Contains(id) {
		return s
	}
	items := make([]Option, 0, len(s.items)-1)
	for _, item := range s.items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	return Selection{items: items}
}

// Contains reports whether id is selected.
func (s Selection) Contains(id int64) bool {
	for _, item := range s.items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// Len reports the number of selected options.
func (s Selection) Len() int {
	return len(s.items)
}

// Options returns a copy of the selected options in selection order.
func (s Selection) Options() []Option {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]Option, len(s.items))
	copy(out, s.items)
	return out
}

// IDs projects the selection to bare identifiers.
func (s Selection) IDs() []int64 {
	out := make([]int64, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.ID)
	}
	return out
}
