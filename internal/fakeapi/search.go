package fakeapi

import (
	"sort"
	"strings"

	"github.com/goliatone/go-cms-forms/pkg/model"
)

// Search filters catalog by a case-insensitive substring of the label. Prefix
// matches come first, then labels in alphabetical order.
func Search(catalog []model.Option, query string, limit int, opts Options) []model.Option {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if opts.EmptySearchMode != EmptySearchTop {
			return nil
		}
		if len(catalog) > limit {
			catalog = catalog[:limit]
		}
		return append([]model.Option{}, catalog...)
	}

	q := strings.ToLower(query)
	type ranked struct {
		opt    model.Option
		prefix bool
	}
	matches := make([]ranked, 0, len(catalog))
	for _, opt := range catalog {
		label := strings.ToLower(opt.Label)
		if !strings.Contains(label, q) {
			continue
		}
		matches = append(matches, ranked{opt: opt, prefix: strings.HasPrefix(label, q)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].prefix != matches[j].prefix {
			return matches[i].prefix
		}
		return matches[i].opt.Label < matches[j].opt.Label
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]model.Option, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.opt)
	}
	return out
}
