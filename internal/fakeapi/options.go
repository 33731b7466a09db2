package fakeapi

import (
	"log/slog"
	"time"

	"github.com/goliatone/go-cms-forms/pkg/model"
)

// EmptySearchMode controls what an empty query returns.
type EmptySearchMode string

const (
	EmptySearchNone EmptySearchMode = "none"
	EmptySearchTop  EmptySearchMode = "top"
)

// Account is a user that can log in.
type Account struct {
	Email    string
	Password string
	Nombre   string
	Apellido string
}

// Options configures the fake API.
type Options struct {
	SearchParam     string
	LimitParam      string
	DefaultLimit    int
	MaxLimit        int
	EmptySearchMode EmptySearchMode
	Latency         time.Duration
	Logger          *slog.Logger

	Genres   []model.Option
	Ratings  []model.Option
	Accounts []Account
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// DefaultOptions returns the seed catalog and one staff account.
func DefaultOptions() Options {
	return Options{
		SearchParam:     "search",
		LimitParam:      "limit",
		DefaultLimit:    50,
		MaxLimit:        200,
		EmptySearchMode: EmptySearchTop,
		Genres: []model.Option{
			{ID: 1, Label: "Acción"},
			{ID: 2, Label: "Animación"},
			{ID: 3, Label: "Aventura"},
			{ID: 4, Label: "Ciencia ficción"},
			{ID: 5, Label: "Comedia"},
			{ID: 6, Label: "Documental"},
			{ID: 7, Label: "Drama"},
			{ID: 8, Label: "Fantasía"},
			{ID: 9, Label: "Suspenso"},
			{ID: 10, Label: "Terror"},
		},
		Ratings: []model.Option{
			{ID: 1, Label: "ATP"},
			{ID: 2, Label: "+13"},
			{ID: 3, Label: "+16"},
			{ID: 4, Label: "+18"},
		},
		Accounts: []Account{
			{Email: "admin@uade.edu.ar", Password: "admin", Nombre: "Ada", Apellido: "Lovelace"},
		},
	}
}

// NewOptions applies fns over the defaults and clamps the limits.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 200
	}
	if opts.EmptySearchMode == "" {
		opts.EmptySearchMode = EmptySearchTop
	}
	if opts.SearchParam == "" {
		opts.SearchParam = "search"
	}
	if opts.LimitParam == "" {
		opts.LimitParam = "limit"
	}
	opts.Genres = append([]model.Option(nil), opts.Genres...)
	opts.Ratings = append([]model.Option(nil), opts.Ratings...)
	opts.Accounts = append([]Account(nil), opts.Accounts...)
	return opts
}

// WithGenres replaces the genre catalog.
func WithGenres(genres ...model.Option) OptionFn {
	return func(o *Options) {
		o.Genres = genres
	}
}

// WithRatings replaces the maturity rating catalog.
func WithRatings(ratings ...model.Option) OptionFn {
	return func(o *Options) {
		o.Ratings = ratings
	}
}

// WithAccounts replaces the accounts allowed to log in.
func WithAccounts(accounts ...Account) OptionFn {
	return func(o *Options) {
		o.Accounts = accounts
	}
}

// WithEmptySearchMode sets the behaviour of an empty query.
func WithEmptySearchMode(mode EmptySearchMode) OptionFn {
	return func(o *Options) {
		o.EmptySearchMode = mode
	}
}

// WithLatency delays every response.
func WithLatency(d time.Duration) OptionFn {
	return func(o *Options) {
		o.Latency = d
	}
}

// WithLimits sets the default and maximum search limits.
func WithLimits(def, max int) OptionFn {
	return func(o *Options) {
		o.DefaultLimit = def
		o.MaxLimit = max
	}
}

// WithLogger sets the access logger.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
