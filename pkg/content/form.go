package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/draft"
	"github.com/goliatone/go-cms-forms/pkg/form"
	"github.com/goliatone/go-cms-forms/pkg/model"
	"github.com/goliatone/go-cms-forms/pkg/notify"
	"github.com/goliatone/go-cms-forms/pkg/selector"
	"github.com/goliatone/go-cms-forms/pkg/stepper"
)

// Option customises NewForm and NewStepper.
type Option func(*settings)

type settings struct {
	editing   *Content
	notifier  notify.Sink
	logger    *slog.Logger
	now       func() time.Time
	selectors []selector.Option
}

// WithContent switches the form to edit mode over c.
func WithContent(c Content) Option {
	return func(s *settings) {
		s.editing = &c
	}
}

// WithNotifier routes submit notifications to sink.
func WithNotifier(sink notify.Sink) Option {
	return func(s *settings) {
		s.notifier = sink
	}
}

// WithLogger overrides the logger shared by the form parts.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithNow overrides the clock used for defaults and the year bound.
func WithNow(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSelectorOptions configures both relational selectors.
func WithSelectorOptions(opts ...selector.Option) Option {
	return func(s *settings) {
		s.selectors = append(s.selectors, opts...)
	}
}

func buildSettings(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	return s
}

// Form is one content create or edit form.
type Form struct {
	Draft         *draft.Draft
	Binder        *draft.Binder
	Image         *draft.Preview
	VerticalImage *draft.Preview
	Genres        *selector.Selector
	Ratings       *selector.Selector
	Orchestrator  *form.Orchestrator

	editing *Content
}

// NewForm assembles a content form over api.
func NewForm(api API, opts ...Option) *Form {
	s := buildSettings(opts)

	initial := Defaults(s.now())
	if s.editing != nil {
		initial = DraftValues(*s.editing)
	}
	d := draft.New(initial)
	binder := draft.NewBinder(d)

	f := &Form{
		Draft:         d,
		Binder:        binder,
		Image:         binder.Preview(FieldURLImage, IsImageURL),
		VerticalImage: binder.Preview(FieldVerticalURLImage, IsImageURL),
		editing:       s.editing,
	}
	f.Genres, f.Ratings = newSelectors(api, s)

	successMessage := "Contenido creado"
	if f.Editing() {
		successMessage = "Contenido guardado"
	}
	f.Orchestrator = form.New(
		form.WithName("content"),
		form.WithValidator(Schema(s.now())),
		form.WithTransform(func(values map[string]any) (any, error) {
			return BuildPayload(values, f.Image.Confirmed(), f.VerticalImage.Confirmed())
		}),
		form.WithSubmit(submitter(api, s.editing)),
		form.WithFieldAliases(PayloadAliases),
		form.WithNotifier(s.notifier),
		form.WithSuccessMessage(successMessage),
		form.WithLogger(s.logger),
	)
	return f
}

// Editing reports whether the form updates an existing entry.
func (f *Form) Editing() bool {
	return f.editing != nil
}

// SubmitLabel is the caption of the submit control.
func (f *Form) SubmitLabel() string {
	if f.Editing() {
		return "Guardar"
	}
	return "Crear"
}

// Submit runs the orchestrator over the current draft.
func (f *Form) Submit(ctx context.Context) form.Outcome {
	return f.Orchestrator.Submit(ctx, f.Draft)
}

// ToggleGenre adds opt to the genre selection, or removes it when present.
func (f *Form) ToggleGenre(opt model.Option) {
	sel, _ := f.Draft.Get(FieldGenres)
	current, _ := sel.(model.Selection)
	if current.Contains(opt.ID) {
		current = current.Remove(opt.ID)
	} else {
		current = current.Add(opt)
	}
	f.Binder.Selection(FieldGenres)(current)
}

// SelectRating sets the maturity rating; nil clears it.
func (f *Form) SelectRating(opt *model.Option) {
	f.Binder.Single(FieldMaturityRating)(opt)
}

// FieldStatus returns the error flag and helper text for name, including the
// resolution hints of the image fields.
func (f *Form) FieldStatus(name string) form.FieldState {
	return f.Orchestrator.FieldStatus(name, DefaultHelp(name))
}

// Close releases both selectors.
func (f *Form) Close() {
	f.Genres.Close()
	f.Ratings.Close()
}

// DefaultHelp returns the helper text shown for name when it has no error.
func DefaultHelp(name string) string {
	switch name {
	case FieldURLImage:
		return ImageHelp
	case FieldVerticalURLImage:
		return VerticalImageHelp
	}
	return ""
}

// Wizard is the two-step variant of the content form.
type Wizard struct {
	Flow    *stepper.Flow
	Genres  *selector.Selector
	Ratings *selector.Selector
}

// NewStepper assembles the "basics" and "details" steps over api.
func NewStepper(api API, opts ...Option) (*Wizard, error) {
	s := buildSettings(opts)
	schema := Schema(s.now())

	defaults := Defaults(s.now())
	if s.editing != nil {
		defaults = DraftValues(*s.editing)
	}

	orch := form.New(
		form.WithName("content-stepper"),
		form.WithValidator(schema),
		form.WithTransform(func(values map[string]any) (any, error) {
			return BuildPayload(values, "", "")
		}),
		form.WithSubmit(submitter(api, s.editing)),
		form.WithFieldAliases(PayloadAliases),
		form.WithNotifier(s.notifier),
		form.WithSuccessMessage("Contenido creado"),
		form.WithLogger(s.logger),
	)
	flow, err := stepper.New(orch,
		stepper.Step{Name: "basics", Fields: BasicsFields, Schema: schema.Pick(BasicsFields...), Defaults: defaults},
		stepper.Step{Name: "details", Fields: DetailsFields, Schema: schema.Pick(DetailsFields...), Defaults: defaults},
	)
	if err != nil {
		return nil, goerr.Wrap(err, "build content stepper")
	}
	w := &Wizard{Flow: flow}
	w.Genres, w.Ratings = newSelectors(api, s)
	return w, nil
}

// Close releases both selectors.
func (w *Wizard) Close() {
	w.Genres.Close()
	w.Ratings.Close()
}

func newSelectors(api API, s settings) (*selector.Selector, *selector.Selector) {
	opts := func(name string) []selector.Option {
		out := []selector.Option{selector.WithName(name), selector.WithLogger(s.logger)}
		return append(out, s.selectors...)
	}
	genres := selector.New(api.FetchGenres, opts(FieldGenres)...)
	ratings := selector.New(api.FetchMaturityRatings, opts(FieldMaturityRating)...)
	return genres, ratings
}

func submitter(api API, editing *Content) form.SubmitFunc {
	return func(ctx context.Context, payload any) (any, error) {
		p, ok := payload.(Payload)
		if !ok {
			return nil, goerr.New("unexpected payload type")
		}
		if editing != nil {
			return api.UpdateContent(ctx, editing.ID, p)
		}
		return api.CreateContent(ctx, p)
	}
}
