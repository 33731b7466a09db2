// Package content assembles the catalog content form: its schema, default
// values, the draft-to-payload transformation and the remote collaborators
// used to search genres and maturity ratings.
package content

import (
	"context"
	"html"
	"math"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-cms-forms/pkg/model"
)

// Sample media used to prefill a new content draft.
const (
	DefaultHorizontalImage = "http://cdn.bongobd.com/upload/content/landscape/hd/O1rJFgE8KTD.jpg"
	DefaultVerticalImage   = "https://peach.blender.org/wp-content/uploads/poster_bunny_small.jpg"
	DefaultVideo           = "http://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4"
	DefaultDuration        = 60
)

// Helper texts shown under the image fields while they hold no error.
const (
	ImageHelp         = "Intentá que la imagen sea resolución 16:9 🙏"
	VerticalImageHelp = "Intentá que la imagen sea resolución 2:3 🙏"
)

// Content is a catalog entry as returned by the Content API.
type Content struct {
	ID                int64          `json:"id,omitempty"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Year              int            `json:"year"`
	Duration          int            `json:"duration"`
	Director          string         `json:"director"`
	Writer            string         `json:"writer"`
	Cast              string         `json:"cast"`
	URLImage          string         `json:"urlImage"`
	VerticalURLImage  string         `json:"verticalUrlImage"`
	URLVideo          string         `json:"urlVideo"`
	Genres            []model.Option `json:"genres"`
	MaturityRating    *model.Option  `json:"MaturityRating,omitempty"`
	MaturityRatingRef *model.Option  `json:"maturity_rating,omitempty"`
}

// Payload is the wire shape sent on create and update.
type Payload struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Year             int     `json:"year"`
	Duration         int     `json:"duration"`
	Director         string  `json:"director"`
	Writer           string  `json:"writer"`
	Cast             string  `json:"cast"`
	URLImage         string  `json:"urlImage"`
	VerticalURLImage string  `json:"verticalUrlImage"`
	URLVideo         string  `json:"urlVideo"`
	Genres           []int64 `json:"genres"`
	MaturityRatingID int64   `json:"maturity_rating_id"`
}

// PayloadAliases maps Payload keys that differ from their draft field.
var PayloadAliases = map[string]string{
	"maturity_rating_id": FieldMaturityRating,
}

// API is the remote Content collaborator.
type API interface {
	FetchGenres(ctx context.Context, query string) ([]model.Option, error)
	FetchMaturityRatings(ctx context.Context, query string) ([]model.Option, error)
	FetchContent(ctx context.Context, id int64) (Content, error)
	CreateContent(ctx context.Context, payload Payload) (Content, error)
	UpdateContent(ctx context.Context, id int64, payload Payload) (Content, error)
}

// Defaults returns the draft values of a new content form.
func Defaults(now time.Time) map[string]any {
	return map[string]any{
		FieldTitle:            "",
		FieldDescription:      "",
		FieldYear:             float64(now.Year()),
		FieldDuration:         float64(DefaultDuration),
		FieldDirector:         "",
		FieldWriter:           "",
		FieldCast:             "",
		FieldURLImage:         DefaultHorizontalImage,
		FieldVerticalURLImage: DefaultVerticalImage,
		FieldURLVideo:         DefaultVideo,
		FieldGenres:           model.Selection{},
		FieldMaturityRating:   nil,
	}
}

// DraftValues converts an existing entry into draft values for editing. The
// nested MaturityRating object takes precedence over maturity_rating.
func DraftValues(c Content) map[string]any {
	var rating any
	switch {
	case c.MaturityRating != nil && !c.MaturityRating.IsZero():
		rating = *c.MaturityRating
	case c.MaturityRatingRef != nil && !c.MaturityRatingRef.IsZero():
		rating = *c.MaturityRatingRef
	}
	return map[string]any{
		FieldTitle:            c.Title,
		FieldDescription:      c.Description,
		FieldYear:             float64(c.Year),
		FieldDuration:         float64(c.Duration),
		FieldDirector:         c.Director,
		FieldWriter:           c.Writer,
		FieldCast:             c.Cast,
		FieldURLImage:         c.URLImage,
		FieldVerticalURLImage: c.VerticalURLImage,
		FieldURLVideo:         c.URLVideo,
		FieldGenres:           model.NewSelection(c.Genres...),
		FieldMaturityRating:   rating,
	}
}

var strict = bluemonday.StrictPolicy()

// Sanitize strips markup from free text and restores the entities the policy
// escapes so plain punctuation survives.
func Sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// BuildPayload converts validated draft values. urlImage and verticalUrlImage
// are the confirmed preview values; an empty one falls back to the draft.
func BuildPayload(values map[string]any, urlImage, verticalURLImage string) (Payload, error) {
	year, err := wholeNumber(values, FieldYear)
	if err != nil {
		return Payload{}, err
	}
	duration, err := wholeNumber(values, FieldDuration)
	if err != nil {
		return Payload{}, err
	}
	rating, ok := optionValue(values[FieldMaturityRating])
	if !ok {
		return Payload{}, goerr.New("maturity rating not selected")
	}
	if urlImage == "" {
		urlImage = text(values, FieldURLImage)
	}
	if verticalURLImage == "" {
		verticalURLImage = text(values, FieldVerticalURLImage)
	}

	return Payload{
		Title:            Sanitize(text(values, FieldTitle)),
		Description:      Sanitize(text(values, FieldDescription)),
		Year:             year,
		Duration:         duration,
		Director:         Sanitize(text(values, FieldDirector)),
		Writer:           Sanitize(text(values, FieldWriter)),
		Cast:             Sanitize(text(values, FieldCast)),
		URLImage:         strings.TrimSpace(urlImage),
		VerticalURLImage: strings.TrimSpace(verticalURLImage),
		URLVideo:         strings.TrimSpace(text(values, FieldURLVideo)),
		Genres:           genreIDs(values[FieldGenres]),
		MaturityRatingID: rating.ID,
	}, nil
}

func text(values map[string]any, field string) string {
	s, _ := values[field].(string)
	return s
}

func wholeNumber(values map[string]any, field string) (int, error) {
	var f float64
	switch n := values[field].(type) {
	case float64:
		f = n
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, goerr.New("field is not numeric", goerr.V("field", field))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, goerr.New("field is not a finite number", goerr.V("field", field))
	}
	return int(math.Round(f)), nil
}

func optionValue(v any) (model.Option, bool) {
	switch o := v.(type) {
	case model.Option:
		return o, !o.IsZero()
	case *model.Option:
		if o == nil {
			return model.Option{}, false
		}
		return *o, !o.IsZero()
	}
	return model.Option{}, false
}

func genreIDs(v any) []int64 {
	switch sel := v.(type) {
	case model.Selection:
		return sel.IDs()
	case []model.Option:
		return model.NewSelection(sel...).IDs()
	}
	return []int64{}
}
