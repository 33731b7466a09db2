package content

import (
	"regexp"
	"time"

	"github.com/goliatone/go-cms-forms/pkg/validation"
)

var (
	imageURL = regexp.MustCompile(`(?i)^(https?):.+\.(jpg|jpeg|png)$`)
	videoURL = regexp.MustCompile(`(?i)^(https?):.+\.(mp4)$`)
)

const (
	msgNotImage = "No es una URL de una imagen"
	msgNotVideo = "No es una URL de un video mp4"
)

// Field names as they travel in drafts and payloads.
const (
	FieldTitle            = "title"
	FieldDescription      = "description"
	FieldYear             = "year"
	FieldDuration         = "duration"
	FieldDirector         = "director"
	FieldWriter           = "writer"
	FieldCast             = "cast"
	FieldURLImage         = "urlImage"
	FieldVerticalURLImage = "verticalUrlImage"
	FieldURLVideo         = "urlVideo"
	FieldGenres           = "genres"
	FieldMaturityRating   = "maturity_rating"
)

// BasicsFields and DetailsFields split the content form for the stepper.
var (
	BasicsFields  = []string{FieldTitle, FieldDescription, FieldYear, FieldURLImage, FieldVerticalURLImage, FieldURLVideo}
	DetailsFields = []string{FieldDuration, FieldDirector, FieldWriter, FieldCast, FieldGenres, FieldMaturityRating}
)

// IsImageURL reports whether raw looks like an http(s) jpg, jpeg or png URL.
func IsImageURL(raw string) bool {
	return imageURL.MatchString(raw)
}

// IsVideoURL reports whether raw looks like an http(s) mp4 URL.
func IsVideoURL(raw string) bool {
	return videoURL.MatchString(raw)
}

// Schema returns the content schema. The release year must be after 1900 and
// no later than the year of now.
func Schema(now time.Time) *validation.Schema {
	text := func(max int) []validation.Rule {
		return []validation.Rule{validation.String(), validation.MinLen(1), validation.MaxLen(max)}
	}
	url := func(re *regexp.Regexp, msg string) []validation.Rule {
		return append(text(255), validation.Matches(re, msg))
	}
	return validation.New(
		validation.Field(FieldTitle, text(255)...),
		validation.Field(FieldDescription, text(800)...),
		validation.Field(FieldYear, validation.Number(), validation.Gt(1900), validation.Lt(float64(now.Year()+1))),
		validation.Field(FieldDuration, validation.Number(), validation.Gt(0)),
		validation.Field(FieldDirector, text(255)...),
		validation.Field(FieldWriter, text(255)...),
		validation.Field(FieldCast, text(255)...),
		validation.Field(FieldURLImage, url(imageURL, msgNotImage)...),
		validation.Field(FieldVerticalURLImage, url(imageURL, msgNotImage)...),
		validation.Field(FieldURLVideo, url(videoURL, msgNotVideo)...),
		validation.Field(FieldGenres, validation.Items(), validation.MinItems(1)),
		validation.Field(FieldMaturityRating, validation.Ref()),
	)
}
