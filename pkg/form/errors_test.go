package form_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-forms/pkg/form"
)

func TestMapRemoteErrors_NormalisesPaths(t *testing.T) {
	fields := []string{"title", "genres", "maturity_rating", "urlImage"}
	payload := map[string][]string{
		"title":                   {" Required "},
		"/body/genres/0":          {"Unknown genre"},
		"payload.maturity_rating": {"Invalid rating"},
		"$.data.urlImage":         {"Not an image", "Not an image"},
		"__all__":                 {"Form level"},
		"body/unknown":            {"Falls back"},
		"":                        {"  "},
	}

	mapped := form.MapRemoteErrors(fields, payload)

	wantFields := map[string][]string{
		"title":           {"Required"},
		"genres":          {"Unknown genre"},
		"maturity_rating": {"Invalid rating"},
		"urlImage":        {"Not an image"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Form level", "Falls back"}, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeMessages(t *testing.T) {
	got := form.MergeMessages([]string{" Uno ", "Dos"}, "Dos", "tres", "  ")
	if diff := cmp.Diff([]string{"Uno", "Dos", "tres"}, got); diff != "" {
		t.Fatalf("merged messages mismatch (-want +got):\n%s", diff)
	}
}

func TestMapRemoteErrorsWithAliases(t *testing.T) {
	fields := []string{"genres", "maturity_rating"}
	aliases := map[string]string{
		"maturity_rating_id": "maturity_rating",
		"genre_ids":          "unknown_field",
	}
	payload := map[string][]string{
		"maturity_rating_id": {"Calificación inexistente"},
		"/body/genres/1":     {"Género inexistente"},
		"payload.genre_ids":  {"Sin destino"},
	}

	mapped := form.MapRemoteErrorsWithAliases(fields, aliases, payload)

	wantFields := map[string][]string{
		"maturity_rating": {"Calificación inexistente"},
		"genres":          {"Género inexistente"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Sin destino"}, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}
