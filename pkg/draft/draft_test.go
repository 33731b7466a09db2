package draft_test

import (
	"math"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-forms/pkg/draft"
	"github.com/goliatone/go-cms-forms/pkg/model"
)

func TestDraft_SeedIsCopied(t *testing.T) {
	seed := map[string]any{"title": "Alien", "meta": map[string]any{"k": "v"}}
	d := draft.New(seed)

	seed["title"] = "changed"
	seed["meta"].(map[string]any)["k"] = "changed"

	if got := d.String("title"); got != "Alien" {
		t.Fatalf("expected seeded title, got %q", got)
	}
	meta, _ := d.Get("meta")
	if meta.(map[string]any)["k"] != "v" {
		t.Fatalf("nested seed leaked into the draft")
	}
}

func TestDraft_ObserversSeeWritesInOrder(t *testing.T) {
	d := draft.New(nil)
	var changes []draft.Change
	unsubscribe := d.Subscribe(func(c draft.Change) { changes = append(changes, c) })

	d.Set("title", "A")
	d.Set("title", "Al")
	unsubscribe()
	d.Set("title", "Ali")

	want := []draft.Change{
		{Field: "title", Old: nil, New: "A"},
		{Field: "title", Old: "A", New: "Al"},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestBinder_TextAndNumberHandlers(t *testing.T) {
	d := draft.New(nil)
	b := draft.NewBinder(d)

	title := b.Text("title")
	year := b.Number("year")

	title(draft.ChangeEvent{Value: "Alien"})
	title(draft.ChangeEvent{Value: "Alien"})
	year(draft.ChangeEvent{Value: "1979"})

	want := map[string]any{"title": "Alien", "year": 1979.0}
	if diff := cmp.Diff(want, d.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	year(draft.ChangeEvent{Value: "19x9"})
	v, _ := d.Get("year")
	if f, ok := v.(float64); !ok || !math.IsNaN(f) {
		t.Fatalf("expected NaN for unparsable number, got %#v", v)
	}
}

func TestBinder_SelectionHoldsFullOptions(t *testing.T) {
	d := draft.New(nil)
	b := draft.NewBinder(d)

	b.Selection("genres")(model.NewSelection(model.Option{ID: 4, Label: "Drama"}))
	b.Single("maturity_rating")(&model.Option{ID: 2, Label: "ATP"})

	genres, _ := d.Get("genres")
	if diff := cmp.Diff([]model.Option{{ID: 4, Label: "Drama"}}, genres.(model.Selection).Options()); diff != "" {
		t.Fatalf("genres mismatch (-want +got):\n%s", diff)
	}
	rating, _ := d.Get("maturity_rating")
	if diff := cmp.Diff(model.Option{ID: 2, Label: "ATP"}, rating); diff != "" {
		t.Fatalf("rating mismatch (-want +got):\n%s", diff)
	}

	b.Single("maturity_rating")(nil)
	if v, _ := d.Get("maturity_rating"); v != nil {
		t.Fatalf("expected cleared rating, got %#v", v)
	}
}

func TestPreview_OnlyConfirmsWellFormedValues(t *testing.T) {
	imageRe := regexp.MustCompile(`(?i)^(https?):.+\.(jpg|jpeg|png)$`)
	d := draft.New(map[string]any{"urlImage": "https://cdn.example.com/a.jpg"})
	b := draft.NewBinder(d)

	preview := b.Preview("urlImage", imageRe.MatchString)
	onChange := preview.Handler(b)

	if got := preview.Confirmed(); got != "https://cdn.example.com/a.jpg" {
		t.Fatalf("expected seeded preview, got %q", got)
	}

	for _, partial := range []string{"h", "https://cdn.example.com/b", "https://cdn.example.com/b.j"} {
		onChange(draft.ChangeEvent{Value: partial})
		if got := preview.Confirmed(); got != "https://cdn.example.com/a.jpg" {
			t.Fatalf("partial input %q replaced the preview with %q", partial, got)
		}
	}
	if got := d.String("urlImage"); got != "https://cdn.example.com/b.j" {
		t.Fatalf("raw value not written, got %q", got)
	}

	onChange(draft.ChangeEvent{Value: "https://cdn.example.com/b.PNG"})
	if got := preview.Confirmed(); got != "https://cdn.example.com/b.PNG" {
		t.Fatalf("expected confirmed preview update, got %q", got)
	}
}
