package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-forms/pkg/model"
)

func TestSelection_AddIsIdempotentAndOrdered(t *testing.T) {
	drama := model.Option{ID: 2, Label: "Drama"}
	comedy := model.Option{ID: 1, Label: "Comedia"}

	sel := model.NewSelection(drama, comedy).Add(drama).Add(model.Option{ID: 2, Label: "renamed"})

	want := []model.Option{drama, comedy}
	if diff := cmp.Diff(want, sel.Options()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{2, 1}, sel.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestSelection_RemoveByID(t *testing.T) {
	base := model.NewSelection(
		model.Option{ID: 1, Label: "Acción"},
		model.Option{ID: 2, Label: "Drama"},
		model.Option{ID: 3, Label: "Terror"},
	)

	removed := base.Remove(2)
	if removed.Contains(2) {
		t.Fatalf("expected id 2 to be removed")
	}
	if base.Len() != 3 {
		t.Fatalf("remove must not mutate the receiver, got len %d", base.Len())
	}
	if diff := cmp.Diff([]int64{1, 3}, removed.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if got := removed.Remove(42); got.Len() != 2 {
		t.Fatalf("removing an unknown id should be a no-op")
	}
}
