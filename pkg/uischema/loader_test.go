package uischema_test

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-forms/pkg/content"
	"github.com/goliatone/go-cms-forms/pkg/model"
	"github.com/goliatone/go-cms-forms/pkg/uischema"
	"github.com/goliatone/go-cms-forms/pkg/users"
)

func TestDefault_BundledForms(t *testing.T) {
	store, err := uischema.Default()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if diff := cmp.Diff([]string{"content", "login", "users"}, store.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	fm := store.MustForm(uischema.FormContent)
	if len(fm.Fields) != 12 {
		t.Fatalf("expected 12 content fields, got %d", len(fm.Fields))
	}
	wantNames := append(append([]string(nil), content.BasicsFields...), content.DetailsFields...)
	got := map[string]bool{}
	for _, name := range fm.FieldNames() {
		got[name] = true
	}
	for _, name := range wantNames {
		if !got[name] {
			t.Fatalf("content form misses field %q", name)
		}
	}

	image, _ := fm.Field(content.FieldURLImage)
	if image.Help != content.ImageHelp {
		t.Fatalf("image help mismatch: %q", image.Help)
	}
	genres, _ := fm.Field(content.FieldGenres)
	if genres.Widget != model.WidgetMultiSelect || genres.Source != content.FieldGenres {
		t.Fatalf("genres field mismatch: %#v", genres)
	}
	title, _ := fm.Field(content.FieldTitle)
	if title.Label != "Título" || title.Placeholder != "El Señor de los Anillos" {
		t.Fatalf("title field mismatch: %#v", title)
	}
	if first := fm.Fields[0].Name; first != content.FieldTitle {
		t.Fatalf("declaration order lost, first field %q", first)
	}

	userForm := store.MustForm(uischema.FormUsers)
	if diff := cmp.Diff(users.Fields, userForm.FieldNames()); diff != "" {
		t.Fatalf("user fields mismatch (-want +got):\n%s", diff)
	}
	if userForm.Submit != "Agregar" {
		t.Fatalf("user submit label: %q", userForm.Submit)
	}
	password, _ := userForm.Field(users.FieldPassword)
	if password.Widget != model.WidgetPassword {
		t.Fatalf("password widget: %q", password.Widget)
	}
}

func TestLoadFS_JSONAndDefaults(t *testing.T) {
	fsys := fstest.MapFS{
		"a.json": {Data: []byte(`{"forms":{"demo":{"title":"Demo","fields":[
			{"name":"count","type":"number"},
			{"name":"tags","type":"array","source":"tags"},
			{"name":" note "}
		]}}}`)},
		"README.md": {Data: []byte("ignored")},
	}
	store, err := uischema.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	fm, ok := store.Form("demo")
	if !ok {
		t.Fatalf("demo form missing")
	}
	want := []model.Field{
		{Name: "count", Type: model.FieldTypeNumber, Widget: model.WidgetNumber},
		{Name: "tags", Type: model.FieldTypeArray, Widget: model.WidgetMultiSelect, Source: "tags"},
		{Name: "note", Type: model.FieldTypeString, Widget: model.WidgetText},
	}
	if diff := cmp.Diff(want, fm.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFS_FormIsCopied(t *testing.T) {
	store, err := uischema.Default()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	fm := store.MustForm(uischema.FormContent)
	fm.Fields[0].Label = "changed"
	fm.Fields[9].Metadata["preview"] = "changed"

	again := store.MustForm(uischema.FormContent)
	if again.Fields[0].Label == "changed" {
		t.Fatalf("store returned shared field slice")
	}
	for _, field := range again.Fields {
		if field.Metadata["preview"] == "changed" {
			t.Fatalf("store returned shared metadata map")
		}
	}
}

func TestLoadFS_Errors(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"empty file": {"a.yaml": {Data: []byte("  ")}},
		"invalid":    {"a.yaml": {Data: []byte("forms: [")}},
		"duplicate form": {
			"a.yaml": {Data: []byte("forms:\n  x:\n    fields: []\n")},
			"b.yaml": {Data: []byte("forms:\n  x:\n    fields: []\n")},
		},
		"duplicate field":  {"a.yaml": {Data: []byte("forms:\n  x:\n    fields:\n      - name: a\n      - name: a\n")}},
		"unnamed field":    {"a.yaml": {Data: []byte("forms:\n  x:\n    fields:\n      - label: A\n")}},
		"unknown widget":   {"a.yaml": {Data: []byte("forms:\n  x:\n    fields:\n      - name: a\n        widget: slider\n")}},
		"select no source": {"a.yaml": {Data: []byte("forms:\n  x:\n    fields:\n      - name: a\n        widget: select\n")}},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := uischema.LoadFS(fsys); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadFS_Nil(t *testing.T) {
	store, err := uischema.LoadFS(nil)
	if err != nil {
		t.Fatalf("load nil: %v", err)
	}
	if !store.Empty() {
		t.Fatalf("expected empty store")
	}
	if _, ok := store.Form("content"); ok {
		t.Fatalf("unexpected form")
	}
}
