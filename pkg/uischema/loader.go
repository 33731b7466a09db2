package uischema

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-cms-forms/pkg/model"
)

// Well-known form identifiers shipped in the embedded definitions.
const (
	FormContent = "content"
	FormUsers   = "users"
	FormLogin   = "login"
)

// Store indexes form definitions by id.
type Store struct {
	forms map[string]model.FormModel
}

// LoadFS walks the provided filesystem and parses JSON/YAML form files.
// When fsys is nil or no form files are present, the returned store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{forms: make(map[string]model.FormModel)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isFormFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return goerr.Wrap(err, "read form file", goerr.V("file", path))
		}

		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for formID, raw := range doc.Forms {
			id := strings.TrimSpace(formID)
			if id == "" {
				return goerr.New("form file defines an empty form id", goerr.V("file", path))
			}
			if _, exists := store.forms[id]; exists {
				return goerr.New("duplicate form id", goerr.V("form", id), goerr.V("file", path))
			}
			fm, err := normaliseForm(raw, id, path)
			if err != nil {
				return err
			}
			store.forms[id] = fm
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

// Form returns a copy of the definition for id.
func (s *Store) Form(id string) (model.FormModel, bool) {
	if s == nil {
		return model.FormModel{}, false
	}
	fm, ok := s.forms[id]
	if !ok {
		return model.FormModel{}, false
	}
	return cloneForm(fm), true
}

// MustForm is Form for the bundled ids; it panics when id is unknown.
func (s *Store) MustForm(id string) model.FormModel {
	fm, ok := s.Form(id)
	if !ok {
		panic("uischema: unknown form " + id)
	}
	return fm
}

// IDs lists the known form ids in lexical order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.forms))
	for id := range s.forms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Empty reports whether the store holds any forms.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

type documentFile struct {
	Forms map[string]formFile `json:"forms" yaml:"forms"`
}

type formFile struct {
	Title  string        `json:"title" yaml:"title"`
	Submit string        `json:"submit" yaml:"submit"`
	Fields []model.Field `json:"fields" yaml:"fields"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, goerr.New("form file is empty", goerr.V("file", source))
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, goerr.Wrap(err, "parse form file: invalid JSON or YAML", goerr.V("file", source))
	}
	return doc, nil
}

func normaliseForm(raw formFile, id, source string) (model.FormModel, error) {
	fm := model.FormModel{
		ID:     id,
		Title:  strings.TrimSpace(raw.Title),
		Submit: strings.TrimSpace(raw.Submit),
		Fields: make([]model.Field, 0, len(raw.Fields)),
	}
	seen := make(map[string]struct{}, len(raw.Fields))
	for idx, field := range raw.Fields {
		field.Name = strings.TrimSpace(field.Name)
		if field.Name == "" {
			return model.FormModel{}, goerr.New("field without name",
				goerr.V("form", id), goerr.V("file", source), goerr.V("index", idx))
		}
		if _, dup := seen[field.Name]; dup {
			return model.FormModel{}, goerr.New("duplicate field",
				goerr.V("form", id), goerr.V("file", source), goerr.V("field", field.Name))
		}
		seen[field.Name] = struct{}{}

		if field.Type == "" {
			field.Type = model.FieldTypeString
		}
		if field.Widget == "" {
			field.Widget = defaultWidget(field.Type)
		}
		if !knownWidget(field.Widget) {
			return model.FormModel{}, goerr.New("unknown widget",
				goerr.V("form", id), goerr.V("field", field.Name), goerr.V("widget", field.Widget))
		}
		if (field.Widget == model.WidgetSelect || field.Widget == model.WidgetMultiSelect) && field.Source == "" {
			return model.FormModel{}, goerr.New("select field requires a source",
				goerr.V("form", id), goerr.V("field", field.Name))
		}
		fm.Fields = append(fm.Fields, cloneField(field))
	}
	return fm, nil
}

func defaultWidget(t model.FieldType) model.Widget {
	switch t {
	case model.FieldTypeNumber:
		return model.WidgetNumber
	case model.FieldTypeArray:
		return model.WidgetMultiSelect
	case model.FieldTypeOption:
		return model.WidgetSelect
	default:
		return model.WidgetText
	}
}

func knownWidget(w model.Widget) bool {
	switch w {
	case model.WidgetText, model.WidgetNumber, model.WidgetTextArea, model.WidgetPassword,
		model.WidgetSelect, model.WidgetMultiSelect:
		return true
	}
	return false
}

func cloneForm(fm model.FormModel) model.FormModel {
	out := fm
	out.Fields = make([]model.Field, len(fm.Fields))
	for i, field := range fm.Fields {
		out.Fields[i] = cloneField(field)
	}
	return out
}

func cloneField(field model.Field) model.Field {
	out := field
	if len(field.Metadata) > 0 {
		out.Metadata = make(map[string]string, len(field.Metadata))
		for k, v := range field.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func isFormFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
