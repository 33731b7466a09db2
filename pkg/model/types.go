package model

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeNumber FieldType = "number"
	FieldTypeArray  FieldType = "array"
	FieldTypeOption FieldType = "option"
)

// Widget names the input control a field is edited with.
type Widget string

const (
	WidgetText        Widget = "text"
	WidgetNumber      Widget = "number"
	WidgetTextArea    Widget = "textarea"
	WidgetPassword    Widget = "password"
	WidgetSelect      Widget = "select"
	WidgetMultiSelect Widget = "multiselect"
)

// Field describes an individual input inside a form.
type Field struct {
	Name        string            `json:"name" yaml:"name"`
	Type        FieldType         `json:"type" yaml:"type"`
	Widget      Widget            `json:"widget,omitempty" yaml:"widget,omitempty"`
	Required    bool              `json:"required" yaml:"required"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Help        string            `json:"help,omitempty" yaml:"help,omitempty"`
	Source      string            `json:"source,omitempty" yaml:"source,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// FormModel is the ordered field list for one form.
type FormModel struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Submit string  `json:"submit,omitempty" yaml:"submit,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Field returns the named field.
func (f FormModel) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldNames lists the field names in declaration order.
func (f FormModel) FieldNames() []string {
	out := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		out = append(out, field.Name)
	}
	return out
}

// Option is a remote-sourced selectable item (a genre, a maturity rating).
type Option struct {
	ID    int64  `json:"id"`
	Label string `json:"description"`
}

// IsZero reports whether the option carries no identifier.
func (o Option) IsZero() bool {
	return o.ID == 0
}
