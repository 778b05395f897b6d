package forms

type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeNumber   FieldType = "number"
	TypeCheckbox FieldType = "checkbox"
	TypeSelect   FieldType = "select"
	TypeEmail    FieldType = "email"
	TypeHidden   FieldType = "hidden"
)

type Choice struct {
	Value interface{} `json:"value"`
	Label string      `json:"label"`
}

// Field describes one input of a rendered form.
type Field struct {
	Name     string      `json:"name"`
	Label    string      `json:"label"`
	Type     FieldType   `json:"type"`
	Required bool        `json:"required"`
	Value    interface{} `json:"value"`
	Choices  []Choice    `json:"choices,omitempty"`
}

// Descriptor is the render context of a form.
type Descriptor struct {
	Fields  []Field            `json:"fields"`
	Formset *FormsetDescriptor `json:"formset,omitempty"`
	Errors  map[string]string  `json:"errors,omitempty"`
}

// FieldNames lists the names of the described fields, in order.
func (d Descriptor) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	return names
}

// WithErrors returns a copy of d carrying the validation errors of err.
func (d Descriptor) WithErrors(err *ValidationError) Descriptor {
	if err != nil {
		d.Errors = err.Errors
	}
	return d
}
