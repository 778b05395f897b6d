// Package admin declares how each content model is listed, searched,
// filtered and edited in the back-office, and runs those declarations
// against the database.
package admin

import (
	"context"

	"gorm.io/gorm"
)

// Row is one database row keyed by column name.
type Row map[string]interface{}

type FieldKind string

const (
	KindString FieldKind = "text"
	KindText   FieldKind = "textarea"
	KindInt    FieldKind = "number"
	KindBool   FieldKind = "checkbox"
	KindChoice FieldKind = "select"
	// KindRef holds the id of a row of another registered model.
	KindRef FieldKind = "ref"
)

type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field is an editable column.
type Field struct {
	Name      string
	Label     string
	Kind      FieldKind
	Required  bool
	MaxLength int
	// NonNegative rejects numbers below zero.
	NonNegative bool
	Choices     []Choice
	// References names the registered model a KindRef field points at.
	References string
	// CreateOnly fields are set when the object is added and never changed.
	CreateOnly bool
	// Default fills the add form and stands in for an absent value on create.
	Default interface{}
}

type Fieldset struct {
	Name      string
	Fields    []string
	Collapsed bool
}

// Inline lists the children of an object on its change page.
type Inline struct {
	Model      string
	ForeignKey string
	Fields     []string
}

// Child describes a dependent model removed together with its parent.
type Child struct {
	Model      string
	ForeignKey string
}

// Action is a bulk operation over selected rows. Run must touch every
// selected row in a single statement.
type Action struct {
	Name        string
	Description string
	Run         func(tx *gorm.DB, ids []uint) (int64, error)
}

// ModelAdmin is the back-office declaration of one model.
type ModelAdmin struct {
	Name       string
	PluralName string
	// New returns a pointer to a zero model value; it names the table.
	New func() interface{}

	ListDisplay  []string
	SearchFields []string
	ListFilters  []Filter
	ListEditable []string
	Ordering     []string
	Fields       []Field
	Fieldsets    []Fieldset
	Inlines      []Inline
	Actions      []Action
	Children     []Child

	// Computed provides list columns that are not stored.
	Computed map[string]func(Row) interface{}
	// Normalize adjusts a validated change before it is written.
	Normalize func(values map[string]interface{})
	// Delete replaces the generic cascading delete.
	Delete func(ctx context.Context, id uint) error
	// AddDisabled hides the add form; rows come from elsewhere.
	AddDisabled bool
}

func (m *ModelAdmin) field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// fieldsets falls back to a single unnamed fieldset holding every field.
func (m *ModelAdmin) fieldsets() []Fieldset {
	if len(m.Fieldsets) > 0 {
		return m.Fieldsets
	}
	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		names = append(names, f.Name)
	}
	return []Fieldset{{Fields: names}}
}

func (m *ModelAdmin) editable(name string) bool {
	for _, fs := range m.fieldsets() {
		for _, f := range fs.Fields {
			if f == name {
				return true
			}
		}
	}
	for _, f := range m.ListEditable {
		if f == name {
			return true
		}
	}
	return false
}

func (m *ModelAdmin) action(name string) (Action, bool) {
	for _, a := range m.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

func (m *ModelAdmin) plural() string {
	if m.PluralName != "" {
		return m.PluralName
	}
	return m.Name + "s"
}
