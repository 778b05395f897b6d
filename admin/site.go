package admin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learningsite/forms"
	"learningsite/logger"
	"learningsite/services"
)

// Site runs the registered declarations against the database.
type Site struct {
	db       *gorm.DB
	registry *Registry
	log      *logger.Logger
}

func NewSite(db *gorm.DB, registry *Registry, log *logger.Logger) *Site {
	return &Site{db: db, registry: registry, log: log.With("component", "admin.Site")}
}

func (s *Site) model(name string) (*ModelAdmin, error) {
	m, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("admin model %q: %w", name, services.ErrNotFound)
	}
	return m, nil
}

type ModelEntry struct {
	Name       string `json:"name"`
	PluralName string `json:"plural_name"`
	URL        string `json:"url"`
	AddURL     string `json:"add_url,omitempty"`
}

func (s *Site) Index() []ModelEntry {
	out := make([]ModelEntry, 0, len(s.registry.Models()))
	for _, m := range s.registry.Models() {
		entry := ModelEntry{Name: m.Name, PluralName: m.plural(), URL: ListURL(m.Name)}
		if !m.AddDisabled {
			entry.AddURL = AddURL(m.Name)
		}
		out = append(out, entry)
	}
	return out
}

func ListURL(model string) string {
	return "/admin/" + model + "/"
}

func AddURL(model string) string {
	return "/admin/" + model + "/add/"
}

func ChangeURL(model string, id uint) string {
	return fmt.Sprintf("/admin/%s/%d/", model, id)
}

type Column struct {
	Name     string    `json:"name"`
	Editable bool      `json:"editable"`
	Kind     FieldKind `json:"kind,omitempty"`
	Choices  []Choice  `json:"choices,omitempty"`
}

type FilterView struct {
	Param    string   `json:"param"`
	Title    string   `json:"title"`
	Choices  []Choice `json:"choices"`
	Selected string   `json:"selected,omitempty"`
}

type ActionView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ChangeList struct {
	Model         string       `json:"model"`
	Columns       []Column     `json:"columns"`
	Rows          []Row        `json:"rows"`
	Count         int          `json:"count"`
	Search        string       `json:"search"`
	SearchEnabled bool         `json:"search_enabled"`
	Filters       []FilterView `json:"filters"`
	Actions       []ActionView `json:"actions"`
}

// List returns the change list of a model narrowed by the "q" search
// parameter and the filter parameters.
func (s *Site) List(ctx context.Context, name string, params url.Values) (*ChangeList, error) {
	m, err := s.model(name)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(m.New())
	term := strings.TrimSpace(params.Get("q"))
	if term != "" && len(m.SearchFields) > 0 {
		pattern := likePattern(term)
		conds := make([]string, 0, len(m.SearchFields))
		args := make([]interface{}, 0, len(m.SearchFields))
		for _, f := range m.SearchFields {
			conds = append(conds, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, f))
			args = append(args, pattern)
		}
		query = query.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	filters := make([]FilterView, 0, len(m.ListFilters))
	for _, f := range m.ListFilters {
		selected := params.Get(f.Param())
		if selected != "" {
			query = f.Apply(query, selected)
		}
		filters = append(filters, FilterView{Param: f.Param(), Title: f.Title(), Choices: f.Choices(), Selected: selected})
	}

	var raw []map[string]interface{}
	if err := query.Scopes(ordered(m.Ordering)).Find(&raw).Error; err != nil {
		return nil, fmt.Errorf("admin list %s: %w", name, err)
	}

	list := &ChangeList{
		Model:         m.Name,
		Columns:       s.columns(m),
		Rows:          make([]Row, 0, len(raw)),
		Count:         len(raw),
		Search:        term,
		SearchEnabled: len(m.SearchFields) > 0,
		Filters:       filters,
		Actions:       make([]ActionView, 0, len(m.Actions)),
	}
	for _, r := range raw {
		list.Rows = append(list.Rows, m.project(Row(r)))
	}
	for _, a := range m.Actions {
		list.Actions = append(list.Actions, ActionView{Name: a.Name, Description: a.Description})
	}
	return list, nil
}

func (s *Site) columns(m *ModelAdmin) []Column {
	editable := make(map[string]bool, len(m.ListEditable))
	for _, f := range m.ListEditable {
		editable[f] = true
	}
	cols := make([]Column, 0, len(m.ListDisplay))
	for _, name := range m.ListDisplay {
		col := Column{Name: name, Editable: editable[name]}
		if f, ok := m.field(name); ok && col.Editable {
			col.Kind = f.Kind
			col.Choices = f.Choices
		}
		cols = append(cols, col)
	}
	return cols
}

// project keeps the id and the displayed columns of a row.
func (m *ModelAdmin) project(r Row) Row {
	out := Row{"id": r["id"]}
	for _, name := range m.ListDisplay {
		if fn, ok := m.Computed[name]; ok {
			out[name] = fn(r)
			continue
		}
		out[name] = value(r[name])
	}
	return out
}

// value renders raw text columns as strings; some drivers scan them as bytes.
func value(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

type FieldView struct {
	Name     string      `json:"name"`
	Label    string      `json:"label"`
	Kind     FieldKind   `json:"kind"`
	Required bool        `json:"required"`
	ReadOnly bool        `json:"read_only,omitempty"`
	Value    interface{} `json:"value"`
	Choices  []Choice    `json:"choices,omitempty"`
}

type FieldsetView struct {
	Name      string      `json:"name,omitempty"`
	Collapsed bool        `json:"collapsed"`
	Fields    []FieldView `json:"fields"`
}

type InlineView struct {
	Model  string   `json:"model"`
	Fields []string `json:"fields"`
	Rows   []Row    `json:"rows"`
}

type ChangeForm struct {
	Model     string         `json:"model"`
	ID        uint           `json:"id"`
	Fieldsets []FieldsetView `json:"fieldsets"`
	Inlines   []InlineView   `json:"inlines"`
}

// Change loads one object laid out by its fieldsets, with inline children.
func (s *Site) Change(ctx context.Context, name string, id uint) (*ChangeForm, error) {
	m, err := s.model(name)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var rows []map[string]interface{}
	if err := db.Model(m.New()).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("admin change %s %d: %w", name, id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("admin change %s %d: %w", name, id, services.ErrNotFound)
	}
	row := rows[0]

	form := &ChangeForm{Model: m.Name, ID: id, Fieldsets: fieldsetViews(m, row, false), Inlines: []InlineView{}}

	for _, in := range m.Inlines {
		child, err := s.model(in.Model)
		if err != nil {
			return nil, err
		}
		var children []map[string]interface{}
		err = db.Model(child.New()).
			Where(fmt.Sprintf("%s = ?", in.ForeignKey), id).
			Scopes(ordered(child.Ordering)).
			Find(&children).Error
		if err != nil {
			return nil, fmt.Errorf("admin inline %s: %w", in.Model, err)
		}
		view := InlineView{Model: in.Model, Fields: in.Fields, Rows: make([]Row, 0, len(children))}
		for _, c := range children {
			r := Row{"id": c["id"]}
			for _, f := range in.Fields {
				r[f] = value(c[f])
			}
			view.Rows = append(view.Rows, r)
		}
		form.Inlines = append(form.Inlines, view)
	}
	return form, nil
}

// fieldsetViews lays out the fields of m filled from row. Ref fields are
// required when adding since the foreign keys are not null.
func fieldsetViews(m *ModelAdmin, row map[string]interface{}, adding bool) []FieldsetView {
	out := make([]FieldsetView, 0, len(m.fieldsets()))
	for _, fs := range m.fieldsets() {
		view := FieldsetView{Name: fs.Name, Collapsed: fs.Collapsed, Fields: make([]FieldView, 0, len(fs.Fields))}
		for _, fname := range fs.Fields {
			f, _ := m.field(fname)
			view.Fields = append(view.Fields, FieldView{
				Name:     fname,
				Label:    f.Label,
				Kind:     f.Kind,
				Required: f.Required || (adding && f.Kind == KindRef),
				ReadOnly: f.CreateOnly && !adding,
				Value:    fieldValue(f, row, adding),
				Choices:  f.Choices,
			})
		}
		out = append(out, view)
	}
	return out
}

func fieldValue(f Field, row map[string]interface{}, adding bool) interface{} {
	if adding {
		return f.Default
	}
	return value(row[f.Name])
}

type AddForm struct {
	Model     string         `json:"model"`
	Fieldsets []FieldsetView `json:"fieldsets"`
}

// Add returns the empty add form of a model.
func (s *Site) Add(name string) (*AddForm, error) {
	m, err := s.addable(name)
	if err != nil {
		return nil, err
	}
	return &AddForm{Model: m.Name, Fieldsets: fieldsetViews(m, nil, true)}, nil
}

func (s *Site) addable(name string) (*ModelAdmin, error) {
	m, err := s.model(name)
	if err != nil {
		return nil, err
	}
	if m.AddDisabled {
		return nil, fmt.Errorf("admin add %s: %w", name, services.ErrNotFound)
	}
	return m, nil
}

// Create inserts an object from the fields of the add form and returns
// its id. Every required field and every reference must be present.
func (s *Site) Create(ctx context.Context, name string, input map[string]interface{}) (uint, error) {
	m, err := s.addable(name)
	if err != nil {
		return 0, err
	}

	values := make(map[string]interface{})
	errs := make(map[string]string)
	for _, fs := range m.fieldsets() {
		for _, fname := range fs.Fields {
			f, ok := m.field(fname)
			if !ok {
				continue
			}
			raw, present := input[fname]
			if !present && f.Default != nil {
				raw, present = f.Default, true
			}
			if !present || (f.Kind != KindBool && strings.TrimSpace(toString(raw)) == "") {
				if f.Required || f.Kind == KindRef {
					errs[fname] = "This field is required."
				}
				continue
			}
			v, msg := decode(f, raw)
			if msg != "" {
				errs[fname] = msg
				continue
			}
			values[fname] = v
		}
	}
	if len(errs) > 0 {
		return 0, &forms.ValidationError{Errors: errs}
	}
	if m.Normalize != nil {
		m.Normalize(values)
	}

	obj := m.New()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Squash: true, Result: obj})
	if err != nil {
		return 0, err
	}
	if err := decoder.Decode(values); err != nil {
		return 0, fmt.Errorf("admin add %s: %w", name, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkRefs(tx, m, values); err != nil {
			return err
		}
		if err := tx.Create(obj).Error; err != nil {
			return fmt.Errorf("admin add %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	id := uint(reflect.ValueOf(obj).Elem().FieldByName("ID").Uint())
	s.log.Info("object added", "model", name, "id", id)
	return id, nil
}

// checkRefs reports ref values that do not name an existing row.
func (s *Site) checkRefs(tx *gorm.DB, m *ModelAdmin, values map[string]interface{}) error {
	for key, v := range values {
		f, _ := m.field(key)
		if f.Kind != KindRef {
			continue
		}
		ref, err := s.model(f.References)
		if err != nil {
			return err
		}
		if err := exists(tx, ref, v.(uint)); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return forms.FieldError(key, "Select a valid choice. That choice is not one of the available choices.")
			}
			return err
		}
	}
	return nil
}

// Update writes the editable fields present in input. Absent fields keep
// their value, so the same call serves the change form and list editing.
func (s *Site) Update(ctx context.Context, name string, id uint, input map[string]interface{}) error {
	m, err := s.model(name)
	if err != nil {
		return err
	}

	values := make(map[string]interface{})
	errs := make(map[string]string)
	for key, raw := range input {
		if key == "id" || !m.editable(key) {
			continue
		}
		f, ok := m.field(key)
		if !ok || f.CreateOnly {
			continue
		}
		v, msg := decode(f, raw)
		if msg != "" {
			errs[key] = msg
			continue
		}
		values[key] = v
	}
	if len(errs) > 0 {
		return &forms.ValidationError{Errors: errs}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, m, id); err != nil {
			return err
		}
		if err := s.checkRefs(tx, m, values); err != nil {
			return err
		}
		if len(values) == 0 {
			return nil
		}
		if m.Normalize != nil {
			m.Normalize(values)
		}
		return tx.Model(m.New()).Where("id = ?", id).Updates(values).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("object changed", "model", name, "id", id, "fields", len(values))
	return nil
}

// Delete removes an object and, bottom-up, everything that depends on it.
func (s *Site) Delete(ctx context.Context, name string, id uint) error {
	m, err := s.model(name)
	if err != nil {
		return err
	}
	if m.Delete != nil {
		err = m.Delete(ctx, id)
	} else {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := exists(tx, m, id); err != nil {
				return err
			}
			return s.deleteTree(tx, m, []uint{id})
		})
	}
	if err != nil {
		return err
	}
	s.log.Info("object deleted", "model", name, "id", id)
	return nil
}

func (s *Site) deleteTree(tx *gorm.DB, m *ModelAdmin, ids []uint) error {
	for _, c := range m.Children {
		child, err := s.model(c.Model)
		if err != nil {
			return err
		}
		var childIDs []uint
		err = tx.Model(child.New()).Where(fmt.Sprintf("%s IN ?", c.ForeignKey), ids).Pluck("id", &childIDs).Error
		if err != nil {
			return fmt.Errorf("collect %s: %w", c.Model, err)
		}
		if len(childIDs) == 0 {
			continue
		}
		if err := s.deleteTree(tx, child, childIDs); err != nil {
			return err
		}
	}
	if err := tx.Where("id IN ?", ids).Delete(m.New()).Error; err != nil {
		return fmt.Errorf("delete %s: %w", m.Name, err)
	}
	return nil
}

// RunAction applies a bulk action to the selected ids and reports how many
// rows it changed.
func (s *Site) RunAction(ctx context.Context, name, action string, ids []uint) (int64, error) {
	m, err := s.model(name)
	if err != nil {
		return 0, err
	}
	a, ok := m.action(action)
	if !ok {
		return 0, forms.FieldError("action", "Select a valid choice.")
	}
	if len(ids) == 0 {
		return 0, forms.FieldError(forms.NonFieldErrors, "Items must be selected in order to perform actions on them. No items have been changed.")
	}

	var n int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var runErr error
		n, runErr = a.Run(tx, ids)
		return runErr
	})
	if err != nil {
		return 0, fmt.Errorf("admin action %s on %s: %w", action, name, err)
	}
	s.log.Info("action applied", "model", name, "action", action, "rows", n)
	return n, nil
}

func exists(tx *gorm.DB, m *ModelAdmin, id uint) error {
	var n int64
	if err := tx.Model(m.New()).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", m.Name, id, services.ErrNotFound)
	}
	return nil
}

// ordered sorts by "name" / "-name" field names, quoting each column.
func ordered(fields []string) func(*gorm.DB) *gorm.DB {
	if len(fields) == 0 {
		fields = []string{"id"}
	}
	return func(db *gorm.DB) *gorm.DB {
		for _, f := range fields {
			desc := strings.HasPrefix(f, "-")
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: strings.TrimPrefix(f, "-")}, Desc: desc})
		}
		return db
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
