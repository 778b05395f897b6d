package admin

import "fmt"

// Registry holds the model declarations in registration order.
type Registry struct {
	models []*ModelAdmin
	byName map[string]*ModelAdmin
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*ModelAdmin)}
}

// Register adds a model. Registering the same name twice is a programming
// error and panics.
func (r *Registry) Register(m *ModelAdmin) {
	if _, ok := r.byName[m.Name]; ok {
		panic(fmt.Sprintf("admin: model %q already registered", m.Name))
	}
	r.models = append(r.models, m)
	r.byName[m.Name] = m
}

func (r *Registry) Get(name string) (*ModelAdmin, bool) {
	m, ok := r.byName[name]
	return m, ok
}

func (r *Registry) Models() []*ModelAdmin {
	return r.models
}
