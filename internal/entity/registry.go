package entity

import (
	"fmt"
	"regexp"
)

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Registry holds entities in registration order.
type Registry struct {
	byName map[string]Entity
	order  []string
}

// NewRegistry registers each of entities in turn.
func NewRegistry(entities ...Entity) (*Registry, error) {
	r := &Registry{byName: make(map[string]Entity)}
	for _, e := range entities {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds e. Names must be lowercase URL-safe and unique; "login" and
// "entities" are taken by other routes.
func (r *Registry) Register(e Entity) error {
	if !validName.MatchString(e.Name) {
		return fmt.Errorf("invalid entity name %q", e.Name)
	}
	if e.Name == "login" || e.Name == "entities" {
		return fmt.Errorf("entity name %q is reserved", e.Name)
	}
	if _, ok := r.byName[e.Name]; ok {
		return fmt.Errorf("entity %q already registered", e.Name)
	}
	if e.Collection == "" {
		e.Collection = e.Name + ".json"
	}
	r.byName[e.Name] = e
	r.order = append(r.order, e.Name)
	return nil
}

// Lookup returns the entity registered under name.
func (r *Registry) Lookup(name string) (Entity, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// All returns every entity in registration order.
func (r *Registry) All() []Entity {
	out := make([]Entity, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns entity names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
