// Package command holds the static catalog of shell commands: their argument
// schema, authorization level and help text. Behavior is opaque to this
// package; the engine instantiates the registry with its own handler type.
package command

import (
	"errors"
	"fmt"
	"strings"
)

var ErrDuplicate = errors.New("duplicate command")

// Arg describes one positional argument.
type Arg struct {
	Name        string
	Type        string
	Description string
	Variadic    bool
}

// Descriptor is one catalog entry. H is the engine's behavior type.
type Descriptor[H any] struct {
	Name        string
	Args        []Arg
	Level       Level
	Description string
	Handler     H
}

// Usage renders the command followed by each argument in brackets.
func (d Descriptor[H]) Usage() string {
	var b strings.Builder
	b.WriteString(d.Name)
	for _, a := range d.Args {
		b.WriteString(" [")
		b.WriteString(a.Name)
		if a.Variadic {
			b.WriteString("...")
		}
		b.WriteString("]")
	}
	return b.String()
}

// Registry is an ordered, immutable set of descriptors.
type Registry[H any] struct {
	order  []string
	byName map[string]Descriptor[H]
}

// NewRegistry builds a registry. Names must be unique.
func NewRegistry[H any](descs ...Descriptor[H]) (*Registry[H], error) {
	r := &Registry[H]{byName: make(map[string]Descriptor[H], len(descs))}
	for _, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("command name cannot be empty")
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, d.Name)
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// Lookup finds a descriptor by exact name.
func (r *Registry[H]) Lookup(name string) (Descriptor[H], bool) {
	d, ok := r.byName[name]
	return d, ok
}

// All returns descriptors in catalog order.
func (r *Registry[H]) All() []Descriptor[H] {
	out := make([]Descriptor[H], len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name]
	}
	return out
}

// Names returns command names in catalog order.
func (r *Registry[H]) Names() []string {
	return append([]string(nil), r.order...)
}

// Len is the number of commands.
func (r *Registry[H]) Len() int { return len(r.order) }
