package shell

import (
	"regexp"
	"strings"
)

// Environment is an insertion-ordered set of shell variables.
type Environment struct {
	keys   []string
	values map[string]string
}

// Var is one environment binding.
type Var struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NewEnvironment creates an environment seeded with vars, in order.
func NewEnvironment(vars ...Var) *Environment {
	e := &Environment{values: make(map[string]string)}
	for _, v := range vars {
		e.Set(v.Key, v.Value)
	}
	return e
}

// Set binds key, keeping its original position if it already exists.
func (e *Environment) Set(key, value string) {
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = value
}

// Get looks key up exactly.
func (e *Environment) Get(key string) (string, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Lookup matches key case-insensitively, preferring an exact match.
func (e *Environment) Lookup(key string) (string, bool) {
	if v, ok := e.values[key]; ok {
		return v, true
	}
	for _, k := range e.keys {
		if strings.EqualFold(k, key) {
			return e.values[k], true
		}
	}
	return "", false
}

// Vars returns every binding in insertion order.
func (e *Environment) Vars() []Var {
	out := make([]Var, len(e.keys))
	for i, k := range e.keys {
		out[i] = Var{Key: k, Value: e.values[k]}
	}
	return out
}

var varPattern = regexp.MustCompile(`\$(\w+)`)

// Expand substitutes $NAME tokens. Unknown names are left as written.
func (e *Environment) Expand(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		if v, ok := e.Lookup(match[1:]); ok {
			return v
		}
		return match
	})
}
