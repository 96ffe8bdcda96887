package renderer

import (
	"reflect"
	"slices"
	"strings"
)

// Parameter is one named uniform value.
type Parameter struct {
	Name  string
	Value any
}

// ParameterPack holds uniform values keyed by name, sorted by name so that packs built in
// different orders compare equal.
type ParameterPack struct {
	params []Parameter
}

func (p *ParameterPack) search(name string) (int, bool) {
	return slices.BinarySearchFunc(p.params, name, func(e Parameter, n string) int {
		return strings.Compare(e.Name, n)
	})
}

// Set stores value under name, replacing any previous value.
//
// Parameters:
//   - name: the uniform name
//   - value: the uniform value
func (p *ParameterPack) Set(name string, value any) {
	i, found := p.search(name)
	if found {
		p.params[i].Value = value
		return
	}
	p.params = slices.Insert(p.params, i, Parameter{Name: name, Value: value})
}

// Get returns the value stored under name.
func (p ParameterPack) Get(name string) (any, bool) {
	i, found := p.search(name)
	if !found {
		return nil, false
	}
	return p.params[i].Value, true
}

func (p ParameterPack) Len() int { return len(p.params) }

// Parameters returns the entries in name order. The slice must not be modified.
func (p ParameterPack) Parameters() []Parameter { return p.params }

// Equal compares names and values. Values are compared with reflect.DeepEqual.
func (p ParameterPack) Equal(o ParameterPack) bool {
	if len(p.params) != len(o.params) {
		return false
	}
	for i := range p.params {
		if p.params[i].Name != o.params[i].Name || !reflect.DeepEqual(p.params[i].Value, o.params[i].Value) {
			return false
		}
	}
	return true
}
