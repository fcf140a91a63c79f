package langdef

import (
	"regexp"

	"gopkg.in/yaml.v3"
)

var varRefRe = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

type variable struct {
	node     *yaml.Node
	value    string
	resolved bool
}

// variables resolves {{name}} references, values may refer to other variables.
type variables struct {
	source    string
	names     []string
	items     map[string]*variable
	resolving map[string]bool
}

func newVariables(source string) *variables {
	return &variables{
		source:    source,
		items:     make(map[string]*variable),
		resolving: make(map[string]bool),
	}
}

func (v *variables) pos(n *yaml.Node) nodePos {
	return nodePos{v.source, n}
}

func (v *variables) Add(name string, node *yaml.Node) bool {
	if _, has := v.items[name]; has {
		return false
	}

	v.names = append(v.names, name)
	v.items[name] = &variable{node: node, value: node.Value}
	return true
}

// ResolveAll resolves every defined variable, so cycles are detected even in unused ones.
func (v *variables) ResolveAll() (map[string]string, error) {
	result := make(map[string]string, len(v.names))
	for _, name := range v.names {
		value, e := v.resolve(name, v.items[name].node, nil)
		if e != nil {
			return nil, e
		}

		result[name] = value
	}
	return result, nil
}

func (v *variables) resolve(name string, at *yaml.Node, chain []string) (string, error) {
	item, has := v.items[name]
	if !has {
		return "", unresolvedVariableError(v.pos(at), name)
	}

	if item.resolved {
		return item.value, nil
	}

	chain = append(chain, name)
	if v.resolving[name] {
		return "", variableCycleError(v.pos(item.node), chain)
	}

	v.resolving[name] = true
	value, e := v.interpolate(item.value, item.node, chain)
	delete(v.resolving, name)
	if e != nil {
		return "", e
	}

	item.value = value
	item.resolved = true
	return value, nil
}

// Interpolate substitutes all variable references in text, at is used for error position.
func (v *variables) Interpolate(text string, at *yaml.Node) (string, error) {
	return v.interpolate(text, at, nil)
}

func (v *variables) interpolate(text string, at *yaml.Node, chain []string) (string, error) {
	var e error
	result := varRefRe.ReplaceAllStringFunc(text, func(ref string) string {
		if e != nil {
			return ""
		}

		var value string
		value, e = v.resolve(ref[2:len(ref)-2], at, chain)
		return value
	})
	if e != nil {
		return "", e
	}

	return result, nil
}
