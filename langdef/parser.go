package langdef

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ava12/hilex/grammar"
	"github.com/ava12/hilex/logging"
	"github.com/ava12/hilex/logging/logfields"
	"github.com/ava12/hilex/source"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "langdef")

// header keys
const (
	nameKey           = "name"
	scopeKey          = "scope"
	fileExtensionsKey = "file_extensions"
	firstLineMatchKey = "first_line_match"
	variablesKey      = "variables"
	contextsKey       = "contexts"
)

// rule keys
const (
	matchKey                = "match"
	scopeRuleKey            = "scope"
	capturesKey             = "captures"
	pushKey                 = "push"
	setKey                  = "set"
	popKey                  = "pop"
	includeKey              = "include"
	metaScopeKey            = "meta_scope"
	metaContentScopeKey     = "meta_content_scope"
	metaIncludePrototypeKey = "meta_include_prototype"
)

// nodePos implements hilex.SourcePos for YAML nodes.
type nodePos struct {
	name string
	node *yaml.Node
}

func (p nodePos) SourceName() string {
	return p.name
}

func (p nodePos) Line() int {
	return p.node.Line
}

func (p nodePos) Col() int {
	return p.node.Column
}

type targetDef struct {
	name  string
	node  *yaml.Node
	index int
}

type ruleDef struct {
	node *yaml.Node

	// include rules have include.node set, all other fields are unused
	include targetDef

	match     string
	matchNode *yaml.Node
	scopes    []string
	captures  map[int][]string
	capNodes  map[int]*yaml.Node
	action    grammar.Action
	targets   []targetDef
	popCount  int

	rule *grammar.Rule
}

func (rd *ruleDef) IsInclude() bool {
	return rd.include.node != nil
}

type contextDef struct {
	name              string
	node              *yaml.Node
	index             int
	anonymous         bool
	metaScopes        []string
	metaContentScopes []string
	includePrototype  bool
	items             []*ruleDef
}

type parseContext struct {
	name           string
	grammarName    string
	scope          string
	fileExtensions []string
	firstLineMatch string
	vars           *variables
	contexts       []*contextDef
	index          map[string]int
}

// ParseString parses grammar definition and returns a grammar on success.
// Returns nil and *hilex.Error on error.
func ParseString(name, content string) (*grammar.Grammar, error) {
	return Parse(source.New(name, content))
}

// ParseBytes parses grammar definition and returns a grammar on success.
// Returns nil and *hilex.Error on error.
func ParseBytes(name string, content []byte) (*grammar.Grammar, error) {
	return Parse(source.NewBytes(name, content))
}

// ParseFile reads and parses grammar definition file.
// Returns nil and either a wrapped I/O error or *hilex.Error on error.
func ParseFile(fileName string) (*grammar.Grammar, error) {
	content, e := os.ReadFile(fileName)
	if e != nil {
		return nil, errors.Wrapf(e, "cannot read grammar %s", fileName)
	}

	return ParseBytes(fileName, content)
}

// Parse parses grammar definition and returns a grammar on success.
// Returns nil and *hilex.Error on error, partially loaded grammar is never returned.
func Parse(s *source.Source) (*grammar.Grammar, error) {
	c := newParseContext(s.Name())
	e := c.Parse(s)
	e = c.resolveTargets(e)
	e = c.compileRules(e)
	return c.buildGrammar(e)
}

func newParseContext(name string) *parseContext {
	return &parseContext{
		name:  name,
		vars:  newVariables(name),
		index: make(map[string]int),
	}
}

func (c *parseContext) pos(n *yaml.Node) nodePos {
	return nodePos{c.name, n}
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// isText reports whether n is a scalar other than null.
func isText(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() != "!!null"
}

func (c *parseContext) scalar(n *yaml.Node, what string) (string, error) {
	n = deref(n)
	if !isText(n) {
		return "", kindError(c.pos(n), what, "a string")
	}
	return n.Value, nil
}

func (c *parseContext) scopes(n *yaml.Node, what string) ([]string, error) {
	value, e := c.scalar(n, what)
	if e != nil {
		return nil, e
	}
	return strings.Fields(value), nil
}

func (c *parseContext) Parse(s *source.Source) error {
	var doc yaml.Node
	e := yaml.Unmarshal([]byte(s.Content()), &doc)
	if e != nil {
		return yamlError(c.name, e)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return emptyDocumentError(c.name)
		}
		root = deref(root.Content[0])
	}
	if root.Kind == 0 {
		return emptyDocumentError(c.name)
	}
	if root.Kind != yaml.MappingNode {
		return kindError(c.pos(root), "grammar definition", "a mapping")
	}

	var varsNode, contextsNode *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case nameKey:
			c.grammarName, e = c.scalar(value, nameKey)
		case scopeKey:
			c.scope, e = c.scalar(value, scopeKey)
		case firstLineMatchKey:
			c.firstLineMatch, e = c.scalar(value, firstLineMatchKey)
		case fileExtensionsKey:
			c.fileExtensions, e = c.stringList(value, fileExtensionsKey)
		case variablesKey:
			varsNode = deref(value)
		case contextsKey:
			contextsNode = deref(value)
		default:
			log.WithFields(logrus.Fields{
				logfields.Grammar: c.name,
				logfields.Key:     key.Value,
			}).Debug("Ignoring unsupported grammar key")
		}
		if e != nil {
			return e
		}
	}

	if varsNode != nil {
		e = c.parseVariables(varsNode)
		if e != nil {
			return e
		}
	}

	if contextsNode == nil {
		return missingMainError(c.name)
	}
	return c.parseContexts(contextsNode)
}

func (c *parseContext) stringList(n *yaml.Node, what string) ([]string, error) {
	n = deref(n)
	if n.Kind != yaml.SequenceNode {
		return nil, kindError(c.pos(n), what, "a list of strings")
	}

	result := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		s, e := c.scalar(item, what+" item")
		if e != nil {
			return nil, e
		}
		result = append(result, s)
	}
	return result, nil
}

func (c *parseContext) parseVariables(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return kindError(c.pos(n), variablesKey, "a mapping")
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], deref(n.Content[i+1])
		if !isText(value) {
			return kindError(c.pos(value), fmt.Sprintf("variable %q", key.Value), "a string")
		}
		if !c.vars.Add(key.Value, value) {
			return defVariableError(c.pos(key), key.Value)
		}
	}
	return nil
}

func (c *parseContext) parseContexts(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return kindError(c.pos(n), contextsKey, "a mapping")
	}

	// all names are registered first, so rules may refer to contexts defined later
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if _, has := c.index[key.Value]; has {
			return defContextError(c.pos(key), key.Value)
		}
		c.addContext(key.Value, key, false)
	}

	if _, has := c.index[grammar.MainContext]; !has {
		return missingMainError(c.name)
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		cd := c.contexts[c.index[n.Content[i].Value]]
		e := c.parseContextBody(cd, deref(n.Content[i+1]))
		if e != nil {
			return e
		}
	}
	return nil
}

func (c *parseContext) addContext(name string, node *yaml.Node, anonymous bool) *contextDef {
	cd := &contextDef{
		name:             name,
		node:             node,
		index:            len(c.contexts),
		anonymous:        anonymous,
		includePrototype: true,
	}
	c.contexts = append(c.contexts, cd)
	c.index[name] = cd.index
	return cd
}

func (c *parseContext) addAnonymousContext(parent string, node *yaml.Node) *contextDef {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s#%d", parent, i)
		if _, has := c.index[name]; !has {
			return c.addContext(name, node, true)
		}
	}
}

func (c *parseContext) parseContextBody(cd *contextDef, n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		return kindError(c.pos(n), fmt.Sprintf("context %q", cd.name), "a list of rules")
	}

	for _, item := range n.Content {
		item = deref(item)
		if item.Kind != yaml.MappingNode {
			return kindError(c.pos(item), "rule", "a mapping")
		}

		keys := make(map[string]*yaml.Node, len(item.Content)/2)
		for i := 0; i+1 < len(item.Content); i += 2 {
			keys[item.Content[i].Value] = deref(item.Content[i+1])
		}

		var e error
		switch {
		case keys[matchKey] != nil:
			e = c.parseMatchRule(cd, item, keys)
		case keys[includeKey] != nil:
			e = c.parseIncludeRule(cd, item, keys)
		default:
			e = c.parseMetaRule(cd, item, keys)
		}
		if e != nil {
			return e
		}
	}
	return nil
}

func (c *parseContext) checkKeys(item *yaml.Node, allowed ...string) error {
	for i := 0; i+1 < len(item.Content); i += 2 {
		key := item.Content[i]
		valid := false
		for _, a := range allowed {
			if key.Value == a {
				valid = true
				break
			}
		}
		if !valid {
			return wrongRuleError(c.pos(key), "unexpected key %q", key.Value)
		}
	}
	return nil
}

func (c *parseContext) parseMetaRule(cd *contextDef, item *yaml.Node, keys map[string]*yaml.Node) error {
	e := c.checkKeys(item, metaScopeKey, metaContentScopeKey, metaIncludePrototypeKey)
	if e != nil {
		return e
	}
	if len(keys) == 0 {
		return wrongRuleError(c.pos(item), "empty rule")
	}

	if n := keys[metaScopeKey]; n != nil {
		cd.metaScopes, e = c.scopes(n, metaScopeKey)
	}
	if n := keys[metaContentScopeKey]; n != nil && e == nil {
		cd.metaContentScopes, e = c.scopes(n, metaContentScopeKey)
	}
	if n := keys[metaIncludePrototypeKey]; n != nil && e == nil {
		switch n.Value {
		case "true":
			cd.includePrototype = true
		case "false":
			cd.includePrototype = false
		default:
			e = kindError(c.pos(n), metaIncludePrototypeKey, "a boolean")
		}
	}
	return e
}

func (c *parseContext) parseIncludeRule(cd *contextDef, item *yaml.Node, keys map[string]*yaml.Node) error {
	e := c.checkKeys(item, includeKey)
	if e != nil {
		return e
	}

	n := keys[includeKey]
	name, e := c.scalar(n, includeKey)
	if e != nil {
		return e
	}

	cd.items = append(cd.items, &ruleDef{
		node:    item,
		include: targetDef{name: name, node: n, index: -1},
	})
	return nil
}

func (c *parseContext) parseMatchRule(cd *contextDef, item *yaml.Node, keys map[string]*yaml.Node) error {
	e := c.checkKeys(item, matchKey, scopeRuleKey, capturesKey, pushKey, setKey, popKey)
	if e != nil {
		return e
	}

	rd := &ruleDef{node: item, matchNode: keys[matchKey]}
	rd.match, e = c.scalar(rd.matchNode, matchKey)
	if e != nil {
		return e
	}

	if n := keys[scopeRuleKey]; n != nil {
		rd.scopes, e = c.scopes(n, scopeRuleKey)
		if e != nil {
			return e
		}
	}

	if n := keys[capturesKey]; n != nil {
		e = c.parseCaptures(rd, n)
		if e != nil {
			return e
		}
	}

	actions := 0
	for _, key := range []string{pushKey, setKey, popKey} {
		if keys[key] != nil {
			actions++
		}
	}
	if actions > 1 {
		return wrongRuleError(c.pos(item), "rule must have at most one of push, set, pop")
	}

	switch {
	case keys[pushKey] != nil:
		rd.action = grammar.ActionPush
		rd.targets, e = c.parseTargets(cd, keys[pushKey])
	case keys[setKey] != nil:
		rd.action = grammar.ActionSet
		rd.targets, e = c.parseTargets(cd, keys[setKey])
	case keys[popKey] != nil:
		e = c.parsePop(rd, keys[popKey])
	}
	if e != nil {
		return e
	}

	cd.items = append(cd.items, rd)
	return nil
}

func (c *parseContext) parseCaptures(rd *ruleDef, n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return kindError(c.pos(n), capturesKey, "a mapping")
	}

	rd.captures = make(map[int][]string, len(n.Content)/2)
	rd.capNodes = make(map[int]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		group, e := strconv.Atoi(key.Value)
		if e != nil || group < 0 {
			return wrongRuleError(c.pos(key), "capture group must be a non-negative number, got %q", key.Value)
		}

		scopes, e := c.scopes(n.Content[i+1], capturesKey)
		if e != nil {
			return e
		}
		rd.captures[group] = scopes
		rd.capNodes[group] = key
	}
	return nil
}

func (c *parseContext) parsePop(rd *ruleDef, n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return kindError(c.pos(n), popKey, "a boolean or a positive number")
	}

	switch n.Value {
	case "true":
		rd.action = grammar.ActionPop
		rd.popCount = 1
	case "false":
	default:
		count, e := strconv.Atoi(n.Value)
		if e != nil || count <= 0 {
			return kindError(c.pos(n), popKey, "a boolean or a positive number")
		}
		rd.action = grammar.ActionPop
		rd.popCount = count
	}
	return nil
}

// parseTargets accepts a context name, an inline context body,
// or a list of context names and inline context bodies.
func (c *parseContext) parseTargets(cd *contextDef, n *yaml.Node) ([]targetDef, error) {
	switch {
	case isText(n):
		return []targetDef{{name: n.Value, node: n, index: -1}}, nil

	case n.Kind == yaml.SequenceNode:
		if len(n.Content) == 0 {
			return nil, wrongRuleError(c.pos(n), "empty context list")
		}

		if deref(n.Content[0]).Kind == yaml.MappingNode {
			anon, e := c.inlineContext(cd, n)
			if e != nil {
				return nil, e
			}
			return []targetDef{anon}, nil
		}

		result := make([]targetDef, 0, len(n.Content))
		for _, item := range n.Content {
			item = deref(item)
			switch {
			case isText(item):
				result = append(result, targetDef{name: item.Value, node: item, index: -1})
			case item.Kind == yaml.SequenceNode:
				anon, e := c.inlineContext(cd, item)
				if e != nil {
					return nil, e
				}
				result = append(result, anon)
			default:
				return nil, kindError(c.pos(item), "context reference", "a name or a list of rules")
			}
		}
		return result, nil

	default:
		return nil, kindError(c.pos(n), "context reference", "a name or a list of rules")
	}
}

func (c *parseContext) inlineContext(parent *contextDef, n *yaml.Node) (targetDef, error) {
	cd := c.addAnonymousContext(parent.name, n)
	e := c.parseContextBody(cd, n)
	return targetDef{name: cd.name, node: n, index: cd.index}, e
}
