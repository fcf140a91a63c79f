package langdef

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ava12/hilex/grammar"
	"github.com/ava12/hilex/logging/logfields"
	"github.com/ava12/hilex/pattern"
)

func (c *parseContext) resolveTarget(t *targetDef) error {
	if t.index >= 0 {
		return nil
	}

	name, e := c.vars.Interpolate(t.name, t.node)
	if e != nil {
		return e
	}

	index, has := c.index[name]
	if !has {
		return unknownContextError(c.pos(t.node), name)
	}

	t.name = name
	t.index = index
	return nil
}

// resolveTargets binds push, set, and include references to context indexes.
func (c *parseContext) resolveTargets(e error) error {
	if e != nil {
		return e
	}

	for _, cd := range c.contexts {
		for _, rd := range cd.items {
			if rd.IsInclude() {
				e = c.resolveTarget(&rd.include)
				if e != nil {
					return e
				}
				continue
			}

			for i := range rd.targets {
				e = c.resolveTarget(&rd.targets[i])
				if e != nil {
					return e
				}
			}
		}
	}
	return nil
}

func (c *parseContext) compileRules(e error) error {
	if e != nil {
		return e
	}

	for _, cd := range c.contexts {
		for _, rd := range cd.items {
			if rd.IsInclude() {
				continue
			}

			rd.rule, e = c.compileRule(cd, rd)
			if e != nil {
				return e
			}
		}
	}
	return nil
}

func (c *parseContext) compileRule(cd *contextDef, rd *ruleDef) (*grammar.Rule, error) {
	expr, e := c.vars.Interpolate(rd.match, rd.matchNode)
	if e != nil {
		return nil, e
	}

	p, e := pattern.Compile(expr)
	if e != nil {
		return nil, patternError(c.pos(rd.matchNode), e)
	}

	rule := &grammar.Rule{
		Pattern:  p,
		Scopes:   rd.scopes,
		Action:   rd.action,
		PopCount: rd.popCount,
		Origin:   cd.name,
	}

	if len(rd.captures) > 0 {
		rule.Captures = make([]grammar.Capture, 0, len(rd.captures))
		for group, scopes := range rd.captures {
			if group > p.NumGroups() {
				return nil, wrongRuleError(c.pos(rd.capNodes[group]), "capture group %d not found in pattern %q", group, expr)
			}
			if len(scopes) > 0 {
				rule.Captures = append(rule.Captures, grammar.Capture{Group: group, Scopes: scopes})
			}
		}
		sort.Slice(rule.Captures, func(i, j int) bool {
			return rule.Captures[i].Group < rule.Captures[j].Group
		})
	}

	if len(rd.targets) > 0 {
		rule.Targets = make([]int, len(rd.targets))
		for i, t := range rd.targets {
			rule.Targets[i] = t.index
		}
	}

	return rule, nil
}

// prototypeScope returns the set of contexts that must not get prototype rules:
// the prototype itself and everything it includes.
func (c *parseContext) prototypeScope(proto int) map[int]bool {
	result := map[int]bool{proto: true}
	queue := []int{proto}
	for len(queue) > 0 {
		cd := c.contexts[queue[0]]
		queue = queue[1:]
		for _, rd := range cd.items {
			if rd.IsInclude() && !result[rd.include.index] {
				result[rd.include.index] = true
				queue = append(queue, rd.include.index)
			}
		}
	}
	return result
}

// flatten returns effective rule list of a context with all includes spliced in declaration order.
// Every context is spliced at most once, so recursive includes converge.
func (c *parseContext) flatten(cd *contextDef, proto int, noProto map[int]bool) []*grammar.Rule {
	visited := map[int]bool{cd.index: true}
	seen := make(map[*grammar.Rule]bool)
	var rules []*grammar.Rule
	if proto >= 0 && cd.includePrototype && !noProto[cd.index] {
		visited[proto] = true
		rules = c.splice(c.contexts[proto], visited, seen, rules)
	}
	return c.splice(cd, visited, seen, rules)
}

func (c *parseContext) splice(cd *contextDef, visited map[int]bool, seen map[*grammar.Rule]bool, rules []*grammar.Rule) []*grammar.Rule {
	for _, rd := range cd.items {
		if rd.IsInclude() {
			if !visited[rd.include.index] {
				visited[rd.include.index] = true
				rules = c.splice(c.contexts[rd.include.index], visited, seen, rules)
			}
			continue
		}

		if !seen[rd.rule] {
			seen[rd.rule] = true
			rules = append(rules, rd.rule)
		}
	}
	return rules
}

func (c *parseContext) buildGrammar(e error) (*grammar.Grammar, error) {
	if e != nil {
		return nil, e
	}

	vars, e := c.vars.ResolveAll()
	if e != nil {
		return nil, e
	}

	proto := -1
	var noProto map[int]bool
	if i, has := c.index[grammar.PrototypeContext]; has {
		proto = i
		noProto = c.prototypeScope(proto)
	}

	contexts := make([]*grammar.Context, len(c.contexts))
	totalRules := 0
	for i, cd := range c.contexts {
		contexts[i] = &grammar.Context{
			Name:              cd.name,
			Index:             i,
			Anonymous:         cd.anonymous,
			MetaScopes:        cd.metaScopes,
			MetaContentScopes: cd.metaContentScopes,
			Rules:             c.flatten(cd, proto, noProto),
		}
		totalRules += len(contexts[i].Rules)
	}

	g := grammar.New(c.grammarName, c.scope, c.fileExtensions, vars, contexts)
	if g == nil {
		return nil, missingMainError(c.name)
	}
	g.FirstLineMatch = c.firstLineMatch

	log.WithFields(logrus.Fields{
		logfields.Grammar:  c.name,
		logfields.Scope:    c.scope,
		logfields.Contexts: len(contexts),
		logfields.Rules:    totalRules,
	}).Debug("Grammar loaded")

	return g, nil
}
