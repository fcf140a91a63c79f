package main

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ava12/hilex/grammar"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print compiled grammar as JSON",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, e := loadGrammar(grammarName)
		if e != nil {
			return e
		}
		return dumpGrammar(cmd.OutOrStdout(), g)
	},
}

func init() {
	addGrammarFlag(dumpCmd)
	rootCmd.AddCommand(dumpCmd)
}

type jsonRule struct {
	Match    string              `json:"match"`
	Scopes   []string            `json:"scope,omitempty"`
	Captures map[string][]string `json:"captures,omitempty"`
	Action   string              `json:"action,omitempty"`
	Targets  []string            `json:"targets,omitempty"`
	Pop      int                 `json:"pop,omitempty"`
	Origin   string              `json:"origin"`
}

type jsonContext struct {
	Name              string     `json:"name"`
	Anonymous         bool       `json:"anonymous,omitempty"`
	MetaScopes        []string   `json:"meta_scope,omitempty"`
	MetaContentScopes []string   `json:"meta_content_scope,omitempty"`
	Rules             []jsonRule `json:"rules"`
}

type jsonGrammar struct {
	Name           string            `json:"name"`
	Scope          string            `json:"scope"`
	FileExtensions []string          `json:"file_extensions,omitempty"`
	FirstLineMatch string            `json:"first_line_match,omitempty"`
	Variables      map[string]string `json:"variables,omitempty"`
	Contexts       []jsonContext     `json:"contexts"`
}

func makeJSONRule(g *grammar.Grammar, r *grammar.Rule) jsonRule {
	jr := jsonRule{
		Match:  r.Pattern.String(),
		Scopes: r.Scopes,
		Origin: r.Origin,
	}
	if r.Action != grammar.ActionNone {
		jr.Action = r.Action.String()
	}
	if r.Action == grammar.ActionPop {
		jr.Pop = r.PopCount
	}

	if len(r.Captures) > 0 {
		jr.Captures = make(map[string][]string, len(r.Captures))
		for _, c := range r.Captures {
			jr.Captures[strconv.Itoa(c.Group)] = c.Scopes
		}
	}

	for _, t := range r.Targets {
		jr.Targets = append(jr.Targets, g.ContextAt(t).Name)
	}
	return jr
}

func dumpGrammar(w io.Writer, g *grammar.Grammar) error {
	jg := jsonGrammar{
		Name:           g.Name,
		Scope:          g.Scope,
		FileExtensions: g.FileExtensions,
		FirstLineMatch: g.FirstLineMatch,
		Variables:      g.Variables,
		Contexts:       make([]jsonContext, g.NumContexts()),
	}

	for i, c := range g.Contexts() {
		jc := jsonContext{
			Name:              c.Name,
			Anonymous:         c.Anonymous,
			MetaScopes:        c.MetaScopes,
			MetaContentScopes: c.MetaContentScopes,
			Rules:             make([]jsonRule, len(c.Rules)),
		}
		for j, r := range c.Rules {
			jc.Rules[j] = makeJSONRule(g, r)
		}
		jg.Contexts[i] = jc
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jg)
}
