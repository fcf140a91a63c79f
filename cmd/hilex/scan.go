package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ava12/hilex/grammar"
	"github.com/ava12/hilex/lexer"
	"github.com/ava12/hilex/logging/logfields"
	"github.com/ava12/hilex/source"
)

var (
	jsonOutput bool
	scanConfig = lexer.DefaultConfig()
)

var scanCmd = &cobra.Command{
	Use:   "scan <file>...",
	Short: "Tokenize files and print scoped tokens",
	Args:  usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, e := loadGrammar(grammarName)
		if e != nil {
			return e
		}

		for _, name := range args {
			content, e := os.ReadFile(name)
			if e != nil {
				return errors.Wrapf(e, "cannot read %s", name)
			}

			e = scanSource(cmd.OutOrStdout(), g, source.NewBytes(name, content), scanConfig, jsonOutput)
			if e != nil {
				return e
			}
		}
		return nil
	},
}

func init() {
	addGrammarFlag(scanCmd)
	scanCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output JSON instead of text")
	addConfigFlags(scanCmd.Flags(), &scanConfig)
	rootCmd.AddCommand(scanCmd)
}

func addConfigFlags(fs *pflag.FlagSet, c *lexer.Config) {
	fs.IntVar(&c.MaxDepth, "max-depth", lexer.DefaultMaxDepth, "Maximum context stack depth")
	fs.IntVar(&c.MaxIdleSteps, "max-idle-steps", lexer.DefaultMaxIdleSteps, "Maximum number of steps not consuming text")
}

type scannedToken struct {
	Line   int      `json:"line"`
	Start  int      `json:"start"`
	End    int      `json:"end"`
	Text   string   `json:"text"`
	Scopes []string `json:"scopes"`
}

// scanSource tokenizes s, token columns are 1-based and counted in runes.
func scanSource(w io.Writer, g *grammar.Grammar, s *source.Source, c lexer.Config, asJSON bool) error {
	session := lexer.NewSessionConfig(g, c)
	defer session.Close()

	tokens, e := session.ScanSource(s)
	if e != nil {
		return e
	}

	var result []scannedToken
	for _, t := range tokens {
		text := t.Text(s.Content())
		pos := source.NewPos(s, t.Start)
		result = append(result, scannedToken{pos.Line(), pos.Col(), pos.Col() + utf8.RuneCountInString(text), text, t.Scopes})
	}

	if session.Depth() > 1 {
		log.WithFields(logrus.Fields{
			logfields.Grammar:  g.Name,
			logfields.Depth:    session.Depth(),
			logfields.Contexts: session.Stack()[1:],
		}).Warnf("Unterminated constructs at end of %s", s.Name())
	}

	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if result == nil {
			result = []scannedToken{}
		}
		return encoder.Encode(result)
	}

	for _, t := range result {
		_, e := fmt.Fprintf(w, "%d:%d-%d\t%s\t%q\n", t.Line, t.Start, t.End, lexer.Token{Scopes: t.Scopes}.Scope(), t.Text)
		if e != nil {
			return e
		}
	}
	return nil
}
