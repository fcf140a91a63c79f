package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <grammar>...",
	Short: "Load grammars and report errors",
	Args:  usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkGrammars(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkGrammars(w io.Writer, names []string) error {
	failed := 0
	for _, name := range names {
		g, e := loadGrammar(name)
		if e != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %s\n", name, e)
			continue
		}

		rules := 0
		for _, c := range g.Contexts() {
			rules += len(c.Rules)
		}
		fmt.Fprintf(w, "OK %s: %q %s, %d contexts, %d rules\n", name, g.Name, g.Scope, g.NumContexts(), rules)
	}

	if failed > 0 {
		return errors.Errorf("%d of %d grammars failed", failed, len(names))
	}
	return nil
}
