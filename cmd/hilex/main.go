/*
hilex is a console utility to check grammar definitions and tokenize files with them.
Usage is

	hilex check <grammar>...
	hilex scan [-g <grammar>] [-j] [--max-depth <n>] [--max-idle-steps <n>] <file>...
	hilex dump [-g <grammar>]

<grammar> is either a grammar definition file parsable by langdef.ParseFile()
or a name of a built-in grammar: qmake or plain.

check loads every grammar and reports the number of contexts and rules.

scan prints one token per line: position, scopes, and quoted text, or a JSON array with -j flag.
Constructs left open at the end of file (e.g. unterminated strings) are reported as warnings.

dump prints the compiled grammar as JSON with all includes flattened.

Exit code is 1 if a grammar or a file cannot be processed, 2 for wrong command line arguments.
*/
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ava12/hilex/examples/qmake"
	"github.com/ava12/hilex/grammar"
	"github.com/ava12/hilex/langdef"
	"github.com/ava12/hilex/logging"
	"github.com/ava12/hilex/logging/logfields"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "hilex")

var builtinGrammars = map[string]func() (*grammar.Grammar, error){
	"qmake": qmake.Load,
	"plain": func() (*grammar.Grammar, error) {
		return grammar.PlainText(), nil
	},
}

var (
	logLevel    string
	grammarName string
)

var rootCmd = &cobra.Command{
	Use:   "hilex",
	Short: "Syntax highlighting grammar tool",
	Long:  "hilex - check grammar definitions, dump compiled grammars, and tokenize files",
	Args:  usageArgs(cobra.NoArgs),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.SetLogLevel(logLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "Log level (debug, info, warning, error)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, e error) error {
		return usageError{e}
	})
}

// usageError marks wrong command line arguments.
type usageError struct {
	error
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if e := check(cmd, args); e != nil {
			return usageError{e}
		}
		return nil
	}
}

func exitCode(e error) int {
	if errors.As(e, &usageError{}) {
		return 2
	}
	return 1
}

func addGrammarFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&grammarName, "grammar", "g", "qmake", "Grammar definition file or built-in grammar name")
}

func loadGrammar(name string) (*grammar.Grammar, error) {
	if load, has := builtinGrammars[name]; has {
		return load()
	}
	return langdef.ParseFile(name)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
