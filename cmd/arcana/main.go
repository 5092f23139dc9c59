// Command arcana is the CLI front end for the Arcana compiler: a cobra
// root command carrying the exsecutio subcommand, following the
// cobra.Command tree idiom the retrieval pack's interpreter/compiler
// CLIs (rami3l-golox, opal-lang-opal, Consensys-go-corset,
// playbymail-ottomap, terramate-io-terramate) all use in place of the
// teacher's flag.NewFlagSet dispatch.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "arcana",
		Short: "Arcana compiler: lex, parse, analyze, and emit .arkhe sources",
	}
	root.AddCommand(newExsecutioCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
