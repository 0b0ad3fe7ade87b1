package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pyro",
		Short: "Reactive state runtime tooling",
		Long: `Pyro is a reactive state-management runtime for Go.

Declare model schemas with typed atoms, computed values, reactions and
effects; register instances under stable keys; and bind their state to
external objects with a compact grammar. This CLI hosts the state
inspector over a registry of models.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		inspectCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}
