package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diffscope",
		Short: "Commit-scoped test impact analysis",
		Long: `Diffscope determines which automated tests a commit impacts without
running the suite: it intersects the commit's changed line ranges with
test and helper declarations and propagates impact through helper usage,
so CI can select a relevant subset instead of running everything.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newAnalyzeCmd())
	return cmd
}
