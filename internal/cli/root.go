// Package cli implements the rre command-line front end: a thin
// cobra/viper wrapper over the engine package with no retrieval logic
// of its own, grounded on the teacher's internal/cli root command
// structure.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose bool

// rootCmd is the base command when rre is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "rre",
	Short: "rre - a hybrid code retrieval engine",
	Long: `rre indexes a repository's source and documentation and serves
hybrid (lexical + semantic) retrieval queries over it, either as a
one-shot CLI command or as an MCP stdio server for coding assistants.`,
}

// Execute adds all child commands to the root command and runs it.
// Called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// workingRoot resolves the repository root the engine should index:
// the current working directory, since rre has no project-config
// discovery of its own beyond .rre/config.yml relative to it.
func workingRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}
