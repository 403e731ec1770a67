package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version information, normally set via ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "none"
)

func getVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func getGitCommit() string {
	if GitCommit != "none" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 7 {
					return setting.Value[:7]
				}
				return setting.Value
			}
		}
	}
	return "none"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rre version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rre %s\n", getVersion())
		fmt.Printf("Git commit: %s\n", getGitCommit())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
