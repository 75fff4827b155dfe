package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Actual version can be specified in build command:
// go build -ldflags "-X github.com/spigell/uni-matcher/cmd.version=v1.0.0"
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s\n", app, resolveVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// resolveVersion falls back to the module version when nothing was set at build time.
func resolveVersion() string {
	if version != "unknown" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}
