package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of wkg",
	Long:  `Print the version and build revision of wkg.`,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("wkg version %s\n", fullVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// fullVersion appends the VCS revision embedded by the Go toolchain, if
// available, so a `go install`-built binary still identifies its commit.
func fullVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			revision := setting.Value
			if len(revision) > 12 {
				revision = revision[:12]
			}
			return fmt.Sprintf("%s (%s)", version, revision)
		}
	}
	return version
}
