// linotype runs the topic-to-article pipeline: discover candidate
// topics, pick one by weighted voter consensus, research, write, lay
// out and render the chart, then push the result through the editorial
// and visual quality gates before publishing.
//
// Usage:
//
//	linotype run [--count=<n>] [--roster=<path>] [--out=<dir>]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "linotype",
	Short: "Quality-gated topic-to-article pipeline",
	Long:  "Linotype turns a discovered topic into a published article with a\nchart, holding every run to editorial and visual quality gates.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
