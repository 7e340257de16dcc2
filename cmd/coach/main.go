// coach is the command-line front end for the codecoach feedback engine:
// validate rule files, run them against learner code, and watch a rules file
// during authoring.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codecoach/internal/logging"
)

var (
	debugMode  bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "Feedback rule engine for learner code",
	Long: `coach evaluates author-defined feedback rules against learner source
code and captured program output, the same engine the in-browser
education tool runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Init(debugMode)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
