package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"codecoach/internal/analysis"
	"codecoach/internal/config"
	"codecoach/internal/feedback"
	"codecoach/internal/matcherexpr"
)

var watchTimeout time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <rules-file> <source-file>",
	Short: "Re-evaluate a source file whenever the rules file changes",
	Long: `watch is the authoring loop: it installs the rules file, evaluates the
source once, and re-validates + re-evaluates on every save of the rules
file. Invalid edits keep the last good rules active.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchTimeout, "analysis-timeout", 2*time.Second, "per-rule AST analysis timeout")
}

func runWatch(cmd *cobra.Command, args []string) error {
	rulesPath, sourcePath := args[0], args[1]

	eng := feedback.New(
		feedback.WithAnalyzer(analysis.NewPythonAnalyzer()),
		feedback.WithMatcherEvaluator(matcherexpr.NewYaegiEvaluator()),
		feedback.WithAnalysisTimeout(watchTimeout),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	evaluate := func() {
		code, err := os.ReadFile(sourcePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", sourcePath, err)
			return
		}
		records := eng.EvaluateOnEdit(ctx, string(code), sourcePath)
		fmt.Printf("--- %s (%d matches)\n", time.Now().Format("15:04:05"), len(records))
		printRecords(sourcePath, records)
	}

	watcher, err := config.NewRulesWatcher(rulesPath, eng, func(cfg *feedback.Config, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "rules rejected: %v\n", err)
			return
		}
		evaluate()
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	// Initial install + pass.
	watcher.Reload()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	return nil
}
