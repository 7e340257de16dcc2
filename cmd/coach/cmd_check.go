package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"codecoach/internal/analysis"
	"codecoach/internal/config"
	"codecoach/internal/feedback"
	"codecoach/internal/matcherexpr"
	"codecoach/internal/store"
)

var (
	checkStdoutFile string
	checkStderrFile string
	checkStdinFile  string
	checkHistory    string
	checkSession    string
	checkTimeout    time.Duration
)

var checkCmd = &cobra.Command{
	Use:   "check <rules-file> <source-file>...",
	Short: "Evaluate feedback rules against source files",
	Long: `check runs an edit-phase evaluation pass over each source file. When any
of --stdout-file, --stderr-file, or --stdin-file is set, a run-phase pass
follows using those captured streams.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkStdoutFile, "stdout-file", "", "captured stdout for a run-phase pass")
	checkCmd.Flags().StringVar(&checkStderrFile, "stderr-file", "", "captured stderr for a run-phase pass")
	checkCmd.Flags().StringVar(&checkStdinFile, "stdin-file", "", "captured stdin for a run-phase pass")
	checkCmd.Flags().StringVar(&checkHistory, "history", "", "record matches into this SQLite history database")
	checkCmd.Flags().StringVar(&checkSession, "session", "default", "session id for history records")
	checkCmd.Flags().DurationVar(&checkTimeout, "analysis-timeout", 2*time.Second, "per-rule AST analysis timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	rulesPath, sources := args[0], args[1:]

	raw, err := config.LoadRules(rulesPath)
	if err != nil {
		return err
	}
	if err := feedback.ValidateConfig(raw); err != nil {
		return err
	}

	eng := feedback.New(
		feedback.WithAnalyzer(analysis.NewPythonAnalyzer()),
		feedback.WithMatcherEvaluator(matcherexpr.NewYaegiEvaluator()),
		feedback.WithAnalysisTimeout(checkTimeout),
	)
	eng.ResetFeedback(raw)

	if checkHistory != "" {
		hist, err := store.OpenHistory(checkHistory)
		if err != nil {
			return err
		}
		defer hist.Close()
		hist.Attach(eng, checkSession)
	}

	ctx := cmd.Context()
	var mu sync.Mutex
	results := make(map[string][]feedback.Record)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			code, err := os.ReadFile(src)
			if err != nil {
				return err
			}
			records := eng.EvaluateOnEdit(gctx, string(code), src)
			mu.Lock()
			results[src] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	total := 0
	for _, src := range sortedKeys(results) {
		total += printRecords(src, results[src])
	}

	if checkStdoutFile != "" || checkStderrFile != "" || checkStdinFile != "" {
		outcome, err := loadRunOutcome(sources[0])
		if err != nil {
			return err
		}
		records := eng.EvaluateOnRun(ctx, outcome)
		total += printRecords("run", records)
	}

	if total == 0 {
		fmt.Println("no feedback")
	}
	return nil
}

func loadRunOutcome(filename string) (feedback.RunOutcome, error) {
	outcome := feedback.RunOutcome{Filename: filename}
	read := func(path string, into *string) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		*into = string(data)
		return nil
	}
	if err := read(checkStdoutFile, &outcome.Stdout); err != nil {
		return outcome, err
	}
	if err := read(checkStderrFile, &outcome.Stderr); err != nil {
		return outcome, err
	}
	if err := read(checkStdinFile, &outcome.Stdin); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func printRecords(label string, records []feedback.Record) int {
	if jsonOutput {
		out := struct {
			Source  string            `json:"source"`
			Matches []feedback.Record `json:"matches"`
		}{Source: label, Matches: records}
		data, err := json.MarshalIndent(out, "", "  ")
		if err == nil {
			fmt.Println(string(data))
		}
		return len(records)
	}
	for _, r := range records {
		caution := ""
		if r.NonBooleanMatcher {
			caution = " (non-boolean matcher)"
		}
		fmt.Printf("%s: [%s] %s: %s%s\n", label, r.Severity, r.RuleID, r.Message, caution)
	}
	return len(records)
}

func sortedKeys(m map[string][]feedback.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
