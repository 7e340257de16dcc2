package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codecoach/internal/config"
	"codecoach/internal/feedback"
)

var validateCmd = &cobra.Command{
	Use:   "validate <rules-file>",
	Short: "Check a rules file for structural problems",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := config.LoadRules(args[0])
		if err != nil {
			return err
		}
		if err := feedback.ValidateConfig(raw); err != nil {
			return err
		}
		cfg := feedback.NormalizeConfig(raw)
		fmt.Printf("%s: ok (%d rules)\n", args[0], len(cfg.Feedback))
		return nil
	},
}
