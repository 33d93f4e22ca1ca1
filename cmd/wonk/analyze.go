package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/wonk/config"
	"github.com/mohammad-safakhou/wonk/internal/pipeline"
	"github.com/mohammad-safakhou/wonk/internal/telemetry"
)

func analyzeCMD() *cobra.Command {
	var cfgPath string
	var topic string
	var output string
	var analyze = &cobra.Command{
		Use:   "analyze",
		Short: "Run the four-agent analysis once and write a markdown report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			if err := cfg.ValidateCredentials(); err != nil {
				return fmt.Errorf("missing API credentials: %w", err)
			}
			if topic == "" {
				topic = cfg.General.DefaultTopic
			}

			tele := telemetry.NewTelemetry(cfg.Telemetry)
			ctrl, err := pipeline.NewDefaultController(cfg, tele)
			if err != nil {
				return err
			}

			run, err := ctrl.Run(cmd.Context(), topic)
			if err != nil {
				return err
			}
			report, err := pipeline.Assemble(run)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, []byte(report.Markdown()), 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Printf("report written to %s\n", output)
			return nil
		},
	}
	analyze.Flags().StringVarP(&topic, "topic", "t", "", "policy topic (defaults to general.default_topic)")
	analyze.Flags().StringVarP(&output, "output", "o", "policy_report.md", "output file")
	analyze.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return analyze
}
