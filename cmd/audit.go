package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"servicewatch/audit"
	"servicewatch/catalog"
	"servicewatch/probe"
	"servicewatch/report"
)

func newAuditCmd() *cobra.Command {
	var (
		catalogPath string
		csvPath     string
		concurrency int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:          "audit",
		Short:        "Probe every cataloged service link and classify its health",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Concurrency = concurrency
			}
			if cmd.Flags().Changed("timeout") {
				cfg.ProbeTimeoutMS = int(timeout.Milliseconds())
			}

			services, err := catalog.LoadFile(catalogPath)
			if err != nil {
				return err
			}

			soft404, err := cfg.Soft404()
			if err != nil {
				return err
			}

			log := newLogger()
			defer func() { _ = log.Sync() }()

			prober := probe.New(cfg.ProbeConfig(), soft404, log)
			pipeline := audit.New(prober, cfg.AuditConfig(verbose), log)

			rep, err := pipeline.Run(cmd.Context(), services)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if err := report.WriteAuditJSON(out, rep); err != nil {
					return err
				}
			} else {
				report.PrintAudit(out, rep)
			}

			if csvPath != "" {
				if err := writeCSVFile(csvPath, rep.Results); err != nil {
					return err
				}
			}

			if rep.Summary.HasFailures() {
				return errFindings
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "services.json", "path to the services catalog JSON")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write results to this CSV file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "probes per batch (overrides config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-probe timeout (overrides config)")
	return cmd
}

func writeCSVFile(path string, results []report.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	if err := report.WriteAuditCSV(f, results); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}
	return nil
}
