// Package cmd implements the servicewatch command-line interface: the
// audit subcommand checks cataloged service links, the discover subcommand
// hunts sitemaps for uncataloged services.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"servicewatch/config"
)

// Exit codes. Findings (broken or suspicious links) are distinct from
// operational failures so CI jobs can tell "the sites are sick" from "the
// check is sick".
const (
	exitClean    = 0
	exitFindings = 1
	exitFatal    = 2
)

// errFindings signals a completed audit that found failing links.
var errFindings = errors.New("audit found failing links")

var (
	cfgFile string
	jsonOut bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "servicewatch",
	Short:         "Link health and discovery for a government services catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "write the report to stdout as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-URL progress")

	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newDiscoverCmd())
}

// Execute runs the CLI and returns the process exit code. The run is
// cancelled cleanly on SIGINT/SIGTERM.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitClean
	case errors.Is(err, errFindings):
		return exitFindings
	default:
		fmt.Fprintf(os.Stderr, "servicewatch: %v\n", err)
		return exitFatal
	}
}

// loadConfig returns the defaults, overlaid with cfgFile when given.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

// newLogger builds a console logger on stderr, keeping stdout clean for
// report output.
func newLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}
