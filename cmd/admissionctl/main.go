// cmd/admissionctl/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"admission-workers/internal/common/config"
	"admission-workers/internal/common/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	appCfg   *config.Config
	log      logger.Logger = logger.NewNoOpLogger()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "admissionctl",
		Short: "Admission office tooling for the selection engine",
		Long: `admissionctl runs the admission batch steps by hand, validates score
sheets offline and inspects the configured quota and results index.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(selectFirstPassCmd())
	root.AddCommand(selectSecondPassCmd())
	root.AddCommand(validateSheetCmd())
	root.AddCommand(importScoresCmd())
	root.AddCommand(quotaCmd())
	root.AddCommand(startProcessCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(resultsCmd())
	root.AddCommand(activitiesCmd())
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	var err error
	if cfgFile != "" {
		appCfg, err = config.LoadFromFile(cfgFile)
	} else {
		appCfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	format := appCfg.Logging.Format
	if format == "" {
		format = "console"
	}
	log = logger.NewStructured(logLevel, format)
	return nil
}
