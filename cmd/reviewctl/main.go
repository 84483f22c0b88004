// Command reviewctl is the operator CLI: schema migration, gate threshold,
// catalog checks, submission queries and batch analysis.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/partner-review/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:               "reviewctl",
		Short:             "Operate the partner competency review service",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
	cfg *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(thresholdCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(submissionsCmd())
	rootCmd.AddCommand(processCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}
	c, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		c.Logging.Level = lvl
	}
	config.SetupLogger(c.LogLevel(), c.Logging.Format)
	cfg = c
	return nil
}
