// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/pdukit/internal/config"
	"firestige.xyz/pdukit/internal/log"
	"firestige.xyz/pdukit/internal/metrics"
)

var (
	// Global flags
	configFile string
	logLevel   string

	cfg           *config.GlobalConfig
	metricsServer *metrics.Server
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pdukit",
	Short: "pdukit - packet capture dissection toolkit",
	Long: `pdukit reads link-layer frames from capture files or live interfaces,
dissects them into protocol data units and dumps or re-encodes them.

Capture files may be classic pcap or pcap-ng, optionally compressed with
gzip, zstd or lz4.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metricsServer != nil {
			return metricsServer.Stop(context.Background())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// SIGINT and SIGTERM cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults only when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override log.level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(listDevsCmd)
	rootCmd.AddCommand(pktDumpCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(ouiCmd)
}

// setup loads configuration, then starts logging and metrics.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
		if err := c.ValidateAndApplyDefaults(); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	if err := log.Init(c.Log); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	cfg = c

	if c.Metrics.Enabled {
		metricsServer = metrics.NewServer(c.Metrics.Listen, c.Metrics.Path)
		if err := metricsServer.Start(cmd.Context()); err != nil {
			return err
		}
	}
	return nil
}
