package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kdo-portal/internal/config"
)

var (
	cfg    config.Config
	logger *zap.Logger
	debug  bool
)

var rootCmd = &cobra.Command{
	Use:           "portal",
	Short:         "KDO karting portal: web API, live timing and Telegram bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.FromEnv()
		if err != nil {
			return err
		}

		zc := zap.NewProductionConfig()
		if debug || cfg.Debug {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "D", false, "enable debug logging")
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(resetRaceCommand())
	rootCmd.AddCommand(exportCommand())
	rootCmd.AddCommand(seedCheckCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
