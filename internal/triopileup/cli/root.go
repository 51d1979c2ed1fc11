// Package cli wires the triopileup commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/seqforge/triopileup/pkg/config"
	"github.com/seqforge/triopileup/pkg/errors"
	"github.com/seqforge/triopileup/pkg/logger"
)

var (
	cfg        *config.Config
	configPath string
	logLevel   string
	log        *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "triopileup",
	Short: "Trio-aware pileup image generation for variant calling",
	Long: "triopileup turns candidate variant sites plus aligned reads from a child and " +
		"its parents into multi-channel pileup tensors, written as tf.Example records in " +
		"gzip TFRecord shards.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		log = logger.NewWithConfig(logger.Config{
			Level:  logger.ParseLevel(level),
			Format: cfg.Logging.Format,
		})
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error from Execute to the process exit status: 130 for an
// interrupted run, 2 for bad input or configuration, 1 for anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.IsCanceled(err):
		return 130
	case errors.IsValidation(err):
		return 2
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to configuration file (searches triopileup.yml if not specified)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override the configured log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(newMakeExamplesCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newVersionCmd())
}
