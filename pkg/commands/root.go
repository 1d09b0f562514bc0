// Package commands provides CLI command implementations.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"AnomalyForge/pkg/config"
	"AnomalyForge/pkg/logging"
)

var (
	// Cfg is the shared configuration instance.
	Cfg = config.New()

	configPath string
	logger     = zap.NewNop()
)

// NewRootCmd creates the root command with all subcommands.
func NewRootCmd() *cobra.Command {
	Cfg = config.New()
	configPath = ""

	root := &cobra.Command{
		Use:   "anomalyforge",
		Short: "Labeled anomaly dataset generator for host telemetry",
		Long: `AnomalyForge samples windows from a baseline corpus of host telemetry,
injects one of ten labeled anomaly patterns and stores the flattened windows
as training or test datasets.

Commands:
  generate   Build a dataset (training, normal, windows or test mode)
  inject     Inject one window and print the labeled record
  preview    Render before/after charts of one injected window
  collect    Sample the live host into the corpus store
  classes    List anomaly classes`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	Cfg.AddObservabilityFlags(root)

	root.AddCommand(
		NewGenerateCmd(),
		NewInjectCmd(),
		NewPreviewCmd(),
		NewCollectCmd(),
		NewClassesCmd(),
	)

	return root
}

// setup merges the config file under the command line and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if err := Cfg.ApplyFile(configPath, flags); err != nil {
		return err
	}
	if flags.Changed("corpus-file") && !flags.Changed("corpus-source") {
		Cfg.Corpus.Source = config.StoreFile
	}
	if err := Cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logging.New(Cfg.Log)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
