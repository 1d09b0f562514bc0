package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"AnomalyForge/pkg/collecting"
	"AnomalyForge/pkg/config"
)

var collectConcurrent bool

// NewCollectCmd creates the collect subcommand.
func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collect",
		Aliases: []string{"c"},
		Short:   "Sample the live host into the corpus store",
		Long: `Take one telemetry sample every interval and append it to the corpus
store until --count samples were written or the command is interrupted.

Example:
  anomalyforge collect --interval 1s
  anomalyforge collect --sink file -o corpus.jsonl -n 600`,
		RunE: runCollect,
	}

	Cfg.AddMongoFlags(cmd)
	Cfg.AddCollectFlags(cmd)
	cmd.Flags().BoolVar(&collectConcurrent, "concurrent", true, "Run collectors concurrently")

	return cmd
}

func runCollect(cmd *cobra.Command, args []string) error {
	s := newSession()
	defer s.Close()

	sink, err := s.sampleSink()
	if err != nil {
		return err
	}

	manager := collecting.NewManager(
		collecting.WithConcurrent(collectConcurrent),
		collecting.WithLogger(logger),
	)
	defer manager.Close()

	target := Cfg.Collect.Collection
	if Cfg.Collect.Sink == config.StoreFile {
		target = Cfg.Collect.Path
	}
	logger.Info("starting collection",
		zap.Duration("interval", Cfg.Collect.Interval),
		zap.Int("count", Cfg.Collect.Count),
		zap.String("target", target),
		zap.Strings("collectors", manager.CollectorNames()),
	)

	start := time.Now()
	written, err := manager.Run(s.ctx, Cfg.Collect.Interval, Cfg.Collect.Count, sink, s.observer())
	closeErr := sink.Close(s.ctx)
	logger.Info("collection complete", zap.Int("samples", written), zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		return err
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close sample sink: %w", closeErr)
	}
	return nil
}
