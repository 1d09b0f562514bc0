package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"AnomalyForge/pkg/building"
	"AnomalyForge/pkg/config"
	"AnomalyForge/pkg/injecting"
)

// NewGenerateCmd creates the generate subcommand.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"g"},
		Short:   "Build a labeled dataset from the baseline corpus",
		Long: `Sample windows from the baseline corpus, inject anomalies and store the
flattened windows.

Modes:
  training  --count windows per class, anomaly at one random position
  normal    --count windows with no anomaly and an empty label
  windows   --count windows per class, every position injected (default window 50)
  test      the whole corpus labeled Normal/Attack with one run per class

Example:
  anomalyforge generate --classes all --count 100
  anomalyforge generate -m test --sink file -f parquet -o out/
  anomalyforge generate --corpus-file corpus.jsonl --sink file -c MemLeak,DiskFull`,
		RunE: runGenerate,
	}

	Cfg.AddMongoFlags(cmd)
	Cfg.AddCorpusFlags(cmd)
	Cfg.AddGenerateFlags(cmd)
	Cfg.AddOutputFlags(cmd)

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	classes, err := injecting.ParseClasses(Cfg.Dataset.Classes)
	if err != nil {
		return err
	}

	s := newSession()
	defer s.Close()

	rng := newRNG()
	sampler, err := s.loadSampler(rng)
	if err != nil {
		return err
	}
	sink, err := s.datasetSink()
	if err != nil {
		return err
	}
	obs := s.observer()

	injector := injecting.NewInjector(rng,
		injecting.WithOptions(Cfg.InjectorOptions()),
		injecting.WithSkipHook(obs.Skipped),
	)
	builder := building.New(sampler, injector, sink, rng,
		building.WithLogger(logger),
		building.WithObserver(obs),
		building.WithPrefix(Cfg.Dataset.Prefix),
		building.WithCombined(Cfg.Dataset.Combined),
	)

	windowLen := Cfg.WindowLen()
	logger.Info("generating dataset",
		zap.String("mode", Cfg.Dataset.Mode),
		zap.String("batch", builder.Batch()),
		zap.Strings("classes", classTags(classes)),
		zap.Int("window", windowLen),
	)

	var report building.Report
	switch Cfg.Dataset.Mode {
	case config.ModeTraining:
		report, err = builder.BuildTraining(s.ctx, classes, Cfg.Dataset.Count, windowLen)
	case config.ModeNormal:
		report, err = builder.BuildNormal(s.ctx, Cfg.Dataset.Count, windowLen)
	case config.ModeWindows:
		report, err = builder.BuildWindows(s.ctx, classes, Cfg.Dataset.Count, windowLen)
	case config.ModeTest:
		report, err = builder.BuildTestSet(s.ctx, Cfg.Dataset.RunLength, classes...)
	default:
		err = fmt.Errorf("unknown mode: %s", Cfg.Dataset.Mode)
	}

	closeErr := sink.Close(s.ctx)
	if skips := injector.Skips(); len(skips) > 0 {
		logger.Info("injection skips", zap.Any("skips", skips))
	}
	if err != nil {
		logger.Error("generation stopped",
			zap.Strings("completed", report.CompletedTags()),
			zap.Error(err),
		)
		return err
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close dataset sink: %w", closeErr)
	}

	logger.Info("generation complete", zap.Strings("sets", report.Sets), zap.Int("rows", report.Rows))
	return writeJSON(cmd.OutOrStdout(), report)
}

func classTags(classes []injecting.Class) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = c.String()
	}
	return out
}
