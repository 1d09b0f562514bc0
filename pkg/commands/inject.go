package commands

import (
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"AnomalyForge/pkg/building"
	"AnomalyForge/pkg/config"
	"AnomalyForge/pkg/injecting"
)

var (
	injectClass  string
	injectWindow int
	injectWhole  bool
	injectRows   bool
)

// addSingleFlags adds the flags shared by commands that inject one window.
func addSingleFlags(cmd *cobra.Command, class *string, window *int, whole *bool) {
	cmd.Flags().StringVarP(class, "class", "k", injecting.MemLeak.String(), "Class id or tag to inject")
	cmd.Flags().IntVarP(window, "window", "w", 0, "Window length (0 = default)")
	cmd.Flags().BoolVar(whole, "whole", false, "Inject every position instead of one random focus")
}

// NewInjectCmd creates the inject subcommand.
func NewInjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inject",
		Aliases: []string{"i"},
		Short:   "Inject one window and print the labeled record",
		Long: `Sample one window from the corpus, inject one class and print the
labeled record as JSON. Nothing is stored.

Example:
  anomalyforge inject -k DiskFull
  anomalyforge inject -k 6 --whole --rows --corpus-file corpus.jsonl`,
		RunE: runInject,
	}

	Cfg.AddMongoFlags(cmd)
	Cfg.AddCorpusFlags(cmd)
	addSingleFlags(cmd, &injectClass, &injectWindow, &injectWhole)
	cmd.Flags().BoolVar(&injectRows, "rows", false, "Print one tabular row per sample instead of the document")

	return cmd
}

func runInject(cmd *cobra.Command, args []string) error {
	class, err := injecting.ParseClass(injectClass)
	if err != nil {
		return err
	}

	s := newSession()
	defer s.Close()

	builder, err := singleBuilder(s)
	if err != nil {
		return err
	}
	sampled, err := builder.SampleOne(class, singleWindow(injectWindow, injectWhole), injectWhole)
	if err != nil {
		return err
	}
	logger.Debug("window injected", zap.String("class", class.String()), zap.Int("offset", sampled.Offset), zap.Ints("focus", sampled.Focus))

	rec := builder.Record(strconv.Itoa(sampled.Offset), sampled)
	if injectRows {
		return writeJSON(cmd.OutOrStdout(), rec.Tabular())
	}
	return writeJSON(cmd.OutOrStdout(), rec.Document())
}

// singleBuilder wires a builder with no dataset sink for one-off windows.
func singleBuilder(s *session) (*building.Builder, error) {
	rng := newRNG()
	sampler, err := s.loadSampler(rng)
	if err != nil {
		return nil, err
	}
	injector := injecting.NewInjector(rng,
		injecting.WithOptions(Cfg.InjectorOptions()),
		injecting.WithSkipHook(func(c injecting.Class, reason injecting.SkipReason) {
			logger.Info("injection skipped", zap.String("class", c.String()), zap.String("reason", string(reason)))
		}),
	)
	return building.New(sampler, injector, nil, rng,
		building.WithLogger(logger),
	), nil
}

func singleWindow(n int, whole bool) int {
	if n > 0 {
		return n
	}
	if whole {
		return config.DefaultWholeWindow
	}
	return config.DefaultWindow
}
