package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"AnomalyForge/pkg/exporting"
	"AnomalyForge/pkg/graphing"
	"AnomalyForge/pkg/injecting"
)

var (
	previewClass  string
	previewWindow int
	previewWhole  bool
	previewOutput string
)

// NewPreviewCmd creates the preview subcommand.
func NewPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "preview",
		Aliases: []string{"pv"},
		Short:   "Render before/after charts of one injected window",
		Long: `Sample one window, inject one class and write an HTML page charting every
column the injection moved.

Example:
  anomalyforge preview -k NetDown --whole
  anomalyforge preview -k CPUStorm -o previews/cpustorm.html`,
		RunE: runPreview,
	}

	Cfg.AddMongoFlags(cmd)
	Cfg.AddCorpusFlags(cmd)
	addSingleFlags(cmd, &previewClass, &previewWindow, &previewWhole)
	cmd.Flags().StringVarP(&previewOutput, "output", "o", "", "HTML output file (default: auto-generated)")

	return cmd
}

func runPreview(cmd *cobra.Command, args []string) error {
	class, err := injecting.ParseClass(previewClass)
	if err != nil {
		return err
	}

	s := newSession()
	defer s.Close()

	builder, err := singleBuilder(s)
	if err != nil {
		return err
	}
	sampled, err := builder.SampleOne(class, singleWindow(previewWindow, previewWhole), previewWhole)
	if err != nil {
		return err
	}

	// both sides share one clock so timestamps line up
	anchor := time.Now()
	flat := exporting.NewFlattener(exporting.WithClock(func() time.Time { return anchor }))

	comparison := &graphing.Comparison{
		Title:  fmt.Sprintf("%s injection preview", class),
		Class:  class.String(),
		Offset: sampled.Offset,
		Focus:  sampled.Focus,
		Before: flat.Rows(sampled.Before),
		After:  flat.Rows(sampled.After),
	}

	path := previewOutput
	if path == "" {
		path = Cfg.GenerateOutputPath("preview-"+class.String(), ".html")
	}
	if err := graphing.WriteComparison(path, comparison); err != nil {
		return err
	}

	logger.Info("preview written",
		zap.String("path", path),
		zap.Int("changed_columns", len(comparison.Changes())),
	)
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
