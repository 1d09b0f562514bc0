package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// AddMongoFlags adds document store connection flags to a command.
func (c *Config) AddMongoFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&c.Mongo.URI, "mongo-uri", c.Mongo.URI, "MongoDB connection URI")
	flags.StringVar(&c.Mongo.Database, "database", c.Mongo.Database, "MongoDB database")
}

// AddCorpusFlags adds baseline corpus flags to a command.
func (c *Config) AddCorpusFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&c.Corpus.Source, "corpus-source", c.Corpus.Source, "Corpus store (mongo, file)")
	flags.StringVar(&c.Corpus.Collection, "corpus", c.Corpus.Collection, "Corpus collection")
	flags.StringVar(&c.Corpus.Path, "corpus-file", c.Corpus.Path, "Corpus JSONL file (implies --corpus-source=file)")
	flags.IntVar(&c.Corpus.Limit, "corpus-limit", c.Corpus.Limit, "Maximum corpus samples to load (0 = all)")
	flags.Uint64Var(&c.Seed, "seed", c.Seed, "Random seed (0 = time-seeded)")
}

// AddGenerateFlags adds dataset generation flags to a command.
func (c *Config) AddGenerateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&c.Dataset.Mode, "mode", "m", c.Dataset.Mode, "Generation mode (training, normal, windows, test)")
	flags.StringVarP(&c.Dataset.Classes, "classes", "c", c.Dataset.Classes, "Comma-separated class ids or tags, or all")
	flags.IntVarP(&c.Dataset.Count, "count", "n", c.Dataset.Count, "Windows per class")
	flags.IntVarP(&c.Dataset.Window, "window", "w", c.Dataset.Window, "Window length (0 = mode default)")
	flags.IntVar(&c.Dataset.RunLength, "run-length", c.Dataset.RunLength, "Attack run length in test mode")
}

// AddOutputFlags adds dataset output flags to a command.
func (c *Config) AddOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&c.Dataset.Sink, "sink", c.Dataset.Sink, "Dataset store (mongo, file)")
	flags.StringVar(&c.Dataset.Prefix, "prefix", c.Dataset.Prefix, "Set name prefix")
	flags.BoolVar(&c.Dataset.Combined, "combined", c.Dataset.Combined, "Write all classes into one set")
	flags.BoolVar(&c.Dataset.Replace, "replace", c.Dataset.Replace, "Empty mongo sets before writing")
	flags.StringVarP(&c.Dataset.OutputDir, "output-dir", "o", c.Dataset.OutputDir, "Output directory")
	flags.StringVarP(&c.Dataset.Format, "format", "f", c.Dataset.Format, "Output format (parquet, jsonl, csv, tsv)")
	flags.BoolVar(&c.Dataset.Documents, "documents", c.Dataset.Documents, "Write one document per window (jsonl only)")
}

// AddCollectFlags adds live collection flags to a command.
func (c *Config) AddCollectFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.DurationVarP(&c.Collect.Interval, "interval", "i", c.Collect.Interval, "Sampling interval")
	flags.IntVarP(&c.Collect.Count, "count", "n", c.Collect.Count, "Samples to take (0 = until interrupted)")
	flags.StringVar(&c.Collect.Sink, "sink", c.Collect.Sink, "Sample store (mongo, file)")
	flags.StringVar(&c.Collect.Collection, "collection", c.Collect.Collection, "Target collection")
	flags.StringVarP(&c.Collect.Path, "output", "o", c.Collect.Path, "Target JSONL file")
}

// AddObservabilityFlags adds logging and metrics flags to a command.
func (c *Config) AddObservabilityFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&c.Log.Level, "log-level", c.Log.Level, "Log level (debug, info, warn, error)")
	flags.StringVar(&c.Log.File, "log-file", c.Log.File, "Rotating JSON log file (stderr console if empty)")
	flags.StringVar(&c.Metrics.Addr, "metrics-addr", c.Metrics.Addr, "Serve Prometheus metrics on this address")
}

// ApplyFile loads path over c, then re-applies every flag the user set so the
// command line wins over the file.
func (c *Config) ApplyFile(path string, flags *pflag.FlagSet) error {
	if path == "" {
		return nil
	}
	loaded, err := Load(path)
	if err != nil {
		return err
	}

	changed := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	*c = *loaded
	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("failed to re-apply flag --%s: %w", name, err)
		}
	}
	return nil
}
