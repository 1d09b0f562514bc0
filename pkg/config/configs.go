// Package config provides configuration management for the dataset generator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"AnomalyForge/pkg/exporting"
	"AnomalyForge/pkg/injecting"
	"AnomalyForge/pkg/logging"
)

// Config holds all generator configuration options.
type Config struct {
	Mongo     MongoConfig     `yaml:"mongo"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Injection InjectionConfig `yaml:"injection"`
	Collect   CollectConfig   `yaml:"collect"`
	Log       logging.Config  `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// Seed drives every random choice; 0 seeds from the clock.
	Seed uint64 `yaml:"seed"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// CorpusConfig locates the baseline samples.
type CorpusConfig struct {
	Source     string `yaml:"source"` // mongo or file
	Collection string `yaml:"collection"`
	Path       string `yaml:"path"`
	Limit      int    `yaml:"limit"`
}

// DatasetConfig controls what is generated and where it goes.
type DatasetConfig struct {
	Mode      string `yaml:"mode"`
	Classes   string `yaml:"classes"`
	Count     int    `yaml:"count"`
	Window    int    `yaml:"window"`
	RunLength int    `yaml:"run_length"`

	Sink      string `yaml:"sink"` // mongo or file
	Prefix    string `yaml:"prefix"`
	Combined  bool   `yaml:"combined"`
	Replace   bool   `yaml:"replace"`
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"`
	Documents bool   `yaml:"documents"`
}

// InjectionConfig overrides the stochastic branches of the injectors.
// Unset fields keep the built-in probabilities.
type InjectionConfig struct {
	NetStallProbability      *float64 `yaml:"net_stall_probability"`
	NetJitterProbability     *float64 `yaml:"net_jitter_probability"`
	DiskIOJitterProbability  *float64 `yaml:"disk_io_jitter_probability"`
	AnomalousProcessFraction *float64 `yaml:"anomalous_process_fraction"`
	OpticalMarkers           []string `yaml:"optical_markers"`
}

// CollectConfig controls live sampling into the corpus store.
type CollectConfig struct {
	Interval   time.Duration `yaml:"interval"`
	Count      int           `yaml:"count"`
	Sink       string        `yaml:"sink"`
	Collection string        `yaml:"collection"`
	Path       string        `yaml:"path"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Generation modes.
const (
	ModeTraining = "training"
	ModeNormal   = "normal"
	ModeWindows  = "windows"
	ModeTest     = "test"
)

// Store kinds.
const (
	StoreMongo = "mongo"
	StoreFile  = "file"
)

// Default configuration values.
const (
	DefaultMongoURI         = "mongodb://localhost:27017/"
	DefaultDatabase         = "testdb"
	DefaultCorpusCollection = "stamp_t_normal"
	DefaultCorpusLimit      = 6000
	DefaultCount            = 100
	DefaultWindow           = 12
	DefaultWholeWindow      = 50
	DefaultRunLength        = 30
	DefaultPrefix           = "stamp"
	DefaultOutputDir        = "."
	DefaultFormat           = "jsonl"
	DefaultInterval         = time.Second
	DefaultCollectPath      = "corpus.jsonl"
)

// New creates a Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mongo.URI == "" {
		c.Mongo.URI = DefaultMongoURI
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = DefaultDatabase
	}
	if c.Corpus.Source == "" {
		c.Corpus.Source = StoreMongo
	}
	if c.Corpus.Collection == "" {
		c.Corpus.Collection = DefaultCorpusCollection
	}
	if c.Corpus.Limit == 0 {
		c.Corpus.Limit = DefaultCorpusLimit
	}
	if c.Dataset.Mode == "" {
		c.Dataset.Mode = ModeTraining
	}
	if c.Dataset.Classes == "" {
		c.Dataset.Classes = "all"
	}
	if c.Dataset.Count == 0 {
		c.Dataset.Count = DefaultCount
	}
	if c.Dataset.RunLength == 0 {
		c.Dataset.RunLength = DefaultRunLength
	}
	if c.Dataset.Sink == "" {
		c.Dataset.Sink = StoreMongo
	}
	if c.Dataset.Prefix == "" {
		c.Dataset.Prefix = DefaultPrefix
	}
	if c.Dataset.OutputDir == "" {
		c.Dataset.OutputDir = DefaultOutputDir
	}
	if c.Dataset.Format == "" {
		c.Dataset.Format = DefaultFormat
	}
	if c.Collect.Interval == 0 {
		c.Collect.Interval = DefaultInterval
	}
	if c.Collect.Sink == "" {
		c.Collect.Sink = StoreMongo
	}
	if c.Collect.Collection == "" {
		c.Collect.Collection = c.Corpus.Collection
	}
	if c.Collect.Path == "" {
		c.Collect.Path = DefaultCollectPath
	}
}

// WindowLen returns the configured window length, or the mode's default.
func (c *Config) WindowLen() int {
	if c.Dataset.Window > 0 {
		return c.Dataset.Window
	}
	if c.Dataset.Mode == ModeWindows {
		return DefaultWholeWindow
	}
	return DefaultWindow
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !slices.Contains(ValidModes(), c.Dataset.Mode) {
		return fmt.Errorf("invalid mode: %s (valid: %v)", c.Dataset.Mode, ValidModes())
	}
	if _, err := injecting.ParseClasses(c.Dataset.Classes); err != nil {
		return fmt.Errorf("invalid classes: %w", err)
	}
	if c.Dataset.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", c.Dataset.Count)
	}
	if c.Dataset.Window < 0 {
		return fmt.Errorf("window cannot be negative, got %d", c.Dataset.Window)
	}
	if c.Dataset.RunLength < 1 {
		return fmt.Errorf("run length must be at least 1, got %d", c.Dataset.RunLength)
	}
	if c.Corpus.Limit < 0 {
		return fmt.Errorf("corpus limit cannot be negative, got %d", c.Corpus.Limit)
	}

	for name, kind := range map[string]string{"corpus.source": c.Corpus.Source, "dataset.sink": c.Dataset.Sink, "collect.sink": c.Collect.Sink} {
		if kind != StoreMongo && kind != StoreFile {
			return fmt.Errorf("invalid %s: %s (valid: mongo, file)", name, kind)
		}
	}
	if c.Corpus.Source == StoreFile && c.Corpus.Path == "" {
		return fmt.Errorf("corpus.path is required when corpus.source is file")
	}

	if !isValidOutputFormat(c.Dataset.Format) {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.Dataset.Format, ValidOutputFormats())
	}
	if c.Dataset.Documents && exporting.GetExtension(c.Dataset.Format) != ".jsonl" {
		return fmt.Errorf("documents output requires jsonl, got %s", c.Dataset.Format)
	}
	if c.Dataset.Sink == StoreFile && c.Dataset.OutputDir != "" {
		if info, err := os.Stat(c.Dataset.OutputDir); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("cannot access output directory: %w", err)
			}
		} else if !info.IsDir() {
			return fmt.Errorf("output path is not a directory: %s", c.Dataset.OutputDir)
		}
	}

	for name, p := range map[string]*float64{
		"net_stall_probability":      c.Injection.NetStallProbability,
		"net_jitter_probability":     c.Injection.NetJitterProbability,
		"disk_io_jitter_probability": c.Injection.DiskIOJitterProbability,
	} {
		if p != nil && (*p < 0 || *p > 1) {
			return fmt.Errorf("injection.%s must be within [0,1], got %v", name, *p)
		}
	}
	if f := c.Injection.AnomalousProcessFraction; f != nil && (*f <= 0 || *f > 1) {
		return fmt.Errorf("injection.anomalous_process_fraction must be within (0,1], got %v", *f)
	}

	if c.Collect.Interval < 10*time.Millisecond {
		return fmt.Errorf("collect interval must be at least 10ms, got %v", c.Collect.Interval)
	}
	if c.Collect.Count < 0 {
		return fmt.Errorf("collect count cannot be negative, got %d", c.Collect.Count)
	}
	return nil
}

// ValidModes returns the generation modes.
func ValidModes() []string {
	return []string{ModeTraining, ModeNormal, ModeWindows, ModeTest}
}

// ValidOutputFormats returns the list of supported output formats.
func ValidOutputFormats() []string {
	return []string{"parquet", "jsonl", "csv", "tsv"}
}

func isValidOutputFormat(format string) bool {
	return slices.Contains(ValidOutputFormats(), format)
}

// InjectorOptions merges the configured overrides over the built-in defaults.
func (c *Config) InjectorOptions() injecting.Options {
	o := injecting.DefaultOptions()
	if p := c.Injection.NetStallProbability; p != nil {
		o.NetStallProbability = *p
	}
	if p := c.Injection.NetJitterProbability; p != nil {
		o.NetJitterProbability = *p
	}
	if p := c.Injection.DiskIOJitterProbability; p != nil {
		o.DiskIOJitterProbability = *p
	}
	if f := c.Injection.AnomalousProcessFraction; f != nil {
		o.AnomalousProcessFraction = *f
	}
	if len(c.Injection.OpticalMarkers) > 0 {
		o.OpticalMarkers = c.Injection.OpticalMarkers
	}
	return o
}

// Seeds returns the two PCG seed words. A zero seed is replaced by the clock.
func (c *Config) Seeds() (uint64, uint64) {
	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return seed, seed ^ 0x9e3779b97f4a7c15
}

// GenerateOutputPath creates an auto-generated output path.
func (c *Config) GenerateOutputPath(prefix, ext string) string {
	timestamp := time.Now().Format("20060102-150405")
	return filepath.Join(c.Dataset.OutputDir, fmt.Sprintf("%s-%s%s", prefix, timestamp, ext))
}
