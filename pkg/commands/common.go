package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"AnomalyForge/pkg/config"
	"AnomalyForge/pkg/observing"
	"AnomalyForge/pkg/sampling"
	"AnomalyForge/pkg/storing"
)

// session holds resources shared by one command invocation. The mongo client
// is opened on first use and shared by every reader and sink.
type session struct {
	ctx  context.Context
	stop context.CancelFunc
	db   *mongo.Database
}

func newSession() *session {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &session{ctx: ctx, stop: stop}
}

func (s *session) database() (*mongo.Database, error) {
	if s.db != nil {
		return s.db, nil
	}
	db, err := storing.Connect(s.ctx, Cfg.Mongo.URI, Cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}
	logger.Debug("connected to mongo", zap.String("database", Cfg.Mongo.Database))
	s.db = db
	return db, nil
}

func (s *session) Close() {
	if s.db != nil {
		if err := s.db.Client().Disconnect(context.Background()); err != nil {
			logger.Warn("failed to disconnect", zap.Error(err))
		}
	}
	s.stop()
}

// newRNG seeds the single random source every component draws from.
func newRNG() *rand.Rand {
	seed, stream := Cfg.Seeds()
	logger.Info("random source", zap.Uint64("seed", seed))
	return rand.New(rand.NewPCG(seed, stream))
}

// corpusReader opens the configured baseline store.
func (s *session) corpusReader() (storing.CorpusReader, error) {
	if Cfg.Corpus.Source == config.StoreFile {
		return storing.NewFileCorpus(Cfg.Corpus.Path), nil
	}
	db, err := s.database()
	if err != nil {
		return nil, err
	}
	return storing.NewMongoCorpus(db.Collection(Cfg.Corpus.Collection), false), nil
}

// loadSampler reads the corpus once and wraps it for window sampling.
func (s *session) loadSampler(rng *rand.Rand) (*sampling.Sampler, error) {
	reader, err := s.corpusReader()
	if err != nil {
		return nil, err
	}
	defer reader.Close(s.ctx)

	samples, err := reader.Read(s.ctx, Cfg.Corpus.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	logger.Info("corpus loaded", zap.String("source", Cfg.Corpus.Source), zap.Int("samples", len(samples)))
	return sampling.NewSampler(samples, rng), nil
}

// datasetSink opens the configured dataset store.
func (s *session) datasetSink() (storing.DatasetSink, error) {
	if Cfg.Dataset.Sink == config.StoreFile {
		if err := os.MkdirAll(Cfg.Dataset.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		return storing.NewFileSink(Cfg.Dataset.OutputDir, Cfg.Dataset.Format, Cfg.Dataset.Documents)
	}
	db, err := s.database()
	if err != nil {
		return nil, err
	}
	var opts []storing.MongoSinkOption
	if Cfg.Dataset.Replace {
		opts = append(opts, storing.WithReplace())
	}
	return storing.NewMongoSink(db, false, opts...), nil
}

// sampleSink opens the store live samples are appended to.
func (s *session) sampleSink() (storing.SampleSink, error) {
	if Cfg.Collect.Sink == config.StoreFile {
		return storing.NewFileSampleSink(Cfg.Collect.Path)
	}
	db, err := s.database()
	if err != nil {
		return nil, err
	}
	return storing.NewMongoSampleSink(db.Collection(Cfg.Collect.Collection), false), nil
}

// observer serves Prometheus metrics when an address is configured.
func (s *session) observer() observing.Observer {
	if Cfg.Metrics.Addr == "" {
		return observing.Nop{}
	}
	obs := observing.NewPromObserver(nil)
	obs.Serve(s.ctx, Cfg.Metrics.Addr, logger)
	return obs
}

func writeJSON(w io.Writer, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
