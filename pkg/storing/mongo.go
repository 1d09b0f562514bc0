package storing

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"AnomalyForge/pkg/exporting"
	"AnomalyForge/pkg/metrics"
)

const connectTimeout = 10 * time.Second

// Connect opens a client and verifies the deployment is reachable.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &IOError{Op: "connect", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &IOError{Op: "ping", Err: err}
	}
	return client.Database(database), nil
}

// MongoCorpus reads samples from one collection in natural order.
type MongoCorpus struct {
	coll *mongo.Collection
	own  bool
}

// NewMongoCorpus wraps a collection. When own is set, Close disconnects the client.
func NewMongoCorpus(coll *mongo.Collection, own bool) *MongoCorpus {
	return &MongoCorpus{coll: coll, own: own}
}

func (c *MongoCorpus) Read(ctx context.Context, limit int) ([]metrics.Sample, error) {
	opts := options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := c.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, &IOError{Op: "find", Set: c.coll.Name(), Err: err}
	}
	defer cursor.Close(ctx)

	var samples []metrics.Sample
	if err := cursor.All(ctx, &samples); err != nil {
		return nil, &IOError{Op: "decode", Set: c.coll.Name(), Err: err}
	}
	return samples, nil
}

func (c *MongoCorpus) Close(ctx context.Context) error {
	if !c.own {
		return nil
	}
	return c.coll.Database().Client().Disconnect(ctx)
}

// MongoSink writes each dataset set to its own collection.
type MongoSink struct {
	db      *mongo.Database
	own     bool
	replace bool
	cleared map[string]bool
}

// MongoSinkOption configures a MongoSink.
type MongoSinkOption func(*MongoSink)

// WithReplace empties a set's collection before the sink first writes to it.
func WithReplace() MongoSinkOption {
	return func(s *MongoSink) {
		s.replace = true
	}
}

func NewMongoSink(db *mongo.Database, own bool, opts ...MongoSinkOption) *MongoSink {
	s := &MongoSink{db: db, own: own, cleared: make(map[string]bool)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MongoSink) WriteRecords(ctx context.Context, set string, records []exporting.LabeledRecord) error {
	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = recordDocument(r)
	}
	return s.insert(ctx, set, docs)
}

func (s *MongoSink) WriteTable(ctx context.Context, set string, rows []exporting.Record) error {
	docs := make([]interface{}, len(rows))
	for i, row := range rows {
		docs[i] = orderedRow(row)
	}
	return s.insert(ctx, set, docs)
}

func (s *MongoSink) insert(ctx context.Context, set string, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	coll := s.db.Collection(set)
	if s.replace && !s.cleared[set] {
		if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
			return &IOError{Op: "clear", Set: set, Err: err}
		}
		s.cleared[set] = true
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return &IOError{Op: "insert", Set: set, Err: err}
	}
	return nil
}

func (s *MongoSink) Close(ctx context.Context) error {
	if !s.own {
		return nil
	}
	return s.db.Client().Disconnect(ctx)
}

// MongoSampleSink appends collected samples to a collection.
type MongoSampleSink struct {
	coll *mongo.Collection
	own  bool
}

func NewMongoSampleSink(coll *mongo.Collection, own bool) *MongoSampleSink {
	return &MongoSampleSink{coll: coll, own: own}
}

func (s *MongoSampleSink) WriteSample(ctx context.Context, sample metrics.Sample) error {
	if _, err := s.coll.InsertOne(ctx, sample); err != nil {
		return &IOError{Op: "insert", Set: s.coll.Name(), Err: err}
	}
	return nil
}

func (s *MongoSampleSink) Close(ctx context.Context) error {
	if !s.own {
		return nil
	}
	return s.coll.Database().Client().Disconnect(ctx)
}

// recordDocument keeps row columns in flattened order, which a plain map would lose.
func recordDocument(r exporting.LabeledRecord) bson.D {
	seq := make(bson.A, 0, len(r.Rows)+1)
	for _, row := range r.Rows {
		seq = append(seq, orderedRow(row))
	}
	seq = append(seq, r.LabelElement())

	doc := bson.D{
		{Key: r.Index, Value: seq},
		{Key: exporting.ColClass, Value: r.Label.String()},
		{Key: exporting.ColClassID, Value: int(r.Label)},
	}
	if r.Focus != nil {
		doc = append(doc, bson.E{Key: exporting.ColFocus, Value: r.Focus})
	}
	if r.Batch != "" {
		doc = append(doc, bson.E{Key: exporting.ColBatch, Value: r.Batch})
	}
	return doc
}

func orderedRow(row exporting.Record) bson.D {
	cols := rowColumns(row)
	d := make(bson.D, len(cols))
	for i, c := range cols {
		d[i] = bson.E{Key: c, Value: row[c]}
	}
	return d
}

// SampleDocument renders a sample as an ordered document.
func SampleDocument(s metrics.Sample) (bson.D, error) {
	raw, err := bson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sample: %w", err)
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sample: %w", err)
	}
	return d, nil
}
