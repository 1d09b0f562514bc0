package storing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"AnomalyForge/pkg/exporting"
	"AnomalyForge/pkg/injecting"
)

func TestMongoCorpus_Read(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes in order", func(mt *mtest.T) {
		first, err := SampleDocument(testSample(10))
		require.NoError(mt, err)
		second, err := SampleDocument(testSample(11))
		require.NoError(mt, err)

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, first, second))

		samples, err := NewMongoCorpus(mt.Coll, false).Read(context.Background(), 2)
		require.NoError(mt, err)
		require.Len(mt, samples, 2)
		assert.Equal(mt, float64(10), samples[0].Timestamp)
		assert.Equal(mt, 25.0, samples[1].Memory.Percent)
		assert.Equal(mt, "/", samples[1].Disks[0].Mountpoint)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		assert.Equal(mt, int64(2), evt.Command.Lookup("limit").AsInt64())
	})

	mt.Run("wraps failures", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 13, Name: "Unauthorized", Message: "not authorized",
		}))

		_, err := NewMongoCorpus(mt.Coll, false).Read(context.Background(), 0)
		var ioErr *IOError
		require.ErrorAs(mt, err, &ioErr)
		assert.Equal(mt, "find", ioErr.Op)
	})
}

func TestMongoSink_WriteRecords(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserts one document per window", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		sink := NewMongoSink(mt.DB, false)
		require.NoError(mt, sink.WriteRecords(context.Background(), "train_MemLeak", labeled(3, injecting.MemLeak)))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "insert", evt.CommandName)
		assert.Equal(mt, "train_MemLeak", evt.Command.Lookup("insert").StringValue())

		docs, err := evt.Command.Lookup("documents").Array().Values()
		require.NoError(mt, err)
		assert.Len(mt, docs, 3)
		assert.Equal(mt, "MemLeak", docs[0].Document().Lookup(exporting.ColClass).StringValue())
	})

	mt.Run("replace clears once per set", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 4}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		sink := NewMongoSink(mt.DB, false, WithReplace())
		ctx := context.Background()
		require.NoError(mt, sink.WriteRecords(ctx, "train", labeled(1, injecting.CPUStorm)))
		require.NoError(mt, sink.WriteRecords(ctx, "train", labeled(1, injecting.CPUStorm)))

		var names []string
		for evt := mt.GetStartedEvent(); evt != nil; evt = mt.GetStartedEvent() {
			names = append(names, evt.CommandName)
		}
		assert.Equal(mt, []string{"delete", "insert", "insert"}, names)
	})

	mt.Run("empty batch is skipped", func(mt *mtest.T) {
		sink := NewMongoSink(mt.DB, false)
		require.NoError(mt, sink.WriteRecords(context.Background(), "train", nil))
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("write error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key",
		}))

		err := NewMongoSink(mt.DB, false).WriteTable(context.Background(), "test", []exporting.Record{{"cpu_percent": 1.0}})
		var ioErr *IOError
		require.ErrorAs(mt, err, &ioErr)
		assert.Equal(mt, "test", ioErr.Set)
	})
}

func TestRecordDocument_Ordered(t *testing.T) {
	rec := labeled(1, injecting.DiskFull)[0]
	doc := recordDocument(rec)

	assert.Equal(t, "0", doc[0].Key)
	seq := doc[0].Value.(bson.A)
	require.Len(t, seq, 3)

	row := seq[0].(bson.D)
	cols := exporting.Columns()
	require.Len(t, row, len(cols))
	for i, c := range cols {
		assert.Equal(t, c, row[i].Key)
	}
	assert.Equal(t, []int{8}, seq[2])
}

func TestMongoSampleSink(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		sink := NewMongoSampleSink(mt.Coll, false)
		require.NoError(mt, sink.WriteSample(context.Background(), testSample(5)))
		require.NoError(mt, sink.Close(context.Background()))
	})
}
