package persistence

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/rastro/pkg/api"
)

// MongoSink stores one document per record. A per-sink sequence number keeps
// the insertion order, since timestamps may collide.
type MongoSink struct {
	coll *mongo.Collection

	mu  sync.Mutex
	seq int64
}

var (
	_ Sink   = (*MongoSink)(nil)
	_ Reader = (*MongoSink)(nil)
)

type mongoRecordDoc struct {
	Seq           int64                 `bson:"seq"`
	At            time.Time             `bson:"at"`
	Source        string                `bson:"source"`
	Kind          string                `bson:"kind"`
	CorrelationID *api.FlowExpressionID `bson:"fei,omitempty"`
	Message       string                `bson:"message,omitempty"`
	Participant   string                `bson:"participant,omitempty"`
	Line          string                `bson:"line"`
}

// NewMongoSink creates a Mongo-backed sink.
// dbName defaults to "rastro", collName defaults to "history".
// The sequence resumes after the highest seq already stored.
func NewMongoSink(ctx context.Context, client *mongo.Client, dbName, collName string) (*MongoSink, error) {
	if dbName == "" {
		dbName = "rastro"
	}
	if collName == "" {
		collName = "history"
	}

	s := &MongoSink{coll: client.Database(dbName).Collection(collName)}

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}

	var last mongoRecordDoc
	err = s.coll.FindOne(ctx, bson.D{}, options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})).Decode(&last)
	switch {
	case err == nil:
		s.seq = last.Seq
	case err != mongo.ErrNoDocuments:
		return nil, err
	}
	return s, nil
}

func (s *MongoSink) Append(ctx context.Context, rec api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := mongoRecordDoc{
		Seq:           s.seq + 1,
		At:            rec.Timestamp,
		Source:        string(rec.Source),
		Kind:          string(rec.Kind),
		CorrelationID: rec.CorrelationID,
		Message:       rec.Message,
		Participant:   rec.Participant,
		Line:          rec.Line,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	s.seq++
	return nil
}

func (s *MongoSink) Entries(ctx context.Context) ([]api.Record, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []api.Record
	for cur.Next(ctx) {
		var doc mongoRecordDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, api.Record{
			Timestamp:     doc.At,
			Source:        api.Source(doc.Source),
			Kind:          api.Kind(doc.Kind),
			CorrelationID: doc.CorrelationID,
			Message:       doc.Message,
			Participant:   doc.Participant,
			Line:          doc.Line,
		})
	}
	return out, cur.Err()
}
