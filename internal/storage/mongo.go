package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alexanderramin/boardsync/internal/logging"
)

// MongoDocStore keeps each document as a MongoDB document whose _id is
// the document id. Watch uses change streams, which need a replica set.
type MongoDocStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    logrus.FieldLogger
}

// DialMongo connects and pings the server.
func DialMongo(ctx context.Context, uri, database string, log logrus.FieldLogger) (*MongoDocStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &MongoDocStore{
		client: client,
		db:     client.Database(database),
		log:    logging.OrDiscard(log).WithField("backend", "mongo"),
	}, nil
}

func (m *MongoDocStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var doc bson.D
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrDocNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding %s/%s: %w", collection, id, err)
	}
	return bsonToJSON(doc)
}

func (m *MongoDocStore) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	body, err := jsonToBSON(doc)
	if err != nil {
		return err
	}
	body = append(bson.D{{Key: "_id", Value: id}}, body...)

	_, err = m.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, body, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replacing %s/%s: %w", collection, id, err)
	}
	return nil
}

// changeEvent is the part of a change stream event we read.
type changeEvent struct {
	FullDocument bson.D `bson:"fullDocument"`
}

func (m *MongoDocStore) Watch(ctx context.Context, collection, id string, fn func(json.RawMessage)) (func(), error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}}}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	wctx, cancel := context.WithCancel(ctx)
	cs, err := m.db.Collection(collection).Watch(wctx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watching %s/%s: %w", collection, id, err)
	}

	log := m.log.WithFields(logrus.Fields{"collection": collection, "id": id})
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cs.Close(context.Background())
		for cs.Next(wctx) {
			var ev changeEvent
			if err := cs.Decode(&ev); err != nil {
				log.WithError(err).Warn("decoding change event")
				continue
			}
			if ev.FullDocument == nil {
				continue
			}
			raw, err := bsonToJSON(ev.FullDocument)
			if err != nil {
				log.WithError(err).Warn("converting change event")
				continue
			}
			fn(raw)
		}
		if err := cs.Err(); err != nil && wctx.Err() == nil {
			log.WithError(err).WithField("event", logging.EventSyncSubscribeFailed).Error("change stream ended")
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (m *MongoDocStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// bsonToJSON renders doc as relaxed extended JSON without its _id.
func bsonToJSON(doc bson.D) (json.RawMessage, error) {
	out := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if e.Key != "_id" {
			out = append(out, e)
		}
	}
	data, err := bson.MarshalExtJSON(out, false, false)
	if err != nil {
		return nil, fmt.Errorf("encoding document as json: %w", err)
	}
	return data, nil
}

func jsonToBSON(raw json.RawMessage) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, fmt.Errorf("decoding json document: %w", err)
	}
	return doc, nil
}
