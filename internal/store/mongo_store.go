// internal/store/mongo_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoDoc struct {
	ID      string            `bson:"_id"`
	Version int64             `bson:"version"`
	Attrs   map[string]string `bson:"attrs,omitempty"`
	Data    []byte            `bson:"data"`
}

// MongoStore keeps each record collection in its own MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects and pings the server before returning.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logrus.WithField("database", dbName).Info("Connected to MongoDB")
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Record, error) {
	var doc mongoDoc
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, ErrNotFound
		}
		return Record{}, unavailable("get", err)
	}
	return doc.record(), nil
}

func (s *MongoStore) List(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	query := bson.M{}
	for k, v := range filter {
		query["attrs."+k] = v
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.db.Collection(collection).Find(ctx, query, opts)
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer cur.Close(ctx)

	out := []Record{}
	for cur.Next(ctx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, unavailable("list decode", err)
		}
		out = append(out, doc.record())
	}
	if err := cur.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	return out, nil
}

func (s *MongoStore) Put(ctx context.Context, collection string, rec Record) (Record, error) {
	coll := s.db.Collection(collection)
	newVersion := rec.Version + 1

	if rec.Version == 0 {
		doc := mongoDoc{ID: rec.ID, Version: newVersion, Attrs: rec.Attrs, Data: rec.Data}
		if _, err := coll.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return Record{}, ErrAlreadyExists
			}
			return Record{}, unavailable("put", err)
		}
	} else {
		update := bson.M{"$set": bson.M{
			"version": newVersion,
			"attrs":   rec.Attrs,
			"data":    rec.Data,
		}}
		res, err := coll.UpdateOne(ctx, bson.M{"_id": rec.ID, "version": rec.Version}, update)
		if err != nil {
			return Record{}, unavailable("put", err)
		}
		if res.MatchedCount == 0 {
			n, err := coll.CountDocuments(ctx, bson.M{"_id": rec.ID})
			if err != nil {
				return Record{}, unavailable("put", err)
			}
			if n == 0 {
				return Record{}, ErrNotFound
			}
			return Record{}, ErrVersionConflict
		}
	}

	return Record{ID: rec.ID, Version: newVersion, Attrs: copyAttrs(rec.Attrs), Data: copyData(rec.Data)}, nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (d mongoDoc) record() Record {
	return Record{ID: d.ID, Version: d.Version, Attrs: d.Attrs, Data: d.Data}
}
