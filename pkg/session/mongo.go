package session

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig configures the MongoDB session store.
type MongoConfig struct {
	// URI is the MongoDB connection string.
	URI string

	// Database name. Defaults to "gridbooth".
	Database string

	// Collection name. Defaults to "sessions".
	Collection string
}

// MongoStore is a MongoDB-backed session store for multi-booth events,
// where several kiosks share sessions so guests can print at any station.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
// Expiry is enforced at read time and by Cleanup, not by a TTL index;
// run Cleanup periodically on one instance.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "gridbooth"
	}
	if cfg.Collection == "" {
		cfg.Collection = "sessions"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	err := s.coll.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&sess)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if sess.IsExpired() {
		_, _ = s.coll.DeleteOne(ctx, bson.M{"_id": sessionID})
		return nil, ErrExpired
	}
	return &sess, nil
}

func (s *MongoStore) Set(ctx context.Context, sess *Session) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": sess.ID},
		sess,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]*Session, error) {
	cursor, err := s.coll.Find(ctx,
		bson.M{"expires_at": bson.M{"$gt": time.Now()}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

func (s *MongoStore) Cleanup(ctx context.Context) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now()}})
	if err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
