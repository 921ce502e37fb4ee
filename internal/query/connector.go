package query

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connector opens one database session per call. Sessions are never shared
// or pooled; each invocation of the executor gets its own and must close it.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}

// Session is one live database connection, owned by a single execution.
type Session interface {
	Collection(database, name string) Collection
	Close(ctx context.Context) error
}

// Collection is the query surface of one named collection.
type Collection interface {
	Find(ctx context.Context, filter any, opts *options.FindOptions) (Cursor, error)
}

// Cursor is a lazy, single-pass result sequence. *mongo.Cursor satisfies it.
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

// MongoConnector dials MongoDB with the configured connection string.
type MongoConnector struct {
	uri            string
	connectTimeout time.Duration
}

func NewMongoConnector(uri string, connectTimeout time.Duration) *MongoConnector {
	return &MongoConnector{
		uri:            uri,
		connectTimeout: connectTimeout,
	}
}

// Connect establishes and verifies a new client. The ping makes connection
// failures surface here rather than on the first find.
func (c *MongoConnector) Connect(ctx context.Context) (Session, error) {
	opts := options.Client().
		ApplyURI(c.uri).
		SetConnectTimeout(c.connectTimeout).
		SetServerSelectionTimeout(c.connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelDisconnect()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return &mongoSession{client: client}, nil
}

type mongoSession struct {
	client *mongo.Client
}

func (s *mongoSession) Collection(database, name string) Collection {
	return &mongoCollection{coll: s.client.Database(database).Collection(name)}
}

func (s *mongoSession) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c *mongoCollection) Find(ctx context.Context, filter any, opts *options.FindOptions) (Cursor, error) {
	return c.coll.Find(ctx, filter, opts)
}
