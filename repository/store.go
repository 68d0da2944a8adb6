package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	usersCollection    = "users"
	listingsCollection = "listings"
	bookingsCollection = "bookings"
)

// Store owns the Mongo client and hands out the collections.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *logrus.Logger
}

func New(ctx context.Context, uri, dbName string, logger *logrus.Logger) (*Store, error) {
	mongoconn := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, mongoconn)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.WithFields(logrus.Fields{"path": "repository/store"}).Info("MongoDB successfully connected...")

	return &Store{client: client, db: client.Database(dbName), logger: logger}, nil
}

func (s *Store) Database() *mongo.Database {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		listingsCollection: {
			{Keys: bson.D{{Key: "host", Value: 1}}},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		},
		bookingsCollection: {
			{Keys: bson.D{{Key: "listing", Value: 1}, {Key: "checkIn", Value: 1}, {Key: "checkOut", Value: 1}}},
			{Keys: bson.D{{Key: "guest", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// WithTransaction runs fn inside a snapshot, majority-acknowledged
// transaction. The driver retries fn on transient transaction errors, so fn
// must be safe to run more than once.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)
	return err
}
