package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/townboat/internal/domain"
)

type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
	Files  *gridfs.Bucket

	// Signal is told about every successful write; nil disables change fan-out.
	Signal Signal
}

func NewStore(ctx context.Context, uri, dbname string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetMaxPoolSize(50),
	)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		return nil, err
	}
	db := cli.Database(dbname)
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("uploads"))
	if err != nil {
		return nil, err
	}
	return &Store{Client: cli, DB: db, Files: bucket}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error { return s.Client.Disconnect(ctx) }

func (s *Store) col(name string) *mongo.Collection { return s.DB.Collection(name) }

// changed fans a write out to live subscriptions of the collection.
func (s *Store) changed(ctx context.Context, collection string) {
	if s.Signal == nil {
		return
	}
	if err := s.Signal.Publish(ctx, collection); err != nil {
		logSignalErr(ctx, collection, err)
	}
}

// span opens a Datadog span for one store operation; finish records err.
func span(ctx context.Context, collection, op string, tags ...tracer.StartSpanOption) (context.Context, func(error)) {
	tags = append(tags, tracer.Tag("collection", collection))
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo."+collection+"."+op, tags...)
	return ctx, func(err error) {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			sp.SetTag("error", err)
		}
		sp.Finish()
	}
}

// EnsureIndexes creates the indexes every collection relies on.
// The TTL index on chat_messages.expiresAt deletes read messages even when
// no process is alive to run the expiry timer.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	byTown := func(coll string, order string) error {
		_, err := s.col(coll).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "town", Value: 1}, {Key: order, Value: -1}}, Options: options.Index().SetName("town_" + order)},
			{Keys: bson.D{{Key: "category", Value: 1}}, Options: options.Index().SetName("category")},
		})
		return err
	}
	for _, c := range []struct{ coll, order string }{
		{domain.ColBusinesses, "upvoteCount"},
		{domain.ColDeals, "createdAt"},
		{domain.ColPosts, "createdAt"},
		{domain.ColPolls, "createdAt"},
		{domain.ColClubs, "memberCount"},
	} {
		if err := byTown(c.coll, c.order); err != nil {
			return err
		}
	}

	if _, err := s.col(domain.ColUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	}); err != nil {
		return err
	}

	if _, err := s.col(domain.ColComments).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("post_created"),
	}); err != nil {
		return err
	}

	if _, err := s.col(domain.ColConnections).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "to", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("to_status")},
		{Keys: bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_pair")},
	}); err != nil {
		return err
	}

	if _, err := s.col(domain.ColChatMessages).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "chatId", Value: 1}, {Key: "createdAt", Value: 1}}, Options: options.Index().SetName("chat_created")},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expire")},
	}); err != nil {
		return err
	}

	if _, err := s.col(domain.ColNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("user_created_desc"),
	}); err != nil {
		return err
	}

	return s.EnsureRefreshIndexes(ctx)
}

func IsDup(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return false
}
