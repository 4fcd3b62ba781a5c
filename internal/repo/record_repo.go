package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tazhibayda/townboat/internal/domain"
)

// Find runs q and returns the full result set as normalized records.
func (s *Store) Find(ctx context.Context, q Query) (_ []domain.Record, err error) {
	ctx, finish := span(ctx, q.Collection, "find")
	defer func() { finish(err) }()

	filter, err := q.Filter()
	if err != nil {
		return nil, err
	}
	cur, err := s.col(q.Collection).Find(ctx, filter, q.FindOptions())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.Record{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, toRecord(q.Collection, doc))
	}
	return out, cur.Err()
}

func (s *Store) GetRecord(ctx context.Context, collection, id string) (_ *domain.Record, err error) {
	ctx, finish := span(ctx, collection, "get")
	defer func() { finish(err) }()

	var doc bson.M
	err = s.col(collection).FindOne(ctx, bson.M{"_id": objectID(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	rec := toRecord(collection, doc)
	return &rec, nil
}

// Insert stores doc and returns its id. A unique index violation is
// reported as ErrConflict.
func (s *Store) Insert(ctx context.Context, collection string, doc any) (_ string, err error) {
	ctx, finish := span(ctx, collection, "insert")
	defer func() { finish(err) }()

	res, err := s.col(collection).InsertOne(ctx, doc)
	if err != nil {
		if IsDup(err) {
			return "", fmt.Errorf("%s: %w", collection, domain.ErrConflict)
		}
		return "", err
	}
	s.changed(ctx, collection)
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

// SetFields writes fields in one atomic $set. When guard is non-empty the
// update only applies if the stored document still matches it; a miss on an
// existing document is reported as ErrConflict.
func (s *Store) SetFields(ctx context.Context, collection, id string, fields, guard map[string]any) (err error) {
	ctx, finish := span(ctx, collection, "set")
	defer func() { finish(err) }()

	filter := bson.M{"_id": objectID(id)}
	for k, v := range guard {
		filter[k] = guardValue(v)
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := s.col(collection).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if len(guard) > 0 {
			if _, gerr := s.GetRecord(ctx, collection, id); gerr == nil {
				return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrConflict)
			}
		}
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	s.changed(ctx, collection)
	return nil
}

func (s *Store) DeleteRecord(ctx context.Context, collection, id string) (err error) {
	ctx, finish := span(ctx, collection, "delete")
	defer func() { finish(err) }()

	res, err := s.col(collection).DeleteOne(ctx, bson.M{"_id": objectID(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	s.changed(ctx, collection)
	return nil
}

// GetInto decodes one document into a typed value.
func (s *Store) GetInto(ctx context.Context, collection, id string, out any) (err error) {
	ctx, finish := span(ctx, collection, "get")
	defer func() { finish(err) }()

	err = s.col(collection).FindOne(ctx, bson.M{"_id": objectID(id)}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return err
}

// guardValue matches a string set regardless of element order.
func guardValue(v any) any {
	set, ok := v.([]string)
	if !ok {
		return v
	}
	if len(set) == 0 {
		return bson.M{"$in": bson.A{nil, bson.A{}}}
	}
	return bson.M{"$size": len(set), "$all": set}
}
