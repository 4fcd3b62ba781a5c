package repo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Range is one range predicate; Op is one of gt, gte, lt, lte, ne.
type Range struct {
	Field string
	Op    string
	Value any
}

// Query addresses a collection with equality and range predicates and a
// single-field ordering.
type Query struct {
	Collection string
	Eq         map[string]any
	Ranges     []Range
	OrderBy    string
	Desc       bool
	Limit      int64
}

const maxQueryLimit = 500

var rangeOps = map[string]string{"gt": "$gt", "gte": "$gte", "lt": "$lt", "lte": "$lte", "ne": "$ne"}

// Filter translates the predicates into a bson filter. Empty equality values
// are skipped so an unset filter means "any".
func (q Query) Filter() (bson.M, error) {
	f := bson.M{}
	for k, v := range q.Eq {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		if v == nil {
			continue
		}
		f[k] = v
	}
	for _, r := range q.Ranges {
		op, ok := rangeOps[r.Op]
		if !ok {
			return nil, fmt.Errorf("query %s: unsupported operator %q", q.Collection, r.Op)
		}
		cond, _ := f[r.Field].(bson.M)
		if cond == nil {
			cond = bson.M{}
		}
		cond[op] = r.Value
		f[r.Field] = cond
	}
	return f, nil
}

func (q Query) FindOptions() *options.FindOptions {
	o := options.Find()
	limit := q.Limit
	if limit <= 0 || limit > maxQueryLimit {
		limit = maxQueryLimit
	}
	o.SetLimit(limit)
	if q.OrderBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		o.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	return o
}
