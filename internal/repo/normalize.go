package repo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/townboat/internal/domain"
)

// normalize converts driver specific values into plain Go values so the
// sync and view layers never import bson.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return t.T
	case int32:
		return int(t)
	case int64:
		return int(t)
	case bson.M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

// privateFields never leave the store in a generic record.
var privateFields = map[string][]string{
	domain.ColUsers: {"passwordHash", "email", "externalId"},
}

func toRecord(collection string, doc bson.M) domain.Record {
	fields := normalizeMap(doc)
	id, _ := fields["_id"].(string)
	delete(fields, "_id")
	for _, f := range privateFields[collection] {
		delete(fields, f)
	}
	return domain.Record{ID: id, Collection: collection, Fields: fields}
}

// objectID accepts a hex id; non-hex ids are used as-is so string keyed
// documents stay addressable.
func objectID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}
