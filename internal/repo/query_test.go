package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestQuery_Filter(t *testing.T) {
	q := Query{
		Collection: "deals",
		Eq:         map[string]any{"town": "Springfield", "category": "", "status": nil},
		Ranges: []Range{
			{Field: "upvoteCount", Op: "gte", Value: 3},
			{Field: "upvoteCount", Op: "lt", Value: 10},
		},
	}
	f, err := q.Filter()
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"town":        "Springfield",
		"upvoteCount": bson.M{"$gte": 3, "$lt": 10},
	}, f)
}

func TestQuery_Filter_RejectsUnknownOperator(t *testing.T) {
	_, err := Query{Collection: "posts", Ranges: []Range{{Field: "x", Op: "regex", Value: ".*"}}}.Filter()
	assert.Error(t, err)
}

func TestQuery_FindOptions(t *testing.T) {
	o := Query{OrderBy: "createdAt", Desc: true, Limit: 20}.FindOptions()
	require.NotNil(t, o.Limit)
	assert.EqualValues(t, 20, *o.Limit)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, o.Sort)

	o = Query{Limit: 100000}.FindOptions()
	assert.EqualValues(t, maxQueryLimit, *o.Limit, "limit is capped")
	assert.Nil(t, o.Sort)
}
