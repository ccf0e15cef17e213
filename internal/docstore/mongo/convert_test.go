package mongo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/utafrali/storefront/internal/docstore"
)

func TestToFilter_GroupsRangeOnOneField(t *testing.T) {
	filter := toFilter([]docstore.Filter{
		docstore.Where("category", docstore.Eq, "audio"),
		docstore.Where("price", docstore.Gte, decimal.RequireFromString("10")),
		docstore.Where("price", docstore.Lte, decimal.RequireFromString("99.5")),
		docstore.Where(docstore.FieldID, docstore.Eq, "p1"),
	})

	want := bson.D{
		{Key: "category", Value: bson.D{{Key: "$eq", Value: "audio"}}},
		{Key: "price", Value: bson.D{{Key: "$gte", Value: 10.0}, {Key: "$lte", Value: 99.5}}},
		{Key: "_id", Value: bson.D{{Key: "$eq", Value: "p1"}}},
	}
	assert.Equal(t, want, filter)
}

func TestToFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.D{}, toFilter(nil))
}

func TestToSort(t *testing.T) {
	assert.Nil(t, toSort(nil))
	assert.Equal(t, bson.D{{Key: "created_at", Value: -1}}, toSort(&docstore.Sort{Field: "created_at", Desc: true}))
	assert.Equal(t, bson.D{{Key: "name", Value: 1}}, toSort(&docstore.Sort{Field: "name"}))
}

func TestToSet_SkipsReservedFields(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set := toSet(map[string]any{"stock": 4, "id": "x", "_id": "y", "created_at": now.Add(-time.Hour)}, now)

	assert.Equal(t, bson.M{"stock": int64(4), "updated_at": now}, set)
}

func TestBSONRoundTrip(t *testing.T) {
	created := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)
	raw := bson.M{
		"_id":        "o1",
		"status":     "pending",
		"quantity":   int32(2),
		"total":      31.5,
		"items":      bson.A{bson.M{"product_id": "p1", "quantity": int32(1)}},
		"address":    bson.D{{Key: "city", Value: "Oslo"}},
		"created_at": primitive.NewDateTimeFromTime(created),
		"updated_at": primitive.NewDateTimeFromTime(created),
	}

	doc := fromBSON(raw)
	require.Equal(t, "o1", doc.ID)
	assert.True(t, created.Equal(doc.CreatedAt))
	assert.Equal(t, int64(2), doc.Data["quantity"])
	assert.Equal(t, []any{map[string]any{"product_id": "p1", "quantity": int64(1)}}, doc.Data["items"])
	assert.Equal(t, map[string]any{"city": "Oslo"}, doc.Data["address"])
	assert.NotContains(t, doc.Data, "_id")

	back := toBSON(doc)
	assert.Equal(t, "o1", back["_id"])
	assert.Equal(t, doc.CreatedAt, back["created_at"])
}

func TestIDString(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, oid.Hex(), idString(oid))
	assert.Equal(t, "abc", idString("abc"))
}
