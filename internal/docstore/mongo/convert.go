package mongo

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/utafrali/storefront/internal/docstore"
)

var mongoOps = map[docstore.Op]string{
	docstore.Eq:  "$eq",
	docstore.Gt:  "$gt",
	docstore.Gte: "$gte",
	docstore.Lt:  "$lt",
	docstore.Lte: "$lte",
}

func fieldKey(field string) string {
	if field == docstore.FieldID {
		return "_id"
	}
	return field
}

// toFilter groups operators by field so that a range on one field becomes a
// single {field: {$gte: a, $lte: b}} entry.
func toFilter(filters []docstore.Filter) bson.D {
	out := bson.D{}
	index := map[string]int{}
	for _, f := range filters {
		key := fieldKey(f.Field)
		cond := bson.E{Key: mongoOps[f.Op], Value: docstore.NormalizeScalar(f.Value)}
		if i, ok := index[key]; ok {
			out[i].Value = append(out[i].Value.(bson.D), cond)
			continue
		}
		index[key] = len(out)
		out = append(out, bson.E{Key: key, Value: bson.D{cond}})
	}
	return out
}

func toSort(s *docstore.Sort) bson.D {
	if s == nil {
		return nil
	}
	dir := 1
	if s.Desc {
		dir = -1
	}
	return bson.D{{Key: fieldKey(s.Field), Value: dir}}
}

func toBSON(doc docstore.Document) bson.M {
	m := make(bson.M, len(doc.Data)+3)
	for k, v := range doc.Data {
		m[k] = v
	}
	m["_id"] = doc.ID
	m[docstore.FieldCreatedAt] = doc.CreatedAt
	m[docstore.FieldUpdatedAt] = doc.UpdatedAt
	return m
}

func toSet(fields map[string]any, now time.Time) bson.M {
	set := make(bson.M, len(fields)+1)
	for k, v := range fields {
		if k == docstore.FieldID || k == "_id" || docstore.IsTimestamp(k) {
			continue
		}
		set[k] = docstore.Normalize(v)
	}
	set[docstore.FieldUpdatedAt] = now
	return set
}

func fromBSON(raw bson.M) docstore.Document {
	doc := docstore.Document{Data: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case "_id":
			doc.ID = idString(v)
		case docstore.FieldCreatedAt:
			doc.CreatedAt, _ = plain(v).(time.Time)
		case docstore.FieldUpdatedAt:
			doc.UpdatedAt, _ = plain(v).(time.Time)
		default:
			doc.Data[k] = plain(v)
		}
	}
	return doc
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case primitive.ObjectID:
		return t.Hex()
	}
	return ""
}

// plain converts driver types into the value set documents use.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = plain(val)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plain(val)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	case int32:
		return int64(t)
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return t.String()
		}
		return f
	}
	return v
}
