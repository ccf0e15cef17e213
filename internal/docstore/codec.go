package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Encode converts a struct into document data through its JSON form. The
// reserved id and timestamp fields are stripped.
func Encode(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	data, err := DecodeJSON(b)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	delete(data, FieldID)
	delete(data, FieldCreatedAt)
	delete(data, FieldUpdatedAt)
	return data, nil
}

// Decode fills v from a document, reinstating the reserved fields.
func Decode(doc Document, v any) error {
	m := make(map[string]any, len(doc.Data)+3)
	for k, val := range doc.Data {
		m[k] = val
	}
	m[FieldID] = doc.ID
	m[FieldCreatedAt] = doc.CreatedAt
	m[FieldUpdatedAt] = doc.UpdatedAt

	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return nil
}

// DecodeJSON parses a JSON object into document data with normalized numbers.
func DecodeJSON(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return Normalize(data).(map[string]any), nil
}

// Normalize rewrites a value tree so every number is an int64 or float64.
// Maps and slices are copied.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	default:
		return NormalizeScalar(v)
	}
}

// NormalizeScalar maps Go scalars onto the small set of types documents hold:
// string, bool, int64, float64 and time.Time. Anything else passes through.
func NormalizeScalar(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case decimal.Decimal:
		f, _ := t.Float64()
		return f
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		f, _ := t.Float64()
		return f
	case time.Time:
		return t.UTC()
	}

	// Named kinds such as type OrderStatus string.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return v
}
