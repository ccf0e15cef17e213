package docstore

import (
	"strings"
	"time"
)

// Field returns the value of a field, resolving the reserved ones.
func (d Document) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return d.ID, true
	case FieldCreatedAt:
		return d.CreatedAt, true
	case FieldUpdatedAt:
		return d.UpdatedAt, true
	}
	v, ok := d.Data[name]
	return v, ok
}

// Compare orders two normalized scalars. ok is false when the values are of
// kinds that do not compare (a string against a number, say).
func Compare(a, b any) (cmp int, ok bool) {
	a, b = NormalizeScalar(a), NormalizeScalar(b)
	if af, aok := number(a); aok {
		bf, bok := number(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, isBool := b.(bool)
		if !isBool {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	case time.Time:
		bv, isTime := b.(time.Time)
		if !isTime {
			return 0, false
		}
		return av.Compare(bv), true
	case nil:
		if b == nil {
			return 0, true
		}
		return -1, true
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

// Matches evaluates a filter against a document. Missing fields and values
// of incomparable kinds never match.
func (f Filter) Matches(d Document) bool {
	v, ok := d.Field(f.Field)
	if !ok {
		return false
	}
	c, ok := Compare(v, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case Eq:
		return c == 0
	case Gt:
		return c > 0
	case Gte:
		return c >= 0
	case Lt:
		return c < 0
	case Lte:
		return c <= 0
	}
	return false
}
