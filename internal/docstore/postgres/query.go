package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/utafrali/storefront/internal/docstore"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var sqlOps = map[docstore.Op]string{
	docstore.Eq:  "=",
	docstore.Gt:  ">",
	docstore.Gte: ">=",
	docstore.Lt:  "<",
	docstore.Lte: "<=",
}

// builder accumulates positional arguments. $1 is always the collection.
type builder struct {
	args []any
}

func newBuilder(collection string) *builder {
	return &builder{args: []any{collection}}
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// where renders the filters. Data fields are addressed with a bound key;
// the operand type picks the cast applied to the extracted text.
func (b *builder) where(filters []docstore.Filter) (string, error) {
	clauses := []string{"collection = $1"}
	for _, f := range filters {
		op := sqlOps[f.Op]
		v := docstore.NormalizeScalar(f.Value)

		if f.Field == docstore.FieldID {
			clauses = append(clauses, fmt.Sprintf("id %s %s", op, b.arg(v)))
			continue
		}
		if docstore.IsTimestamp(f.Field) {
			clauses = append(clauses, fmt.Sprintf("%s %s %s", f.Field, op, b.arg(v)))
			continue
		}

		switch v.(type) {
		case string:
			clauses = append(clauses, fmt.Sprintf("data->>%s::text %s %s", b.arg(f.Field), op, b.arg(v)))
		case int64, float64:
			clauses = append(clauses, fmt.Sprintf("(data->>%s::text)::numeric %s %s", b.arg(f.Field), op, b.arg(v)))
		case bool:
			clauses = append(clauses, fmt.Sprintf("(data->>%s::text)::boolean %s %s", b.arg(f.Field), op, b.arg(v)))
		case time.Time:
			clauses = append(clauses, fmt.Sprintf("(data->>%s::text)::timestamptz %s %s", b.arg(f.Field), op, b.arg(v)))
		case nil:
			if f.Op != docstore.Eq {
				return "", apperrors.InvalidInput(fmt.Sprintf("null only supports equality on %q", f.Field))
			}
			clauses = append(clauses, fmt.Sprintf("data->>%s::text IS NULL", b.arg(f.Field)))
		default:
			return "", apperrors.InvalidInput(fmt.Sprintf("unsupported filter value %T on %q", v, f.Field))
		}
	}
	return strings.Join(clauses, " AND "), nil
}

func (b *builder) orderBy(s *docstore.Sort) string {
	if s == nil {
		return ""
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	switch {
	case s.Field == docstore.FieldID:
		return " ORDER BY id " + dir
	case docstore.IsTimestamp(s.Field):
		return fmt.Sprintf(" ORDER BY %s %s", s.Field, dir)
	}
	return fmt.Sprintf(" ORDER BY data->%s::text %s", b.arg(s.Field), dir)
}

func window(q docstore.Query) string {
	var sb strings.Builder
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.Offset)
	}
	return sb.String()
}
