// Package memory is an in-process docstore backend for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/docstore"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type entry struct {
	doc docstore.Document
	seq uint64
}

type state struct {
	collections map[string]map[string]entry
	seq         uint64
	last        time.Time
}

func (st *state) clone() *state {
	out := &state{
		collections: make(map[string]map[string]entry, len(st.collections)),
		seq:         st.seq,
		last:        st.last,
	}
	for name, docs := range st.collections {
		c := make(map[string]entry, len(docs))
		for id, e := range docs {
			c[id] = entry{doc: copyDoc(e.doc), seq: e.seq}
		}
		out.collections[name] = c
	}
	return out
}

// Store keeps documents in maps. A transaction holds the write lock for its
// whole duration and works on a copy that replaces the live state on
// success, so fn must only use the tx handle it is given.
type Store struct {
	mu  *sync.RWMutex
	st  *state
	now func() time.Time
}

var _ docstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		mu:  &sync.RWMutex{},
		st:  &state{collections: map[string]map[string]entry{}},
		now: time.Now,
	}
}

// WithClock replaces the clock used for created_at and updated_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// stamp returns a timestamp strictly after every previous one so that
// ordering by created_at is deterministic even when the clock stands still.
func (s *Store) stamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.st.last) {
		t = s.st.last.Add(time.Microsecond)
	}
	s.st.last = t
	return t
}

func (s *Store) Create(_ context.Context, collection string, doc docstore.Document) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	c := s.st.collections[collection]
	if c == nil {
		c = map[string]entry{}
		s.st.collections[collection] = c
	}
	if _, exists := c[doc.ID]; exists {
		return docstore.Document{}, apperrors.AlreadyExists(collection, "id", doc.ID)
	}

	now := s.stamp()
	doc.Data = docstore.Normalize(doc.Data).(map[string]any)
	doc.CreatedAt, doc.UpdatedAt = now, now
	s.st.seq++
	c[doc.ID] = entry{doc: doc, seq: s.st.seq}
	return copyDoc(doc), nil
}

func (s *Store) Get(_ context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.st.collections[collection][id]
	if !ok {
		return docstore.Document{}, apperrors.NotFound(collection, id)
	}
	return copyDoc(e.doc), nil
}

func (s *Store) match(collection string, q docstore.Query) []entry {
	var out []entry
	for _, e := range s.st.collections[collection] {
		keep := true
		for _, f := range q.Filters {
			if !f.Matches(e.doc) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (s *Store) Query(_ context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(collection, q)
	if q.Sort != nil {
		field, desc := q.Sort.Field, q.Sort.Desc
		sort.SliceStable(matched, func(i, j int) bool {
			c := compareField(matched[i].doc, matched[j].doc, field)
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	if q.Offset >= len(matched) {
		return []docstore.Document{}, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}

	docs := make([]docstore.Document, len(matched))
	for i, e := range matched {
		docs[i] = copyDoc(e.doc)
	}
	return docs, nil
}

// compareField puts documents missing the field first.
func compareField(a, b docstore.Document, field string) int {
	av, aok := a.Field(field)
	bv, bok := b.Field(field)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	c, _ := docstore.Compare(av, bv)
	return c
}

func (s *Store) Count(_ context.Context, collection string, q docstore.Query) (int, error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(collection, q)), nil
}

func (s *Store) Update(_ context.Context, collection, id string, fields map[string]any) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.st.collections[collection][id]
	if !ok {
		return docstore.Document{}, apperrors.NotFound(collection, id)
	}
	for k, v := range fields {
		if k == docstore.FieldID || docstore.IsTimestamp(k) {
			continue
		}
		e.doc.Data[k] = copyValue(docstore.Normalize(v))
	}
	e.doc.UpdatedAt = s.stamp()
	s.st.collections[collection][id] = e
	return copyDoc(e.doc), nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.collections[collection][id]; !ok {
		return apperrors.NotFound(collection, id)
	}
	delete(s.st.collections[collection], id)
	return nil
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{mu: &sync.RWMutex{}, st: s.st.clone(), now: s.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

func copyDoc(d docstore.Document) docstore.Document {
	if d.Data != nil {
		d.Data = copyValue(d.Data).(map[string]any)
	}
	return d
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	}
	return v
}
