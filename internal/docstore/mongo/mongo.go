// Package mongo stores each collection natively with the document id as _id
// and data fields at the top level.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const dbSystem = "mongodb"

// Store implements docstore.Store on MongoDB. Transactions need a replica
// set; operations issued with the session context join the transaction.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ docstore.Store = (*Store)(nil)

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database), now: time.Now}
}

// stamp truncates to the millisecond precision BSON dates keep.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Store) Create(ctx context.Context, collection string, doc docstore.Document) (out docstore.Document, err error) {
	ctx, done := database.TraceQuery(ctx, dbSystem, "insert", collection)
	defer func() { done(err) }()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := s.stamp()
	doc.Data = docstore.Normalize(doc.Data).(map[string]any)
	doc.CreatedAt, doc.UpdatedAt = now, now

	if _, err = s.db.Collection(collection).InsertOne(ctx, toBSON(doc)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return docstore.Document{}, apperrors.AlreadyExists(collection, "id", doc.ID)
		}
		return docstore.Document{}, fmt.Errorf("insert %s document: %w", collection, err)
	}
	return doc, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (out docstore.Document, err error) {
	ctx, done := database.TraceQuery(ctx, dbSystem, "find", collection)
	defer func() { done(err) }()

	var raw bson.M
	err = s.db.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return docstore.Document{}, apperrors.NotFound(collection, id)
		}
		return docstore.Document{}, fmt.Errorf("get %s document: %w", collection, err)
	}
	return fromBSON(raw), nil
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) (docs []docstore.Document, err error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return nil, err
	}
	ctx, done := database.TraceQuery(ctx, dbSystem, "find", collection)
	defer func() { done(err) }()

	opts := options.Find()
	if sort := toSort(q.Sort); sort != nil {
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}

	cur, err := s.db.Collection(collection).Find(ctx, toFilter(q.Filters), opts)
	if err != nil {
		return nil, fmt.Errorf("query %s documents: %w", collection, err)
	}
	var raws []bson.M
	if err = cur.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("read %s documents: %w", collection, err)
	}

	docs = make([]docstore.Document, len(raws))
	for i, raw := range raws {
		docs[i] = fromBSON(raw)
	}
	return docs, nil
}

func (s *Store) Count(ctx context.Context, collection string, q docstore.Query) (n int, err error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return 0, err
	}
	ctx, done := database.TraceQuery(ctx, dbSystem, "count", collection)
	defer func() { done(err) }()

	c, err := s.db.Collection(collection).CountDocuments(ctx, toFilter(q.Filters))
	if err != nil {
		return 0, fmt.Errorf("count %s documents: %w", collection, err)
	}
	return int(c), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) (out docstore.Document, err error) {
	ctx, done := database.TraceQuery(ctx, dbSystem, "update", collection)
	defer func() { done(err) }()

	var raw bson.M
	err = s.db.Collection(collection).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: toSet(fields, s.stamp())}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return docstore.Document{}, apperrors.NotFound(collection, id)
		}
		return docstore.Document{}, fmt.Errorf("update %s document: %w", collection, err)
	}
	return fromBSON(raw), nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) (err error) {
	ctx, done := database.TraceQuery(ctx, dbSystem, "delete", collection)
	defer func() { done(err) }()

	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete %s document: %w", collection, err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound(collection, id)
	}
	return nil
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Store) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, s)
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
