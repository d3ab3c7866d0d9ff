// Package mongostore persists policy records in a MongoDB collection,
// keyed by ULID with a securable+effect index for scoped listing.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongocomp "github.com/kart-io/guard/pkg/component/mongodb"
	"github.com/kart-io/guard/pkg/errors"
	mongoopts "github.com/kart-io/guard/pkg/options/mongodb"
	"github.com/kart-io/guard/pkg/store"
)

// DefaultCollection is the collection records live in unless
// WithCollection overrides it.
const DefaultCollection = "acl_rules"

type doc struct {
	ID        string    `bson:"_id"`
	Effect    string    `bson:"effect"`
	Principal string    `bson:"principal"`
	Securable string    `bson:"securable"`
	Action    string    `bson:"action"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toDoc(r *store.Record) doc {
	return doc{
		ID:        r.ID,
		Effect:    string(r.Effect),
		Principal: r.Principal,
		Securable: r.Securable,
		Action:    r.Action,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (d doc) record() *store.Record {
	return &store.Record{
		ID:        d.ID,
		Effect:    store.Effect(d.Effect),
		Principal: d.Principal,
		Securable: d.Securable,
		Action:    d.Action,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// scopeFilter selects records for one securable plus wildcard-securable
// records. A wildcard scope selects everything.
func scopeFilter(securable string) bson.M {
	if securable == store.Wildcard {
		return bson.M{}
	}
	return bson.M{"securable": bson.M{"$in": []string{securable, store.Wildcard}}}
}

// matchFilter selects records equal to the tuple.
func matchFilter(effect store.Effect, principal, securable, action string) bson.M {
	return bson.M{
		"effect":    string(effect),
		"principal": principal,
		"securable": securable,
		"action":    action,
	}
}

// Store implements store.Store on a MongoDB collection.
type Store struct {
	coll  *mongo.Collection
	owner *mongocomp.Client
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Pager = (*Store)(nil)
)

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	collection string
}

// WithCollection overrides the records collection name.
func WithCollection(name string) Option {
	return func(c *openConfig) {
		if name != "" {
			c.collection = name
		}
	}
}

// New wraps an existing collection and ensures the scope index. Close
// leaves the client open; use Open when the store should own its
// connection.
func New(ctx context.Context, coll *mongo.Collection) (*Store, error) {
	if coll == nil {
		return nil, fmt.Errorf("mongo collection cannot be nil")
	}

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "securable", Value: 1}, {Key: "effect", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure index: %w", err)
	}
	return &Store{coll: coll}, nil
}

// Open connects through the mongodb component and returns a store that
// owns the connection. The options must name a database.
func Open(ctx context.Context, o *mongoopts.Options, opts ...Option) (*Store, error) {
	cfg := &openConfig{collection: DefaultCollection}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := mongocomp.NewWithContext(ctx, o)
	if err != nil {
		return nil, err
	}

	coll := client.Collection(cfg.collection)
	if coll == nil {
		_ = client.Close()
		return nil, fmt.Errorf("mongodb options must name a database")
	}

	s, err := New(ctx, coll)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	s.owner = client
	return s, nil
}

// Save inserts or updates the record. A record without an ID gets a fresh
// ULID and CreatedAt; UpdatedAt is touched either way.
func (s *Store) Save(ctx context.Context, r *store.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if r.ID == "" {
		r.ID = store.NewRecordID()
		r.CreatedAt = now
	} else if r.CreatedAt.IsZero() {
		var existing doc
		err := s.coll.FindOne(ctx, bson.M{"_id": r.ID}).Decode(&existing)
		switch {
		case err == nil:
			r.CreatedAt = existing.CreatedAt.UTC()
		case err == mongo.ErrNoDocuments:
		default:
			return errors.ErrStoreUnavailable.WithCause(err)
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": r.ID},
		toDoc(r),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.ErrStoreUnavailable.WithCause(err)
	}
	if res.DeletedCount == 0 {
		return errors.ErrRecordNotFound
	}
	return nil
}

// DeleteMatching removes every record equal to the tuple and reports how
// many went.
func (s *Store) DeleteMatching(ctx context.Context, effect store.Effect, principal, securable, action string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, matchFilter(effect, principal, securable, action))
	if err != nil {
		return 0, errors.ErrStoreUnavailable.WithCause(err)
	}
	return res.DeletedCount, nil
}

// List returns records scoped to the securable plus wildcard-securable
// records, in ID order.
func (s *Store) List(ctx context.Context, securable string) ([]*store.Record, error) {
	cur, err := s.coll.Find(ctx, scopeFilter(securable),
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	var docs []doc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	out := make([]*store.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record())
	}
	return out, nil
}

// Page returns the record count for the securable scope and one window of
// it.
func (s *Store) Page(ctx context.Context, securable string, offset, limit int) (int64, []*store.Record, error) {
	filter := scopeFilter(securable)

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if offset > 0 {
		findOpts.SetSkip(int64(offset))
	}
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return 0, nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	var docs []doc
	if err := cur.All(ctx, &docs); err != nil {
		return 0, nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	out := make([]*store.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record())
	}
	return total, out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errors.ErrStoreUnavailable.WithCause(err)
	}
	return n, nil
}

// Close releases the owned connection, if the store opened one.
func (s *Store) Close() error {
	if s.owner != nil {
		return s.owner.Close()
	}
	return nil
}
