package gormstore

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/store"
)

var (
	_ store.Store = (*Store)(nil)
	_ store.Pager = (*Store)(nil)
)

func setupStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	s, err := New(db, opts...)
	require.NoError(t, err)
	return s
}

func TestNewRejectsNilHandle(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestSaveAssignsID(t *testing.T) {
	s := setupStore(t)
	r := &store.Record{Effect: store.EffectPermit, Principal: "alice", Securable: "report", Action: "read"}

	require.NoError(t, s.Save(context.Background(), r))
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
	assert.False(t, r.UpdatedAt.IsZero())

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSaveRejectsInvalid(t *testing.T) {
	s := setupStore(t)
	err := s.Save(context.Background(), &store.Record{Effect: "grant"})
	assert.True(t, errors.IsCode(err, errors.ErrRecordInvalid.Code))
}

func TestSaveUpsertsByID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	r := &store.Record{Effect: store.EffectPermit, Principal: "alice", Securable: "report", Action: "read"}
	require.NoError(t, s.Save(ctx, r))
	created := r.CreatedAt

	update := &store.Record{ID: r.ID, Effect: store.EffectDeny, Principal: "alice", Securable: "report", Action: "read"}
	require.NoError(t, s.Save(ctx, update))

	records, err := s.List(ctx, store.Wildcard)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, store.EffectDeny, records[0].Effect)
	// The stored CreatedAt survives the upsert.
	assert.Equal(t, created.UnixMilli(), records[0].CreatedAt.UnixMilli())
}

func TestDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	r := &store.Record{Effect: store.EffectPermit, Principal: "alice", Securable: "report", Action: "read"}
	require.NoError(t, s.Save(ctx, r))

	require.NoError(t, s.Delete(ctx, r.ID))

	err := s.Delete(ctx, r.ID)
	assert.True(t, errors.IsCode(err, errors.ErrRecordNotFound.Code))
}

func TestDeleteMatching(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	seed := []*store.Record{
		{Effect: store.EffectPermit, Principal: "alice", Securable: "report", Action: "read"},
		{Effect: store.EffectPermit, Principal: "alice", Securable: "report", Action: "update"},
		{Effect: store.EffectDeny, Principal: "alice", Securable: "report", Action: "read"},
	}
	for _, r := range seed {
		require.NoError(t, s.Save(ctx, r))
	}

	n, err := s.DeleteMatching(ctx, store.EffectPermit, "alice", "report", "read")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), left)

	n, err = s.DeleteMatching(ctx, store.EffectPermit, "nobody", "report", "read")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListScopesSecurable(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	seed := []*store.Record{
		{Effect: store.EffectPermit, Principal: "alice", Securable: "report", Action: "read"},
		{Effect: store.EffectPermit, Principal: "bob", Securable: "invoice", Action: "read"},
		{Effect: store.EffectDeny, Principal: "mallory", Action: "read"},
	}
	for _, r := range seed {
		require.NoError(t, s.Save(ctx, r))
	}

	records, err := s.List(ctx, "report")
	require.NoError(t, err)
	require.Len(t, records, 2)
	// ULID order is save order: the report permit, then the wildcard deny.
	assert.Equal(t, "alice", records[0].Principal)
	assert.Equal(t, "mallory", records[1].Principal)

	all, err := s.List(ctx, store.Wildcard)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPage(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	principals := []string{"p1", "p2", "p3", "p4", "p5"}
	for _, p := range principals {
		r := &store.Record{Effect: store.EffectPermit, Principal: p, Securable: "report", Action: "read"}
		require.NoError(t, s.Save(ctx, r))
	}

	total, window, err := s.Page(ctx, store.Wildcard, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, window, 2)
	assert.Equal(t, "p3", window[0].Principal)
	assert.Equal(t, "p4", window[1].Principal)
}

func TestWithTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	s, err := New(db, WithTable("policy_records"))
	require.NoError(t, err)

	r := &store.Record{Effect: store.EffectPermit, Principal: "alice", Securable: "report", Action: "read"}
	require.NoError(t, s.Save(context.Background(), r))

	var n int64
	require.NoError(t, db.Table("policy_records").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestRoundTripLoadsIntoList(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	seed := []*store.Record{
		{Effect: store.EffectDeny, Principal: "mallory", Securable: "report", Action: "read"},
		{Effect: store.EffectPermit, Securable: "report", Action: "read"},
	}
	for _, r := range seed {
		require.NoError(t, s.Save(ctx, r))
	}

	l, err := store.Load(ctx, s, "report")
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
}
