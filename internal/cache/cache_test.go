package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/healthbridge/udd/internal/tableservice"
)

func TestTableCache_MissThenHit(t *testing.T) {
	fake := tableservice.NewFake()
	fake.Tables["t1"] = tableservice.Table{ID: "t1", Name: "participants"}
	store := newFakeStore()

	cache := &TableCache{next: fake, rdb: store, ttl: DefaultTTL}

	table, err := cache.GetTable(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, "participants", table.Name)
	require.Equal(t, 1, store.Sets)

	// Remove the table from the underlying service to prove the second
	// call is served from cache, not a re-fetch.
	delete(fake.Tables, "t1")

	table, err = cache.GetTable(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, "participants", table.Name)
}

func TestTableCache_MissPropagatesUnderlyingError(t *testing.T) {
	fake := tableservice.NewFake()
	store := newFakeStore()
	cache := &TableCache{next: fake, rdb: store, ttl: DefaultTTL}

	_, err := cache.GetTable(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, 0, store.Sets)
}
