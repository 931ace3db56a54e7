// Package cache provides a Redis-backed TTL cache in front of table-name
// resolution.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthbridge/udd/internal/tableservice"
)

const keyPrefix = "udd:table:"

// DefaultTTL is how long a resolved table name is cached before the next
// GetTable call re-fetches it from the remote service.
const DefaultTTL = 1 * time.Hour

// store is the narrow slice of *redis.Client's API TableCache needs,
// so tests can substitute an in-memory fake instead of a live server.
type store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
}

// TableCache wraps a tableservice.TableService, caching GetTable results
// in Redis to spare the remote service repeat lookups for the same
// table ID across requests.
type TableCache struct {
	next tableservice.TableService
	rdb  store
	ttl  time.Duration
}

// NewTableCache builds a TableCache delegating cache misses to next.
func NewTableCache(next tableservice.TableService, rdb *redis.Client) *TableCache {
	return &TableCache{next: next, ttl: DefaultTTL, rdb: rdb}
}

func (c *TableCache) GetTable(ctx context.Context, tableID string) (tableservice.Table, error) {
	key := keyPrefix + tableID

	if raw, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var table tableservice.Table
		if jsonErr := json.Unmarshal([]byte(raw), &table); jsonErr == nil {
			return table, nil
		}
	}

	table, err := c.next.GetTable(ctx, tableID)
	if err != nil {
		return tableservice.Table{}, err
	}

	if raw, err := json.Marshal(table); err == nil {
		_ = c.rdb.Set(ctx, key, raw, c.ttl).Err()
	}

	return table, nil
}

// The remaining TableService methods pass straight through; only table
// name resolution is cacheable (exports and downloads are one-shot jobs).

func (c *TableCache) StartCSVExport(ctx context.Context, query, tableID string) (string, error) {
	return c.next.StartCSVExport(ctx, query, tableID)
}

func (c *TableCache) PollCSVExport(ctx context.Context, token, tableID string) (tableservice.ExportResult, error) {
	return c.next.PollCSVExport(ctx, token, tableID)
}

func (c *TableCache) DownloadFileHandle(ctx context.Context, handleID, localPath string) error {
	return c.next.DownloadFileHandle(ctx, handleID, localPath)
}

func (c *TableCache) StartBulkDownload(ctx context.Context, req tableservice.BulkDownloadRequest) (string, error) {
	return c.next.StartBulkDownload(ctx, req)
}

func (c *TableCache) PollBulkDownload(ctx context.Context, token string) (tableservice.BulkDownloadResult, error) {
	return c.next.PollBulkDownload(ctx, token)
}

var _ tableservice.TableService = (*TableCache)(nil)
