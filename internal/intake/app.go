// Package intake is the request-intake worker loop: it BLPOPs requests
// off a Redis queue and drives the Packager for each one.
package intake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthbridge/udd/internal/cache"
	"github.com/healthbridge/udd/internal/catalog"
	"github.com/healthbridge/udd/internal/clock"
	"github.com/healthbridge/udd/internal/config"
	"github.com/healthbridge/udd/internal/filespace"
	"github.com/healthbridge/udd/internal/logging"
	"github.com/healthbridge/udd/internal/objectstore"
	"github.com/healthbridge/udd/internal/packager"
	"github.com/healthbridge/udd/internal/poller"
	"github.com/healthbridge/udd/internal/tableservice"
)

// App owns every long-lived collaborator the worker loop needs.
type App struct {
	config   *config.Config
	logger   logging.Logger
	catalog  catalog.Catalog
	queue    *redis.Client
	packager *packager.Packager
	db       *sql.DB
}

// NewApp constructs an App from cfg: opens the catalog database (running
// migrations), the Redis connection, the remote table service client
// wrapped in a cache, the object store, and the Packager itself.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := catalog.Open(ctx, c.CatalogDSN)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	cat := catalog.NewPostgresCatalog(db)

	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	httpClient := tableservice.NewHTTPClient(
		c.TableServiceBaseURL, c.TableServiceClientID, c.TableServiceClientSecret, c.TableServiceTokenURL, logger,
	)
	cachedService := cache.NewTableCache(httpClient, rdb)

	store := objectstore.NewS3Store(c.S3Region, c.S3BaseEndpoint, c.S3RootUser, c.S3RootPassword)

	p := &packager.Packager{
		FileSpace:      filespace.NewDisk(""),
		Service:        cachedService,
		ObjectStore:    store,
		Poller:         poller.New(c.PollInterval, c.PollMaxTries, logger),
		Clock:          clock.Real{},
		Logger:         logger,
		Bucket:         c.UserDataBucket,
		URLExpiration:  c.URLExpiration,
		WorkerPoolSize: c.WorkerPoolSize,
	}

	return &App{config: c, logger: logger, catalog: cat, queue: rdb, packager: p, db: db}, nil
}

func (a *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks, processing one request per BLPOP until ctx is cancelled or
// a termination signal arrives.
func (a *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	a.logger.Info(ctx, "starting udd worker", "queue", a.config.RequestQueueName)
	a.initSignalHandler(cancelFunc)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info(ctx, "shutting down")
			return
		default:
		}

		result, err := a.queue.BLPop(ctx, 5*time.Second, a.config.RequestQueueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			a.logger.Error(ctx, "blpop failed", "error", err)
			continue
		}

		// result[0] is the queue name, result[1] is the payload.
		a.handle(ctx, []byte(result[1]))
	}
}

func (a *App) handle(ctx context.Context, raw []byte) {
	req, err := ParseRequest(raw)
	if err != nil {
		a.logger.Error(ctx, "rejecting malformed request", "error", err)
		return
	}

	account, err := a.catalog.GetAccountInfo(ctx, req.StudyID, req.UserID)
	if err != nil {
		a.logger.Error(ctx, "account lookup failed", "study_id", req.StudyID, "user_id", req.UserID, "error", err)
		return
	}

	tableToSchema, err := a.catalog.GetTableMappings(ctx, req.StudyID)
	if err != nil {
		a.logger.Error(ctx, "table mapping lookup failed", "study_id", req.StudyID, "error", err)
		return
	}

	surveyTables, err := a.catalog.GetSurveyTableSet(ctx, req.StudyID)
	if err != nil {
		a.logger.Error(ctx, "survey table lookup failed", "study_id", req.StudyID, "error", err)
		return
	}

	info, err := a.packager.Package(ctx, tableToSchema, account.HealthCode, req, surveyTables)
	if err != nil {
		a.logger.Error(ctx, "packaging failed", "study_id", req.StudyID, "user_id", req.UserID, "error", err)
		return
	}
	if info == nil {
		a.logger.Info(ctx, "nothing to package", "study_id", req.StudyID, "user_id", req.UserID)
		return
	}

	a.logger.Info(ctx, "packaged study data", "study_id", req.StudyID, "user_id", req.UserID, "url", info.URL, "expires", info.Expiration)
}
