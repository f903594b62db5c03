package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/language"
	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/quotekit/migrations"
	"github.com/dmitrymomot/quotekit/pkg/gate"
	"github.com/dmitrymomot/quotekit/pkg/httpserver"
	"github.com/dmitrymomot/quotekit/pkg/logger"
	"github.com/dmitrymomot/quotekit/pkg/mongo"
	"github.com/dmitrymomot/quotekit/pkg/pg"
	"github.com/dmitrymomot/quotekit/pkg/redis"
	"github.com/dmitrymomot/quotekit/pkg/subscription"
	"github.com/dmitrymomot/quotekit/pkg/usage"
)

type app struct {
	cfg    appConfig
	log    *slog.Logger
	gate   *gate.Gate
	api    *gate.API
	checks map[string]httpserver.Check
	closer []func()
}

func newApp(ctx context.Context, cfg appConfig, log *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: log, checks: map[string]httpserver.Check{}}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	var pool *pgxpool.Pool
	if cfg.Postgres.Enabled() {
		pool, err = pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closer = append(a.closer, pool.Close)
		a.checks["postgres"] = pg.Healthcheck(pool)

		if err := pg.Migrate(ctx, pool, migrations.FS, cfg.Postgres, log.With(logger.Component("migrations"))); err != nil {
			return nil, err
		}
	}

	store, err := a.openUsageStore(ctx, pool)
	if err != nil {
		return nil, err
	}

	var subs subscription.Store
	if pool != nil {
		subs = subscription.NewPostgresStore(pool)
	} else {
		log.Warn("DATABASE_URL is not set, subscriptions are kept in memory")
		subs = subscription.NewMemoryStore()
	}

	source, provider, err := a.openPlanSource(ctx)
	if err != nil {
		return nil, err
	}
	plans := subscription.NewCachedSource(source,
		subscription.WithCacheTTL(cfg.PlanCacheTTL),
		subscription.WithCacheCapacity(cfg.PlanCacheSize),
	)

	resolver := subscription.NewResolver(subs, plans,
		subscription.WithResolverLogger(log.With(logger.Component("resolver"))),
	)

	tag, err := language.Parse(cfg.Language)
	if err != nil {
		log.Warn("unknown MESSAGE_LANGUAGE, falling back to English", slog.String("language", cfg.Language))
		tag = language.English
	}

	a.gate = gate.New(resolver, store,
		gate.WithLogger(log.With(logger.Component("gate"))),
		gate.WithLanguage(tag),
	)

	admin := gate.AdminToken(cfg.AdminToken)
	if cfg.AdminTokenHash != "" {
		admin = gate.AdminTokenHash(cfg.AdminTokenHash)
	}
	apiOpts := []gate.APIOption{
		gate.WithPlanStore(plans),
		gate.WithAdminMiddleware(admin),
	}
	if provider != nil {
		apiOpts = append(apiOpts, gate.WithReconciler(subscription.NewReconciler(subs, provider,
			subscription.WithPolicyDiff(plans),
			subscription.WithReconcilerLogger(log.With(logger.Component("reconciler"))),
		)))
	}
	a.api = gate.NewAPI(a.gate, apiOpts...)

	return a, nil
}

func (a *app) openUsageStore(ctx context.Context, pool *pgxpool.Pool) (usage.Store, error) {
	a.log.Info("opening usage store", slog.String("backend", string(a.cfg.UsageBackend)))

	switch a.cfg.UsageBackend {
	case backendPostgres:
		return usage.NewPostgresStore(pool), nil

	case backendSQLite:
		db, err := sql.Open("sqlite", a.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", a.cfg.SQLitePath, err)
		}
		db.SetMaxOpenConns(1)
		a.closer = append(a.closer, func() { _ = db.Close() })
		a.checks["sqlite"] = db.PingContext

		s := usage.NewSQLiteStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
		return s, nil

	case backendRedis:
		client, err := redis.Connect(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closer = append(a.closer, func() { _ = client.Close() })
		a.checks["redis"] = redis.Healthcheck(client)
		return usage.NewRedisStore(client), nil

	case backendMongo:
		db, err := mongo.Connect(ctx, a.cfg.Mongo)
		if err != nil {
			return nil, err
		}
		a.closer = append(a.closer, func() { _ = db.Client().Disconnect(context.Background()) })
		a.checks["mongo"] = mongo.Healthcheck(db)

		s := usage.NewMongoStore(db)
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("create mongo indexes: %w", err)
		}
		return s, nil

	default:
		a.log.Warn("usage counters are kept in memory and reset on restart")
		return usage.NewMemoryStore(), nil
	}
}

// openPlanSource prefers the Paddle catalog, then a plans object in S3, then
// the local plans file. provider is nil unless Paddle is configured.
func (a *app) openPlanSource(ctx context.Context) (subscription.MetadataStore, subscription.ProviderSubscriptions, error) {
	if a.cfg.Paddle.Enabled() {
		client, err := subscription.NewPaddleClient(a.cfg.Paddle)
		if err != nil {
			return nil, nil, err
		}
		a.log.Info("plan metadata from paddle", slog.String("environment", a.cfg.Paddle.Environment))
		return subscription.NewPaddleCatalog(client), subscription.NewPaddleSubscriptions(client), nil
	}

	if s3cfg := a.cfg.PlansS3; s3cfg.Enabled() {
		client, err := subscription.NewS3Client(ctx, s3cfg)
		if err != nil {
			return nil, nil, err
		}
		src, err := subscription.NewS3Source(ctx, client, s3cfg.Bucket, s3cfg.Key)
		if err != nil {
			return nil, nil, err
		}
		a.log.Info("plan metadata from s3", slog.String("bucket", s3cfg.Bucket), slog.String("key", s3cfg.Key))
		return src, nil, nil
	}

	src, err := subscription.NewFileSource(a.cfg.PlansFile)
	if errors.Is(err, fs.ErrNotExist) {
		a.log.Warn("plans file not found, every subscriber resolves to the free plan",
			slog.String("path", a.cfg.PlansFile))
		return subscription.NewStaticSource(nil), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	a.log.Info("plan metadata from file", slog.String("path", a.cfg.PlansFile))
	return src, nil, nil
}

func (a *app) serve(ctx context.Context) error {
	handler, err := a.routes()
	if err != nil {
		return err
	}

	srv := httpserver.New(a.cfg.HTTP,
		httpserver.WithLogger(a.log.With(logger.Component("http"))),
		httpserver.WithShutdownHook(func(context.Context) error {
			a.gate.Wait()
			return nil
		}),
	)
	return srv.Run(ctx, handler)
}

func (a *app) close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		a.closer[i]()
	}
}
