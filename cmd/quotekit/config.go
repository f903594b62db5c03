package main

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrymomot/quotekit/pkg/httpserver"
	"github.com/dmitrymomot/quotekit/pkg/mongo"
	"github.com/dmitrymomot/quotekit/pkg/pg"
	"github.com/dmitrymomot/quotekit/pkg/redis"
	"github.com/dmitrymomot/quotekit/pkg/subscription"
)

type usageBackend string

const (
	backendMemory   usageBackend = "memory"
	backendPostgres usageBackend = "postgres"
	backendSQLite   usageBackend = "sqlite"
	backendRedis    usageBackend = "redis"
	backendMongo    usageBackend = "mongo"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"quotekit"`
	LogLevel    string `env:"LOG_LEVEL"`

	UsageBackend usageBackend `env:"USAGE_BACKEND" envDefault:"memory"`
	SQLitePath   string       `env:"SQLITE_PATH" envDefault:"quotekit.db"`

	PlansFile     string        `env:"PLANS_FILE" envDefault:"plans.yaml"`
	PlanCacheTTL  time.Duration `env:"PLAN_CACHE_TTL" envDefault:"5m"`
	PlanCacheSize int           `env:"PLAN_CACHE_SIZE" envDefault:"256"`

	UserIDHeader   string `env:"USER_ID_HEADER" envDefault:"X-User-ID"`
	AdminToken     string `env:"ADMIN_TOKEN"`
	AdminTokenHash string `env:"ADMIN_TOKEN_HASH"` // bcrypt, preferred over ADMIN_TOKEN
	UpstreamURL    string `env:"UPSTREAM_URL"`
	Language       string `env:"MESSAGE_LANGUAGE" envDefault:"en"`

	HTTP     httpserver.Config
	Postgres pg.Config
	Redis    redis.Config
	Mongo    mongo.Config
	Paddle   subscription.PaddleConfig
	PlansS3  subscription.S3Config
}

// Validate is called by config.Load.
func (c appConfig) Validate() error {
	var errs []error

	switch c.UsageBackend {
	case backendMemory, backendSQLite:
	case backendPostgres:
		if !c.Postgres.Enabled() {
			errs = append(errs, errors.New("USAGE_BACKEND=postgres requires DATABASE_URL"))
		}
	case backendRedis:
		if c.Redis.ConnectionURL == "" {
			errs = append(errs, errors.New("USAGE_BACKEND=redis requires REDIS_URL"))
		}
	case backendMongo:
		if c.Mongo.ConnectionURL == "" {
			errs = append(errs, errors.New("USAGE_BACKEND=mongo requires MONGODB_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown USAGE_BACKEND %q", c.UsageBackend))
	}

	if c.UpstreamURL != "" {
		if u, err := url.Parse(c.UpstreamURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("UPSTREAM_URL %q is not an absolute URL", c.UpstreamURL))
		}
	}

	return errors.Join(errs...)
}
