package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/config"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/events"
	internalRedis "github.com/fabionascimentodev/Bahia-Driver-sub001/internal/redis"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/repository/postgres"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/service"
)

const defaultShutdownTimeout = 10 * time.Second

// Infra holds the external connections shared by the binaries.
// Redis and Publisher are nil when disabled.
type Infra struct {
	DB        *sql.DB
	Redis     *redis.Client
	NewRelic  *newrelic.Application
	Publisher *events.Publisher
	Log       zerolog.Logger
}

// NewInfra connects to every configured backend. Postgres is required;
// Redis is required when enabled; RabbitMQ is best effort.
func NewInfra(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Infra, error) {
	infra := &Infra{Log: log}

	// Initialize New Relic first so the database driver can be instrumented.
	infra.NewRelic = NewNewRelicApp(cfg.NewRelic, log)

	db, err := NewDatabase(ctx, cfg.Database, infra.NewRelic)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	infra.DB = db
	log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("connected to PostgreSQL")

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			infra.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		log.Info().Msg("database migrations applied")
	}

	if cfg.Redis.Enabled {
		client, err := NewRedisClient(ctx, cfg.Redis, infra.NewRelic)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		infra.Redis = client
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
	}

	if cfg.MQ.Enabled {
		publisher, err := events.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, correction events disabled")
		} else {
			infra.Publisher = publisher
			log.Info().Str("exchange", cfg.MQ.Exchange).Msg("connected to RabbitMQ")
		}
	}

	return infra, nil
}

// Reconciler wires a Reconciler over the connected backends.
func (i *Infra) Reconciler(cfg config.ReconcileConfig) *service.Reconciler {
	driverRepo := postgres.NewDriverRepository(i.DB)
	rideRepo := postgres.NewRideRepository(i.DB)

	deps := service.ReconcilerDeps{
		Drivers:       driverRepo,
		Rides:         rideRepo,
		Logger:        i.Log,
		Workers:       cfg.Workers,
		LockTTL:       cfg.LockTTL,
		DriverTimeout: cfg.DriverTimeout,
	}

	// Optional collaborators stay nil interfaces when their backend is disabled.
	if i.Redis != nil {
		deps.Locks = internalRedis.NewLockStore(i.Redis)
		deps.RunCache = internalRedis.NewCacheStore(i.Redis)
	}
	if i.Publisher != nil {
		deps.Publisher = i.Publisher
	}

	return service.NewReconciler(deps)
}

// RunCache returns the run summary cache, or nil when Redis is disabled.
func (i *Infra) RunCache() internalRedis.RunCacheInterface {
	if i.Redis == nil {
		return nil
	}
	return internalRedis.NewCacheStore(i.Redis)
}

// Close releases every connection.
func (i *Infra) Close() {
	if i.Publisher != nil {
		i.Publisher.Close()
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.DB != nil {
		_ = i.DB.Close()
	}
	if i.NewRelic != nil {
		i.NewRelic.Shutdown(defaultShutdownTimeout)
	}
}
