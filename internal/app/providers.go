package app

import (
	"github.com/commercekit/checkout/internal/shared/cache"
	"github.com/commercekit/checkout/internal/shared/config"
	"github.com/commercekit/checkout/internal/shared/database"
	"github.com/commercekit/checkout/internal/shared/logger"
	"github.com/commercekit/checkout/internal/shared/metrics"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra bundles the process-wide infrastructure dependencies.
type Infra struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *gorm.DB
	Redis   goredis.UniversalClient
	Metrics *metrics.Metrics
}

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideDatabase,
	ProvideRedisClient,
	ProvideMetrics,
	wire.Struct(new(Infra), "*"),
)

// ProvideLogger creates the process logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideDatabase creates the database connection.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = database.Close(db)
	}
	return db, cleanup, nil
}

// ProvideRedisClient creates a Redis client. Redis is optional: a
// failed connection degrades caching and idempotency locking but does
// not stop the service.
func ProvideRedisClient(cfg *config.Config, log *zap.Logger) (goredis.UniversalClient, func()) {
	if cfg.Redis.Address == "" {
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn("redis connection failed, continuing without cache", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = client.Close() }
}

// ProvideMetrics creates the Prometheus metrics registry.
func ProvideMetrics() *metrics.Metrics {
	return metrics.New("checkout")
}
