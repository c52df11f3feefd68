package merchant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/commercekit/checkout/internal/shared/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "merchant:ns:"

// Service provides namespace configuration lookup with a Redis
// cache-aside layer in front of the repository.
type Service struct {
	repo    Repository
	redis   redis.UniversalClient
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new merchant service. The Redis client may be
// nil, in which case every lookup hits the repository.
func NewService(repo Repository, rdb redis.UniversalClient, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:    repo,
		redis:   rdb,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

// GetByNamespace returns the configuration for a namespace, or
// ErrConfigNotFound when the namespace has none.
func (s *Service) GetByNamespace(ctx context.Context, namespace string) (*Config, error) {
	if cfg := s.fromCache(ctx, namespace); cfg != nil {
		return cfg, nil
	}

	cfg, err := s.repo.GetByNamespace(ctx, namespace)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, namespace, cfg)
	return cfg, nil
}

// ServiceReturnURL returns the per-namespace redirect override, or ""
// when the platform UI should be used. A missing config is not an error.
func (s *Service) ServiceReturnURL(ctx context.Context, namespace string) (string, error) {
	cfg, err := s.GetByNamespace(ctx, namespace)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return "", nil
		}
		return "", err
	}
	return cfg.ServiceReturnURL, nil
}

// ReceiptSender returns the namespace's sender identity for receipt
// emails. A missing config yields empty values, not an error; the
// messaging backend then uses the platform default.
func (s *Service) ReceiptSender(ctx context.Context, namespace string) (string, string, error) {
	cfg, err := s.GetByNamespace(ctx, namespace)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return "", "", nil
		}
		return "", "", err
	}
	return cfg.ReceiptSenderName, cfg.ReceiptSenderEmail, nil
}

func (s *Service) fromCache(ctx context.Context, namespace string) *Config {
	if s.redis == nil {
		return nil
	}

	data, err := s.redis.Get(ctx, cacheKeyPrefix+namespace).Bytes()
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordCacheMiss("merchant_config")
		}
		return nil
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.logger.Warn("corrupt merchant config cache entry",
			zap.String("namespace", namespace), zap.Error(err))
		return nil
	}

	if s.metrics != nil {
		s.metrics.RecordCacheHit("merchant_config")
	}
	return &cfg
}

func (s *Service) toCache(ctx context.Context, namespace string, cfg *Config) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, cacheKeyPrefix+namespace, data, s.ttl).Err(); err != nil {
		s.logger.Warn("cache merchant config failed",
			zap.String("namespace", namespace), zap.Error(err))
	}
}
