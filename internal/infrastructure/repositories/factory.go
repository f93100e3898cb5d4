package repositories

import (
	"context"

	"forumclient/internal/core/ports"
	"forumclient/internal/infrastructure/repositories/memory"
	redisrepo "forumclient/internal/infrastructure/repositories/redis"
	"forumclient/pkg/config"
	"forumclient/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory picks the profile cache backend, falling back to memory
// when redis is disabled or unreachable.
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	cfg         *config.Config
	logger      *zap.SugaredLogger
	instance    string
}

func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) *RepositoryFactory {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		cfg:      cfg,
		logger:   logger,
		instance: utils.GenerateID("gw"),
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.Connect(context.Background(), redisrepo.Options{
			Address:    cfg.Redis.Address,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			ClientName: "forumd-" + factory.instance,
		}, logger)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory profile cache",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
		}
	}

	if factory.useRedis {
		logger.Infow("using Redis profile cache", "instance", factory.instance)
	} else {
		logger.Info("using memory profile cache")
	}
	return factory
}

func (f *RepositoryFactory) CreateProfileCache() ports.ProfileCache {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewProfileCache(f.redisClient, f.instance, f.cfg.Profile.CacheTTL)
	}
	return memory.NewProfileCache(f.cfg.Profile.CacheTTL)
}

// RedisClient is nil when the memory backend is in use.
func (f *RepositoryFactory) RedisClient() *redis.Client {
	return f.redisClient
}

func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return f.redisClient.Close()
	}
	return nil
}

func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
