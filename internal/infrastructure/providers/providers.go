package providers

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"

	"github.com/dandihub/dandinotes/internal/config"
	"github.com/dandihub/dandinotes/internal/infrastructure/database"
	"github.com/dandihub/dandinotes/internal/infrastructure/repository"
	"github.com/dandihub/dandinotes/internal/service"
)

// NewRepository opens the filesystem store rooted at the configured directory.
func NewRepository(conf config.Server) (*repository.FilesystemRepository, error) {
	return repository.NewFilesystemRepository(conf.SubmissionsRoot)
}

// NewRedis creates a redis client for session storage.
func NewRedis(conf config.Server) *redis.Client {
	return database.NewRedis(conf.RedisAddr, "", conf.RedisDB)
}

// NewMemcache creates a memcache client for the statistics cache.
// Returns nil when no server is configured; callers treat nil as no cache.
func NewMemcache(conf config.Server) *memcache.Client {
	if conf.MemcachedAddr == "" {
		return nil
	}
	return database.NewMemcached(conf.MemcachedAddr)
}

// NewSessionStore picks redis-backed sessions when an address is configured,
// falling back to the in-process store otherwise.
func NewSessionStore(conf config.Server) service.SessionStore {
	if conf.RedisAddr == "" {
		return service.NewMemorySessionStore()
	}
	return service.NewRedisSessionStore(NewRedis(conf))
}
