package container

import (
	"fmt"
	"time"

	"github.com/samber/do"
	"github.com/serroba/url-shortener/internal/events"
	"github.com/serroba/url-shortener/internal/health"
	"github.com/serroba/url-shortener/internal/messaging"
	"github.com/serroba/url-shortener/internal/shortener"
	"github.com/serroba/url-shortener/internal/store"
	"go.uber.org/zap"
)

// RepositoryPackage selects the storage backend and optional lookup cache.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		var repo shortener.Repository

		switch opts.Storage {
		case StorageMemory:
			repo = store.NewMemoryStore()
		case StoragePostgres:
			repo = do.MustInvoke[*store.PostgresStore](i)
		case StorageSQLite:
			repo = do.MustInvoke[*store.SQLiteStore](i)
		case StorageRedis:
			repo = store.NewRedisStore(do.MustInvoke[*Redis](i).Client)
		default:
			return nil, fmt.Errorf("unknown storage %q", opts.Storage)
		}

		ttl := time.Duration(opts.CacheTTL) * time.Second

		switch opts.Cache {
		case CacheNone, "":
			return repo, nil
		case CacheLocal:
			return store.NewLocalCacheRepository(repo, ttl, opts.LocalCacheMB)
		case CacheRedis:
			return store.NewRedisCacheRepository(repo, do.MustInvoke[*Redis](i).Client, ttl), nil
		default:
			return nil, fmt.Errorf("unknown cache %q", opts.Cache)
		}
	})

	do.Provide(i, func(i *do.Injector) (map[string]health.Checker, error) {
		opts := do.MustInvoke[*Options](i)
		checkers := make(map[string]health.Checker)

		if opts.UsesRedis() {
			checkers["redis"] = health.NewRedisChecker(do.MustInvoke[*Redis](i).Client)
		}

		switch opts.Storage {
		case StoragePostgres:
			checkers["postgres"] = do.MustInvoke[*store.PostgresStore](i)
		case StorageSQLite:
			checkers["sqlite"] = do.MustInvoke[*store.SQLiteStore](i)
		}

		return checkers, nil
	})
}

// ServicePackage wires the shortener service and its change notifier.
func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		publishers := do.MustInvoke[*messaging.PublisherGroup](i)

		codes, err := shortener.NewCodeAllocator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		notifier := events.NewChangeNotifier(
			messaging.NewPublishFunc[events.URLsChangedEvent](publishers.Publisher(), events.TopicURLsChanged),
			logger,
		)

		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			codes,
			notifier,
			logger.Named("shortener"),
			shortener.WithMaxURLLength(opts.MaxURLLength),
		), nil
	})
}
