package container

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/url-shortener/internal/logging"
	"github.com/serroba/url-shortener/internal/store"
	"go.uber.org/zap"
)

// Redis owns the shared Redis client.
type Redis struct {
	*redis.Client
}

func (r *Redis) Shutdown() error {
	return r.Close()
}

// Postgres owns the pgx connection pool.
type Postgres struct {
	*pgxpool.Pool
}

func (p *Postgres) Shutdown() error {
	p.Close()

	return nil
}

// Sentry flushes buffered events on shutdown.
type Sentry struct {
	Enabled bool
}

func (s *Sentry) Shutdown() error {
	if s.Enabled {
		sentry.Flush(2 * time.Second)
	}

	return nil
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*logging.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return logging.New(logging.Options{
			Format: opts.LogFormat,
			Level:  opts.LogLevel,
			File:   opts.LogFile,
		})
	})

	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		return do.MustInvoke[*logging.Logger](i).Logger, nil
	})
}

func SentryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Sentry, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.SentryDSN == "" {
			return &Sentry{}, nil
		}

		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			Environment:      opts.Environment,
			AttachStacktrace: true,
			TracesSampleRate: 0.1,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing sentry: %w", err)
		}

		return &Sentry{Enabled: true}, nil
	})
}

func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)

		return &Redis{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}

		return &Postgres{Pool: pool}, nil
	})

	do.Provide(i, func(i *do.Injector) (*store.PostgresStore, error) {
		pg := do.MustInvoke[*Postgres](i)
		pgStore := store.NewPostgresStore(pg.Pool)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := pgStore.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrating postgres: %w", err)
		}

		return pgStore, nil
	})
}

func SQLitePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.SQLiteStore, error) {
		opts := do.MustInvoke[*Options](i)

		db, err := store.OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}

		return store.NewSQLiteStore(db), nil
	})
}
