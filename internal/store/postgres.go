package store

import (
	"context"
	_ "embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/url-shortener/internal/shortener"
)

//go:embed schema.sql
var postgresSchema string

const (
	pgUniqueViolation = "23505"
	pgCodeConstraint  = "short_urls_code_key"
)

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
// Deleted rows are kept with deleted_at set so their codes stay reserved.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it does not exist yet.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresSchema)

	return err
}

func (p *PostgresStore) ExistsByNormalizedURL(ctx context.Context, normalizedURL string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM short_urls
			WHERE normalized_url = $1 AND deleted_at IS NULL
		)
	`

	var exists bool
	err := p.pool.QueryRow(ctx, query, normalizedURL).Scan(&exists)

	return exists, err
}

func (p *PostgresStore) ExistsByCode(ctx context.Context, code shortener.Code) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM short_urls WHERE code = $1)`

	var exists bool
	err := p.pool.QueryRow(ctx, query, string(code)).Scan(&exists)

	return exists, err
}

func (p *PostgresStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	query := `
		INSERT INTO short_urls (code, original_url, normalized_url, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := p.pool.QueryRow(ctx, query,
		string(shortURL.Code),
		shortURL.OriginalURL,
		shortURL.NormalizedURL,
		shortURL.CreatedBy,
		shortURL.CreatedAt,
	).Scan(&shortURL.ID)
	if err != nil {
		return pgViolation(err)
	}

	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	query := `
		SELECT id, code, original_url, normalized_url, created_by, created_at
		FROM short_urls
		WHERE code = $1 AND deleted_at IS NULL
	`

	return p.getOne(ctx, query, string(code))
}

func (p *PostgresStore) GetByID(ctx context.Context, id int64) (*shortener.ShortURL, error) {
	query := `
		SELECT id, code, original_url, normalized_url, created_by, created_at
		FROM short_urls
		WHERE id = $1 AND deleted_at IS NULL
	`

	return p.getOne(ctx, query, id)
}

func (p *PostgresStore) Delete(ctx context.Context, id int64) error {
	query := `
		UPDATE short_urls SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := p.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) List(ctx context.Context, req shortener.PageRequest) (*shortener.Page, error) {
	page := &shortener.Page{
		Items:    []*shortener.ShortURL{},
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM short_urls WHERE deleted_at IS NULL`,
	).Scan(&page.Total)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, code, original_url, normalized_url, created_by, created_at
		FROM short_urls
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := p.pool.Query(ctx, query, req.PageSize, req.Offset())
	if err != nil {
		return nil, err
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*shortener.ShortURL, error) {
		return scanShortURL(row)
	})
	if err != nil {
		return nil, err
	}

	page.Items = append(page.Items, items...)

	return page, nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) getOne(ctx context.Context, query string, arg any) (*shortener.ShortURL, error) {
	url, err := scanShortURL(p.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return url, nil
}

func scanShortURL(row pgx.Row) (*shortener.ShortURL, error) {
	var url shortener.ShortURL

	err := row.Scan(
		&url.ID,
		&url.Code,
		&url.OriginalURL,
		&url.NormalizedURL,
		&url.CreatedBy,
		&url.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &url, nil
}

// pgViolation converts a unique_violation into a shortener.UniquenessViolation.
func pgViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}

	if pgErr.ConstraintName == pgCodeConstraint {
		return &shortener.UniquenessViolation{Field: shortener.FieldCode}
	}

	return &shortener.UniquenessViolation{Field: shortener.FieldURL}
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
