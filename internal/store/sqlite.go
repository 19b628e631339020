package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/serroba/url-shortener/internal/shortener"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // registers the pure Go "sqlite" driver
)

// shortURLRow is the gorm model of a short URL. DeletedAt makes deletes soft,
// which keeps the code of a deleted row reserved.
type shortURLRow struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Code          string `gorm:"size:12;not null;uniqueIndex:idx_short_urls_code"`
	OriginalURL   string `gorm:"not null"`
	NormalizedURL string `gorm:"not null"`
	CreatedBy     string `gorm:"not null"`
	CreatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (shortURLRow) TableName() string {
	return "short_urls"
}

// OpenSQLite opens (and migrates) a SQLite database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
	}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database with path %s: %w", path, err)
	}

	if err = db.AutoMigrate(&shortURLRow{}); err != nil {
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}

	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_short_urls_normalized_live
		ON short_urls (normalized_url) WHERE deleted_at IS NULL`).Error
	if err != nil {
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}

	return db, nil
}

// SQLiteStore is a gorm/SQLite implementation of shortener.Repository.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore creates a new SQLite-backed URL store.
func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) ExistsByNormalizedURL(ctx context.Context, normalizedURL string) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&shortURLRow{}).
		Where("normalized_url = ?", normalizedURL).
		Count(&count).Error

	return count > 0, err
}

func (s *SQLiteStore) ExistsByCode(ctx context.Context, code shortener.Code) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Unscoped().Model(&shortURLRow{}).
		Where("code = ?", string(code)).
		Count(&count).Error

	return count > 0, err
}

func (s *SQLiteStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) error {
	row := shortURLRow{
		Code:          string(shortURL.Code),
		OriginalURL:   shortURL.OriginalURL,
		NormalizedURL: shortURL.NormalizedURL,
		CreatedBy:     shortURL.CreatedBy,
		CreatedAt:     shortURL.CreatedAt,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return sqliteViolation(err)
	}

	shortURL.ID = row.ID

	return nil
}

func (s *SQLiteStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	return s.first(ctx, "code = ?", string(code))
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*shortener.ShortURL, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&shortURLRow{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (s *SQLiteStore) List(ctx context.Context, req shortener.PageRequest) (*shortener.Page, error) {
	var total int64

	if err := s.db.WithContext(ctx).Model(&shortURLRow{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []shortURLRow

	err := s.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(req.PageSize).Offset(req.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := &shortener.Page{
		Items:    make([]*shortener.ShortURL, 0, len(rows)),
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    int(total),
	}

	for i := range rows {
		page.Items = append(page.Items, rows[i].toShortURL())
	}

	return page, nil
}

// Ping checks database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Shutdown closes the underlying connection pool.
func (s *SQLiteStore) Shutdown() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (s *SQLiteStore) first(ctx context.Context, query string, arg any) (*shortener.ShortURL, error) {
	var row shortURLRow

	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return row.toShortURL(), nil
}

func (r *shortURLRow) toShortURL() *shortener.ShortURL {
	return &shortener.ShortURL{
		ID:            r.ID,
		Code:          shortener.Code(r.Code),
		OriginalURL:   r.OriginalURL,
		NormalizedURL: r.NormalizedURL,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

// sqliteViolation converts "UNIQUE constraint failed: short_urls.<column>" into
// a shortener.UniquenessViolation.
func sqliteViolation(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}

	if strings.Contains(msg, "short_urls.code") {
		return &shortener.UniquenessViolation{Field: shortener.FieldCode}
	}

	return &shortener.UniquenessViolation{Field: shortener.FieldURL}
}

// Compile-time check.
var _ shortener.Repository = (*SQLiteStore)(nil)
