package store

import (
	"context"
	"slices"
	"sync"

	"github.com/serroba/url-shortener/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*shortener.ShortURL
	byCode     map[shortener.Code]*shortener.ShortURL
	// normalized url -> id of the live record
	normalized map[string]int64
	// codes of deleted records
	retired    map[shortener.Code]struct{}
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[int64]*shortener.ShortURL),
		byCode:     make(map[shortener.Code]*shortener.ShortURL),
		normalized: make(map[string]int64),
		retired:    make(map[shortener.Code]struct{}),
	}
}

func (m *MemoryStore) ExistsByNormalizedURL(_ context.Context, normalizedURL string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.normalized[normalizedURL]

	return ok, nil
}

func (m *MemoryStore) ExistsByCode(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.codeTaken(code), nil
}

func (m *MemoryStore) Insert(_ context.Context, shortURL *shortener.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.normalized[shortURL.NormalizedURL]; ok {
		return &shortener.UniquenessViolation{Field: shortener.FieldURL}
	}

	if m.codeTaken(shortURL.Code) {
		return &shortener.UniquenessViolation{Field: shortener.FieldCode}
	}

	m.nextID++
	shortURL.ID = m.nextID

	stored := *shortURL
	m.byID[stored.ID] = &stored
	m.byCode[stored.Code] = &stored
	m.normalized[stored.NormalizedURL] = stored.ID

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shortURL, ok := m.byCode[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	found := *shortURL

	return &found, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id int64) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shortURL, ok := m.byID[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	found := *shortURL

	return &found, nil
}

func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	shortURL, ok := m.byID[id]
	if !ok {
		return shortener.ErrNotFound
	}

	delete(m.byID, id)
	delete(m.byCode, shortURL.Code)
	delete(m.normalized, shortURL.NormalizedURL)
	m.retired[shortURL.Code] = struct{}{}

	return nil
}

func (m *MemoryStore) List(_ context.Context, req shortener.PageRequest) (*shortener.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}

	// IDs grow with insertion order, so descending IDs is newest first.
	slices.Sort(ids)
	slices.Reverse(ids)

	page := &shortener.Page{
		Items:    []*shortener.ShortURL{},
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    len(ids),
	}

	start := min(req.Offset(), len(ids))
	end := min(start+req.PageSize, len(ids))

	for _, id := range ids[start:end] {
		item := *m.byID[id]
		page.Items = append(page.Items, &item)
	}

	return page, nil
}

func (m *MemoryStore) codeTaken(code shortener.Code) bool {
	if _, ok := m.byCode[code]; ok {
		return true
	}

	_, ok := m.retired[code]

	return ok
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
