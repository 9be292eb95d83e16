// Package service provides the implementation of sweet-related business logic:
// the inventory engine owning stock mutations and the catalog query service
// owning the cache-aside read path.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sweetlab/sweetshop/internal/cache"
	"github.com/sweetlab/sweetshop/internal/store"
	"github.com/google/uuid"
)

// Cache key namespace for the catalog. Every mutation drops the whole
// namespace (coarse invalidation): the catalog is read-heavy and write-light,
// so one sweep per write is cheap and keeps correctness simple.
const (
	cachePrefix = "sweets:"
	cacheKeyAll = cachePrefix + "all"
)

// CatalogService defines the read operations of the catalog.
// Reads go through the cache first and populate it on miss.
type CatalogService interface {
	// FindByID retrieves a single sweet by its unique identifier.
	// Returns ErrSweetNotFound if no sweet exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*SweetDto, error)

	// FindAll returns the full catalog through the cache-aside path.
	// Returns an empty slice if no sweets exist.
	FindAll(ctx context.Context) ([]SweetDto, error)

	// Search runs a fuzzy text and price-range query through the cache-aside
	// path, ordered by descending relevance.
	Search(ctx context.Context, criteria SearchCriteria) ([]SweetDto, error)

	// TotalPriceByID returns price * stock for a single sweet.
	// Returns ErrSweetNotFound if no sweet exists with the given ID.
	TotalPriceByID(ctx context.Context, id uuid.UUID) (float64, error)
}

// Catalog implements CatalogService on top of a SweetStore and a Cache.
type Catalog struct {
	repository store.SweetStore
	cache      cache.Cache
	ttl        time.Duration
	logger     *slog.Logger
}

// NewCatalog creates a new CatalogService with the provided store, cache and
// cache entry TTL.
func NewCatalog(repo store.SweetStore, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Catalog {
	return &Catalog{
		repository: repo,
		cache:      c,
		ttl:        ttl,
		logger:     logger.With("component", "catalog"),
	}
}

// FindByID retrieves a sweet by its ID and returns it as a SweetDto.
// Returns ErrSweetNotFound if no sweet exists with the given ID.
func (s *Catalog) FindByID(ctx context.Context, id uuid.UUID) (*SweetDto, error) {
	sweet, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sweet by ID %s: %w", id, err)
	}
	return toDto(sweet), nil
}

// FindAll returns the full catalog. On cache hit the cached list is returned
// verbatim; on miss the store is queried and the shaped list is cached with
// the configured TTL.
func (s *Catalog) FindAll(ctx context.Context) ([]SweetDto, error) {
	if cached, ok := s.fromCache(ctx, cacheKeyAll); ok {
		return cached, nil
	}

	sweets, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sweets: %w", err)
	}
	dtos := toDtos(sweets)
	s.storeInCache(ctx, cacheKeyAll, dtos)
	return dtos, nil
}

// Search runs the search query through the cache-aside path. The cache key is
// built deterministically from the criteria so equal searches share an entry.
func (s *Catalog) Search(ctx context.Context, criteria SearchCriteria) ([]SweetDto, error) {
	key := criteria.cacheKey()
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	sweets, err := s.repository.Search(ctx, store.SearchParams{
		Name:     criteria.Name,
		Category: criteria.Category,
		MinPrice: criteria.MinPrice,
		MaxPrice: criteria.MaxPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search sweets: %w", err)
	}
	dtos := toDtos(sweets)
	s.storeInCache(ctx, key, dtos)
	return dtos, nil
}

// TotalPriceByID returns price * stock for a single sweet.
func (s *Catalog) TotalPriceByID(ctx context.Context, id uuid.UUID) (float64, error) {
	sweet, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch sweet by ID %s: %w", id, err)
	}
	return sweet.Price * float64(sweet.Stock), nil
}

// fromCache returns the cached list under key. Any cache failure degrades to
// a miss so a cache outage never takes down the read path.
func (s *Catalog) fromCache(ctx context.Context, key string) ([]SweetDto, bool) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "Cache read failed, falling back to store", "key", key, "error", err)
		}
		return nil, false
	}
	var dtos []SweetDto
	if err := json.Unmarshal([]byte(value), &dtos); err != nil {
		s.logger.WarnContext(ctx, "Corrupt cache entry, falling back to store", "key", key, "error", err)
		return nil, false
	}
	return dtos, true
}

// storeInCache populates key with the shaped list. Failures are logged and
// otherwise ignored: the entry will simply be rebuilt on the next miss.
func (s *Catalog) storeInCache(ctx context.Context, key string, dtos []SweetDto) {
	value, err := json.Marshal(dtos)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to marshal cache entry", "key", key, "error", err)
		return
	}
	if err := s.cache.SetWithTTL(ctx, key, string(value), s.ttl); err != nil {
		s.logger.WarnContext(ctx, "Failed to populate cache", "key", key, "error", err)
	}
}
