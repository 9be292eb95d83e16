package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sweetlab/sweetshop/internal/auth"
	"github.com/sweetlab/sweetshop/internal/cache"
	sweeterrors "github.com/sweetlab/sweetshop/internal/errors"
	"github.com/sweetlab/sweetshop/internal/store"
	"github.com/sweetlab/sweetshop/pkg/messaging"
	"github.com/sweetlab/sweetshop/pkg/messaging/events"
	"github.com/google/uuid"
)

// InventoryService defines the stock-mutating operations of the catalog.
// Every successful mutation invalidates the whole cache namespace after the
// store write is committed, so reads never serve stale data past a write.
type InventoryService interface {
	// Create adds a new sweet to the catalog. Admin-gated.
	Create(ctx context.Context, grant auth.AdminGrant, input SweetCreateDto) (*SweetDto, error)

	// Update applies a partial update to an existing sweet. Admin-gated.
	// Returns ErrSweetNotFound if no sweet exists with the given ID.
	Update(ctx context.Context, grant auth.AdminGrant, id uuid.UUID, patch SweetUpdateDto) (*SweetDto, error)

	// Delete removes a sweet by its ID. Admin-gated.
	// Returns ErrSweetNotFound if no sweet exists with the given ID.
	Delete(ctx context.Context, grant auth.AdminGrant, id uuid.UUID) error

	// Purchase decrements stock by quantity inside one store transaction and
	// returns the post-purchase sweet plus the derived total price.
	// Returns ErrSweetNotFound or ErrInsufficientStock; on error nothing is
	// persisted and the cache is left untouched.
	Purchase(ctx context.Context, id uuid.UUID, quantity int32) (*PurchaseDto, error)

	// Restock increments stock by quantity inside one store transaction.
	// Admin-gated. Returns ErrSweetNotFound if no sweet exists with the given ID.
	Restock(ctx context.Context, grant auth.AdminGrant, id uuid.UUID, quantity int32) (*SweetDto, error)
}

// Inventory implements InventoryService. It holds no sweet state across
// requests: every mutation re-reads then writes within one store transaction.
type Inventory struct {
	repository store.SweetStore
	cache      cache.Cache
	publisher  messaging.Publisher
	logger     *slog.Logger
}

// NewInventory creates a new InventoryService with the provided store, cache
// and event publisher. The publisher may be nil when eventing is disabled.
func NewInventory(repo store.SweetStore, c cache.Cache, publisher messaging.Publisher, logger *slog.Logger) *Inventory {
	return &Inventory{
		repository: repo,
		cache:      c,
		publisher:  publisher,
		logger:     logger.With("component", "inventory"),
	}
}

// Create adds a new sweet to the catalog and invalidates the cache namespace.
func (s *Inventory) Create(ctx context.Context, grant auth.AdminGrant, input SweetCreateDto) (*SweetDto, error) {
	if !grant.Valid() {
		return nil, sweeterrors.ErrAdminRequired
	}
	sweet, err := s.repository.Create(ctx, store.CreateParams{
		Name:        input.Name,
		Category:    input.Category,
		Price:       input.Price,
		Stock:       input.Stock,
		Description: input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sweet: %w", err)
	}
	if err := s.invalidateCache(ctx); err != nil {
		return nil, err
	}
	return toDto(sweet), nil
}

// Update applies a partial update and invalidates the cache namespace.
// Returns ErrSweetNotFound if no sweet exists with the given ID.
func (s *Inventory) Update(ctx context.Context, grant auth.AdminGrant, id uuid.UUID, patch SweetUpdateDto) (*SweetDto, error) {
	if !grant.Valid() {
		return nil, sweeterrors.ErrAdminRequired
	}
	sweet, err := s.repository.Update(ctx, id, store.UpdateParams{
		Name:        patch.Name,
		Category:    patch.Category,
		Price:       patch.Price,
		Stock:       patch.Stock,
		Description: patch.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update sweet with ID %s: %w", id, err)
	}
	if err := s.invalidateCache(ctx); err != nil {
		return nil, err
	}
	return toDto(sweet), nil
}

// Delete removes a sweet and invalidates the cache namespace.
// Returns ErrSweetNotFound if no sweet exists with the given ID.
func (s *Inventory) Delete(ctx context.Context, grant auth.AdminGrant, id uuid.UUID) error {
	if !grant.Valid() {
		return sweeterrors.ErrAdminRequired
	}
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		return err
	}
	return s.invalidateCache(ctx)
}

// Purchase decrements stock inside one store transaction. The cache is
// invalidated only after the transaction commits; an aborted purchase leaves
// both store and cache untouched.
func (s *Inventory) Purchase(ctx context.Context, id uuid.UUID, quantity int32) (*PurchaseDto, error) {
	sweet, err := s.repository.DecrementStock(ctx, id, quantity)
	if err != nil {
		return nil, err
	}
	if err := s.invalidateCache(ctx); err != nil {
		return nil, err
	}

	s.publish(ctx, events.SweetPurchasedEvent{
		SweetID:    sweet.ID,
		Quantity:   quantity,
		Remaining:  sweet.Stock,
		TotalPrice: sweet.Price * float64(quantity),
		OccurredAt: time.Now().UTC(),
	})

	return &PurchaseDto{
		SweetDto:   *toDto(sweet),
		TotalPrice: sweet.Price * float64(quantity),
	}, nil
}

// Restock increments stock inside one store transaction and invalidates the
// cache namespace. Returns ErrSweetNotFound if no sweet exists with the given ID.
func (s *Inventory) Restock(ctx context.Context, grant auth.AdminGrant, id uuid.UUID, quantity int32) (*SweetDto, error) {
	if !grant.Valid() {
		return nil, sweeterrors.ErrAdminRequired
	}
	sweet, err := s.repository.IncrementStock(ctx, id, quantity)
	if err != nil {
		return nil, err
	}
	if err := s.invalidateCache(ctx); err != nil {
		return nil, err
	}

	s.publish(ctx, events.SweetRestockedEvent{
		SweetID:    sweet.ID,
		Quantity:   quantity,
		Stock:      sweet.Stock,
		OccurredAt: time.Now().UTC(),
	})

	return toDto(sweet), nil
}

// invalidateCache drops every entry in the catalog namespace. A failed
// invalidation is surfaced to the caller: serving stale data after a
// committed write would break the read-your-writes contract.
func (s *Inventory) invalidateCache(ctx context.Context) error {
	if err := s.cache.DeleteByPrefix(ctx, cachePrefix); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	return nil
}

// publish sends a domain event best-effort: the mutation is already
// committed, so a publish failure is logged and never fails the request.
func (s *Inventory) publish(ctx context.Context, event messaging.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "subject", event.Subject(), "error", err)
	}
}
