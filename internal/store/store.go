// Package store provides an interface for sweet storage operations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Sweet is the persisted catalog record. The store exclusively owns this
// state; services never hold a copy across requests.
type Sweet struct {
	ID          uuid.UUID
	Name        string
	Category    string
	Price       float64
	Stock       int32
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams holds the fields required to persist a new sweet.
type CreateParams struct {
	Name        string
	Category    string
	Price       float64
	Stock       int32
	Description *string
}

// UpdateParams holds a partial update; nil fields keep their previous values.
type UpdateParams struct {
	Name        *string
	Category    *string
	Price       *float64
	Stock       *int32
	Description *string
}

// SearchParams describes a catalog search. Empty strings and nil bounds mean
// the criterion is absent.
type SearchParams struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// SweetStore is an interface for sweet storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type SweetStore interface {
	// FindByID retrieves a single sweet by its unique identifier.
	// Returns ErrSweetNotFound if no sweet exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Sweet, error)

	// FindAll returns all sweets in the catalog.
	// Returns an empty slice if no sweets exist.
	FindAll(ctx context.Context) ([]Sweet, error)

	// Search runs a fuzzy text and price-range query against the search index,
	// ordered by descending relevance. Records without a name are excluded.
	Search(ctx context.Context, params SearchParams) ([]Sweet, error)

	// Create adds a new sweet to the catalog.
	// Returns error if the sweet cannot be created.
	Create(ctx context.Context, params CreateParams) (*Sweet, error)

	// Update applies a partial update to an existing sweet.
	// Returns ErrSweetNotFound if no sweet exists with the given ID.
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Sweet, error)

	// DeleteByID removes a sweet by its ID.
	// Returns ErrSweetNotFound if no sweet exists with the given ID.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// DecrementStock atomically re-reads the sweet, checks sufficiency and
	// decrements stock by quantity inside one transaction.
	// Returns ErrSweetNotFound or ErrInsufficientStock; on error no partial
	// write is persisted.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int32) (*Sweet, error)

	// IncrementStock atomically increments stock by quantity inside one
	// transaction. Returns ErrSweetNotFound if no sweet exists with the given ID.
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int32) (*Sweet, error)
}
