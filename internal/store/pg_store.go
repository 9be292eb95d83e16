package store

import (
	"context"
	"errors"
	"fmt"

	sweeterrors "github.com/sweetlab/sweetshop/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sweetColumns = "id, name, category, price, stock, description, created_at, updated_at"

// PgStore implements SweetStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of SweetStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// FindByID retrieves a sweet by its unique identifier.
// Returns ErrSweetNotFound if no sweet exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Sweet, error) {
	row := p.db.QueryRow(ctx, "SELECT "+sweetColumns+" FROM sweets WHERE id = $1", id)
	sweet, err := scanSweet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sweeterrors.ErrSweetNotFound
		}
		return nil, fmt.Errorf("failed to find sweet by ID: %w", err)
	}
	return sweet, nil
}

// FindAll retrieves the full catalog.
// It returns a slice of sweets, which may be empty if no sweets exist.
func (p *PgStore) FindAll(ctx context.Context) ([]Sweet, error) {
	rows, err := p.db.Query(ctx, "SELECT "+sweetColumns+" FROM sweets ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to find all sweets: %w", err)
	}
	defer rows.Close()
	return collectSweets(rows)
}

// Search runs the fuzzy text and range query against the search index.
// The name criterion matches name, category and description with trigram
// tolerance; category is a separate trigram filter; price bounds are a range
// filter. Results are ordered by descending similarity score. Records without
// a name are always excluded.
func (p *PgStore) Search(ctx context.Context, params SearchParams) ([]Sweet, error) {
	const query = `
		SELECT ` + sweetColumns + `,
		       GREATEST(similarity(name, $1),
		                similarity(category, $1),
		                similarity(coalesce(description, ''), $1)) AS score
		FROM sweets
		WHERE name <> ''
		  AND ($1 = '' OR name % $1 OR category % $1 OR coalesce(description, '') % $1)
		  AND ($2 = '' OR category % $2)
		  AND ($3::double precision IS NULL OR price >= $3)
		  AND ($4::double precision IS NULL OR price <= $4)
		ORDER BY score DESC, name`

	rows, err := p.db.Query(ctx, query, params.Name, params.Category, params.MinPrice, params.MaxPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to search sweets: %w", err)
	}
	defer rows.Close()

	sweets := make([]Sweet, 0)
	for rows.Next() {
		var s Sweet
		var score float64
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Stock, &s.Description, &s.CreatedAt, &s.UpdatedAt, &score); err != nil {
			return nil, fmt.Errorf("failed to scan sweet: %w", err)
		}
		sweets = append(sweets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to search sweets: %w", err)
	}
	return sweets, nil
}

// Create adds a new sweet to the catalog.
// Returns an error if the sweet cannot be created.
func (p *PgStore) Create(ctx context.Context, params CreateParams) (*Sweet, error) {
	row := p.db.QueryRow(ctx,
		`INSERT INTO sweets (name, category, price, stock, description)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+sweetColumns,
		params.Name, params.Category, params.Price, params.Stock, params.Description)
	sweet, err := scanSweet(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create sweet: %w", err)
	}
	return sweet, nil
}

// Update applies a partial update in a single statement; nil fields keep
// their previous values. Returns ErrSweetNotFound if no sweet exists with the
// given ID.
func (p *PgStore) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Sweet, error) {
	row := p.db.QueryRow(ctx,
		`UPDATE sweets
		 SET name        = coalesce($2, name),
		     category    = coalesce($3, category),
		     price       = coalesce($4, price),
		     stock       = coalesce($5, stock),
		     description = coalesce($6, description),
		     updated_at  = now()
		 WHERE id = $1
		 RETURNING `+sweetColumns,
		id, params.Name, params.Category, params.Price, params.Stock, params.Description)
	sweet, err := scanSweet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sweeterrors.ErrSweetNotFound
		}
		return nil, fmt.Errorf("failed to update sweet: %w", err)
	}
	return sweet, nil
}

// DeleteByID removes a sweet by its unique identifier.
// Returns ErrSweetNotFound if no sweet exists with the given ID.
func (p *PgStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, "DELETE FROM sweets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete sweet by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sweeterrors.ErrSweetNotFound
	}
	return nil
}

// DecrementStock re-reads the sweet under a row lock, checks sufficiency and
// decrements stock, all inside one transaction. Two concurrent purchases of
// the same sweet serialize on the lock, so both can never succeed when their
// combined quantity exceeds the available stock.
func (p *PgStore) DecrementStock(ctx context.Context, id uuid.UUID, quantity int32) (*Sweet, error) {
	var updated *Sweet

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, "SELECT "+sweetColumns+" FROM sweets WHERE id = $1 FOR UPDATE", id)
		sweet, err := scanSweet(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return sweeterrors.ErrSweetNotFound
			}
			return fmt.Errorf("failed to find sweet by ID: %w", err)
		}
		if sweet.Stock < quantity {
			return sweeterrors.ErrInsufficientStock
		}

		row = tx.QueryRow(ctx,
			`UPDATE sweets SET stock = stock - $2, updated_at = now()
			 WHERE id = $1
			 RETURNING `+sweetColumns, id, quantity)
		updated, err = scanSweet(row)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// IncrementStock increments stock under the same transactional discipline as
// DecrementStock, guarding against concurrent restock+purchase races on the
// same row.
func (p *PgStore) IncrementStock(ctx context.Context, id uuid.UUID, quantity int32) (*Sweet, error) {
	var updated *Sweet

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`UPDATE sweets SET stock = stock + $2, updated_at = now()
			 WHERE id = $1
			 RETURNING `+sweetColumns, id, quantity)
		sweet, err := scanSweet(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return sweeterrors.ErrSweetNotFound
			}
			return fmt.Errorf("failed to increment stock: %w", err)
		}
		updated = sweet
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// withTransaction runs fn inside a transaction: commit on nil, rollback on
// error. The transaction is always released on every exit path.
func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return sweeterrors.ErrTransactionBegin
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return sweeterrors.ErrTransactionRollback
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return sweeterrors.ErrTransactionCommit
	}

	return nil
}

// scanSweet scans a single sweet row.
func scanSweet(row pgx.Row) (*Sweet, error) {
	var s Sweet
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Stock, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// collectSweets drains rows into a slice.
func collectSweets(rows pgx.Rows) ([]Sweet, error) {
	sweets := make([]Sweet, 0)
	for rows.Next() {
		var s Sweet
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Stock, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sweet: %w", err)
		}
		sweets = append(sweets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sweets: %w", err)
	}
	return sweets, nil
}
