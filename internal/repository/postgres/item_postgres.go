package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"stackapi/internal/model"
	"stackapi/internal/repository"
	"stackapi/internal/resource"
)

// ItemPostgres is a PostgreSQL implementation of repository.ItemRepository.
type ItemPostgres struct {
	db *sql.DB
}

// NewItemPostgres creates a new ItemPostgres repository.
func NewItemPostgres(db *sql.DB) *ItemPostgres {
	return &ItemPostgres{db: db}
}

var _ repository.ItemRepository = (*ItemPostgres)(nil)

const itemColumns = `id, title, description, owner_id, attachment_key, created_at`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	var it model.Item
	if err := row.Scan(
		&it.ID,
		&it.Title,
		&it.Description,
		&it.OwnerID,
		&it.AttachmentKey,
		&it.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &it, nil
}

// Insert persists a new item row and returns the stored record.
func (r *ItemPostgres) Insert(ctx context.Context, it *model.Item) (*model.Item, error) {
	const q = `
		INSERT INTO items (id, title, description, owner_id, attachment_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + itemColumns
	row := r.db.QueryRowContext(ctx, q,
		it.ID,
		it.Title,
		it.Description,
		it.OwnerID,
		it.AttachmentKey,
		it.CreatedAt,
	)
	return scanItem(row)
}

// FindByID fetches a single item by ID, returning (nil, nil) when absent.
func (r *ItemPostgres) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	it, err := scanItem(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

// List returns items matching the filter in creation order bounded by the
// window.
func (r *ItemPostgres) List(ctx context.Context, f resource.Filter, pq resource.PageQuery) ([]model.Item, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if f.OwnerID != nil {
		const q = `
			SELECT ` + itemColumns + `
			FROM items
			WHERE owner_id = $1
			ORDER BY created_at ASC, id ASC
			LIMIT $2 OFFSET $3
		`
		rows, err = r.db.QueryContext(ctx, q, *f.OwnerID, pq.Limit, pq.Skip)
	} else {
		const q = `
			SELECT ` + itemColumns + `
			FROM items
			ORDER BY created_at ASC, id ASC
			LIMIT $1 OFFSET $2
		`
		rows, err = r.db.QueryContext(ctx, q, pq.Limit, pq.Skip)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// Count returns the total number of items matching the same filter List uses.
func (r *ItemPostgres) Count(ctx context.Context, f resource.Filter) (int, error) {
	var total int
	if f.OwnerID != nil {
		const q = `SELECT COUNT(*) FROM items WHERE owner_id = $1`
		err := r.db.QueryRowContext(ctx, q, *f.OwnerID).Scan(&total)
		return total, err
	}
	const q = `SELECT COUNT(*) FROM items`
	err := r.db.QueryRowContext(ctx, q).Scan(&total)
	return total, err
}

// Update persists the full current state of an already-loaded item.
func (r *ItemPostgres) Update(ctx context.Context, it *model.Item) (*model.Item, error) {
	const q = `
		UPDATE items
		SET title = $2, description = $3, attachment_key = $4
		WHERE id = $1
		RETURNING ` + itemColumns
	row := r.db.QueryRowContext(ctx, q,
		it.ID,
		it.Title,
		it.Description,
		it.AttachmentKey,
	)
	return scanItem(row)
}

// Delete removes an item by ID. Deleting a missing row is not an error.
func (r *ItemPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM items WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
