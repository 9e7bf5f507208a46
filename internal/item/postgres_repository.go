package item

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL item repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const itemColumns = `id, group_id, name, purchased, "order", location, url, quantity,
		deadline, memo, registered_at, registrant, buyer, purchased_at`

// Get retrieves an item by group and ID.
func (r *PostgresRepository) Get(ctx context.Context, groupID, itemID string) (*Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE group_id = $1 AND id = $2
	`

	var it Item
	err := r.pool.QueryRow(ctx, query, groupID, itemID).Scan(
		&it.ID,
		&it.GroupID,
		&it.Name,
		&it.Purchased,
		&it.Order,
		&it.Location,
		&it.URL,
		&it.Quantity,
		&it.Deadline,
		&it.Memo,
		&it.RegisteredAt,
		&it.Registrant,
		&it.Buyer,
		&it.PurchasedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	return &it, nil
}

// ListByGroup retrieves all items in a group, sorted by their order key.
func (r *PostgresRepository) ListByGroup(ctx context.Context, groupID string) ([]*Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE group_id = $1
		ORDER BY "order", registered_at
	`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var it Item
		err := rows.Scan(
			&it.ID,
			&it.GroupID,
			&it.Name,
			&it.Purchased,
			&it.Order,
			&it.Location,
			&it.URL,
			&it.Quantity,
			&it.Deadline,
			&it.Memo,
			&it.RegisteredAt,
			&it.Registrant,
			&it.Buyer,
			&it.PurchasedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &it)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// MaxOrder returns the highest order key in the group.
func (r *PostgresRepository) MaxOrder(ctx context.Context, groupID string) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX("order"), 0) FROM items WHERE group_id = $1`,
		groupID,
	).Scan(&max)
	return max, err
}

// Create creates a new item.
func (r *PostgresRepository) Create(ctx context.Context, it *Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		it.ID,
		it.GroupID,
		it.Name,
		it.Purchased,
		it.Order,
		it.Location,
		it.URL,
		it.Quantity,
		it.Deadline,
		it.Memo,
		it.RegisteredAt,
		it.Registrant,
		it.Buyer,
		it.PurchasedAt,
	)
	return err
}

// SetPurchased writes the purchased flag with buyer and purchase time,
// returning the previous flag value. The read and write share a transaction
// so concurrent toggles serialize on the row lock.
func (r *PostgresRepository) SetPurchased(ctx context.Context, groupID, itemID string, purchased bool, buyer *string, purchasedAt *time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var previous bool
	err = tx.QueryRow(ctx,
		`SELECT purchased FROM items WHERE group_id = $1 AND id = $2 FOR UPDATE`,
		groupID, itemID,
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrItemNotFound
		}
		return false, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE items SET purchased = $3, buyer = $4, purchased_at = $5 WHERE group_id = $1 AND id = $2`,
		groupID, itemID, purchased, buyer, purchasedAt,
	)
	if err != nil {
		return false, err
	}

	return previous, tx.Commit(ctx)
}

// Delete deletes an item.
func (r *PostgresRepository) Delete(ctx context.Context, groupID, itemID string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM items WHERE group_id = $1 AND id = $2`,
		groupID, itemID,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

// Reorder rewrites the order key of every listed item to its position in
// the sequence. All updates run in one transaction, so a partial reorder is
// never observable.
func (r *PostgresRepository) Reorder(ctx context.Context, groupID string, itemIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	batch := &pgx.Batch{}
	for i, id := range itemIDs {
		batch.Queue(
			`UPDATE items SET "order" = $3 WHERE group_id = $1 AND id = $2`,
			groupID, id, i,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range itemIDs {
		result, err := results.Exec()
		if err != nil {
			results.Close()
			return err
		}
		if result.RowsAffected() == 0 {
			results.Close()
			return ErrItemNotFound
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
