package group

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL group repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a group by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Group, error) {
	query := `
		SELECT id, name, invite_code, members, created_by, created_at
		FROM groups
		WHERE id = $1
	`

	var g Group
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&g.ID,
		&g.Name,
		&g.InviteCode,
		&g.Members,
		&g.CreatedBy,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	return &g, nil
}

// FindByInviteCode retrieves groups matching the given invite code.
func (r *PostgresRepository) FindByInviteCode(ctx context.Context, code string) ([]*Group, error) {
	query := `
		SELECT id, name, invite_code, members, created_by, created_at
		FROM groups
		WHERE invite_code = $1
		ORDER BY created_at
	`

	return r.queryGroups(ctx, query, code)
}

// ListByMember retrieves all groups containing userID in their member set.
func (r *PostgresRepository) ListByMember(ctx context.Context, userID string) ([]*Group, error) {
	query := `
		SELECT id, name, invite_code, members, created_by, created_at
		FROM groups
		WHERE members @> ARRAY[$1]::text[]
		ORDER BY created_at
	`

	return r.queryGroups(ctx, query, userID)
}

func (r *PostgresRepository) queryGroups(ctx context.Context, query string, args ...interface{}) ([]*Group, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		var g Group
		err := rows.Scan(
			&g.ID,
			&g.Name,
			&g.InviteCode,
			&g.Members,
			&g.CreatedBy,
			&g.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		groups = append(groups, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groups, nil
}

// Create creates a new group.
func (r *PostgresRepository) Create(ctx context.Context, g *Group) error {
	query := `
		INSERT INTO groups (id, name, invite_code, members, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		g.ID,
		g.Name,
		g.InviteCode,
		g.Members,
		g.CreatedBy,
		g.CreatedAt,
	)
	return err
}

// AddMember adds userID to the member set. The guard in the WHERE clause
// makes concurrent joins commute: re-applying the union is a no-op, never a
// duplicate entry.
func (r *PostgresRepository) AddMember(ctx context.Context, groupID, userID string) error {
	query := `
		UPDATE groups
		SET members = array_append(members, $2)
		WHERE id = $1 AND NOT (members @> ARRAY[$2]::text[])
	`

	result, err := r.pool.Exec(ctx, query, groupID, userID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		// Either the group is gone or the user is already a member. Only the
		// former is an error.
		exists, err := r.exists(ctx, groupID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrGroupNotFound
		}
	}

	return nil
}

// RemoveMember removes userID from the member set.
func (r *PostgresRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	query := `
		UPDATE groups
		SET members = array_remove(members, $2)
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, groupID, userID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrGroupNotFound
	}

	return nil
}

// Delete deletes a group and all its items.
func (r *PostgresRepository) Delete(ctx context.Context, groupID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `DELETE FROM items WHERE group_id = $1`, groupID); err != nil {
		return err
	}

	result, err := tx.Exec(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrGroupNotFound
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) exists(ctx context.Context, groupID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, groupID).Scan(&exists)
	return exists, err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
