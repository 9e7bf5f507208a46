package device

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

// NewPostgresRepository creates a new PostgreSQL device repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a device by user ID and device ID.
func (r *PostgresRepository) Get(ctx context.Context, userID, deviceID string) (*Device, error) {
	query := `
		SELECT id, user_id, tokens, last_updated
		FROM devices
		WHERE id = $1 AND user_id = $2
	`

	var d Device
	err := r.pool.QueryRow(ctx, query, deviceID, userID).Scan(
		&d.ID,
		&d.UserID,
		&d.Tokens,
		&d.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}

	return &d, nil
}

// ListByUser retrieves all devices for a user.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*Device, error) {
	query := `
		SELECT id, user_id, tokens, last_updated
		FROM devices
		WHERE user_id = $1
		ORDER BY last_updated DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Tokens, &d.LastUpdated); err != nil {
			return nil, err
		}
		devices = append(devices, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return devices, nil
}

// Upsert registers a token against a device. The conflict arm unions the
// token into the existing set; a token already present is left alone, and
// tokens are never removed here.
func (r *PostgresRepository) Upsert(ctx context.Context, deviceID, userID, token string, now time.Time) (*Device, bool, error) {
	query := `
		INSERT INTO devices (id, user_id, tokens, last_updated)
		VALUES ($1, $2, ARRAY[$3]::text[], $4)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			tokens = CASE
				WHEN devices.tokens @> ARRAY[$3]::text[] THEN devices.tokens
				ELSE array_append(devices.tokens, $3)
			END,
			last_updated = EXCLUDED.last_updated
		RETURNING tokens, (xmax = 0) AS inserted
	`

	d := Device{
		ID:          deviceID,
		UserID:      userID,
		LastUpdated: now,
	}

	var inserted bool
	err := r.pool.QueryRow(ctx, query, deviceID, userID, token, now).Scan(&d.Tokens, &inserted)
	if err != nil {
		return nil, false, err
	}

	return &d, inserted, nil
}

// Delete deletes a device.
func (r *PostgresRepository) Delete(ctx context.Context, userID, deviceID string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM devices WHERE id = $1 AND user_id = $2`,
		deviceID, userID,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// DeleteByUser deletes all devices for a user.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM devices WHERE user_id = $1`, userID)
	return err
}

// TokensByUsers retrieves every token registered by the given users.
func (r *PostgresRepository) TokensByUsers(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT unnest(tokens)
		FROM devices
		WHERE user_id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tokens, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
