package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepository persists the set of players granted issuer rights.
// Bot owners from the config are issuers implicitly and are not stored here.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository instance.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// Grant adds a player to the issuer set. Granting twice is a no-op.
func (r *AdminRepository) Grant(ctx context.Context, playerID int64, grantedBy int64) error {
	const query = `
		INSERT INTO bot_admins (player_id, granted_by, granted_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (player_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, playerID, grantedBy); err != nil {
		return fmt.Errorf("failed to grant admin: %w", err)
	}
	return nil
}

// Revoke removes a player from the issuer set. Reports whether a grant was
// actually removed.
func (r *AdminRepository) Revoke(ctx context.Context, playerID int64) (bool, error) {
	const query = `DELETE FROM bot_admins WHERE player_id = $1`

	result, err := r.pool.Exec(ctx, query, playerID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke admin: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// IsAdmin checks whether a player holds a persisted issuer grant.
func (r *AdminRepository) IsAdmin(ctx context.Context, playerID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM bot_admins WHERE player_id = $1)`

	var admin bool
	if err := r.pool.QueryRow(ctx, query, playerID).Scan(&admin); err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return admin, nil
}

// List returns every player with a persisted issuer grant.
func (r *AdminRepository) List(ctx context.Context) ([]int64, error) {
	const query = `SELECT player_id FROM bot_admins ORDER BY granted_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admins: %w", err)
	}
	return ids, nil
}
