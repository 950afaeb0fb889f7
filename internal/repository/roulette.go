package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-casino-bot/internal/model"
)

// RouletteRepository persists the bet rows of active roulette rounds so an
// unsettled round can be reimbursed after a restart. Rows are purged when
// the round settles or is refunded.
type RouletteRepository struct {
	pool *pgxpool.Pool
}

// NewRouletteRepository creates a new RouletteRepository instance.
func NewRouletteRepository(pool *pgxpool.Pool) *RouletteRepository {
	return &RouletteRepository{pool: pool}
}

// AddBet records one escrowed bet for a round.
func (r *RouletteRepository) AddBet(ctx context.Context, bet *model.RouletteBet) error {
	const query = `
		INSERT INTO roulette_bets (round_id, player_id, amount, bet_kind, bet_value)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, bet.RoundID, bet.PlayerID, bet.Amount, bet.BetKind, bet.BetValue)
	if err != nil {
		return fmt.Errorf("failed to add roulette bet: %w", err)
	}
	return nil
}

// GetByRound lists a round's bet rows in placement order.
func (r *RouletteRepository) GetByRound(ctx context.Context, roundID string) ([]model.RouletteBet, error) {
	const query = `
		SELECT id, round_id, player_id, amount, bet_kind, bet_value
		FROM roulette_bets
		WHERE round_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roulette bets: %w", err)
	}
	defer rows.Close()

	var bets []model.RouletteBet
	for rows.Next() {
		var b model.RouletteBet
		err := rows.Scan(&b.ID, &b.RoundID, &b.PlayerID, &b.Amount, &b.BetKind, &b.BetValue)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roulette bet: %w", err)
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roulette bets: %w", err)
	}
	return bets, nil
}

// PurgeRound deletes a round's bet rows after settlement or refund.
func (r *RouletteRepository) PurgeRound(ctx context.Context, roundID string) error {
	const query = `DELETE FROM roulette_bets WHERE round_id = $1`

	if _, err := r.pool.Exec(ctx, query, roundID); err != nil {
		return fmt.Errorf("failed to purge roulette bets: %w", err)
	}
	return nil
}

// ListStale returns every bet row left by rounds that never settled,
// grouped for reimbursement at startup.
func (r *RouletteRepository) ListStale(ctx context.Context) ([]model.RouletteBet, error) {
	const query = `
		SELECT id, round_id, player_id, amount, bet_kind, bet_value
		FROM roulette_bets
		ORDER BY round_id, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale roulette bets: %w", err)
	}
	defer rows.Close()

	var bets []model.RouletteBet
	for rows.Next() {
		var b model.RouletteBet
		err := rows.Scan(&b.ID, &b.RoundID, &b.PlayerID, &b.Amount, &b.BetKind, &b.BetValue)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roulette bet: %w", err)
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roulette bets: %w", err)
	}
	return bets, nil
}
