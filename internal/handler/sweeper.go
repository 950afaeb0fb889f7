package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-casino-bot/internal/game/roulette"
	"telegram-casino-bot/internal/repository"
	"telegram-casino-bot/internal/service"
	"telegram-casino-bot/internal/session"
)

// Sweeper reclaims stranded escrow. Abandoned sessions past their idle TTL
// are removed and refunded, and bet rows left behind by a crash are
// reimbursed at startup. Stakes are never silently burned.
type Sweeper struct {
	ledger   *service.LedgerService
	sessions *session.Registry
	bets     *repository.RouletteRepository
	ttl      time.Duration
}

// NewSweeper creates a new Sweeper.
func NewSweeper(
	ledger *service.LedgerService,
	sessions *session.Registry,
	bets *repository.RouletteRepository,
	ttl time.Duration,
) *Sweeper {
	return &Sweeper{
		ledger:   ledger,
		sessions: sessions,
		bets:     bets,
		ttl:      ttl,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *Sweeper) sweep(ctx context.Context) {
	for _, expired := range s.sessions.SweepAbandoned(s.ttl) {
		s.refundSession(ctx, expired)
	}
}

func (s *Sweeper) refundSession(ctx context.Context, expired *session.Session) {
	switch expired.Kind {
	case session.KindRoulette:
		round, ok := expired.Game.(*roulette.Round)
		if !ok {
			return
		}
		// The persisted rows are the authoritative escrow record; the
		// in-memory round stands in if the journal cannot be read.
		persisted, err := s.bets.GetByRound(ctx, round.ID)
		if err != nil {
			log.Error().Err(err).Str("round_id", round.ID).Msg("failed to load persisted bets, refunding from memory")
			for _, bet := range round.Bets() {
				s.refund(ctx, bet.PlayerID, bet.Amount, "abandoned roulette round")
			}
		} else {
			for _, bet := range persisted {
				s.refund(ctx, bet.PlayerID, bet.Amount, "abandoned roulette round")
			}
		}
		if err := s.bets.PurgeRound(ctx, round.ID); err != nil {
			log.Error().Err(err).Str("round_id", round.ID).Msg("failed to purge abandoned round")
		}
		log.Info().Str("round_id", round.ID).Int64("chat_id", expired.ChatID).Msg("abandoned roulette round refunded")
	default:
		if expired.Stake > 0 {
			s.refund(ctx, expired.Owner, expired.Stake, "abandoned game")
		}
		log.Info().Int64("player_id", expired.Owner).Int64("stake", expired.Stake).Msg("abandoned session refunded")
	}
}

// ReimburseStale returns every escrowed roulette stake persisted by rounds
// that never settled, then clears the rows. Called once at startup before
// new rounds can open.
func (s *Sweeper) ReimburseStale(ctx context.Context) error {
	stale, err := s.bets.ListStale(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stale bets: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	rounds := make(map[string]struct{})
	for _, bet := range stale {
		s.refund(ctx, bet.PlayerID, bet.Amount, fmt.Sprintf("unsettled roulette round %s", bet.RoundID))
		rounds[bet.RoundID] = struct{}{}
	}
	for roundID := range rounds {
		if err := s.bets.PurgeRound(ctx, roundID); err != nil {
			log.Error().Err(err).Str("round_id", roundID).Msg("failed to purge stale round")
		}
	}

	log.Info().Int("bets", len(stale)).Int("rounds", len(rounds)).Msg("reimbursed stale roulette bets")
	return nil
}

func (s *Sweeper) refund(ctx context.Context, playerID, amount int64, reason string) {
	if err := s.ledger.Refund(ctx, playerID, amount, reason); err != nil {
		log.Error().Err(err).Int64("player_id", playerID).Int64("amount", amount).Msg("sweep refund failed")
	}
}
