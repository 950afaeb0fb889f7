package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"telegram-casino-bot/internal/game/pool"
	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/pkg/lock"
	"telegram-casino-bot/internal/repository"
)

// Event errors.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventFinished = errors.New("event already finished")
	ErrAlreadyJoined = errors.New("already joined this event")
	ErrInvalidChoice = errors.New("invalid choice")
)

// EventService runs multi-party betting pools. Entry fees are escrowed at
// join time; settlement splits the pot evenly among winners and the house
// keeps the remainder.
type EventService struct {
	events *repository.EventRepository
	ledger *LedgerService
	locks  *lock.KeyLock
}

// NewEventService creates a new EventService instance.
func NewEventService(events *repository.EventRepository, ledger *LedgerService, locks *lock.KeyLock) *EventService {
	return &EventService{
		events: events,
		ledger: ledger,
		locks:  locks,
	}
}

func translateEvent(err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return ErrEventNotFound
	case errors.Is(err, repository.ErrEventFinished):
		return ErrEventFinished
	case errors.Is(err, repository.ErrAlreadyJoined):
		return ErrAlreadyJoined
	default:
		return translate(err)
	}
}

// Create opens a new betting pool with a fixed entry fee.
func (s *EventService) Create(ctx context.Context, eventType, description string, betCost int64, createdBy int64) (*model.Event, error) {
	if betCost <= 0 {
		return nil, ErrInvalidAmount
	}
	e, err := s.events.Create(ctx, eventType, description, betCost, createdBy)
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// BindMessage attaches an event to its prompt message so quick-join
// reactions can find it.
func (s *EventService) BindMessage(ctx context.Context, eventID int64, chatID int64, messageID int) error {
	if err := s.events.BindMessage(ctx, eventID, chatID, messageID); err != nil {
		return translateEvent(err)
	}
	return nil
}

// ResolveMessage maps a prompt message back to its event.
func (s *EventService) ResolveMessage(ctx context.Context, chatID int64, messageID int) (*model.Event, error) {
	e, err := s.events.GetByMessage(ctx, chatID, messageID)
	if err != nil {
		return nil, translateEvent(err)
	}
	return e, nil
}

// Get retrieves an event by ID.
func (s *EventService) Get(ctx context.Context, eventID int64) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, translateEvent(err)
	}
	return e, nil
}

// Join enters a player into an open pool. The entry fee is escrowed before
// the participant row is written; if the row is rejected, as a duplicate or
// because the pool closed underneath us, the escrow is returned. Join and
// Settle serialize on the event key so an entry is never stranded between
// settlement's status flip and its payout scan.
func (s *EventService) Join(ctx context.Context, eventID int64, playerID int64, choice string) (*model.Event, error) {
	if !pool.ValidChoice(choice) {
		return nil, ErrInvalidChoice
	}

	var e *model.Event
	err := s.locks.WithLock(lock.EventKey(eventID), func() error {
		var err error
		e, err = s.events.GetOpenByID(ctx, eventID)
		if err != nil {
			return translateEvent(err)
		}

		desc := fmt.Sprintf("event %d entry", eventID)
		if err := s.ledger.TryEscrow(ctx, playerID, e.BetCost, model.TxTypeEventJoin, desc); err != nil {
			return err
		}

		if err := s.events.AddParticipant(ctx, eventID, playerID, choice, e.BetCost); err != nil {
			if refundErr := s.ledger.Refund(ctx, playerID, e.BetCost, desc); refundErr != nil {
				log.Error().Err(refundErr).
					Int64("player_id", playerID).
					Int64("event_id", eventID).
					Msg("failed to refund rejected event entry")
			}
			return translateEvent(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListOpen returns every pool still accepting entries, oldest first.
func (s *EventService) ListOpen(ctx context.Context) ([]*model.Event, error) {
	events, err := s.events.ListOpen(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return events, nil
}

// Settle closes a pool and pays out. The status transition in the
// repository is conditional, so a pool can be settled exactly once no
// matter how many times the command races.
func (s *EventService) Settle(ctx context.Context, eventID int64, winningChoice string) (*pool.Settlement, error) {
	if !pool.ValidChoice(winningChoice) {
		return nil, ErrInvalidChoice
	}

	var settlement pool.Settlement
	err := s.locks.WithLock(lock.EventKey(eventID), func() error {
		if _, err := s.events.Finish(ctx, eventID, winningChoice); err != nil {
			return translateEvent(err)
		}

		participants, err := s.events.GetParticipants(ctx, eventID)
		if err != nil {
			return translate(err)
		}

		settlement, err = pool.Settle(participants, winningChoice)
		if err != nil {
			return ErrInvalidChoice
		}
		desc := fmt.Sprintf("event %d prize", eventID)
		s.ledger.CreditAll(ctx, settlement.Credits(), model.TxTypeEventPrize, desc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}
