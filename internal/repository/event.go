package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-casino-bot/internal/model"
)

// Event errors.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventFinished = errors.New("event already finished")
	ErrAlreadyJoined = errors.New("player already joined event")
)

const eventColumns = `event_id, event_type, description, bet_cost, status, winning_choice, created_by, message_id, chat_id, created_at`

// EventRepository persists betting pool events and their participants.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository instance.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.EventID,
		&e.EventType,
		&e.Description,
		&e.BetCost,
		&e.Status,
		&e.WinningChoice,
		&e.CreatedBy,
		&e.MessageID,
		&e.ChatID,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create opens a new betting pool.
func (r *EventRepository) Create(ctx context.Context, eventType, description string, betCost int64, createdBy int64) (*model.Event, error) {
	const query = `
		INSERT INTO events (event_type, description, bet_cost, status, created_by, created_at)
		VALUES ($1, $2, $3, 'open', $4, NOW())
		RETURNING ` + eventColumns

	e, err := scanEvent(r.pool.QueryRow(ctx, query, eventType, description, betCost, createdBy))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return e, nil
}

// GetByID retrieves an event.
// Returns ErrEventNotFound if no event has the given ID.
func (r *EventRepository) GetByID(ctx context.Context, eventID int64) (*model.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE event_id = $1`

	e, err := scanEvent(r.pool.QueryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// GetOpenByID retrieves an event that is still accepting entries.
// Returns ErrEventFinished when the event exists but has been settled.
func (r *EventRepository) GetOpenByID(ctx context.Context, eventID int64) (*model.Event, error) {
	e, err := r.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.Status != model.EventStatusOpen {
		return nil, ErrEventFinished
	}
	return e, nil
}

// BindMessage records the prompt message an event's quick-join reactions
// are attached to.
func (r *EventRepository) BindMessage(ctx context.Context, eventID int64, chatID int64, messageID int) error {
	const query = `
		UPDATE events
		SET chat_id = $2, message_id = $3
		WHERE event_id = $1
	`

	result, err := r.pool.Exec(ctx, query, eventID, chatID, messageID)
	if err != nil {
		return fmt.Errorf("failed to bind event message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// GetByMessage resolves an event from its prompt message.
func (r *EventRepository) GetByMessage(ctx context.Context, chatID int64, messageID int) (*model.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE chat_id = $1 AND message_id = $2`

	e, err := scanEvent(r.pool.QueryRow(ctx, query, chatID, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event by message: %w", err)
	}
	return e, nil
}

// Finish transitions an open event to finished, recording the winning
// choice. The status guard makes settling an already finished event fail
// instead of paying out twice.
func (r *EventRepository) Finish(ctx context.Context, eventID int64, winningChoice string) (*model.Event, error) {
	const query = `
		UPDATE events
		SET status = 'finished', winning_choice = $2
		WHERE event_id = $1 AND status = 'open'
		RETURNING ` + eventColumns

	e, err := scanEvent(r.pool.QueryRow(ctx, query, eventID, winningChoice))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, eventID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrEventFinished
		}
		return nil, fmt.Errorf("failed to finish event: %w", err)
	}
	return e, nil
}

// AddParticipant records a player's entry. The insert is conditional on
// the event still being open, taking a row lock on the event so it cannot
// interleave with settlement; zero rows means the pool closed first and the
// caller must refund. The primary key on (event_id, player_id) keeps
// entries one per player; a duplicate insert returns ErrAlreadyJoined.
func (r *EventRepository) AddParticipant(ctx context.Context, eventID int64, playerID int64, choice string, paidAmount int64) error {
	const query = `
		INSERT INTO event_participants (event_id, player_id, choice, paid_amount, joined_at)
		SELECT event_id, $2, $3, $4, NOW()
		FROM events
		WHERE event_id = $1 AND status = 'open'
		FOR UPDATE
	`

	tag, err := r.pool.Exec(ctx, query, eventID, playerID, choice, paidAmount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyJoined
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, eventID); getErr != nil {
			return getErr
		}
		return ErrEventFinished
	}
	return nil
}

// GetParticipants lists an event's entries in join order.
func (r *EventRepository) GetParticipants(ctx context.Context, eventID int64) ([]model.EventParticipant, error) {
	const query = `
		SELECT event_id, player_id, choice, paid_amount, joined_at
		FROM event_participants
		WHERE event_id = $1
		ORDER BY joined_at
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []model.EventParticipant
	for rows.Next() {
		var p model.EventParticipant
		err := rows.Scan(&p.EventID, &p.PlayerID, &p.Choice, &p.PaidAmount, &p.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}

// ListOpen returns every event still accepting entries, oldest first.
func (r *EventRepository) ListOpen(ctx context.Context) ([]*model.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE status = 'open' ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}
