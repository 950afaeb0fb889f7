// Package model defines the data models for the casino bot.
package model

import "time"

// Wallet represents a player's currency account.
// Wallets are created lazily with a zero balance on first access and are
// never deleted. Balance must never be observed negative between transactions.
type Wallet struct {
	PlayerID       int64      `db:"player_id"`
	Username       string     `db:"username"`
	Balance        int64      `db:"balance"`
	LastDailyClaim *time.Time `db:"last_daily_claim"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Transaction represents a single ledger journal entry. Every balance
// mutation made through the ledger service produces one of these.
type Transaction struct {
	ID          int64     `db:"id"`
	PlayerID    int64     `db:"player_id"`
	Amount      int64     `db:"amount"`
	Type        string    `db:"type"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Transaction types for categorizing balance changes.
const (
	TxTypeDaily       = "daily"        // Daily bonus claim
	TxTypeTransfer    = "transfer"     // Player-to-player transfer
	TxTypeEscrow      = "escrow"       // Stake removed at game commitment
	TxTypeRefund      = "refund"       // Stake returned on abnormal termination
	TxTypeBlackjack   = "blackjack"    // Blackjack settlement credit
	TxTypeCoinFlip    = "coinflip"     // Coin flip settlement credit
	TxTypeRouletteBet = "roulette_bet" // Roulette bet escrow
	TxTypeRouletteWin = "roulette_win" // Roulette winnings
	TxTypeEventJoin   = "event_join"   // Betting pool entry fee
	TxTypeEventPrize  = "event_prize"  // Betting pool prize share
	TxTypeAdminCredit = "admin_credit" // Issuer added currency
	TxTypeAdminDebit  = "admin_debit"  // Issuer removed currency
)

// Event statuses.
const (
	EventStatusOpen     = "open"
	EventStatusFinished = "finished"
)

// Event represents a multi-party betting pool. Participants pay a fixed
// entry fee into a shared pot which is later split among those who picked
// the winning side.
type Event struct {
	EventID       int64     `db:"event_id"`
	EventType     string    `db:"event_type"`
	Description   string    `db:"description"`
	BetCost       int64     `db:"bet_cost"`
	Status        string    `db:"status"`
	WinningChoice *string   `db:"winning_choice"`
	CreatedBy     int64     `db:"created_by"`
	MessageID     *int      `db:"message_id"`
	ChatID        *int64    `db:"chat_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// EventParticipant is one player's entry in a betting pool. A player may
// hold at most one entry per event.
type EventParticipant struct {
	EventID    int64     `db:"event_id"`
	PlayerID   int64     `db:"player_id"`
	Choice     string    `db:"choice"`
	PaidAmount int64     `db:"paid_amount"`
	JoinedAt   time.Time `db:"joined_at"`
}

// RouletteBet is a persisted bet row for an active roulette round. Rows are
// purged once the round settles.
type RouletteBet struct {
	ID       int64  `db:"id"`
	RoundID  string `db:"round_id"`
	PlayerID int64  `db:"player_id"`
	Amount   int64  `db:"amount"`
	BetKind  string `db:"bet_kind"`
	BetValue string `db:"bet_value"`
}
