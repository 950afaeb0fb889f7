// Package session tracks live game sessions and the message targets bound
// to them. The registry is an explicit object passed to the handlers, never
// ambient global state: it enforces at most one active single-player game
// per player, at most one roulette round per chat, and a one-to-one mapping
// from interaction targets to sessions.
package session

import (
	"errors"
	"sync"
	"time"
)

// Registry errors.
var (
	// ErrSessionExists means the player or chat already has an active session.
	ErrSessionExists = errors.New("active session already exists")
	// ErrStaleInteraction means a target no longer maps to a live session.
	ErrStaleInteraction = errors.New("interaction target is stale")
	// ErrTargetBound means a target is already bound to another session.
	ErrTargetBound = errors.New("interaction target already bound")
)

// Kind identifies the game variant owning a session.
type Kind int

const (
	// KindBlackjack is a single-player blackjack session.
	KindBlackjack Kind = iota
	// KindCoinFlip is a single-player coin flip session.
	KindCoinFlip
	// KindRoulette is a chat-scoped roulette round.
	KindRoulette
)

// Target identifies a message a session is bound to. Reactions are resolved
// back to their session through it.
type Target struct {
	ChatID    int64
	MessageID int
}

// Session is one live game. Game holds the variant state machine; Stake is
// the amount escrowed at creation (zero for roulette rounds, which escrow
// per bet). Handlers must hold mu across any read-modify-write of the
// session or its game, and check Done afterwards: a session that lost the
// race to a concurrent terminal event must be treated as stale.
type Session struct {
	Kind    Kind
	Owner   int64 // zero for multi-party games
	ChatID  int64
	Stake   int64
	Game    any
	Created time.Time

	mu       sync.Mutex
	done     bool
	lastSeen time.Time
}

// Lock acquires the session's exclusive section.
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the session's exclusive section.
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// Done reports whether the session has been finished. Must be called with
// the session lock held.
func (s *Session) Done() bool {
	return s.done
}

// Touch records activity, deferring the abandonment sweep.
func (s *Session) Touch() {
	s.lastSeen = time.Now()
}

// Registry is the in-memory index of live sessions.
type Registry struct {
	mu       sync.Mutex
	byOwner  map[int64]*Session
	byChat   map[int64]*Session
	byTarget map[Target]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byOwner:  make(map[int64]*Session),
		byChat:   make(map[int64]*Session),
		byTarget: make(map[Target]*Session),
	}
}

// RegisterOwned installs a single-player session and binds its first
// target. Fails without side effects if the player already has an active
// game or the target is taken; the caller refunds the escrow on failure.
func (r *Registry) RegisterOwned(s *Session, target Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOwner[s.Owner]; exists {
		return ErrSessionExists
	}
	if _, exists := r.byTarget[target]; exists {
		return ErrTargetBound
	}
	now := time.Now()
	s.Created = now
	s.lastSeen = now
	r.byOwner[s.Owner] = s
	r.byTarget[target] = s
	return nil
}

// RegisterRound installs a chat-scoped roulette round and binds its prompt.
func (r *Registry) RegisterRound(s *Session, target Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byChat[s.ChatID]; exists {
		return ErrSessionExists
	}
	if _, exists := r.byTarget[target]; exists {
		return ErrTargetBound
	}
	now := time.Now()
	s.Created = now
	s.lastSeen = now
	r.byChat[s.ChatID] = s
	r.byTarget[target] = s
	return nil
}

// Resolve maps a target back to its session. Unknown targets are stale.
func (r *Registry) Resolve(target Target) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byTarget[target]
	if !ok {
		return nil, ErrStaleInteraction
	}
	return s, nil
}

// OwnedBy returns a player's active single-player session, if any.
func (r *Registry) OwnedBy(playerID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byOwner[playerID]
	return s, ok
}

// RoundFor returns the chat's active roulette round, if any.
func (r *Registry) RoundFor(chatID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byChat[chatID]
	return s, ok
}

// Rebind atomically moves a session's binding from one target to another,
// removing the old binding before installing the new one. Used when a game
// advances the conversation to a fresh prompt.
func (r *Registry) Rebind(s *Session, old, new Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byTarget[old] != s {
		return ErrStaleInteraction
	}
	if bound, exists := r.byTarget[new]; exists && bound != s {
		return ErrTargetBound
	}
	delete(r.byTarget, old)
	r.byTarget[new] = s
	s.lastSeen = time.Now()
	return nil
}

// BoundTarget returns the target a session is currently bound to. A removed
// session has no binding.
func (r *Registry) BoundTarget(s *Session) (Target, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for target, bound := range r.byTarget {
		if bound == s {
			return target, true
		}
	}
	return Target{}, false
}

// Remove finishes a session: it is marked done and every index entry for
// it is cleared. Idempotent. The caller must hold the session lock so that
// a concurrent event observes either the live session or none at all.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(s)
}

func (r *Registry) removeLocked(s *Session) {
	s.done = true
	if s.Owner != 0 {
		if cur, ok := r.byOwner[s.Owner]; ok && cur == s {
			delete(r.byOwner, s.Owner)
		}
	}
	if cur, ok := r.byChat[s.ChatID]; ok && cur == s {
		delete(r.byChat, s.ChatID)
	}
	for target, bound := range r.byTarget {
		if bound == s {
			delete(r.byTarget, target)
		}
	}
}

// SweepAbandoned removes and returns sessions idle longer than ttl. The
// caller refunds their stakes; roulette rounds are returned too so their
// per-bet escrow can be reimbursed. Session locks are taken outside the
// registry lock, same order as the handlers.
func (r *Registry) SweepAbandoned(ttl time.Duration) []*Session {
	cutoff := time.Now().Add(-ttl)

	r.mu.Lock()
	var candidates []*Session
	for _, s := range r.byOwner {
		if s.lastSeen.Before(cutoff) {
			candidates = append(candidates, s)
		}
	}
	for _, s := range r.byChat {
		if s.lastSeen.Before(cutoff) {
			candidates = append(candidates, s)
		}
	}
	r.mu.Unlock()

	var expired []*Session
	for _, s := range candidates {
		s.mu.Lock()
		if !s.done {
			r.Remove(s)
			expired = append(expired, s)
		}
		s.mu.Unlock()
	}
	return expired
}

// Active returns the number of live sessions.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byOwner) + len(r.byChat)
}
