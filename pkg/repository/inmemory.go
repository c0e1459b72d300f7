// Package repository stores game sessions: an in-memory map for live
// games and a redis-backed archive for finished ones.
package repository

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tatami-games/goban-server/pkg/game"
)

// ErrNotFound reports a missing game.
var ErrNotFound = errors.New("game not found")

// InMemorySessionRepository is an in-memory store of live sessions.
type InMemorySessionRepository struct {
	games  map[uuid.UUID]*game.Session
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository(logger *zap.Logger) *InMemorySessionRepository {
	return &InMemorySessionRepository{
		games:  make(map[uuid.UUID]*game.Session),
		logger: logger,
	}
}

// SaveSession saves a session to the repository
func (r *InMemorySessionRepository) SaveSession(s *game.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.games[s.ID] = s
	return nil
}

// GetSession retrieves a session by ID
func (r *InMemorySessionRepository) GetSession(id uuid.UUID) (*game.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// RemoveSession drops a session from the live store.
func (r *InMemorySessionRepository) RemoveSession(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, id)
}

// ListActiveSessions returns all sessions still in play.
func (r *InMemorySessionRepository) ListActiveSessions() []*game.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*game.Session
	for _, s := range r.games {
		if s.Status() == game.StatusPlaying {
			active = append(active, s)
		}
	}
	return active
}
