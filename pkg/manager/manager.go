// Package manager registers game sessions and owns their lifecycle:
// creation, lookup, connection-loss cleanup and archiving on game end.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/tatami-games/goban-server/pkg/board"
	"github.com/tatami-games/goban-server/pkg/engine"
	"github.com/tatami-games/goban-server/pkg/events"
	"github.com/tatami-games/goban-server/pkg/game"
	"github.com/tatami-games/goban-server/pkg/messages"
	"github.com/tatami-games/goban-server/pkg/repository"
	"github.com/tatami-games/goban-server/pkg/sgf"
)

// Manager creates and tracks game sessions.
type Manager struct {
	repo       *repository.InMemorySessionRepository
	archive    repository.Archive // nil disables archiving
	enginePool *engine.Pool       // nil disables engine games

	mu      sync.Mutex
	owners  map[uuid.UUID][]uuid.UUID // connection ID -> game IDs
	engines map[uuid.UUID]string      // game ID -> checked-out engine ID

	publisher *events.Publisher
	logger    *zap.Logger
	clk       clockwork.Clock
}

// NewManager creates a new manager with in-memory storage.
func NewManager(
	repo *repository.InMemorySessionRepository,
	archive repository.Archive,
	enginePool *engine.Pool,
	publisher *events.Publisher,
	logger *zap.Logger,
	clk clockwork.Clock,
) *Manager {
	m := &Manager{
		repo:       repo,
		archive:    archive,
		enginePool: enginePool,
		owners:     make(map[uuid.UUID][]uuid.UUID),
		engines:    make(map[uuid.UUID]string),
		publisher:  publisher,
		logger:     logger,
		clk:        clk,
	}

	m.setupEventHandlers()
	return m
}

// setupEventHandlers wires lifecycle cleanup to the event bus.
func (m *Manager) setupEventHandlers() {
	m.publisher.Subscribe(events.EventConnectionClosed, func(event events.Event) {
		payload, ok := event.Payload.(map[string]string)
		if !ok {
			m.logger.Error("invalid connection closed payload type")
			return
		}

		connID, err := uuid.Parse(payload["connection_id"])
		if err != nil {
			return
		}
		m.terminateSessionsByConnection(connID)
	})

	m.publisher.Subscribe(events.EventGameOver, func(event events.Event) {
		id, err := uuid.Parse(event.GameID)
		if err != nil {
			return
		}
		m.finishGame(id)
	})
}

// CreateSession creates, registers and starts a new game session.
func (m *Manager) CreateSession(connID uuid.UUID, p messages.CreateGamePayload) (*game.Session, error) {
	params := game.CreateParams{
		GameID:    uuid.New(),
		BoardSize: p.BoardSize,
		Komi:      p.Komi,
		Handicap:  p.Handicap,
		Settings:  p.TimeControl,
	}
	if params.BoardSize == 0 {
		params.BoardSize = 19
	}

	var engineID string
	if p.VsEngine {
		if m.enginePool == nil {
			return nil, engine.ErrNoPool
		}
		eng, err := m.enginePool.GetEngine()
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = eng.SetupGame(ctx, params.BoardSize, p.Komi, p.Handicap)
		cancel()
		if err != nil {
			m.enginePool.ReturnEngine(eng.ID.String())
			return nil, err
		}

		params.Engine = eng
		params.EngineColor = board.White
		if p.Color == string(board.White) {
			params.EngineColor = board.Black
		}
		engineID = eng.ID.String()
	}

	session, err := game.NewSession(params, m.publisher, m.logger, m.clk)
	if err != nil {
		if engineID != "" {
			m.enginePool.ReturnEngine(engineID)
		}
		return nil, err
	}

	_ = m.repo.SaveSession(session)

	m.mu.Lock()
	m.owners[connID] = append(m.owners[connID], session.ID)
	if engineID != "" {
		m.engines[session.ID] = engineID
	}
	m.mu.Unlock()

	session.Start()

	m.publisher.Publish(events.Event{
		Type:   events.EventGameCreated,
		GameID: session.ID.String(),
		Payload: messages.GameCreatedPayload{
			GameID:      session.ID.String(),
			BoardSize:   session.BoardSize,
			Komi:        session.Komi,
			Handicap:    session.Handicap,
			TimeControl: p.TimeControl,
			CurrentTurn: session.Turn(),
		},
	})

	// A handicap game against the engine, or a creator playing white,
	// starts with the engine to move.
	if session.EngineTurn() {
		go m.engineMove(session)
	}

	return session, nil
}

// GetSession returns a session by ID.
func (m *Manager) GetSession(id uuid.UUID) (*game.Session, error) {
	return m.repo.GetSession(id)
}

// RequestEngineMove schedules the engine's reply if the engine owes one.
func (m *Manager) RequestEngineMove(s *game.Session) {
	if s.EngineTurn() {
		go m.engineMove(s)
	}
}

func (m *Manager) engineMove(s *game.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.ProcessEngineMove(ctx); err != nil {
		m.logger.Error("engine move failed",
			zap.String("game_id", s.ID.String()),
			zap.Error(err))
	}
}

// finishGame archives a finished session and releases its engine.
func (m *Manager) finishGame(id uuid.UUID) {
	session, err := m.repo.GetSession(id)
	if err != nil {
		return
	}

	m.mu.Lock()
	engineID, hadEngine := m.engines[id]
	delete(m.engines, id)
	m.mu.Unlock()

	if hadEngine && m.enginePool != nil {
		m.enginePool.ReturnEngine(engineID)
	}

	if m.archive != nil {
		_, result := session.Result()
		setup, _ := board.HandicapStones(session.BoardSize, session.Handicap)
		record := sgf.Record{
			BoardSize: session.BoardSize,
			Komi:      session.Komi,
			Handicap:  session.Handicap,
			Setup:     setup,
			Moves:     session.History(),
			Result:    result,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.archive.SaveRecord(ctx, id.String(), record.Serialize(), result); err != nil {
			m.logger.Error("failed to archive game",
				zap.String("game_id", id.String()),
				zap.Error(err))
		}
	}
}

// terminateSessionsByConnection tears down every unfinished game owned
// by a vanished connection. The clock is never paused for mere viewer
// disconnects; only the owning connection going away ends a game.
func (m *Manager) terminateSessionsByConnection(connID uuid.UUID) {
	m.mu.Lock()
	gameIDs := m.owners[connID]
	delete(m.owners, connID)
	m.mu.Unlock()

	for _, id := range gameIDs {
		session, err := m.repo.GetSession(id)
		if err != nil {
			continue
		}
		session.Terminate()
		m.repo.RemoveSession(id)

		m.mu.Lock()
		engineID, hadEngine := m.engines[id]
		delete(m.engines, id)
		m.mu.Unlock()
		if hadEngine && m.enginePool != nil {
			m.enginePool.ReturnEngine(engineID)
		}

		m.logger.Info("terminated session for closed connection",
			zap.String("game_id", id.String()),
			zap.String("connection_id", connID.String()))
	}
}
