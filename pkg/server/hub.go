package server

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tatami-games/goban-server/pkg/board"
	"github.com/tatami-games/goban-server/pkg/clock"
	"github.com/tatami-games/goban-server/pkg/events"
	"github.com/tatami-games/goban-server/pkg/game"
	"github.com/tatami-games/goban-server/pkg/manager"
	"github.com/tatami-games/goban-server/pkg/messages"
)

// InboundHubMessage are the messages that the hub receives
type InboundHubMessage struct {
	Conn    *Connection             // who sent it
	Message messages.InboundMessage // parsed envelope
}

// Hub keeps track of all active connections and their per-game viewer
// subscriptions. Inbound messages are routed to the right game session;
// game events published on the bus are fanned out to every viewer of
// that game.
type Hub struct {
	connections map[*Connection]bool
	viewers     map[string]map[*Connection]bool // game ID -> viewers

	register   chan *Connection
	unregister chan *Connection
	inbound    chan InboundHubMessage
	broadcast  chan gameBroadcast

	gameManager *manager.Manager
	publisher   *events.Publisher
	logger      *zap.Logger

	done chan struct{}
}

type gameBroadcast struct {
	gameID string
	data   []byte
}

// NewHub creates a new hub and wires it to the event bus.
func NewHub(gm *manager.Manager, publisher *events.Publisher, logger *zap.Logger) *Hub {
	h := &Hub{
		connections: make(map[*Connection]bool),
		viewers:     make(map[string]map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		inbound:     make(chan InboundHubMessage),
		broadcast:   make(chan gameBroadcast, 256),
		gameManager: gm,
		publisher:   publisher,
		logger:      logger,
		done:        make(chan struct{}),
	}

	h.setupEventHandlers()
	return h
}

// setupEventHandlers forwards bus events to game viewers. Handlers run
// on publisher goroutines; they only enqueue onto the broadcast channel
// so all map access stays on the hub loop.
func (h *Hub) setupEventHandlers() {
	forward := func(outEvent string) events.Handler {
		return func(e events.Event) {
			if e.GameID == "" {
				return
			}
			data, err := json.Marshal(messages.OutboundMessage{Event: outEvent, Payload: e.Payload})
			if err != nil {
				h.logger.Error("error marshaling broadcast", zap.Error(err))
				return
			}
			select {
			case h.broadcast <- gameBroadcast{gameID: e.GameID, data: data}:
			case <-h.done:
			}
		}
	}

	h.publisher.Subscribe(events.EventMoveProcessed, forward(messages.EventGameState))
	h.publisher.Subscribe(events.EventClockUpdated, forward(messages.EventClockUpdate))
	h.publisher.Subscribe(events.EventEngineMoved, forward(messages.EventEngineMove))
	h.publisher.Subscribe(events.EventGameOver, forward(messages.EventGameOver))
}

// Run is the main execution of the hub
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case conn := <-h.register:
			h.registerConnection(conn)

		case conn := <-h.unregister:
			h.unregisterConnection(conn)

		case msg := <-h.inbound:
			h.handleInbound(msg)

		case b := <-h.broadcast:
			for conn := range h.viewers[b.gameID] {
				select {
				case conn.send <- b.data:
				default:
					// Slow viewer; the next update supersedes this one.
				}
			}
		}
	}
}

// Shutdown stops the hub loop and closes every connection.
func (h *Hub) Shutdown() {
	close(h.done)
}

func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

func (h *Hub) registerConnection(conn *Connection) {
	h.connections[conn] = true
	h.logger.Info("connection registered", zap.Int("total", len(h.connections)))

	h.sendMessage(conn, messages.OutboundMessage{
		Event: messages.EventConnected,
		Payload: messages.ConnectedPayload{
			ConnectionId: conn.ID.String(),
		},
	})
}

func (h *Hub) unregisterConnection(conn *Connection) {
	if _, ok := h.connections[conn]; !ok {
		return
	}
	delete(h.connections, conn)
	for gameID, set := range h.viewers {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.viewers, gameID)
		}
	}
	close(conn.send)
	h.logger.Info("connection unregistered", zap.Int("total", len(h.connections)))
}

func (h *Hub) subscribe(conn *Connection, gameID string) {
	set, ok := h.viewers[gameID]
	if !ok {
		set = make(map[*Connection]bool)
		h.viewers[gameID] = set
	}
	set[conn] = true
}

// handleInbound decodes and routes one client message.
func (h *Hub) handleInbound(msg InboundHubMessage) {
	switch msg.Message.Event {
	case messages.EventCreateGame:
		h.handleCreateGame(msg)
	case messages.EventJoinGame:
		h.handleJoinGame(msg)
	case messages.EventMakeMove:
		h.handleMakeMove(msg)
	case messages.EventPass:
		h.handlePass(msg)
	case messages.EventResign:
		h.handleResign(msg)
	case messages.EventMarkScore:
		h.handleMarkScore(msg)
	default:
		h.sendError(msg.Conn, "unknown_event", "Unknown message type")
	}
}

func (h *Hub) handleCreateGame(msg InboundHubMessage) {
	var payload messages.CreateGamePayload
	if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
		h.sendError(msg.Conn, "bad_payload", "Invalid CREATE_GAME payload")
		return
	}

	session, err := h.gameManager.CreateSession(msg.Conn.ID, payload)
	if err != nil {
		h.sendError(msg.Conn, rejectionCode(err), err.Error())
		return
	}

	h.subscribe(msg.Conn, session.ID.String())

	h.sendMessage(msg.Conn, messages.OutboundMessage{
		Event: messages.EventGameCreated,
		Payload: messages.GameCreatedPayload{
			GameID:      session.ID.String(),
			BoardSize:   session.BoardSize,
			Komi:        session.Komi,
			Handicap:    session.Handicap,
			TimeControl: payload.TimeControl,
			CurrentTurn: session.Turn(),
		},
	})
}

func (h *Hub) handleJoinGame(msg InboundHubMessage) {
	var payload messages.JoinGamePayload
	if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
		h.sendError(msg.Conn, "bad_payload", "Invalid JOIN_GAME payload")
		return
	}

	session, err := h.lookupSession(msg.Conn, payload.GameID)
	if err != nil {
		return
	}

	h.subscribe(msg.Conn, session.ID.String())

	h.sendMessage(msg.Conn, messages.OutboundMessage{
		Event:   messages.EventGameJoined,
		Payload: session.StatePayload(),
	})
}

func (h *Hub) handleMakeMove(msg InboundHubMessage) {
	var payload messages.MakeMovePayload
	if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
		h.sendError(msg.Conn, "bad_payload", "Invalid MAKE_MOVE payload")
		return
	}

	session, err := h.lookupSession(msg.Conn, payload.GameID)
	if err != nil {
		return
	}

	mv := board.Move{Color: board.Color(payload.Color), X: payload.X, Y: payload.Y}
	if err := session.ProcessMove(mv); err != nil {
		h.sendError(msg.Conn, rejectionCode(err), err.Error())
		return
	}

	h.gameManager.RequestEngineMove(session)
}

func (h *Hub) handlePass(msg InboundHubMessage) {
	var payload messages.PassPayload
	if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
		h.sendError(msg.Conn, "bad_payload", "Invalid PASS payload")
		return
	}

	session, err := h.lookupSession(msg.Conn, payload.GameID)
	if err != nil {
		return
	}

	if err := session.ProcessPass(board.Color(payload.Color)); err != nil {
		h.sendError(msg.Conn, rejectionCode(err), err.Error())
		return
	}

	h.gameManager.RequestEngineMove(session)
}

func (h *Hub) handleResign(msg InboundHubMessage) {
	var payload messages.ResignPayload
	if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
		h.sendError(msg.Conn, "bad_payload", "Invalid RESIGN payload")
		return
	}

	session, err := h.lookupSession(msg.Conn, payload.GameID)
	if err != nil {
		return
	}

	if err := session.Resign(board.Color(payload.Color)); err != nil {
		h.sendError(msg.Conn, rejectionCode(err), err.Error())
	}
}

func (h *Hub) handleMarkScore(msg InboundHubMessage) {
	var payload messages.MarkScorePayload
	if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
		h.sendError(msg.Conn, "bad_payload", "Invalid MARK_SCORE payload")
		return
	}

	session, err := h.lookupSession(msg.Conn, payload.GameID)
	if err != nil {
		return
	}

	if err := session.FinishByScore(board.Color(payload.Winner), payload.Result); err != nil {
		h.sendError(msg.Conn, rejectionCode(err), err.Error())
	}
}

func (h *Hub) lookupSession(conn *Connection, rawID string) (*game.Session, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		h.sendError(conn, "bad_game_id", err.Error())
		return nil, err
	}

	session, err := h.gameManager.GetSession(id)
	if err != nil {
		h.sendError(conn, "game_not_found", "Could not find game "+rawID)
		return nil, err
	}
	return session, nil
}

// rejectionCode maps rejection errors to stable reason codes for
// clients.
func rejectionCode(err error) string {
	switch {
	case errors.Is(err, board.ErrOccupied):
		return "occupied"
	case errors.Is(err, board.ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, board.ErrSuicide):
		return "suicide"
	case errors.Is(err, board.ErrKo):
		return "ko_violation"
	case errors.Is(err, game.ErrWrongTurn):
		return "wrong_turn"
	case errors.Is(err, game.ErrNotPlaying):
		return "game_not_playing"
	case errors.Is(err, clock.ErrBlitzExclusive),
		errors.Is(err, clock.ErrNegativeSetting),
		errors.Is(err, clock.ErrPeriodLength):
		return "bad_time_control"
	default:
		return "rejected"
	}
}

func (h *Hub) sendError(conn *Connection, code, msg string) {
	h.sendMessage(conn, messages.OutboundMessage{
		Event: messages.EventError,
		Payload: messages.ErrorPayload{
			Code:    code,
			Message: msg,
		},
	})
}

func (h *Hub) sendMessage(conn *Connection, msg messages.OutboundMessage) {
	conn.SendJSON(msg)
}
