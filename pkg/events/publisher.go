// Package events provides the in-process pub/sub bus decoupling game
// state mutation from transport fan-out.
package events

import "sync"

// EventType represents the type of event
type EventType string

// Define event types
const (
	EventGameCreated      EventType = "GAME_CREATED"
	EventMoveProcessed    EventType = "MOVE_PROCESSED"
	EventEngineMoved      EventType = "ENGINE_MOVED"
	EventClockUpdated     EventType = "CLOCK_UPDATED"
	EventGameOver         EventType = "GAME_OVER"
	EventConnectionClosed EventType = "CONNECTION_CLOSED"
)

// Event represents an event in the system
type Event struct {
	Type    EventType
	GameID  string // Optional, can be empty for non-game events
	Payload interface{}
}

// Handler is a function that processes events
type Handler func(event Event)

// Publisher is the central event publisher
type Publisher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
}

// NewPublisher creates a new event publisher
func NewPublisher() *Publisher {
	return &Publisher{
		subscribers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for a specific event type
func (p *Publisher) Subscribe(eventType EventType, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subscribers[eventType] = append(p.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type
func (p *Publisher) SubscribeAll(handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subscribers["*"] = append(p.subscribers["*"], handler)
}

// Publish broadcasts an event to its subscribers and to all-event
// subscribers. Handlers run concurrently; publishing never blocks game
// state mutation.
func (p *Publisher) Publish(event Event) {
	p.mu.RLock()
	handlers := p.subscribers[event.Type]
	allHandlers := p.subscribers["*"]
	p.mu.RUnlock()

	for _, handler := range handlers {
		go handler(event)
	}
	for _, handler := range allHandlers {
		go handler(event)
	}
}
