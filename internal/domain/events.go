package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Event Interface and Base Event
// -----------------------------------------------------------------------------

// Event represents a domain event
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
	// AggregateID returns the ID of the learner the event concerns
	AggregateID() uuid.UUID
}

// BaseEvent provides common event fields
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    uuid.UUID `json:"user_id"`
}

// NewBaseEvent creates a new BaseEvent
func NewBaseEvent(eventType string, userID uuid.UUID) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.ID }
func (e BaseEvent) EventType() string      { return e.Type }
func (e BaseEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e BaseEvent) AggregateID() uuid.UUID { return e.UserID }

// Event type names
const (
	EventSessionRecorded      = "session.recorded"
	EventRecommendationIssued = "recommendation.issued"
	EventLevelChanged         = "level.changed"
)

// -----------------------------------------------------------------------------
// Event Handler and Dispatcher
// -----------------------------------------------------------------------------

// EventHandler processes domain events
type EventHandler func(event Event)

// EventDispatcher fans events out to in-process subscribers
type EventDispatcher struct {
	mu          sync.RWMutex
	handlers    map[string][]EventHandler
	allHandlers []EventHandler
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// SubscribeAll registers a handler for all event types
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allHandlers = append(d.allHandlers, handler)
}

// Publish dispatches an event to all registered handlers
func (d *EventDispatcher) Publish(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, h := range d.handlers[event.EventType()] {
		h(event)
	}
	for _, h := range d.allHandlers {
		h(event)
	}
}

// -----------------------------------------------------------------------------
// Learner Events
// -----------------------------------------------------------------------------

// SessionRecordedEvent is published when a session's metrics are stored
type SessionRecordedEvent struct {
	BaseEvent
	SessionID string   `json:"session_id"`
	LevelID   string   `json:"level_id"`
	Feedback  Feedback `json:"feedback,omitempty"`
}

// NewSessionRecordedEvent creates a new session recorded event
func NewSessionRecordedEvent(m ConversationMetrics) SessionRecordedEvent {
	return SessionRecordedEvent{
		BaseEvent: NewBaseEvent(EventSessionRecorded, m.UserID),
		SessionID: m.SessionID,
		LevelID:   m.DifficultyLevelID,
		Feedback:  m.UserFeedback,
	}
}

// RecommendationIssuedEvent is published whenever the engine produces a recommendation
type RecommendationIssuedEvent struct {
	BaseEvent
	RecommendationID uuid.UUID                `json:"recommendation_id"`
	Recommendation   AdjustmentRecommendation `json:"recommendation"`
	Applied          bool                     `json:"applied"`
}

// NewRecommendationIssuedEvent creates a new recommendation issued event
func NewRecommendationIssuedEvent(rec *RecommendationRecord) RecommendationIssuedEvent {
	return RecommendationIssuedEvent{
		BaseEvent:        NewBaseEvent(EventRecommendationIssued, rec.UserID),
		RecommendationID: rec.ID,
		Recommendation:   rec.Recommendation,
		Applied:          rec.Applied,
	}
}

// LevelChangeSource says who moved the learner
type LevelChangeSource string

const (
	LevelChangeAuto   LevelChangeSource = "auto"
	LevelChangeManual LevelChangeSource = "manual"
)

// LevelChangedEvent is published when a learner's current level moves
type LevelChangedEvent struct {
	BaseEvent
	FromLevelID string            `json:"from_level_id"`
	ToLevelID   string            `json:"to_level_id"`
	Source      LevelChangeSource `json:"source"`
}

// NewLevelChangedEvent creates a new level changed event
func NewLevelChangedEvent(userID uuid.UUID, from, to string, source LevelChangeSource) LevelChangedEvent {
	return LevelChangedEvent{
		BaseEvent:   NewBaseEvent(EventLevelChanged, userID),
		FromLevelID: from,
		ToLevelID:   to,
		Source:      source,
	}
}
