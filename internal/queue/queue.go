package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/parley/internal/domain"
)

// Queue names
const (
	SessionQueueName        = "parley.sessions"
	RecommendationQueueName = "parley.recommendations"
)

// SessionJob carries the metrics of a finished conversation to a worker.
type SessionJob struct {
	ID        uuid.UUID                  `json:"id"`
	Metrics   domain.ConversationMetrics `json:"metrics"`
	Recommend bool                       `json:"recommend"` // request a recommendation once recorded
	CreatedAt time.Time                  `json:"created_at"`
}

// EventMessage is the wire form of a domain event on the recommendations queue.
type EventMessage struct {
	EventID    uuid.UUID       `json:"event_id"`
	Type       string          `json:"type"`
	UserID     uuid.UUID       `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Connection manages the RabbitMQ connection with automatic reconnection
type Connection struct {
	url        string
	conn       *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	closed     bool
	reconnects int
}

// NewConnection dials RabbitMQ and declares the parley queues.
func NewConnection(url string) (*Connection, error) {
	c := &Connection{url: url}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	c.conn, err = amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := c.declareQueues(); err != nil {
		c.channel.Close()
		c.conn.Close()
		return err
	}

	go c.handleReconnect(c.conn.NotifyClose(make(chan *amqp.Error, 1)))

	slog.Info("connected to RabbitMQ", "url", sanitizeURL(c.url))
	return nil
}

func (c *Connection) declareQueues() error {
	// Sessions are durable: losing one means losing learner data.
	if _, err := c.channel.QueueDeclare(SessionQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare session queue: %w", err)
	}

	_, err := c.channel.QueueDeclare(
		RecommendationQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-message-ttl": int32(24 * time.Hour / time.Millisecond),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare recommendation queue: %w", err)
	}
	return nil
}

// handleReconnect waits for the connection to drop and redials with backoff.
func (c *Connection) handleReconnect(notifyClose <-chan *amqp.Error) {
	err, ok := <-notifyClose
	if !ok || err == nil {
		return
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return
	}

	slog.Warn("RabbitMQ connection closed, attempting to reconnect", "error", err, "reconnects", c.reconnects)

	for attempt := range maxReconnectAttempts {
		c.reconnects++
		time.Sleep(reconnectBackoff(attempt))

		if err := c.connect(); err != nil {
			slog.Error("reconnection failed", "error", err, "attempt", attempt+1)
			continue
		}
		slog.Info("reconnected to RabbitMQ", "attempts", attempt+1)
		return
	}
	slog.Error("failed to reconnect to RabbitMQ", "attempts", maxReconnectAttempts)
}

const (
	maxReconnectAttempts = 10
	maxReconnectBackoff  = 30 * time.Second
)

func reconnectBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxReconnectBackoff
	}
	return min(time.Duration(1<<attempt)*time.Second, maxReconnectBackoff)
}

// Channel returns the current channel (thread-safe)
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close closes the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected checks if the connection is active
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// PublishJSON publishes a persistent JSON message to a queue
func (c *Connection) PublishJSON(ctx context.Context, queue string, messageID string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return c.Channel().PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// sanitizeURL drops credentials from an AMQP URL for logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "amqp://<invalid>"
	}
	u.User = nil
	return u.String()
}
