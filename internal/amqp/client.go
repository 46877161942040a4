// Package amqp publishes and consumes transaction events over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"spendly/internal/core"
	"spendly/internal/log"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client owns one connection and channel. Publishing reconnects lazily after
// connection failures and stops trying while the circuit is open.
type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	failMu       sync.Mutex
	lastFailure  time.Time
}

// NewClient dials the broker and declares the exchange, queue and binding.
func NewClient(ctx context.Context, url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// ConnectWithRetry dials until it succeeds, backing off exponentially, or ctx ends.
func ConnectWithRetry(ctx context.Context, url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	for attempt := 0; ; attempt++ {
		c, err := NewClient(ctx, url, exchangeName, queueName, logger)
		if err == nil {
			return c, nil
		}
		wait := exponentialBackoff(attempt)
		if logger != nil {
			logger.WarnContext(ctx, "AMQP connection failed, retrying", log.FieldError, err.Error(), "retry_in", wait.String())
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) connectLocked(ctx context.Context) error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declare(channel, c.exchangeName, c.queueName); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	c.conn, c.channel = conn, channel
	c.logger.InfoContext(ctx, "Connected to AMQP broker", "exchange", c.exchangeName, "queue", c.queueName)
	return nil
}

func declare(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// The routing key equals the queue name on the direct exchange.
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishTransactionRecorded publishes a transaction.recorded event.
func (c *Client) PublishTransactionRecorded(ctx context.Context, userID core.UserID, tx core.Transaction) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish transaction: %w", ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := NewTransactionRecordedMessage(userID, tx, time.Now())
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, msg.MessageID, body); err != nil {
		c.recordFailure()
		return err
	}
	c.recordSuccess()

	c.logger.InfoContext(ctx, "Published transaction event",
		"message_id", msg.MessageID,
		log.FieldUserID, userID.String(),
		log.FieldCategory, tx.Category)
	return nil
}

func (c *Client) publish(ctx context.Context, id string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil || c.channel.IsClosed() {
		if err := c.connectLocked(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    id,
		Type:         TypeTransactionRecorded,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		if isConnectionError(err) {
			c.dropLocked()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Handler processes one decoded message. A returned error requeues it.
type Handler func(ctx context.Context, msg *TransactionRecordedMessage) error

// Outcome is what happened to a delivery.
type Outcome int

const (
	Acked Outcome = iota
	Requeued
	Rejected
)

// Consume delivers messages to handler until ctx ends or the channel closes.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return errors.New("start consuming: not connected")
	}

	deliveries, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	c.logger.InfoContext(ctx, "Started consuming transaction events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("message channel closed")
			}
			c.Handle(ctx, d, handler)
		}
	}
}

// Handle decodes d and settles it: malformed messages are rejected, handler
// failures requeued, everything else acknowledged.
func (c *Client) Handle(ctx context.Context, d amqp091.Delivery, handler Handler) Outcome {
	msg, err := TransactionRecordedFromJSON(d.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Rejecting malformed message", log.FieldError, err.Error())
		c.settle(ctx, d.Nack(false, false))
		return Rejected
	}

	if err := handler(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "Failed to handle message, requeueing",
			log.FieldError, err.Error(), "message_id", msg.MessageID)
		c.settle(ctx, d.Nack(false, true))
		return Requeued
	}

	c.settle(ctx, d.Ack(false))
	c.logger.DebugContext(ctx, "Processed transaction event", "message_id", msg.MessageID)
	return Acked
}

func (c *Client) settle(ctx context.Context, err error) {
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to settle delivery", log.FieldError, err.Error())
	}
}

func (c *Client) dropLocked() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.channel, c.conn = nil, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		_ = c.channel.Close()
	}
	var err error
	if c.conn != nil {
		err = c.conn.Close()
	}
	c.channel, c.conn = nil, nil
	return err
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.failMu.Lock()
	last := c.lastFailure
	c.failMu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.failMu.Lock()
	c.lastFailure = time.Now()
	c.failMu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "EOF", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
