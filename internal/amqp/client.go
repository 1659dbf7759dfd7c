package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/log"

	"github.com/rabbitmq/amqp091-go"
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
	maxBackoff     = 30 * time.Second
	dialAttempts   = 3
	publishTimeout = 5 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client publishes ledger events to a durable direct exchange. A queue named
// after the routing key is declared and bound so events survive until a
// consumer shows up.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	failMu       sync.Mutex
	lastFailure  time.Time
}

// NewClient dials the broker, retrying with exponential backoff a few times
// so the app can start while the broker is still coming up.
func NewClient(ctx context.Context, url, exchangeName, routingKey string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    routingKey,
	}

	var err error
	for attempt := 0; attempt < dialAttempts; attempt++ {
		if err = c.connect(); err == nil {
			return c, nil
		}
		log.Default(log.ComponentAMQP).WarnContext(ctx, "AMQP connection failed",
			"attempt", attempt+1,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeNetwork)
		if attempt == dialAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}
	}
	return nil, err
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishTransaction publishes a ledger event for t.
func (c *Client) PublishTransaction(ctx context.Context, eventType string, t core.Transaction) error {
	return c.PublishLedgerEvent(ctx, NewLedgerEvent(eventType, t))
}

// PublishLedgerEvent publishes msg. A dropped connection is re-established
// once per call; repeated failures open the circuit breaker.
func (c *Client) PublishLedgerEvent(ctx context.Context, msg *LedgerEvent) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", msg.Type, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.currentChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		pubCtx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Type:         msg.Type,
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.dropConnection()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	log.Default(log.ComponentAMQP).DebugContext(ctx, "Published ledger event",
		"type", msg.Type,
		log.FieldMonth, msg.Month,
		"exchange", c.exchangeName)
	return nil
}

func (c *Client) currentChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	ch, conn := c.channel, c.conn
	c.mu.Unlock()
	if ch != nil && conn != nil && !conn.IsClosed() && !ch.IsClosed() {
		return ch, nil
	}
	c.dropConnection()
	if err := c.connect(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel, nil
}

func (c *Client) dropConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
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
	n := atomic.AddInt64(&c.failureCount, 1)
	// a failed half-open trial reopens immediately
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << uint(attempt)
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
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
