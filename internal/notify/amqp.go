package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is the subset of *amqp.Channel used by the publisher.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type dialer func(url string) (amqpChannel, io.Closer, error)

const (
	// DefaultDialTimeout bounds the TCP connect and AMQP handshake.
	DefaultDialTimeout = 3 * time.Second
	// DefaultRedialBackoff is how long a failed dial is remembered before the
	// broker is tried again. Notify fails fast in between.
	DefaultRedialBackoff = 5 * time.Second
)

// ErrBrokerUnavailable is returned while a recent dial failure is backing off.
var ErrBrokerUnavailable = errors.New("notify: broker unavailable")

func dialAMQP(timeout time.Duration) dialer {
	return func(url string) (amqpChannel, io.Closer, error) {
		conn, err := amqp.DialConfig(url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(timeout),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("notify: dial rabbitmq: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("notify: open channel: %w", err)
		}
		return ch, conn, nil
	}
}

// AMQPPublisher publishes events as persistent JSON messages to a durable
// queue through the default exchange. The connection is opened lazily and
// re-established after a failed publish. Dials are bounded by a timeout and
// a failed dial is not retried until the backoff has passed.
type AMQPPublisher struct {
	url     string
	queue   string
	dial    dialer
	now     func() time.Time
	backoff time.Duration

	mu           sync.Mutex
	ch           amqpChannel
	conn         io.Closer
	dialFailedAt time.Time
}

// AMQPOption customises an AMQPPublisher.
type AMQPOption func(*AMQPPublisher)

// WithDialTimeout overrides DefaultDialTimeout.
func WithDialTimeout(timeout time.Duration) AMQPOption {
	return func(p *AMQPPublisher) {
		if timeout > 0 {
			p.dial = dialAMQP(timeout)
		}
	}
}

// WithRedialBackoff overrides DefaultRedialBackoff. Zero disables it.
func WithRedialBackoff(backoff time.Duration) AMQPOption {
	return func(p *AMQPPublisher) {
		if backoff >= 0 {
			p.backoff = backoff
		}
	}
}

// NewAMQPPublisher returns a publisher for url. An empty queue selects DefaultQueue.
func NewAMQPPublisher(url, queue string, opts ...AMQPOption) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	p := &AMQPPublisher{
		url:     url,
		queue:   queue,
		dial:    dialAMQP(DefaultDialTimeout),
		now:     time.Now,
		backoff: DefaultRedialBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Notify publishes event.
func (p *AMQPPublisher) Notify(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Type:         string(event.Type),
		MessageId:    event.BookingID + ":" + string(event.Type),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("notify: publish %s: %w", event.Type, err)
	}
	return nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reset()
}

func (p *AMQPPublisher) channel() (amqpChannel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	if !p.dialFailedAt.IsZero() && p.now().Sub(p.dialFailedAt) < p.backoff {
		return nil, ErrBrokerUnavailable
	}
	ch, conn, err := p.dial(p.url)
	if err != nil {
		p.dialFailedAt = p.now()
		return nil, err
	}
	p.dialFailedAt = time.Time{}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		if conn != nil {
			_ = conn.Close()
		}
		return nil, fmt.Errorf("notify: declare queue %s: %w", p.queue, err)
	}
	p.ch, p.conn = ch, conn
	return ch, nil
}

func (p *AMQPPublisher) reset() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}
