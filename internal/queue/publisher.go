package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/equipment-rental/internal/logger"
)

// defaultDialTimeout bounds a dial when the caller's context has no
// deadline.
const defaultDialTimeout = 5 * time.Second

// Publisher publishes events to RabbitMQ.  A connection is dialled per
// publish and the dial is bounded by the context deadline.  Errors are
// logged here and returned so callers can choose to ignore them.
type Publisher struct {
	url string
	log *logger.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{url: url, log: log}
}

// Publish sends ev to the durable queue named after its type.  Messages
// are marked as persistent.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if err := p.publish(ctx, ev); err != nil {
		p.log.Warn("rabbitmq: publish failed",
			logger.String("type", ev.Type),
			logger.Uint64("reservation_id", ev.ReservationID),
			logger.ErrorF(err))
		return err
	}
	p.log.Debug("rabbitmq: event published", logger.String("type", ev.Type), logger.String("id", ev.ID))
	return nil
}

func (p *Publisher) publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	timeout, err := dialTimeout(ctx)
	if err != nil {
		return err
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(ev.Type, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	return ch.PublishWithContext(ctx,
		"",      // default exchange
		ev.Type, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Type:         ev.Type,
			Timestamp:    ev.OccurredAt,
			Body:         body,
		})
}

// dialTimeout is the time left before ctx's deadline, or the default when
// there is none.
func dialTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	dl, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout, nil
	}
	left := time.Until(dl)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	return left, nil
}
