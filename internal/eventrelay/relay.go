// Package eventrelay forwards lifecycle events to a RabbitMQ topic exchange
// for the external integration layer. The event name is the routing key.
package eventrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"salesflow_backend/internal/events"
	"salesflow_backend/platform/config"
	"salesflow_backend/platform/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "crm.events"
	publishTimeout  = 5 * time.Second
)

// Publisher is the part of an AMQP channel the relay uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Envelope is the message body sent for every event.
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Event      string          `json:"event"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

type Relay struct {
	pub      Publisher
	exchange string
	log      *logger.Logger
}

func New(pub Publisher, exchange string, log *logger.Logger) *Relay {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Relay{pub: pub, exchange: exchange, log: log}
}

// Connection owns the broker connection behind a Relay.
type Connection struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to the broker and declares the durable topic exchange.
func Dial(cfg config.AMQPConfig, log *logger.Logger) (*Relay, *Connection, error) {
	conn, err := amqp.Dial(cfg.GetAMQPURL())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	relay := New(ch, cfg.GetAMQPExchange(), log)
	if err := ch.ExchangeDeclare(relay.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", relay.exchange, err)
	}
	return relay, &Connection{conn: conn, ch: ch}, nil
}

func (c *Connection) Close() error {
	if c == nil {
		return nil
	}
	_ = c.ch.Close()
	return c.conn.Close()
}

// RegisterHandlers subscribes the relay to every lifecycle event.
func (r *Relay) RegisterHandlers(bus events.Bus) {
	for _, e := range relayed() {
		bus.Subscribe(e.EventName(), r)
	}
}

func relayed() []events.Event {
	return []events.Event{
		events.LeadCreated{},
		events.LeadAssigned{},
		events.LeadClaimed{},
		events.LeadStageChanged{},
		events.LeadConflictEscalated{},
		events.TaskAssigned{},
		events.PipelineConfigured{},
	}
}

// Handle publishes one event. Failures are returned to the bus, which logs them.
func (r *Relay) Handle(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.EventName(), err)
	}
	envelope := Envelope{
		ID:         uuid.New(),
		Event:      event.EventName(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = r.pub.PublishWithContext(ctx, r.exchange, envelope.Event, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    envelope.ID.String(),
		Timestamp:    envelope.OccurredAt,
		Type:         envelope.Event,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", envelope.Event, err)
	}

	r.log.WithContext(ctx).Debug("event relayed",
		slog.String("event", envelope.Event),
		slog.String("exchange", r.exchange),
	)
	return nil
}

var _ events.Handler = (*Relay)(nil)
