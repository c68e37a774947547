// Package events publishes screening and ingestion status updates.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"talentmatch/internal/config"
	"talentmatch/internal/errors"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Event types
const (
	ScreeningStarted  = "screening.started"
	ScreeningFinished = "screening.finished"
	ScreeningFailed   = "screening.failed"
	IngestFinished    = "ingest.finished"
)

// Event is one status update
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	JobID     string         `json:"job_id"`
	RunID     string         `json:"run_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// New creates an event with a fresh id and the current time
func New(eventType, jobID, runID string, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		JobID:     jobID,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// RoutingKey is "<type>.<job_id>", e.g. screening.finished.ab12cd34
func (e Event) RoutingKey() string {
	return fmt.Sprintf("%s.%s", e.Type, e.JobID)
}

// Publisher delivers events. Publishing is best effort for callers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop drops every event
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// AMQP publishes JSON events to a topic exchange
type AMQP struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *errors.Logger
}

// NewPublisher returns an AMQP publisher when events are enabled, Noop otherwise.
func NewPublisher(cfg config.EventsConfig, logger *errors.Logger) (Publisher, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	return DialAMQP(cfg.URL, cfg.Exchange, logger)
}

// DialAMQP connects and declares the durable topic exchange
func DialAMQP(url, exchange string, logger *errors.Logger) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.NewUpstreamError(errors.ErrCodeEventPublishFailed, "error dialling rabbitmq", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.NewUpstreamError(errors.ErrCodeEventPublishFailed, "error opening rabbitmq channel", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.NewUpstreamError(errors.ErrCodeEventPublishFailed, "error declaring exchange", err).
			WithContext("exchange", exchange)
	}

	logger.Info("Connected to event broker", "exchange", exchange)
	return &AMQP{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

func (p *AMQP) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeEventPublishFailed, "failed to encode event", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(
		p.exchange,
		event.RoutingKey(),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Timestamp,
			Type:         event.Type,
			Body:         body,
		},
	)
	if err != nil {
		return errors.NewUpstreamError(errors.ErrCodeEventPublishFailed, "failed to publish event", err).
			WithContext("routing_key", event.RoutingKey())
	}
	return nil
}

func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Emit publishes and logs a failure instead of returning it
func Emit(ctx context.Context, p Publisher, logger *errors.Logger, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.LogError(err, "Failed to publish status event", "type", event.Type, "job_id", event.JobID)
	}
}
