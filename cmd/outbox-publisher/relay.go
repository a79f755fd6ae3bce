package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/roorreach/marketplace-backend/pkg/config"
	"github.com/roorreach/marketplace-backend/pkg/db/models"
	"github.com/roorreach/marketplace-backend/pkg/logger"
	"github.com/roorreach/marketplace-backend/pkg/metrics"
	"github.com/roorreach/marketplace-backend/pkg/outbox"
	"github.com/roorreach/marketplace-backend/pkg/outbox/registry"
)

const (
	publishTimeout = 15 * time.Second
	idleCeiling    = 10 * time.Second
	maxJitter      = 250 * time.Millisecond
)

// outcome is what happened to one outbox row during a drain.
type outcome string

const (
	outcomePublished outcome = "published"
	outcomeRetry     outcome = "retry"
	outcomeParked    outcome = "parked"
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error) error
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// topicPublisher sends one message and blocks until the broker acknowledges it.
type topicPublisher interface {
	Send(context.Context, *gcppubsub.Message) error
}

type RelayParams struct {
	Outbox   config.OutboxConfig
	Logger   *logger.Logger
	DB       dbClient
	PubSub   pubSubClient
	Repo     outboxRepository
	Resolver eventResolver
	Metrics  *metrics.OutboxRelay
	// Topics overrides how a topic name becomes a publisher.
	Topics func(topic string) topicPublisher
}

// Relay moves committed outbox rows onto their Pub/Sub topics. Each batch
// is claimed and settled in one transaction; on postgres the claim skips
// rows another relay holds.
type Relay struct {
	logg     *logger.Logger
	db       dbClient
	pubsub   pubSubClient
	repo     outboxRepository
	resolver eventResolver
	metrics  *metrics.OutboxRelay
	topics   func(topic string) topicPublisher

	batch       int
	maxAttempts int
	idle        time.Duration
}

func NewRelay(p RelayParams) (*Relay, error) {
	var err error
	if p.Logger == nil {
		err = multierr.Append(err, errors.New("logger is required"))
	}
	if p.DB == nil {
		err = multierr.Append(err, errors.New("database client is required"))
	}
	if p.PubSub == nil {
		err = multierr.Append(err, errors.New("pubsub client is required"))
	}
	if p.Repo == nil {
		err = multierr.Append(err, errors.New("outbox repository is required"))
	}
	if p.Resolver == nil {
		err = multierr.Append(err, errors.New("event resolver is required"))
	}
	if err != nil {
		return nil, err
	}

	topics := p.Topics
	if topics == nil {
		topics = func(topic string) topicPublisher {
			if pub := p.PubSub.Publisher(topic); pub != nil {
				return gcpTopic{pub}
			}
			return nil
		}
	}

	return &Relay{
		logg:        p.Logger,
		db:          p.DB,
		pubsub:      p.PubSub,
		repo:        p.Repo,
		resolver:    p.Resolver,
		metrics:     p.Metrics,
		topics:      topics,
		batch:       positiveOr(p.Outbox.BatchSize, 50),
		maxAttempts: positiveOr(p.Outbox.MaxAttempts, 10),
		idle:        time.Duration(positiveOr(p.Outbox.PollIntervalMS, 500)) * time.Millisecond,
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run drains until ctx is done. A full batch is followed immediately by
// another; an empty one waits for the idle interval. Failed drains back off
// exponentially up to idleCeiling.
func (r *Relay) Run(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{
		"database": r.db.Ping,
		"pubsub":   r.pubsub.Ping,
	} {
		if err := ping(ctx); err != nil {
			return fmt.Errorf("%s not ready: %w", name, err)
		}
	}

	delay := pacer{base: r.idle, ceiling: idleCeiling}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		started := time.Now()
		n, err := r.drain(ctx)
		r.metrics.ObserveDrain(time.Since(started))

		var wait time.Duration
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox drain failed", err)
			wait = delay.failed()
		case n == 0:
			delay.reset()
			wait = r.idle
		default:
			delay.reset()
			continue
		}
		if err := sleepCtx(ctx, jitter(wait)); err != nil {
			return err
		}
	}
}

// delivery is the result of relaying one row.
type delivery struct {
	event    models.OutboxEvent
	envelope outbox.PayloadEnvelope
	topic    string
	outcome  outcome
	err      error
}

// drain relays one batch and returns how many rows it handled.
func (r *Relay) drain(ctx context.Context) (int, error) {
	var handled int
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.repo.FetchUnpublishedForPublish(tx, r.batch, r.maxAttempts)
		if err != nil {
			return err
		}
		for _, event := range events {
			d := r.deliver(ctx, event)
			if err := r.settle(tx, d); err != nil {
				return err
			}
			r.report(ctx, d)
			handled++
		}
		return nil
	})
	return handled, err
}

func (r *Relay) deliver(ctx context.Context, event models.OutboxEvent) delivery {
	d := delivery{event: event}
	resolved, err := r.resolver.Resolve(event)
	if err != nil {
		d.outcome, d.err = outcomeParked, err
		return d
	}
	d.envelope = resolved.Envelope
	d.topic = resolved.Descriptor.Topic

	err = r.publish(ctx, event, resolved)
	var permanent registry.NonRetryableError
	switch {
	case err == nil:
		d.outcome = outcomePublished
	case errors.As(err, &permanent):
		d.outcome, d.err = outcomeParked, err
	case event.AttemptCount+1 >= r.maxAttempts:
		d.outcome, d.err = outcomeParked, fmt.Errorf("gave up after %d attempts: %w", event.AttemptCount+1, err)
	default:
		d.outcome, d.err = outcomeRetry, err
	}
	return d
}

// settle records the delivery on the row inside the batch transaction.
// Parked rows keep failed_at set and stay in the table for inspection.
func (r *Relay) settle(tx *gorm.DB, d delivery) error {
	var err error
	switch d.outcome {
	case outcomePublished:
		err = r.repo.MarkPublishedTx(tx, d.event.ID)
	case outcomeRetry:
		err = r.repo.MarkFailedTx(tx, d.event.ID, d.err)
	case outcomeParked:
		err = r.repo.MarkTerminalTx(tx, d.event.ID, d.err)
	}
	if err != nil {
		return fmt.Errorf("mark %s %s: %w", d.outcome, d.event.ID, err)
	}
	return nil
}

func (r *Relay) report(ctx context.Context, d delivery) {
	r.metrics.ObserveEvent(string(d.outcome), string(d.event.EventType))

	fields := map[string]any{
		"outbox_id":     d.event.ID.String(),
		"event_type":    d.event.EventType,
		"aggregate_id":  d.event.AggregateID.String(),
		"attempt_count": d.event.AttemptCount,
		"outcome":       d.outcome,
	}
	if d.topic != "" {
		fields["topic"] = d.topic
	}
	if d.envelope.EventID != "" {
		fields["event_id"] = d.envelope.EventID
	}
	if d.envelope.CorrelationID != "" {
		fields["request_id"] = d.envelope.CorrelationID
	}
	if d.err != nil {
		fields["error"] = d.err.Error()
	}
	logCtx := r.logg.WithFields(ctx, fields)

	switch d.outcome {
	case outcomePublished:
		r.logg.Info(logCtx, "outbox event published")
	case outcomeRetry:
		r.logg.Warn(logCtx, "outbox publish failed, will retry")
	default:
		r.logg.Warn(logCtx, "outbox event parked")
	}
}

func (r *Relay) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := r.topics(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
	}

	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	}
	if id := resolved.Envelope.CorrelationID; id != "" {
		attrs["correlation_id"] = id
	}

	sendCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return pub.Send(sendCtx, &gcppubsub.Message{Data: event.Payload, Attributes: attrs})
}

// pacer doubles the wait after each failure, capped at ceiling.
type pacer struct {
	base    time.Duration
	ceiling time.Duration
	current time.Duration
}

func (p *pacer) failed() time.Duration {
	next := p.current * 2
	if p.current <= 0 {
		next = p.base * 2
	}
	p.current = min(next, p.ceiling)
	return p.current
}

func (p *pacer) reset() {
	p.current = 0
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(rand.Int63n(int64(maxJitter)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type gcpTopic struct {
	pub *gcppubsub.Publisher
}

func (t gcpTopic) Send(ctx context.Context, msg *gcppubsub.Message) error {
	_, err := t.pub.Publish(ctx, msg).Get(ctx)
	return err
}
