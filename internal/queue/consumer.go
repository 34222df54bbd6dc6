package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Consumer reads operations events from OpsQueueName and writes one audit
// line per event.
type Consumer struct {
	url    string
	audit  *zap.Logger
	logger *zap.Logger
}

// NewConsumer returns a Consumer for the broker at url.  audit receives the
// event lines; logger receives the consumer's own diagnostics.
func NewConsumer(url string, audit, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{url: url, audit: audit, logger: logger}
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are re-dialled with exponential backoff.
func (c *Consumer) Run(ctx context.Context) {
	backoff := minBackoff
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("ops consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("ops consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("ops consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(OpsQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, OpsQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(d.Body); err != nil {
				c.logger.Warn("ops consumer: handle message failed", zap.Error(err))
				// Reject without requeue so a bad message cannot spin.
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and writes it to the audit log.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Kind == "" {
		return errors.New("event has no kind")
	}

	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.String("kind", ev.Kind),
		zap.Time("occurred_at", ev.OccurredAt),
	}
	if ev.ActorID != 0 {
		fields = append(fields, zap.Uint64("actor_id", ev.ActorID))
	}
	if ev.Date != "" {
		fields = append(fields, zap.String("date", ev.Date), zap.String("start_time", ev.StartTime))
	}
	if len(ev.ReservationIDs) > 0 {
		fields = append(fields, zap.Uint64s("reservation_ids", ev.ReservationIDs))
	}
	if ev.CustomerName != "" {
		fields = append(fields, zap.String("customer", ev.CustomerName))
	}
	if ev.Status != "" {
		fields = append(fields, zap.String("status", ev.Status))
	}
	if ev.WaiverDocID != 0 {
		fields = append(fields, zap.Uint64("waiver_doc_id", ev.WaiverDocID))
	}
	c.audit.Info(describe(ev.Kind), fields...)
	return nil
}

func describe(kind string) string {
	switch kind {
	case KindGroupSent:
		return "Group sent"
	case KindWalkInCreated:
		return "Walk-in booked"
	case KindWaiverActivated:
		return "Waiver document activated"
	case KindReservationState:
		return "Reservation status changed"
	}
	return "Operations event"
}

// sleep waits for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
