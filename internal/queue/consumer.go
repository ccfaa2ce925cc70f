package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumerOptions configures StartNotificationConsumer.
type ConsumerOptions struct {
	URL    string
	Queue  string
	Out    io.Writer // where one line per notification is appended
	Logger *slog.Logger
}

// StartNotificationConsumer connects to RabbitMQ, declares the
// notification queue (durable) and appends every message to opts.Out in a
// single-line, human-friendly format.  It reconnects with exponential
// backoff and only returns when ctx is cancelled.  Malformed messages are
// rejected without requeue so the consumer never spins on them.
func StartNotificationConsumer(ctx context.Context, opts ConsumerOptions) error {
	if opts.Queue == "" {
		opts.Queue = DefaultNotificationQueue
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "notification-consumer", "queue", opts.Queue)

	backoff := time.Second
	for {
		conn, err := amqp.Dial(opts.URL)
		if err != nil {
			log.Warn("failed to dial broker", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, opts, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, opts ConsumerOptions, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(opts.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(opts.Queue, "", false, false, false, false, nil)
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
			if err := handleMessage(opts.Out, d.Body); err != nil {
				log.Error("handle message failed", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(out io.Writer, body []byte) error {
	var ev NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.UserID == 0 || ev.Message == "" {
		return errors.New("notification without recipient or message")
	}
	line := fmt.Sprintf("[%s] %s notification | id=%s | user_id=%d | reservation_id=%d | hostel_id=%d | message=%q\n",
		ev.CreatedAt, ev.Category, ev.ID, ev.UserID, ev.ReservationID, ev.HostelID, ev.Message)
	if _, err := io.WriteString(out, line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

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
