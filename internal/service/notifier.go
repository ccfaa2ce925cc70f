package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/hostel-booking/internal/metrics"
	"github.com/iliyamo/hostel-booking/internal/queue"
)

// Dispatcher sends notifications off the request path.  Each
// notification runs on its own goroutine with a bounded context; Wait
// blocks until all in-flight deliveries finish, which the server calls
// during shutdown.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *slog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher returns a Dispatcher delivering through n.  A nil n turns
// Dispatch into a no-op.
func NewDispatcher(n Notifier, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{notifier: n, timeout: timeout, log: log}
}

// Dispatch delivers notes asynchronously.  Failures are logged and
// counted; they never reach the caller.
func (d *Dispatcher) Dispatch(notes ...Notification) {
	if d == nil || d.notifier == nil {
		return
	}
	for _, n := range notes {
		d.wg.Add(1)
		go func(n Notification) {
			defer d.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			if err := d.notifier.Notify(ctx, n); err != nil {
				metrics.Booking().Notification("failed")
				d.log.Warn("notification delivery failed",
					"user_id", n.UserID, "reservation_id", n.ReservationID, "error", err)
				return
			}
			metrics.Booking().Notification("sent")
		}(n)
	}
}

// Wait blocks until every dispatched notification has been attempted.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// AMQPNotifier publishes notifications as persistent JSON messages on a
// durable RabbitMQ queue.  A connection is opened per publish; booking
// notifications are low volume.
type AMQPNotifier struct {
	URL   string
	Queue string
}

// NewAMQPNotifier returns a notifier publishing to queueName on the broker
// at url.
func NewAMQPNotifier(url, queueName string) *AMQPNotifier {
	if queueName == "" {
		queueName = queue.DefaultNotificationQueue
	}
	return &AMQPNotifier{URL: url, Queue: queueName}
}

func (p *AMQPNotifier) Notify(ctx context.Context, n Notification) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return err
	}

	now := time.Now().UTC()
	body, err := json.Marshal(queue.NotificationEvent{
		ID:            uuid.NewString(),
		UserID:        n.UserID,
		Category:      n.Category,
		Message:       n.Message,
		ReservationID: n.ReservationID,
		HostelID:      n.HostelID,
		CreatedAt:     now.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	})
}

// LogNotifier writes notifications to the structured log.  It is used
// when no broker is configured.
type LogNotifier struct {
	Log *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	lg := l.Log
	if lg == nil {
		lg = slog.Default()
	}
	lg.InfoContext(ctx, "notification",
		"user_id", n.UserID, "category", n.Category, "message", n.Message, "reservation_id", n.ReservationID)
	return nil
}
