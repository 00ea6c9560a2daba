package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const QueueName = "booking.notifications"

// AMQPQueue publishes jobs to a durable RabbitMQ queue. When publishing fails
// the job is handed to the fallback dispatcher, if any.
type AMQPQueue struct {
	url      string
	fallback Dispatcher
	logger   *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPQueue(url string, fallback Dispatcher, logger *slog.Logger) (*AMQPQueue, error) {
	q := &AMQPQueue{url: url, fallback: fallback, logger: logger}
	if err := q.connect(); err != nil {
		return nil, err
	}
	return q, nil
}

func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	return err
}

// connect must be called with mu held or before the queue is shared.
func (q *AMQPQueue) connect() error {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	q.conn, q.ch = conn, ch
	return nil
}

func (q *AMQPQueue) publish(ctx context.Context, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.conn == nil || q.conn.IsClosed() {
		if err := q.connect(); err != nil {
			return err
		}
	}

	return q.ch.PublishWithContext(ctx,
		"",        // default exchange
		QueueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (q *AMQPQueue) Enqueue(ctx context.Context, job Job) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	err = q.publish(ctx, body)
	if err == nil {
		return nil
	}
	q.logger.Warn("RabbitMQ publish failed", "kind", job.Kind, "booking_id", job.BookingID, "error", err)
	if q.fallback != nil {
		return q.fallback.Enqueue(ctx, job)
	}
	return fmt.Errorf("publish job: %w", err)
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	q.conn, q.ch = nil, nil
	return nil
}

// Consume delivers jobs from the broker until ctx is cancelled, redialling
// with backoff whenever the connection drops.
func Consume(ctx context.Context, url string, worker *Worker, logger *slog.Logger) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("Notification consumer failed to dial broker", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, worker, logger)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Warn("Notification consumer loop ended, reconnecting", "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, worker *Worker, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(10, 0, false); err != nil {
		logger.Warn("Notification consumer failed to set QoS", "error", err)
	}
	if err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleDelivery(ctx, worker, d.Body); err != nil {
			// Reject without requeue; the attempt is already recorded.
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleDelivery(ctx context.Context, worker *Worker, body []byte) error {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}
	return worker.Deliver(ctx, job)
}
