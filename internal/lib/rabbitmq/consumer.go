package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/streadway/amqp"
)

// maxInFlight ограничивает число одновременно обрабатываемых сообщений.
const maxInFlight = 10

const (
	// RetryHeader хранит номер повторной попытки доставки.
	RetryHeader = "x-retry-count"
	// maxAttempts после стольких неудачных попыток сообщение отбрасывается.
	maxAttempts = 5
	retryDelay  = time.Second
)

// Handler обрабатывает тело сообщения. Ошибка приводит к повторной попытке,
// после maxAttempts неудач сообщение отбрасывается.
type Handler func(ctx context.Context, body []byte) error

// Consume подписывается на очередь queueName и сразу возвращается.
// Чтение прекращается при отмене ctx или закрытии канала.
func Consume(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler Handler) error {
	const op = "rabbitmq.Consume"
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	r := &retrier{ch: ch, queue: queueName, delay: retryDelay}
	go dispatch(ctx, log, deliveries, r, handler)
	return nil
}

// acknowledger часть amqp.Delivery, нужная для подтверждения.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// retrier возвращает упавшее сообщение в хвост очереди с увеличенным счетчиком попыток.
type retrier struct {
	mu    sync.Mutex
	ch    Channel
	queue string
	delay time.Duration
}

func (r *retrier) republish(ctx context.Context, body []byte, headers amqp.Table, attempt int) error {
	select {
	case <-time.After(r.delay * time.Duration(attempt)):
	case <-ctx.Done():
		return ctx.Err()
	}

	next := amqp.Table{}
	for k, v := range headers {
		next[k] = v
	}
	next[RetryHeader] = int32(attempt)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch.Publish("", r.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      next,
		Body:         body,
	})
}

func dispatch(ctx context.Context, log *slog.Logger, deliveries <-chan amqp.Delivery, r *retrier, handler Handler) {
	sem := make(chan struct{}, maxInFlight)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				if err := d.Nack(false, true); err != nil {
					log.Error("failed to nack message", sl.Err(err))
				}
				return
			}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handle(ctx, log, r, d, d.Body, d.Headers, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func handle(ctx context.Context, log *slog.Logger, r *retrier, d acknowledger, body []byte, headers amqp.Table, handler Handler) {
	err := handler(ctx, body)
	if err == nil {
		if err := d.Ack(false); err != nil {
			log.Error("failed to ack message", sl.Err(err))
		}
		return
	}

	attempt := retryCount(headers) + 1
	if attempt >= maxAttempts {
		log.Error("handler failed, message dropped", slog.Int("attempts", attempt), sl.Err(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}

	if pubErr := r.republish(ctx, body, headers, attempt); pubErr != nil {
		log.Error("handler failed, retry not scheduled, message requeued", sl.Err(err), slog.String("retry_error", pubErr.Error()))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	log.Warn("handler failed, message scheduled for retry", slog.Int("attempt", attempt), sl.Err(err))
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}

// retryCount читает счетчик попыток; amqp декодирует целые как int32 или int64.
func retryCount(headers amqp.Table) int {
	switch v := headers[RetryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
