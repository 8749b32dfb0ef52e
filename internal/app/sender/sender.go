// Package sender содержит приложение, которое читает очереди уведомлений и отправляет письма.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/broadband-portal/internal/config"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/broadband-portal/internal/services/sender"
)

// App приложение рассыльщика.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру. Если SMTP не настроен, письма только пишутся в лог.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	var mailer senderservice.Mailer
	if cfg.SMTPHost != "" {
		mailer = smtp.NewMailer(smtp.NewTransport(cfg.SMTP))
	} else {
		logger.Warn("smtp host is empty, notifications are only logged")
	}

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewSenderService(mailer, logger),
		logger:        logger,
	}, nil
}

// Run запускает потребителей обеих очередей и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	consumers := []struct {
		queue   string
		handler rabbitmq.Handler
	}{
		{rabbitmq.QueueUpcoming, a.senderService.HandleUpcoming},
		{rabbitmq.QueueLifecycle, a.senderService.HandleLifecycle},
	}
	for _, c := range consumers {
		if err := rabbitmq.Consume(ctx, a.logger, a.ch, c.queue, c.handler); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", c.queue), sl.Err(err))
			a.close()
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
