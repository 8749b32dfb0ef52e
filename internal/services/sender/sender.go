// Package services превращает сообщения из очередей уведомлений в письма абонентам.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

// Mailer отправляет текстовое письмо.
type Mailer interface {
	Send(to, subject, body string) error
}

// SenderService обработчик очередей upcoming и lifecycle.
type SenderService struct {
	mailer Mailer
	log    *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
// С nil mailer письма только пишутся в лог.
func NewSenderService(mailer Mailer, log *slog.Logger) *SenderService {
	return &SenderService{mailer: mailer, log: log}
}

// HandleUpcoming отправляет напоминание о скором окончании подписки.
// Некорректное сообщение логируется и подтверждается, чтобы не зациклить очередь.
func (s *SenderService) HandleUpcoming(_ context.Context, body []byte) error {
	const op = "sender.HandleUpcoming"
	log := s.log.With(slog.String("op", op))

	var info models.ExpiringInfo
	if err := json.Unmarshal(body, &info); err != nil {
		log.Error("dropping malformed message", sl.Err(err))
		return nil
	}

	subject := "Your broadband subscription ends tomorrow"
	text := fmt.Sprintf("Hello, %s!\n\nYour %s subscription ends on %s.\n\nRenew it in the portal to stay connected.",
		info.Username, info.Plan, info.EndDate.Format("2006-01-02"))
	return s.deliver(log, info.Email, subject, text)
}

// HandleLifecycle сообщает абоненту об изменении его подписки.
func (s *SenderService) HandleLifecycle(_ context.Context, body []byte) error {
	const op = "sender.HandleLifecycle"
	log := s.log.With(slog.String("op", op))

	var ev models.LifecycleEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Error("dropping malformed message", sl.Err(err))
		return nil
	}

	subject, text := lifecycleMessage(ev)
	return s.deliver(log.With(slog.String("event", string(ev.Type))), ev.Email, subject, text)
}

func (s *SenderService) deliver(log *slog.Logger, to, subject, text string) error {
	if to == "" {
		log.Warn("recipient has no email, skipping")
		return nil
	}
	if s.mailer == nil {
		log.Info("smtp disabled, email logged only", slog.String("to", to), slog.String("subject", subject))
		return nil
	}
	if err := s.mailer.Send(to, subject, text); err != nil {
		log.Error("failed to send email", slog.String("to", to), sl.Err(err))
		return err
	}
	log.Info("email sent", slog.String("to", to))
	return nil
}

func lifecycleMessage(ev models.LifecycleEvent) (subject, text string) {
	greeting := fmt.Sprintf("Hello, %s!\n\n", ev.Username)
	until := ""
	if ev.EndDate != nil {
		until = " until " + ev.EndDate.Format("2006-01-02")
	}

	switch ev.Type {
	case models.EventSubscribed:
		return "Subscription activated", greeting + fmt.Sprintf("Your %s subscription is active%s.", ev.Plan, until)
	case models.EventQueued:
		return "Subscription queued", greeting + fmt.Sprintf("Your %s subscription is queued and will start after the current one.", ev.Plan)
	case models.EventRenewed:
		return "Subscription renewed", greeting + fmt.Sprintf("Your %s subscription was renewed%s.", ev.Plan, until)
	case models.EventRequeued:
		return "Renewal queued", greeting + fmt.Sprintf("A renewal of %s was added to your queue.", ev.Plan)
	case models.EventCancelled:
		return "Subscription cancelled", greeting + fmt.Sprintf("Your %s subscription was cancelled.", ev.Plan)
	case models.EventPromoted:
		return "Queued subscription started", greeting + fmt.Sprintf("Your queued %s subscription is now active%s.", ev.Plan, until)
	case models.EventExpired:
		return "Subscription expired", greeting + fmt.Sprintf("Your %s subscription has expired.", ev.Plan)
	default:
		return "Subscription update", greeting + fmt.Sprintf("Your %s subscription is now %s.", ev.Plan, ev.Status)
	}
}
