package models

import "time"

// EventType тип события жизненного цикла.
type EventType string

// События жизненного цикла подписки.
const (
	EventSubscribed EventType = "subscribed"
	EventQueued     EventType = "queued"
	EventRenewed    EventType = "renewed"
	EventRequeued   EventType = "requeued"
	EventCancelled  EventType = "cancelled"
	EventPromoted   EventType = "promoted"
	EventExpired    EventType = "expired"
)

// LifecycleEvent сообщение, которое публикуется после изменения подписки.
type LifecycleEvent struct {
	Type           EventType  `json:"type"`
	SubscriptionID int64      `json:"subscription_id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Plan           string     `json:"plan"`
	Status         Status     `json:"status"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// NewLifecycleEvent собирает событие по записи подписки.
func NewLifecycleEvent(t EventType, s Subscription, at time.Time) LifecycleEvent {
	return LifecycleEvent{
		Type:           t,
		SubscriptionID: s.ID,
		Username:       s.Username,
		Email:          s.Email,
		Plan:           s.Plan,
		Status:         s.Status,
		EndDate:        s.EndDate,
		OccurredAt:     at,
	}
}
