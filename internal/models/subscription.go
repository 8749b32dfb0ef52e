package models

import (
	"fmt"
	"slices"
	"time"
)

// Status состояние подписки.
type Status string

// Состояния подписки.
const (
	StatusActive    Status = "Active"
	StatusQueued    Status = "Queued"
	StatusExpired   Status = "Expired"
	StatusCancelled Status = "Cancelled"
)

// Cancelled достижим из любого состояния, но только через удаление тарифа.
var statusTransitions = map[Status][]Status{
	StatusQueued:  {StatusActive, StatusExpired, StatusCancelled},
	StatusActive:  {StatusExpired, StatusCancelled},
	StatusExpired: {StatusCancelled},
}

// NewStatus проверяет строку и возвращает состояние.
func NewStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusActive, StatusQueued, StatusExpired, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("invalid subscription status: %s", s)
	}
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo сообщает, допустим ли переход s -> target.
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(statusTransitions[s], target)
}

// Renewable true только для текущей подписки: продлить или поставить продление в очередь можно лишь Active.
func (s Status) Renewable() bool {
	return s == StatusActive
}

// Subscription запись о подписке. Price, Speed и Data копируются из тарифа
// в момент создания и не обновляются при последующем изменении тарифа.
//
// Для Queued обе даты nil, для Active обе заданы, для Expired EndDate равен моменту перехода.
type Subscription struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Plan      string     `json:"plan"`
	Price     string     `json:"price"`
	Speed     string     `json:"speed"`
	Data      string     `json:"data"`
	Status    Status     `json:"status"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// Snapshot заполняет денормализованные поля тарифа.
func (s *Subscription) Snapshot(p Plan) {
	s.Plan = p.Name
	s.Price = p.Price
	s.Speed = p.Speed
	s.Data = p.Data
}

// UserSubscriptions подписки пользователя, разложенные по состояниям.
// Queued упорядочен по возрастанию ID, то есть в порядке очереди.
type UserSubscriptions struct {
	Active    *Subscription  `json:"active"`
	Queued    []Subscription `json:"queued"`
	Expired   []Subscription `json:"expired"`
	Cancelled []Subscription `json:"cancelled"`
}

// Partition раскладывает подписки, отсортированные по ID, по состояниям.
func Partition(subs []Subscription) UserSubscriptions {
	out := UserSubscriptions{
		Queued:    []Subscription{},
		Expired:   []Subscription{},
		Cancelled: []Subscription{},
	}
	for i := range subs {
		switch subs[i].Status {
		case StatusActive:
			active := subs[i]
			out.Active = &active
		case StatusQueued:
			out.Queued = append(out.Queued, subs[i])
		case StatusExpired:
			out.Expired = append(out.Expired, subs[i])
		case StatusCancelled:
			out.Cancelled = append(out.Cancelled, subs[i])
		}
	}
	return out
}

// SubscribeRequest тело запроса на подписку.
type SubscribeRequest struct {
	Plan string `json:"plan" validate:"required"`
}

// SubscribeResult результат Subscribe.
type SubscribeResult struct {
	ID     int64  `json:"id"`
	Status Status `json:"status"`
}

// CancelResult результат Cancel. Changed=false означает, что запись уже была Expired.
type CancelResult struct {
	Subscription Subscription `json:"subscription"`
	Changed      bool         `json:"changed"`
}

// ExpiringInfo данные для уведомления об окончании подписки.
type ExpiringInfo struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Plan     string    `json:"plan"`
	Price    string    `json:"price"`
	EndDate  time.Time `json:"end_date"`
}
