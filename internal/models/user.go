// Package models содержит доменные структуры портала: пользователей, тарифы,
// подписки и агрегаты для админки.
package models

import "time"

// Роли пользователей.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User представляет зарегистрированного абонента или администратора.
type User struct {
	UID          string    `json:"uid"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	Telemetry
}

// Telemetry необязательные показатели абонента, которые читает только аналитика.
type Telemetry struct {
	UsageGB        *float64 `json:"usage_gb,omitempty"`
	Satisfaction   *int     `json:"satisfaction,omitempty"`
	TenureMonths   *int     `json:"tenure_months,omitempty"`
	SupportTickets *int     `json:"support_tickets,omitempty"`
	PaymentDelays  *int     `json:"payment_delays,omitempty"`
	PlanChanges    *int     `json:"plan_changes,omitempty"`
}

// IsAdmin сообщает, что пользователь администратор.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RegisterRequest тело запроса регистрации.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,excludesall= "`
	FullName string `json:"full_name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,max=32"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest тело запроса входа.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
