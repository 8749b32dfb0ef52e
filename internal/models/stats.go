package models

import "github.com/shopspring/decimal"

// Dashboard сводка для админки.
type Dashboard struct {
	TotalUsers          int             `json:"total_users"`
	TotalPlans          int             `json:"total_plans"`
	ActiveSubscriptions int             `json:"active_subscriptions"`
	MonthlyRevenue      decimal.Decimal `json:"monthly_revenue"`
	Recent              []Subscription  `json:"recent"`
}

// PlanStat показатели одного тарифа.
type PlanStat struct {
	Plan                string          `json:"plan"`
	Price               string          `json:"price"`
	TotalSubscriptions  int             `json:"total_subscriptions"`
	ActiveSubscriptions int             `json:"active_subscriptions"`
	Revenue             decimal.Decimal `json:"revenue"`
	Cost                decimal.Decimal `json:"cost"`
	Profit              decimal.Decimal `json:"profit"`
	ProfitMargin        decimal.Decimal `json:"profit_margin"`
}

// PlanCount количество подписок на тариф, как его считает хранилище.
type PlanCount struct {
	Plan   string
	Total  int
	Active int
}

// UserSummary пользователь с количеством подписок.
type UserSummary struct {
	User
	TotalSubscriptions  int `json:"total_subscriptions"`
	ActiveSubscriptions int `json:"active_subscriptions"`
}

// UserHistory профиль пользователя и все его подписки.
type UserHistory struct {
	User          User           `json:"user"`
	Subscriptions []Subscription `json:"subscriptions"`
}
