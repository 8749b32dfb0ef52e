package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

// CountActiveSubscriptions возвращает число Active записей.
func (s *Storage) CountActiveSubscriptions(ctx context.Context) (int, error) {
	const op = "storage.CountActiveSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE status = 'Active'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// PlanCounts возвращает для каждого тарифа каталога общее и активное число подписок.
func (s *Storage) PlanCounts(ctx context.Context) ([]models.PlanCount, error) {
	const op = "storage.PlanCounts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT p.name,
		       COUNT(s.id),
		       COUNT(s.id) FILTER (WHERE s.status = 'Active')
		FROM plans p
		LEFT JOIN subscriptions s ON s.plan = p.name
		GROUP BY p.name, p.created_at
		ORDER BY p.created_at, p.name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	res := make([]models.PlanCount, 0)
	for rows.Next() {
		var pc models.PlanCount
		if err := rows.Scan(&pc.Plan, &pc.Total, &pc.Active); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// RecentSubscriptions возвращает limit последних подписок по дате начала.
// Записи без даты начала (очередь) идут после датированных.
func (s *Storage) RecentSubscriptions(ctx context.Context, limit int) ([]models.Subscription, error) {
	const op = "storage.RecentSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		ORDER BY start_date DESC NULLS LAST, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	subs, err := collectSubscriptions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}
