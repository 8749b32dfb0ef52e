package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

const planColumns = `name, price, speed, data, category, description`

func scanPlan(row interface{ Scan(...any) error }) (*models.Plan, error) {
	var p models.Plan
	if err := row.Scan(&p.Name, &p.Price, &p.Speed, &p.Data, &p.Category, &p.Description); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlan добавляет тариф в каталог.
func (s *Storage) CreatePlan(ctx context.Context, p models.Plan) error {
	const op = "storage.CreatePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO plans (name, price, speed, data, category, description)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.DB.ExecContext(ctx, query, p.Name, p.Price, p.Speed, p.Data, p.Category, p.Description)
	if _, ok := isUniqueViolation(err); ok {
		return fmt.Errorf("%s: %w", op, ErrPlanExists)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPlan возвращает тариф по названию.
func (s *Storage) GetPlan(ctx context.Context, name string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPlan(s.DB.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE name = $1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPlans возвращает каталог в порядке добавления.
func (s *Storage) ListPlans(ctx context.Context) ([]models.Plan, error) {
	const op = "storage.ListPlans"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+planColumns+` FROM plans ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	res := make([]models.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// CountPlans возвращает размер каталога.
func (s *Storage) CountPlans(ctx context.Context) (int, error) {
	const op = "storage.CountPlans"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM plans`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// UpdatePlan перезаписывает поля тарифа. Снимки в существующих подписках не меняются.
func (s *Storage) UpdatePlan(ctx context.Context, p models.Plan) error {
	const op = "storage.UpdatePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE plans SET price = $2, speed = $3, data = $4, category = $5, description = $6
			  WHERE name = $1`
	res, err := s.DB.ExecContext(ctx, query, p.Name, p.Price, p.Speed, p.Data, p.Category, p.Description)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// DeletePlan в одной транзакции удаляет тариф и переводит все подписки на него в Cancelled.
// Возвращает имена пользователей, чьи подписки были затронуты.
func (s *Storage) DeletePlan(ctx context.Context, name string) ([]string, error) {
	const op = "storage.DeletePlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var usernames []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM plans WHERE name = $1`, name)
		if err != nil {
			return err
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}

		rows, err := tx.QueryContext(ctx, `
			UPDATE subscriptions SET status = 'Cancelled'
			WHERE plan = $1 AND status <> 'Cancelled'
			RETURNING username`, name)
		if err != nil {
			return err
		}
		defer rows.Close()

		seen := make(map[string]struct{})
		for rows.Next() {
			var u string
			if err := rows.Scan(&u); err != nil {
				return err
			}
			if _, ok := seen[u]; !ok {
				seen[u] = struct{}{}
				usernames = append(usernames, u)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return usernames, nil
}
