package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

const userColumns = `uid, username, full_name, email, phone, password_hash, role, created_at,
	usage_gb, satisfaction, tenure_months, support_tickets, payment_delays, plan_changes`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var usage sql.NullFloat64
	var satisfaction, tenure, tickets, delays, planChanges sql.NullInt32
	if err := row.Scan(&u.UID, &u.Username, &u.FullName, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Role, &u.CreatedAt, &usage, &satisfaction, &tenure, &tickets, &delays, &planChanges); err != nil {
		return nil, err
	}
	if usage.Valid {
		u.UsageGB = &usage.Float64
	}
	u.Satisfaction = intPtr(satisfaction)
	u.TenureMonths = intPtr(tenure)
	u.SupportTickets = intPtr(tickets)
	u.PaymentDelays = intPtr(delays)
	u.PlanChanges = intPtr(planChanges)
	return &u, nil
}

func intPtr(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}

// CreateUser сохраняет нового пользователя.
func (s *Storage) CreateUser(ctx context.Context, u models.User) error {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO users (uid, username, full_name, email, phone, password_hash, role, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.DB.ExecContext(ctx, query,
		u.UID, u.Username, u.FullName, u.Email, u.Phone, u.PasswordHash, u.Role, u.CreatedAt)
	if _, ok := isUniqueViolation(err); ok {
		return fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по имени.
func (s *Storage) GetUser(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// CountUsers возвращает общее число пользователей.
func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	const op = "storage.CountUsers"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ListUsers возвращает пользователей с ролью role и количеством их подписок.
func (s *Storage) ListUsers(ctx context.Context, role string) ([]models.UserSummary, error) {
	const op = "storage.ListUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT u.uid, u.username, u.full_name, u.email, u.phone, u.password_hash, u.role, u.created_at,
			      u.usage_gb, u.satisfaction, u.tenure_months, u.support_tickets, u.payment_delays, u.plan_changes,
			      COUNT(s.id),
			      COUNT(s.id) FILTER (WHERE s.status = 'Active')
			  FROM users u
			  LEFT JOIN subscriptions s ON s.username = u.username
			  WHERE u.role = $1
			  GROUP BY u.uid
			  ORDER BY u.created_at, u.username`
	rows, err := s.DB.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	res := make([]models.UserSummary, 0)
	for rows.Next() {
		var (
			total, active int
			summary       models.UserSummary
		)
		u, err := scanUser(scanFunc(func(dest ...any) error {
			return rows.Scan(append(dest, &total, &active)...)
		}))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		summary.User = *u
		summary.TotalSubscriptions = total
		summary.ActiveSubscriptions = active
		res = append(res, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// scanFunc позволяет дописать к сканируемым колонкам дополнительные.
type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

// DeleteUser удаляет пользователя вместе со всеми его подписками в одной транзакции.
func (s *Storage) DeleteUser(ctx context.Context, username string) error {
	const op = "storage.DeleteUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE username = $1`, username); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
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
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
