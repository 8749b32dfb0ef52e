package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/broadband-portal/internal/models"
)

const subscriptionColumns = `id, username, email, plan, price, speed, data, status, start_date, end_date`

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row scanner) (*models.Subscription, error) {
	var (
		sub        models.Subscription
		status     string
		start, end sql.NullTime
	)
	if err := row.Scan(&sub.ID, &sub.Username, &sub.Email, &sub.Plan, &sub.Price, &sub.Speed, &sub.Data,
		&status, &start, &end); err != nil {
		return nil, err
	}
	st, err := models.NewStatus(status)
	if err != nil {
		return nil, err
	}
	sub.Status = st
	if start.Valid {
		t := start.Time
		sub.StartDate = &t
	}
	if end.Valid {
		t := end.Time
		sub.EndDate = &t
	}
	return &sub, nil
}

func collectSubscriptions(rows *sql.Rows) ([]models.Subscription, error) {
	defer rows.Close()
	res := make([]models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// CreateSubscription вставляет запись и возвращает присвоенный ID.
// Попытка вставить вторую Active запись пользователя возвращает ErrActiveExists,
// несуществующий пользователь ErrNotFound.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (int64, error) {
	const op = "storage.CreateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO subscriptions (username, email, plan, price, speed, data, status, start_date, end_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		sub.Username, sub.Email, sub.Plan, sub.Price, sub.Speed, sub.Data,
		sub.Status, sub.StartDate, sub.EndDate).Scan(&id)
	switch {
	case isActiveConflict(err):
		return 0, fmt.Errorf("%s: %w", op, ErrActiveExists)
	case isForeignKeyViolation(err):
		return 0, fmt.Errorf("%s: user %s: %w", op, sub.Username, ErrNotFound)
	case err != nil:
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetSubscription возвращает запись по ID.
func (s *Storage) GetSubscription(ctx context.Context, id int64) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// GetActiveSubscription возвращает активную подписку пользователя или ErrNotFound.
func (s *Storage) GetActiveSubscription(ctx context.Context, username string) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE username = $1 AND status = 'Active'`, username)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ListSubscriptionsByUser возвращает все подписки пользователя по возрастанию ID.
func (s *Storage) ListSubscriptionsByUser(ctx context.Context, username string) ([]models.Subscription, error) {
	const op = "storage.ListSubscriptionsByUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE username = $1 ORDER BY id`, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	subs, err := collectSubscriptions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// RenewSubscription переносит окончание активной подписки на end.
// Если запись уже не Active, возвращает ErrStateChanged.
func (s *Storage) RenewSubscription(ctx context.Context, id int64, end time.Time) (*models.Subscription, error) {
	const op = "storage.RenewSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `
		UPDATE subscriptions SET end_date = $2
		WHERE id = $1 AND status = 'Active'
		RETURNING `+subscriptionColumns, id, end)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrStateChanged)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ExpireSubscription переводит Active или Queued запись в Expired с окончанием at.
// Если запись уже в другом состоянии, возвращает ErrStateChanged.
func (s *Storage) ExpireSubscription(ctx context.Context, id int64, at time.Time) (*models.Subscription, error) {
	const op = "storage.ExpireSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `
		UPDATE subscriptions SET status = 'Expired', end_date = $2
		WHERE id = $1 AND status IN ('Active', 'Queued')
		RETURNING `+subscriptionColumns, id, at)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrStateChanged)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// PromoteNext в транзакции блокирует самую старую Queued запись пользователя
// и делает ее Active с периодом [start, end).
// Нет записей в очереди: ErrNotFound. Уже есть Active: ErrActiveExists.
func (s *Storage) PromoteNext(ctx context.Context, username string, start, end time.Time) (*models.Subscription, error) {
	const op = "storage.PromoteNext"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var promoted *models.Subscription
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM subscriptions
			WHERE username = $1 AND status = 'Queued'
			ORDER BY id
			LIMIT 1
			FOR UPDATE`, username).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE subscriptions SET status = 'Active', start_date = $2, end_date = $3
			WHERE id = $1
			RETURNING `+subscriptionColumns, id, start, end)
		sub, err := scanSubscription(row)
		if isActiveConflict(err) {
			return ErrActiveExists
		}
		if err != nil {
			return err
		}
		promoted = sub
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return promoted, nil
}

// ExpireDue переводит в Expired все Active записи, чей срок истек к моменту now.
// end_date остается прежним: это и есть момент истечения.
func (s *Storage) ExpireDue(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	const op = "storage.ExpireDue"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		UPDATE subscriptions SET status = 'Expired'
		WHERE status = 'Active' AND end_date < $1
		RETURNING `+subscriptionColumns, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	subs, err := collectSubscriptions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// FindExpiringBetween возвращает активные подписки с окончанием в [from, to).
func (s *Storage) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]models.ExpiringInfo, error) {
	const op = "storage.FindExpiringBetween"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, username, email, plan, price, end_date
		FROM subscriptions
		WHERE status = 'Active' AND end_date >= $1 AND end_date < $2
		ORDER BY end_date, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	res := make([]models.ExpiringInfo, 0)
	for rows.Next() {
		var info models.ExpiringInfo
		if err := rows.Scan(&info.ID, &info.Username, &info.Email, &info.Plan, &info.Price, &info.EndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}
