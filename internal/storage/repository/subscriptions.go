package repository

import (
	"context"
	"fmt"

	"github.com/xqopxcat/food-keeper-sub000/internal/models"
)

const subscriptionColumns = `id, user_id, endpoint, p256dh, auth, enabled, notify_before_days, notify_time`

// UpsertSubscription создаёт push-подписку или обновляет существующую
// с тем же endpoint. Возвращает ID подписки.
func (s *Storage) UpsertSubscription(ctx context.Context, sub models.PushSubscription) (int, error) {
	const op = "storage.UpsertSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, enabled, notify_before_days, notify_time)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (endpoint) DO UPDATE
			  SET user_id = EXCLUDED.user_id,
			      p256dh = EXCLUDED.p256dh,
			      auth = EXCLUDED.auth,
			      enabled = EXCLUDED.enabled,
			      notify_before_days = EXCLUDED.notify_before_days,
			      notify_time = EXCLUDED.notify_time,
			      updated_at = now()
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth,
		sub.Enabled, sub.NotifyBeforeDays, sub.NotifyTime).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadSubscriptionByEndpoint возвращает подписку по endpoint.
func (s *Storage) ReadSubscriptionByEndpoint(ctx context.Context, endpoint string) (*models.PushSubscription, error) {
	const op = "storage.ReadSubscriptionByEndpoint"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM push_subscriptions WHERE endpoint = $1`
	row := s.DB.QueryRowContext(ctx, query, endpoint)

	var result models.PushSubscription
	if err := row.Scan(&result.ID, &result.UserID, &result.Endpoint, &result.P256dh, &result.Auth,
		&result.Enabled, &result.NotifyBeforeDays, &result.NotifyTime); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// RemoveSubscriptionByEndpoint удаляет подписку по endpoint и возвращает
// количество удалённых строк. Используется и при явной отписке, и при
// самоочистке, когда транспорт сообщил о навсегда недоступном endpoint.
func (s *Storage) RemoveSubscriptionByEndpoint(ctx context.Context, endpoint string) (int, error) {
	const op = "storage.RemoveSubscriptionByEndpoint"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM push_subscriptions WHERE endpoint = $1`
	result, err := s.DB.ExecContext(ctx, query, endpoint)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// FindDueSubscriptions возвращает включённые подписки, чьё локальное время
// уведомления точно совпадает с notifyTime ("HH:MM"). Запрос опирается на
// индекс (enabled, notify_time), поэтому тик трогает только подписки,
// назначенные на текущую минуту.
func (s *Storage) FindDueSubscriptions(ctx context.Context, notifyTime string) ([]*models.PushSubscription, error) {
	const op = "storage.FindDueSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM push_subscriptions
			  WHERE enabled = true AND notify_time = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, notifyTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PushSubscription
	for rows.Next() {
		var item models.PushSubscription
		if err := rows.Scan(&item.ID, &item.UserID, &item.Endpoint, &item.P256dh, &item.Auth,
			&item.Enabled, &item.NotifyBeforeDays, &item.NotifyTime); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
