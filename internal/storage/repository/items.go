package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xqopxcat/food-keeper-sub000/internal/models"
)

const itemColumns = `id, user_id, barcode, name, brand,
			  item_key, storage_mode, state, container, season, locale,
			  quantity, purchase_date, location, source, notes,
			  days_min, days_max, tips, confidence, rule_id,
			  acquired_at, expires_min_at, expires_max_at, expiration_date,
			  lifecycle, consumed_at, consumed_amount`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	var ruleID sql.NullInt64
	var expirationDate, consumedAt sql.NullTime
	if err := row.Scan(&item.ID, &item.UserID, &item.Barcode, &item.Name, &item.Brand,
		&item.ItemKey, &item.StorageMode, &item.State, &item.Container, &item.Season, &item.Locale,
		&item.Quantity, &item.PurchaseDate, &item.Location, &item.Source, &item.Notes,
		&item.DaysMin, &item.DaysMax, &item.Tips, &item.Confidence, &ruleID,
		&item.AcquiredAt, &item.ExpiresMinAt, &item.ExpiresMaxAt, &expirationDate,
		&item.Lifecycle, &consumedAt, &item.ConsumedAmount); err != nil {
		return nil, err
	}
	if ruleID.Valid {
		id := int(ruleID.Int64)
		item.RuleID = &id
	}
	if expirationDate.Valid {
		item.ExpirationDate = &expirationDate.Time
	}
	if consumedAt.Valid {
		item.ConsumedAt = &consumedAt.Time
	}
	return &item, nil
}

// CreateItem вставляет новую запись инвентаря и возвращает её ID.
func (s *Storage) CreateItem(ctx context.Context, item models.Item) (int, error) {
	const op = "storage.CreateItem"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var ruleID sql.NullInt64
	if item.RuleID != nil {
		ruleID = sql.NullInt64{Int64: int64(*item.RuleID), Valid: true}
	}
	var expirationDate sql.NullTime
	if item.ExpirationDate != nil {
		expirationDate = sql.NullTime{Time: *item.ExpirationDate, Valid: true}
	}

	query := `INSERT INTO items (user_id, barcode, name, brand,
			      item_key, storage_mode, state, container, season, locale,
			      quantity, purchase_date, location, source, notes,
			      days_min, days_max, tips, confidence, rule_id,
			      acquired_at, expires_min_at, expires_max_at, expiration_date, lifecycle)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			      $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			      $21, $22, $23, $24, $25)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		item.UserID, item.Barcode, item.Name, item.Brand,
		item.ItemKey, item.StorageMode, item.State, item.Container, item.Season, item.Locale,
		item.Quantity, item.PurchaseDate, item.Location, item.Source, item.Notes,
		item.DaysMin, item.DaysMax, item.Tips, item.Confidence, ruleID,
		item.AcquiredAt, item.ExpiresMinAt, item.ExpiresMaxAt, expirationDate,
		models.LifecycleActive).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadItem возвращает запись пользователя по её ID.
func (s *Storage) ReadItem(ctx context.Context, userID string, id int) (*models.Item, error) {
	const op = "storage.ReadItem"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + itemColumns + `
			  FROM items WHERE id = $1 AND user_id = $2`
	row := s.DB.QueryRowContext(ctx, query, id, userID)

	result, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListItems возвращает записи пользователя, отсортированные по дате
// истечения, с пагинацией. Непустой status фильтрует по выведенному
// статусу через то же CASE-выражение, что и агрегирующие запросы.
func (s *Storage) ListItems(ctx context.Context, userID, status string, limit, offset int) ([]*models.Item, error) {
	const op = "storage.ListItems"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + itemColumns + `
			  FROM items
			  WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND ` + statusCase + ` = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY expires_max_at, id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveItem удаляет запись пользователя и возвращает количество удалённых строк.
func (s *Storage) RemoveItem(ctx context.Context, userID string, id int) (int, error) {
	const op = "storage.RemoveItem"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM items WHERE id = $1 AND user_id = $2`
	result, err := s.DB.ExecContext(ctx, query, id, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// MarkConsumed переводит активную запись в поглощающее состояние consumed,
// фиксируя момент и количество. Возвращает количество изменённых строк.
func (s *Storage) MarkConsumed(ctx context.Context, userID string, id, amount int) (int, error) {
	const op = "storage.MarkConsumed"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE items
			  SET lifecycle = $1, consumed_at = now(), consumed_amount = $2, updated_at = now()
			  WHERE id = $3 AND user_id = $4 AND lifecycle = $5`
	result, err := s.DB.ExecContext(ctx, query,
		models.LifecycleConsumed, amount, id, userID, models.LifecycleActive)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// MarkRestored возвращает запись из consumed в активное состояние.
// Доступно только из consumed; это явный аудируемый откат, а не
// обычный переход жизненного цикла.
func (s *Storage) MarkRestored(ctx context.Context, userID string, id int) (int, error) {
	const op = "storage.MarkRestored"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE items
			  SET lifecycle = $1, consumed_at = NULL, consumed_amount = 0, updated_at = now()
			  WHERE id = $2 AND user_id = $3 AND lifecycle = $4`
	result, err := s.DB.ExecContext(ctx, query,
		models.LifecycleActive, id, userID, models.LifecycleConsumed)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// MarkDiscarded переводит активную запись в поглощающее состояние discarded.
func (s *Storage) MarkDiscarded(ctx context.Context, userID string, id int) (int, error) {
	const op = "storage.MarkDiscarded"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE items
			  SET lifecycle = $1, updated_at = now()
			  WHERE id = $2 AND user_id = $3 AND lifecycle = $4`
	result, err := s.DB.ExecContext(ctx, query,
		models.LifecycleDiscarded, id, userID, models.LifecycleActive)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// FindExpiringItems возвращает активные записи пользователя, истекающие
// не позднее notifyDate и ещё не просроченные, ближайшие первыми.
func (s *Storage) FindExpiringItems(ctx context.Context, userID string, notifyDate time.Time, limit int) ([]*models.Item, error) {
	const op = "storage.FindExpiringItems"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + itemColumns + `
			  FROM items
			  WHERE user_id = $1
			    AND lifecycle = $2
			    AND expires_max_at::date >= CURRENT_DATE
			    AND expires_max_at::date <= $3::date
			  ORDER BY expires_max_at, id
			  LIMIT $4`
	rows, err := s.DB.QueryContext(ctx, query, userID, models.LifecycleActive, notifyDate, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountByStatus агрегирует записи пользователя по выведенному статусу.
func (s *Storage) CountByStatus(ctx context.Context, userID string) (*models.StatusSummary, error) {
	const op = "storage.CountByStatus"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + statusCase + ` AS status, COUNT(*)
			  FROM items
			  WHERE user_id = $1
			  GROUP BY 1`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var summary models.StatusSummary
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		switch status {
		case models.StatusFresh:
			summary.Fresh = count
		case models.StatusWarning:
			summary.Warning = count
		case models.StatusExpired:
			summary.Expired = count
		case models.StatusConsumed:
			summary.Consumed = count
		case models.StatusDiscarded:
			summary.Discarded = count
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &summary, nil
}
