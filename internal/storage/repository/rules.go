package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xqopxcat/food-keeper-sub000/internal/models"
)

// ListEnabledRules возвращает все включённые правила срока хранения,
// упорядоченные по ID. Отключённые правила кандидатами не являются.
func (s *Storage) ListEnabledRules(ctx context.Context) ([]*models.Rule, error) {
	const op = "storage.ListEnabledRules"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, enabled, priority, conditions, days_min, days_max, tips, base_confidence
			  FROM rules
			  WHERE enabled = true
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Rule
	for rows.Next() {
		var item models.Rule
		var conditions []byte
		if err := rows.Scan(&item.ID, &item.Enabled, &item.Priority, &conditions,
			&item.DaysMin, &item.DaysMax, &item.Tips, &item.BaseConfidence); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(conditions, &item.Conditions); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateRule вставляет новое правило и возвращает его ID.
func (s *Storage) CreateRule(ctx context.Context, rule models.Rule) (int, error) {
	const op = "storage.CreateRule"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO rules (enabled, priority, conditions, days_min, days_max, tips, base_confidence)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err = s.DB.QueryRowContext(ctx, query,
		rule.Enabled, rule.Priority, conditions, rule.DaysMin, rule.DaysMax,
		rule.Tips, rule.BaseConfidence).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}
