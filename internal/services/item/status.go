package item

import (
	"math"
	"time"

	"github.com/xqopxcat/food-keeper-sub000/internal/models"
)

// warningThresholdDays за сколько дней до истечения запись переходит
// в статус warning.
const warningThresholdDays = 3

// DaysLeft возвращает ceil((expiresMaxAt - now) / 24h). Отрицательное
// значение означает, что срок уже вышел.
func DaysLeft(expiresMaxAt, now time.Time) int {
	return int(math.Ceil(expiresMaxAt.Sub(now).Hours() / 24))
}

// DeriveStatus выводит статус записи на момент now. Поглощающие состояния
// consumed и discarded берутся из lifecycle как есть; остальные статусы
// вычисляются из expires_max_at и нигде не сохраняются. Логика обязана
// совпадать с SQL CASE-выражением агрегирующих запросов хранилища.
func DeriveStatus(it *models.Item, now time.Time) string {
	switch it.Lifecycle {
	case models.LifecycleConsumed:
		return models.StatusConsumed
	case models.LifecycleDiscarded:
		return models.StatusDiscarded
	}
	daysLeft := DaysLeft(it.ExpiresMaxAt, now)
	switch {
	case daysLeft < 0:
		return models.StatusExpired
	case daysLeft <= warningThresholdDays:
		return models.StatusWarning
	default:
		return models.StatusFresh
	}
}
