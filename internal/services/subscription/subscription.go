// Package subscription содержит бизнес-логику управления push-подписками:
// создание и обновление по endpoint, явную отписку.
package subscription

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xqopxcat/food-keeper-sub000/internal/models"
)

// ErrSubscriptionNotFound подписка с таким endpoint не существует.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// Значения по умолчанию для новых подписок.
const (
	DefaultNotifyBeforeDays = 3
	DefaultNotifyTime       = "09:00"
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	UpsertSubscription(ctx context.Context, sub models.PushSubscription) (int, error)
	RemoveSubscriptionByEndpoint(ctx context.Context, endpoint string) (int, error)
}

// Service реализует бизнес-логику работы с push-подписками.
type Service struct {
	repo SubscriptionRepository
	log  *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo SubscriptionRepository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// Subscribe создаёт подписку или обновляет существующую с тем же endpoint
// и возвращает её ID. Незаданные настройки уведомлений получают значения
// по умолчанию.
func (s *Service) Subscribe(ctx context.Context, userID string, req models.DummySubscription) (int, error) {
	sub := models.PushSubscription{
		UserID:           userID,
		Endpoint:         req.Endpoint,
		P256dh:           req.Keys.P256dh,
		Auth:             req.Keys.Auth,
		Enabled:          true,
		NotifyBeforeDays: req.NotifyBeforeDays,
		NotifyTime:       req.NotifyTime,
	}
	if req.Enabled != nil {
		sub.Enabled = *req.Enabled
	}
	if sub.NotifyBeforeDays == 0 {
		sub.NotifyBeforeDays = DefaultNotifyBeforeDays
	}
	if sub.NotifyTime == "" {
		sub.NotifyTime = DefaultNotifyTime
	}

	id, err := s.repo.UpsertSubscription(ctx, sub)
	if err != nil {
		return 0, err
	}
	s.log.Info("subscription saved", slog.Int("id", id), slog.String("notify_time", sub.NotifyTime))
	return id, nil
}

// Unsubscribe удаляет подписку по endpoint.
func (s *Service) Unsubscribe(ctx context.Context, endpoint string) error {
	count, err := s.repo.RemoveSubscriptionByEndpoint(ctx, endpoint)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrSubscriptionNotFound
	}
	s.log.Info("subscription removed")
	return nil
}
