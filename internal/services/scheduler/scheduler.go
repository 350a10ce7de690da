// Package scheduler реализует планировщик уведомлений об истечении срока
// хранения. Раз в минуту он находит подписки, чьё локальное время
// уведомления совпадает с текущей минутой, собирает для каждого
// пользователя дайджест скоро истекающих записей и публикует задание
// на доставку в очередь.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xqopxcat/food-keeper-sub000/internal/lib/sl"
	"github.com/xqopxcat/food-keeper-sub000/internal/metrics"
	"github.com/xqopxcat/food-keeper-sub000/internal/models"
	"github.com/xqopxcat/food-keeper-sub000/internal/rabbitmq"
)

// Сколько записей выбирается для дайджеста и сколько из них называется
// в тексте уведомления.
const (
	previewFetchLimit = 10
	previewNamedLimit = 3
)

// Repository определяет выборки, нужные планировщику.
type Repository interface {
	FindDueSubscriptions(ctx context.Context, notifyTime string) ([]*models.PushSubscription, error)
	FindExpiringItems(ctx context.Context, userID string, notifyDate time.Time, limit int) ([]*models.Item, error)
}

// SchedulerService обходит подписки по тику таймера и публикует дайджесты.
type SchedulerService struct {
	repo         Repository
	log          *slog.Logger
	loc          *time.Location
	queryTimeout time.Duration
	now          func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo Repository, log *slog.Logger, loc *time.Location, queryTimeout time.Duration) *SchedulerService {
	return &SchedulerService{
		repo:         repo,
		log:          log,
		loc:          loc,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

// Run запускает цикл тиков до отмены контекста. Тики обрабатываются
// строго последовательно: пока длится текущий, новые не начинаются,
// пропущенные минуты не навёрстываются — пропущенный тик означает
// пропущенное уведомление на этот день.
func (s *SchedulerService) Run(ctx context.Context, channel rabbitmq.Channel, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunTick(ctx, channel)
		}
	}
}

// RunTick обрабатывает одну минуту: находит подписки, назначенные на
// текущее локальное "HH:MM" (точное совпадение строки), и для каждой
// публикует дайджест. Сбой одной подписки не мешает остальным.
func (s *SchedulerService) RunTick(ctx context.Context, channel rabbitmq.Channel) {
	now := s.now().In(s.loc)
	currentTime := now.Format("15:04")

	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	subs, err := s.repo.FindDueSubscriptions(qctx, currentTime)
	if err != nil {
		s.log.Error("failed to find due subscriptions", sl.Err(err))
		return
	}
	if len(subs) == 0 {
		return
	}
	s.log.Info("found due subscriptions", "count", len(subs), "time", currentTime)

	for _, sub := range subs {
		if err := s.notify(ctx, channel, sub, now); err != nil {
			s.log.Error("failed to process subscription",
				sl.Err(err), slog.String("endpoint", sub.Endpoint))
		}
	}
}

// notify собирает дайджест для одной подписки и публикует задание на
// доставку. Пустой дайджест не отправляется.
func (s *SchedulerService) notify(ctx context.Context, channel rabbitmq.Channel, sub *models.PushSubscription, now time.Time) error {
	notifyDate := now.AddDate(0, 0, sub.NotifyBeforeDays)

	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	items, err := s.repo.FindExpiringItems(qctx, sub.UserID, notifyDate, previewFetchLimit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	job := models.NotificationJob{
		JobID:        uuid.NewString(),
		Subscription: *sub,
		Payload:      BuildDigest(items),
	}
	if err := rabbitmq.PublishMessage(channel, rabbitmq.NotificationsExchange, rabbitmq.PushRoutingKey, job); err != nil {
		return err
	}
	metrics.DigestsPublished.Inc()
	s.log.Info("digest published", slog.String("job_id", job.JobID),
		slog.String("user_id", sub.UserID), slog.Int("items", len(items)))
	return nil
}

// BuildDigest формирует текст уведомления: называет до трёх ближайших
// к истечению записей и добавляет счётчик остальных.
func BuildDigest(items []*models.Item) models.PushPayload {
	title := fmt.Sprintf("%d items expiring soon", len(items))
	if len(items) == 1 {
		title = "1 item expiring soon"
	}

	named := len(items)
	if named > previewNamedLimit {
		named = previewNamedLimit
	}
	names := make([]string, 0, named)
	for _, item := range items[:named] {
		names = append(names, item.Name)
	}
	body := strings.Join(names, ", ")
	if rest := len(items) - named; rest > 0 {
		body += fmt.Sprintf(" +%d more", rest)
	}

	return models.PushPayload{
		Title: title,
		Body:  body,
		Tag:   "expiry-digest",
	}
}
