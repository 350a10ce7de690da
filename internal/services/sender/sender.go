// Package sender реализует доставку заданий из очереди уведомлений через
// push-транспорт, включая самоочистку навсегда недоступных подписок.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xqopxcat/food-keeper-sub000/internal/lib/sl"
	"github.com/xqopxcat/food-keeper-sub000/internal/lib/webpush"
	"github.com/xqopxcat/food-keeper-sub000/internal/metrics"
	"github.com/xqopxcat/food-keeper-sub000/internal/models"
)

// SubscriptionRepository нужен отправителю только для самоочистки.
type SubscriptionRepository interface {
	RemoveSubscriptionByEndpoint(ctx context.Context, endpoint string) (int, error)
}

// SenderService обрабатывает задания на доставку push-уведомлений.
type SenderService struct {
	repo        SubscriptionRepository
	transport   webpush.Transport
	log         *slog.Logger
	sendTimeout time.Duration
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(repo SubscriptionRepository, transport webpush.Transport, log *slog.Logger, sendTimeout time.Duration) *SenderService {
	return &SenderService{
		repo:        repo,
		transport:   transport,
		log:         log,
		sendTimeout: sendTimeout,
	}
}

// HandleNotificationJob доставляет одно задание из очереди.
//
// Результаты доставки:
//   - OK — больше ничего не делаем;
//   - PermanentlyGone — подписка удаляется: push-сервис этот endpoint
//     больше никогда не примет, пользователь восстановится повторной
//     подпиской;
//   - TransientError — логируется, подписка остаётся; повторная попытка
//     не предпринимается, следующий шанс — совпадающая минута завтра.
//
// Ошибка возвращается только для непригодного сообщения: оно будет
// отклонено без возврата в очередь.
func (s *SenderService) HandleNotificationJob(body []byte) error {
	var job models.NotificationJob
	if err := json.Unmarshal(body, &job); err != nil {
		s.log.Error("failed to unmarshal notification job", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()

	switch s.transport.Send(ctx, job.Subscription, job.Payload) {
	case webpush.ResultOK:
		metrics.PushDeliveries.WithLabelValues("ok").Inc()
		s.log.Info("push delivered", slog.String("job_id", job.JobID),
			slog.String("user_id", job.Subscription.UserID))
	case webpush.ResultPermanentlyGone:
		metrics.PushDeliveries.WithLabelValues("gone").Inc()
		s.cleanupSubscription(job.Subscription.Endpoint)
	case webpush.ResultTransientError:
		metrics.PushDeliveries.WithLabelValues("transient").Inc()
		s.log.Error("transient push failure, subscription kept",
			slog.String("endpoint", job.Subscription.Endpoint))
	}
	return nil
}

// cleanupSubscription удаляет подписку, endpoint которой push-сервис
// объявил навсегда недоступным.
func (s *SenderService) cleanupSubscription(endpoint string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()

	count, err := s.repo.RemoveSubscriptionByEndpoint(ctx, endpoint)
	if err != nil {
		s.log.Error("failed to remove dead subscription", sl.Err(err))
		return
	}
	if count > 0 {
		metrics.SubscriptionsCleaned.Inc()
		s.log.Info("removed dead subscription", slog.String("endpoint", endpoint))
	}
}
