// Package webpush реализует транспорт доставки push-уведомлений поверх
// протокола Web Push (VAPID). Ядро системы видит только трёхзначный
// результат доставки; детали протокола наружу не выходят.
package webpush

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	wp "github.com/SherClockHolmes/webpush-go"

	"github.com/xqopxcat/food-keeper-sub000/internal/config"
	"github.com/xqopxcat/food-keeper-sub000/internal/lib/sl"
	"github.com/xqopxcat/food-keeper-sub000/internal/models"
)

// Result трёхзначный результат попытки доставки.
type Result int

const (
	// ResultOK доставка принята push-сервисом.
	ResultOK Result = iota
	// ResultPermanentlyGone endpoint больше никогда не примет доставку;
	// подписку нужно удалить.
	ResultPermanentlyGone
	// ResultTransientError временный сбой; подписка остаётся, повторной
	// попытки в рамках текущей минуты нет.
	ResultTransientError
)

// Transport описывает контракт доставки push-уведомлений.
type Transport interface {
	Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) Result
}

// VAPIDTransport отправляет уведомления через Web Push с VAPID-подписью.
type VAPIDTransport struct {
	options wp.Options
	log     *slog.Logger
}

// NewTransport создает новый VAPIDTransport из настроек push-секции конфига.
func NewTransport(cfg *config.Config, log *slog.Logger) *VAPIDTransport {
	return &VAPIDTransport{
		options: wp.Options{
			Subscriber:      cfg.Push.Subscriber,
			VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
			TTL:             3600,
		},
		log: log,
	}
}

// Send доставляет payload на endpoint подписки. Статусы 404 и 410 от
// push-сервиса означают, что endpoint исчез навсегда.
func (t *VAPIDTransport) Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		t.log.Error("failed to marshal push payload", sl.Err(err))
		return ResultTransientError
	}

	target := &wp.Subscription{
		Endpoint: sub.Endpoint,
		Keys: wp.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.SendNotificationWithContext(ctx, body, target, &t.options)
	if err != nil {
		t.log.Error("push delivery failed", sl.Err(err), slog.String("endpoint", sub.Endpoint))
		return ResultTransientError
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ResultPermanentlyGone
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return ResultOK
	default:
		t.log.Error("push service rejected delivery",
			slog.Int("status", resp.StatusCode), slog.String("endpoint", sub.Endpoint))
		return ResultTransientError
	}
}
