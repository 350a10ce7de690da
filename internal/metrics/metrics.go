// Package metrics объявляет счётчики Prometheus для пайплайна уведомлений.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DigestsPublished количество дайджестов, опубликованных планировщиком в очередь.
	DigestsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "food_keeper_digests_published_total",
		Help: "Number of expiry digest jobs published to the notification queue.",
	})

	// PushDeliveries количество попыток доставки push по результату.
	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_keeper_push_deliveries_total",
		Help: "Number of push delivery attempts by result.",
	}, []string{"result"})

	// SubscriptionsCleaned количество подписок, удалённых самоочисткой.
	SubscriptionsCleaned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "food_keeper_subscriptions_cleaned_total",
		Help: "Number of push subscriptions removed after the endpoint was reported gone.",
	})
)
