// Package foodkeeper предоставляет маршруты для основного приложения.
package foodkeeper

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/health"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/item/consume"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/item/create"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/item/discard"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/item/list"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/item/read"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/item/remove"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/item/restore"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/item/summary"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/shelflife/evaluate"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/subscription/subscribe"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/handlers/subscription/unsubscribe"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/middlewarectx"
	itemservice "github.com/xqopxcat/food-keeper-sub000/internal/services/item"
	shelflifeservice "github.com/xqopxcat/food-keeper-sub000/internal/services/shelflife"
	subservice "github.com/xqopxcat/food-keeper-sub000/internal/services/subscription"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, shelflifeService *shelflifeservice.Service, itemService *itemservice.Service, subscriptionService *subservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с идентификацией пользователя
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.UserMiddleware(logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/evaluate", evaluate.New(logger, shelflifeService).ServeHTTP)
			r.Post("/items", create.New(logger, itemService).ServeHTTP)
			r.Get("/items", list.New(logger, itemService).ServeHTTP)
			r.Get("/items/summary", summary.New(logger, itemService).ServeHTTP)
			r.Get("/items/{id}", read.New(logger, itemService).ServeHTTP)
			r.Delete("/items/{id}", remove.New(logger, itemService).ServeHTTP)
			r.Post("/items/{id}/consume", consume.New(logger, itemService).ServeHTTP)
			r.Post("/items/{id}/restore", restore.New(logger, itemService).ServeHTTP)
			r.Post("/items/{id}/discard", discard.New(logger, itemService).ServeHTTP)
			r.Post("/subscriptions", subscribe.New(logger, subscriptionService).ServeHTTP)
			r.Delete("/subscriptions", unsubscribe.New(logger, subscriptionService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
