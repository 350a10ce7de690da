// Package middlewarectx содержит middleware HTTP-сервера: извлечение
// идентификатора пользователя из заголовка шлюза и ограничение частоты
// запросов. Аутентификация выполняется внешним шлюзом; ядро доверяет
// заголовку X-User-Id.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/xqopxcat/food-keeper-sub000/internal/http/response"
)

type contextKey string

// User ключ контекста, под которым хранится идентификатор пользователя.
const User contextKey = "user"

// UserHeader заголовок, в котором шлюз передаёт идентификатор пользователя.
const UserHeader = "X-User-Id"

// UserMiddleware возвращает middleware, которое кладёт идентификатор
// пользователя из заголовка в контекст запроса. Запрос без идентификатора
// отклоняется.
func UserMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.UserMiddleware"

			userID := r.Header.Get(UserHeader)
			if userID == "" {
				log.Error("missing user header",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			ctx := context.WithValue(r.Context(), User, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID извлекает идентификатор пользователя из контекста запроса.
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(User).(string)
	return userID, ok && userID != ""
}
