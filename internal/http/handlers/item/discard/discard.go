// Package discard реализует HTTP-обработчик действия "выброшено".
package discard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/xqopxcat/food-keeper-sub000/internal/http/middlewarectx"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/response"
	"github.com/xqopxcat/food-keeper-sub000/internal/lib/sl"
	"github.com/xqopxcat/food-keeper-sub000/internal/models"
	itemservice "github.com/xqopxcat/food-keeper-sub000/internal/services/item"
)

// Handler управляет HTTP-запросами действия "выброшено".
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики действия.
type Service interface {
	Discard(ctx context.Context, userID string, id int) (*models.Item, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отметить запись выброшенной
// @Description Переводит активную запись в терминальное состояние discarded.
// @Tags Items
// @Produce  json
// @Param id path int true "ID записи"
// @Success 200 {object} map[string]any "Обновлённая запись"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 409 {object} response.ErrorResponse "Действие недопустимо из текущего состояния"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /items/{id}/discard [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.item.discard"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	userID, ok := middlewarectx.UserID(r.Context())
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	item, err := h.service.Discard(r.Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, itemservice.ErrItemNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("item not found"))
		case errors.Is(err, itemservice.ErrInvalidTransition):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("item cannot be discarded in its current state"))
		default:
			log.Error("failed to discard item", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not discard item"))
		}
		return
	}

	log.Info("item discarded", slog.Int("id", id))
	render.JSON(w, r, response.OKWithData(item))
}
