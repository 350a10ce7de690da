// Package list реализует HTTP-обработчик списка записей инвентаря
// с пагинацией и необязательным фильтром по выведенному статусу.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/xqopxcat/food-keeper-sub000/internal/http/middlewarectx"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/response"
	"github.com/xqopxcat/food-keeper-sub000/internal/lib/sl"
	"github.com/xqopxcat/food-keeper-sub000/internal/models"
)

// Handler управляет HTTP-запросами на получение списка записей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка записей.
type Service interface {
	List(ctx context.Context, userID, status string, limit, offset int) ([]*models.Item, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

var knownStatuses = []string{
	models.StatusFresh,
	models.StatusWarning,
	models.StatusExpired,
	models.StatusConsumed,
	models.StatusDiscarded,
}

// ServeHTTP godoc
// @Summary Список записей инвентаря
// @Description Возвращает записи текущего пользователя, ближайшие к истечению первыми.
// @Tags Items
// @Produce  json
// @Param status query string false "Фильтр по статусу (fresh|warning|expired|consumed|discarded)"
// @Param limit query int false "Размер страницы (по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список записей"
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /items [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.item.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserID(r.Context())
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && !slices.Contains(knownStatuses, status) {
		log.Error("unknown status filter", slog.String("status", status))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown status filter"))
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid limit"))
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid offset"))
			return
		}
		offset = parsed
	}

	items, err := h.service.List(r.Context(), userID, status, limit, offset)
	if err != nil {
		log.Error("failed to list items", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list items"))
		return
	}

	render.JSON(w, r, response.OKWithData(items))
}
