// Package consume реализует HTTP-обработчик действия "употреблено":
// перевод записи инвентаря в поглощающее состояние consumed с фиксацией
// момента и количества.
package consume

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/xqopxcat/food-keeper-sub000/internal/http/middlewarectx"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/response"
	"github.com/xqopxcat/food-keeper-sub000/internal/lib/sl"
	"github.com/xqopxcat/food-keeper-sub000/internal/models"
	itemservice "github.com/xqopxcat/food-keeper-sub000/internal/services/item"
)

// Handler управляет HTTP-запросами действия "употреблено".
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики действия.
type Service interface {
	Consume(ctx context.Context, userID string, id, amount int) (*models.Item, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отметить запись употреблённой
// @Description Переводит запись в состояние consumed. Тело запроса необязательно.
// @Tags Items
// @Accept  json
// @Produce  json
// @Param id path int true "ID записи"
// @Param request body models.DummyConsume false "Количество"
// @Success 200 {object} map[string]any "Обновлённая запись"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 409 {object} response.ErrorResponse "Действие недопустимо из текущего состояния"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /items/{id}/consume [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.item.consume"
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

	var req models.DummyConsume
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userID, ok := middlewarectx.UserID(r.Context())
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	item, err := h.service.Consume(r.Context(), userID, id, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, itemservice.ErrItemNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("item not found"))
		case errors.Is(err, itemservice.ErrInvalidTransition):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("item cannot be consumed in its current state"))
		default:
			log.Error("failed to consume item", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not consume item"))
		}
		return
	}

	log.Info("item consumed", slog.Int("id", id))
	render.JSON(w, r, response.OKWithData(item))
}
