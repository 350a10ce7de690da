// Package create реализует HTTP-обработчик для создания записей инвентаря.
//
// Handler принимает JSON-запрос с фактами о продукте и данными покупки,
// валидирует их, извлекает идентификатор пользователя из контекста,
// вызывает бизнес-логику создания записи и возвращает созданную запись
// с рассчитанными датами истечения в JSON-формате.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/xqopxcat/food-keeper-sub000/internal/http/middlewarectx"
	"github.com/xqopxcat/food-keeper-sub000/internal/http/response"
	"github.com/xqopxcat/food-keeper-sub000/internal/lib/sl"
	"github.com/xqopxcat/food-keeper-sub000/internal/models"
	"github.com/xqopxcat/food-keeper-sub000/internal/services/shelflife"
)

// Handler управляет HTTP-запросами на создание записей инвентаря.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания записи.
type Service interface {
	Create(ctx context.Context, userID string, req models.DummyItem) (*models.Item, error)
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
// @Summary Создать запись инвентаря
// @Description Создает запись для текущего пользователя с рассчитанными датами истечения срока хранения.
// @Tags Items
// @Accept  json
// @Produce  json
// @Param request body models.DummyItem true "Данные новой записи"
// @Success 200 {object} map[string]any "Созданная запись"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Не нашлось подходящего правила"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании записи"
// @Router /items [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.item.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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

	item, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, shelflife.ErrNoRuleMatch) {
			log.Info("no rule matched", slog.String("item_key", req.ItemKey))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no shelf-life rule matched"))
			return
		}
		log.Error("failed to create item", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create item"))
		return
	}

	log.Info("item created", slog.Int("id", item.ID))
	render.JSON(w, r, response.OKWithData(item))
}
