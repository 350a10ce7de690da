// Package evaluate реализует HTTP-обработчик оценки срока хранения.
//
// Handler принимает JSON-запрос с фактами о продукте, валидирует их,
// нормализует необязательные измерения и возвращает подобранную оценку
// (диапазон дней, советы, уверенность, ID правила) в JSON-формате.
package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/xqopxcat/food-keeper-sub000/internal/http/response"
	"github.com/xqopxcat/food-keeper-sub000/internal/lib/sl"
	"github.com/xqopxcat/food-keeper-sub000/internal/models"
	"github.com/xqopxcat/food-keeper-sub000/internal/services/shelflife"
)

// Handler управляет HTTP-запросами на оценку срока хранения.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс оценщика срока хранения.
type Service interface {
	Evaluate(ctx context.Context, facts models.Facts) (*models.Evaluation, error)
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
// @Summary Оценить срок хранения
// @Description Подбирает правило по фактам о продукте и возвращает диапазон дней, советы и уверенность.
// @Tags Shelflife
// @Accept  json
// @Produce  json
// @Param request body models.DummyFacts true "Факты о продукте"
// @Success 200 {object} map[string]any "Оценка срока хранения"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Не нашлось подходящего правила"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /evaluate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.shelflife.evaluate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyFacts
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

	evaluation, err := h.service.Evaluate(r.Context(), req.Facts(time.Now()))
	if err != nil {
		if errors.Is(err, shelflife.ErrNoRuleMatch) {
			log.Info("no rule matched", slog.String("item_key", req.ItemKey))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no shelf-life rule matched"))
			return
		}
		log.Error("failed to evaluate facts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not evaluate shelf life"))
		return
	}

	log.Info("facts evaluated", slog.Int("rule_id", evaluation.RuleID))
	render.JSON(w, r, response.OKWithData(evaluation))
}
