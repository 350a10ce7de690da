package foodkeeper

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"

	itemservice "github.com/xqopxcat/food-keeper-sub000/internal/services/item"
	shelflifeservice "github.com/xqopxcat/food-keeper-sub000/internal/services/shelflife"
	subservice "github.com/xqopxcat/food-keeper-sub000/internal/services/subscription"
)

func newTestRouter() chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	RegisterRoutes(r,
		logger,
		shelflifeservice.NewService(nil, nil, logger),
		itemservice.NewService(nil, nil, nil, logger),
		subservice.NewService(nil, logger),
	)
	return r
}

func TestRegisterRoutes_HealthIsOpen(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterRoutes_EvaluateRequiresUser(t *testing.T) {
	router := newTestRouter()

	// без заголовка пользователя маршрут недоступен
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", strings.NewReader(`{}`))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// с заголовком запрос доходит до обработчика: битый JSON отклоняется им самим
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", strings.NewReader("{broken"))
	req.Header.Set("X-User-Id", "user-1")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRoutes_ItemsRequireUser(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
