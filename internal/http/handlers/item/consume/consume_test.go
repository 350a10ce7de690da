package consume

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/xqopxcat/food-keeper-sub000/internal/http/middlewarectx"
	"github.com/xqopxcat/food-keeper-sub000/internal/models"
	itemservice "github.com/xqopxcat/food-keeper-sub000/internal/services/item"
)

// MockService реализует интерфейс consume.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Consume(ctx context.Context, userID string, id, amount int) (*models.Item, error) {
	args := m.Called(ctx, userID, id, amount)
	if res := args.Get(0); res != nil {
		return res.(*models.Item), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestConsumeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		urlID          string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "успешное употребление с количеством",
			urlID: "5",
			body:  `{"amount":2}`,
			setupMock: func(m *MockService) {
				item := &models.Item{ID: 5, Status: models.StatusConsumed, ConsumedAmount: 2}
				m.On("Consume", mock.Anything, "user-1", 5, 2).Return(item, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"consumed"`,
		},
		{
			name:  "пустое тело допустимо",
			urlID: "5",
			body:  "",
			setupMock: func(m *MockService) {
				item := &models.Item{ID: 5, Status: models.StatusConsumed}
				m.On("Consume", mock.Anything, "user-1", 5, 0).Return(item, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"consumed"`,
		},
		{
			name:  "действие из недопустимого состояния",
			urlID: "5",
			body:  `{}`,
			setupMock: func(m *MockService) {
				m.On("Consume", mock.Anything, "user-1", 5, 0).Return(nil, itemservice.ErrInvalidTransition)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"item cannot be consumed in its current state"`,
		},
		{
			name:  "запись не найдена",
			urlID: "404",
			body:  `{}`,
			setupMock: func(m *MockService) {
				m.On("Consume", mock.Anything, "user-1", 404, 0).Return(nil, itemservice.ErrItemNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"item not found"`,
		},
		{
			name:           "некорректное количество",
			urlID:          "5",
			body:           `{"amount":-1}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `out of range`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/items/"+tt.urlID+"/consume", strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.urlID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.User, "user-1")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
