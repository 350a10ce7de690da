package item

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xqopxcat/food-keeper-sub000/internal/models"
	"github.com/xqopxcat/food-keeper-sub000/internal/services/shelflife"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateItem(ctx context.Context, item models.Item) (int, error) {
	args := m.Called(ctx, item)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ReadItem(ctx context.Context, userID string, id int) (*models.Item, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}
func (m *RepoMock) ListItems(ctx context.Context, userID, status string, limit, offset int) ([]*models.Item, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}
func (m *RepoMock) RemoveItem(ctx context.Context, userID string, id int) (int, error) {
	args := m.Called(ctx, userID, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) MarkConsumed(ctx context.Context, userID string, id, amount int) (int, error) {
	args := m.Called(ctx, userID, id, amount)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) MarkRestored(ctx context.Context, userID string, id int) (int, error) {
	args := m.Called(ctx, userID, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) MarkDiscarded(ctx context.Context, userID string, id int) (int, error) {
	args := m.Called(ctx, userID, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) CountByStatus(ctx context.Context, userID string) (*models.StatusSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StatusSummary), args.Error(1)
}

type EvaluatorMock struct{ mock.Mock }

func (m *EvaluatorMock) Evaluate(ctx context.Context, facts models.Facts) (*models.Evaluation, error) {
	args := m.Called(ctx, facts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Evaluation), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestService(repo *RepoMock, evaluator *EvaluatorMock, cache *CacheMock, now time.Time) *Service {
	s := NewService(repo, evaluator, cache, newNoopLogger())
	s.now = func() time.Time { return now }
	return s
}

func milkRequest() models.DummyItem {
	return models.DummyItem{
		DummyFacts: models.DummyFacts{
			ItemKey:     "milk",
			StorageMode: models.StorageModeFridge,
			State:       models.StateOpened,
		},
		Name:         "Whole milk",
		PurchaseDate: "2024-01-01",
	}
}

func TestItemService_Create(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	purchase := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	evaluation := &models.Evaluation{
		DaysMin: 5, DaysMax: 10, Tips: "keep sealed", Confidence: 0.9, RuleID: 1,
	}

	tests := []struct {
		name       string
		req        models.DummyItem
		setupMocks func(r *RepoMock, e *EvaluatorMock, c *CacheMock)
		check      func(t *testing.T, got *models.Item)
		wantErr    error
	}{
		{
			name: "expiry window derived from rule range",
			req:  milkRequest(),
			setupMocks: func(r *RepoMock, e *EvaluatorMock, c *CacheMock) {
				e.On("Evaluate", mock.Anything, mock.Anything).Return(evaluation, nil).Once()
				r.On("CreateItem", mock.Anything, mock.MatchedBy(func(it models.Item) bool {
					return it.ExpiresMinAt.Equal(purchase.AddDate(0, 0, 5)) &&
						it.ExpiresMaxAt.Equal(purchase.AddDate(0, 0, 10)) &&
						it.Lifecycle == models.LifecycleActive
				})).Return(42, nil).Once()
				c.On("Set", "item:user-1:42", mock.Anything, itemCacheTTL).Return(nil).Once()
			},
			check: func(t *testing.T, got *models.Item) {
				assert.Equal(t, 42, got.ID)
				assert.Equal(t, 1, got.Quantity)
				require.NotNil(t, got.RuleID)
				assert.Equal(t, 1, *got.RuleID)
				assert.InDelta(t, 0.9, got.Confidence, 1e-9)
				assert.Equal(t, models.StatusFresh, got.Status)
			},
		},
		{
			name: "package expiration date is authoritative",
			req: func() models.DummyItem {
				req := milkRequest()
				req.ExpirationDate = "2024-01-20"
				return req
			}(),
			setupMocks: func(r *RepoMock, e *EvaluatorMock, c *CacheMock) {
				e.On("Evaluate", mock.Anything, mock.Anything).Return(evaluation, nil).Once()
				r.On("CreateItem", mock.Anything, mock.MatchedBy(func(it models.Item) bool {
					packageDate := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
					return it.ExpiresMinAt.Equal(packageDate) &&
						it.ExpiresMaxAt.Equal(packageDate) &&
						it.Confidence == 1.0
				})).Return(43, nil).Once()
				c.On("Set", "item:user-1:43", mock.Anything, itemCacheTTL).Return(nil).Once()
			},
			check: func(t *testing.T, got *models.Item) {
				assert.Equal(t, got.ExpiresMinAt, got.ExpiresMaxAt)
				assert.Equal(t, 1.0, got.Confidence)
				// совпавшее правило сохраняет ссылку и советы, дата с
				// упаковки переопределяет только сроки и уверенность
				require.NotNil(t, got.RuleID)
				assert.Equal(t, 1, *got.RuleID)
			},
		},
		{
			name: "no rule match tolerated when package date present",
			req: func() models.DummyItem {
				req := milkRequest()
				req.ItemKey = "durian"
				req.ExpirationDate = "2024-01-20"
				return req
			}(),
			setupMocks: func(r *RepoMock, e *EvaluatorMock, c *CacheMock) {
				e.On("Evaluate", mock.Anything, mock.Anything).Return(nil, shelflife.ErrNoRuleMatch).Once()
				r.On("CreateItem", mock.Anything, mock.MatchedBy(func(it models.Item) bool {
					return it.RuleID == nil && it.Confidence == 1.0
				})).Return(44, nil).Once()
				c.On("Set", "item:user-1:44", mock.Anything, itemCacheTTL).Return(nil).Once()
			},
			check: func(t *testing.T, got *models.Item) {
				assert.Nil(t, got.RuleID)
			},
		},
		{
			name: "no rule match without package date fails",
			req: func() models.DummyItem {
				req := milkRequest()
				req.ItemKey = "durian"
				return req
			}(),
			setupMocks: func(_ *RepoMock, e *EvaluatorMock, _ *CacheMock) {
				e.On("Evaluate", mock.Anything, mock.Anything).Return(nil, shelflife.ErrNoRuleMatch).Once()
			},
			wantErr: shelflife.ErrNoRuleMatch,
		},
		{
			name: "invalid purchase date",
			req: func() models.DummyItem {
				req := milkRequest()
				req.PurchaseDate = "01-01-2024"
				return req
			}(),
			setupMocks: func(_ *RepoMock, _ *EvaluatorMock, _ *CacheMock) {},
			wantErr:    errTestAny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			evaluator := new(EvaluatorMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, evaluator, cache)

			service := newTestService(repo, evaluator, cache, now)
			got, err := service.Create(context.Background(), "user-1", tt.req)

			if tt.wantErr != nil {
				require.Error(t, err)
				if !errors.Is(tt.wantErr, errTestAny) {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			} else {
				require.NoError(t, err)
				tt.check(t, got)
			}
			repo.AssertExpectations(t)
			evaluator.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

// errTestAny обозначает "любая ошибка" в таблице тестов.
var errTestAny = errors.New("any error")

func TestItemService_Read(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	stored := &models.Item{
		ID:           7,
		UserID:       "user-1",
		Name:         "Whole milk",
		ExpiresMaxAt: now.AddDate(0, 0, 10),
		Lifecycle:    models.LifecycleActive,
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
		wantStatus string
	}{
		{
			name: "cache miss reads repository and caches",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "item:user-1:7", mock.Anything).Return(false, nil).Once()
				r.On("ReadItem", mock.Anything, "user-1", 7).Return(stored, nil).Once()
				c.On("Set", "item:user-1:7", stored, itemCacheTTL).Return(nil).Once()
			},
			wantStatus: models.StatusFresh,
		},
		{
			name: "missing row maps to not found",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "item:user-1:7", mock.Anything).Return(false, nil).Once()
				r.On("ReadItem", mock.Anything, "user-1", 7).Return(nil, sql.ErrNoRows).Once()
			},
			wantErr: ErrItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			service := newTestService(repo, new(EvaluatorMock), cache, now)
			got, err := service.Read(context.Background(), "user-1", 7)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, got.Status)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestItemService_Transitions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	consumed := &models.Item{
		ID: 7, UserID: "user-1", Lifecycle: models.LifecycleConsumed,
		ExpiresMaxAt: now.AddDate(0, 0, 5),
	}
	active := &models.Item{
		ID: 7, UserID: "user-1", Lifecycle: models.LifecycleActive,
		ExpiresMaxAt: now.AddDate(0, 0, 5),
	}

	tests := []struct {
		name       string
		action     func(s *Service) (*models.Item, error)
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
		wantStatus string
	}{
		{
			name: "consume active item",
			action: func(s *Service) (*models.Item, error) {
				return s.Consume(context.Background(), "user-1", 7, 1)
			},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("MarkConsumed", mock.Anything, "user-1", 7, 1).Return(1, nil).Once()
				r.On("ReadItem", mock.Anything, "user-1", 7).Return(consumed, nil).Once()
				c.On("Set", "item:user-1:7", consumed, itemCacheTTL).Return(nil).Once()
			},
			wantStatus: models.StatusConsumed,
		},
		{
			name: "consume discarded item is invalid transition",
			action: func(s *Service) (*models.Item, error) {
				return s.Consume(context.Background(), "user-1", 7, 1)
			},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("MarkConsumed", mock.Anything, "user-1", 7, 1).Return(0, nil).Once()
				r.On("ReadItem", mock.Anything, "user-1", 7).Return(consumed, nil).Once()
			},
			wantErr: ErrInvalidTransition,
		},
		{
			name: "consume missing item is not found",
			action: func(s *Service) (*models.Item, error) {
				return s.Consume(context.Background(), "user-1", 7, 1)
			},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("MarkConsumed", mock.Anything, "user-1", 7, 1).Return(0, nil).Once()
				r.On("ReadItem", mock.Anything, "user-1", 7).Return(nil, sql.ErrNoRows).Once()
			},
			wantErr: ErrItemNotFound,
		},
		{
			name: "restore consumed item",
			action: func(s *Service) (*models.Item, error) {
				return s.Restore(context.Background(), "user-1", 7)
			},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("MarkRestored", mock.Anything, "user-1", 7).Return(1, nil).Once()
				r.On("ReadItem", mock.Anything, "user-1", 7).Return(active, nil).Once()
				c.On("Set", "item:user-1:7", active, itemCacheTTL).Return(nil).Once()
			},
			wantStatus: models.StatusFresh,
		},
		{
			name: "discard active item",
			action: func(s *Service) (*models.Item, error) {
				return s.Discard(context.Background(), "user-1", 7)
			},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				discarded := &models.Item{
					ID: 7, UserID: "user-1", Lifecycle: models.LifecycleDiscarded,
					ExpiresMaxAt: now.AddDate(0, 0, 5),
				}
				r.On("MarkDiscarded", mock.Anything, "user-1", 7).Return(1, nil).Once()
				r.On("ReadItem", mock.Anything, "user-1", 7).Return(discarded, nil).Once()
				c.On("Set", "item:user-1:7", discarded, itemCacheTTL).Return(nil).Once()
			},
			wantStatus: models.StatusDiscarded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			service := newTestService(repo, new(EvaluatorMock), cache, now)
			got, err := tt.action(service)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, got.Status)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestItemService_Remove(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name: "successful remove",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Invalidate", "item:user-1:7").Return(nil).Once()
				r.On("RemoveItem", mock.Anything, "user-1", 7).Return(1, nil).Once()
			},
		},
		{
			name: "missing item",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Invalidate", "item:user-1:7").Return(nil).Once()
				r.On("RemoveItem", mock.Anything, "user-1", 7).Return(0, nil).Once()
			},
			wantErr: ErrItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			service := newTestService(repo, new(EvaluatorMock), cache, now)
			err := service.Remove(context.Background(), "user-1", 7)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestItemService_List(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	entries := []*models.Item{
		{ID: 1, ExpiresMaxAt: now.AddDate(0, 0, 1), Lifecycle: models.LifecycleActive},
		{ID: 2, ExpiresMaxAt: now.AddDate(0, 0, 30), Lifecycle: models.LifecycleActive},
	}

	repo := new(RepoMock)
	repo.On("ListItems", mock.Anything, "user-1", "", 20, 0).Return(entries, nil).Once()

	service := newTestService(repo, new(EvaluatorMock), new(CacheMock), now)
	got, err := service.List(context.Background(), "user-1", "", 20, 0)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.StatusWarning, got[0].Status)
	assert.Equal(t, models.StatusFresh, got[1].Status)
	repo.AssertExpectations(t)
}

// jsonCache хранит значения сериализованными, как настоящий redis-кеш,
// чтобы тесты ловили потери полей при (де)сериализации.
type jsonCache struct {
	data map[string][]byte
}

func newJSONCache() *jsonCache {
	return &jsonCache{data: make(map[string][]byte)}
}

func (c *jsonCache) Get(key string, result any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return false, err
	}
	return true, nil
}

func (c *jsonCache) Set(key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *jsonCache) Invalidate(key string) error {
	delete(c.data, key)
	return nil
}

func TestItemService_AbsorbingStateSurvivesCacheRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	consumedAt := now.Add(-time.Hour)
	stored := &models.Item{
		ID:             42,
		UserID:         "user-1",
		Name:           "Whole milk",
		ExpiresMaxAt:   now.AddDate(0, 0, 10),
		Lifecycle:      models.LifecycleConsumed,
		ConsumedAt:     &consumedAt,
		ConsumedAmount: 1,
	}

	repo := new(RepoMock)
	repo.On("MarkConsumed", mock.Anything, "user-1", 42, 1).Return(1, nil).Once()
	repo.On("ReadItem", mock.Anything, "user-1", 42).Return(stored, nil).Once()

	service := NewService(repo, new(EvaluatorMock), newJSONCache(), newNoopLogger())
	service.now = func() time.Time { return now }

	item, err := service.Consume(context.Background(), "user-1", 42, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConsumed, item.Status)

	// повторное чтение попадает в кеш: поглощающее состояние не должно
	// превращаться во временной статус после (де)сериализации
	got, err := service.Read(context.Background(), "user-1", 42)
	require.NoError(t, err)
	assert.Equal(t, models.LifecycleConsumed, got.Lifecycle)
	assert.Equal(t, models.StatusConsumed, got.Status)
	repo.AssertExpectations(t)
}
