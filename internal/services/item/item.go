// Package item содержит бизнес-логику жизненного цикла записей инвентаря:
// создание с расчётом абсолютных дат истечения, чтение с выводом статуса,
// действия пользователя (употребить, восстановить, выбросить) и агрегацию.
package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xqopxcat/food-keeper-sub000/internal/lib/sl"
	"github.com/xqopxcat/food-keeper-sub000/internal/models"
	"github.com/xqopxcat/food-keeper-sub000/internal/services/shelflife"
)

// ErrItemNotFound запись не существует или принадлежит другому пользователю.
var ErrItemNotFound = errors.New("item not found")

// ErrInvalidTransition действие недопустимо из текущего состояния записи.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

const itemCacheTTL = time.Hour

// ItemRepository определяет методы для работы с записями в хранилище.
type ItemRepository interface {
	CreateItem(ctx context.Context, item models.Item) (int, error)
	ReadItem(ctx context.Context, userID string, id int) (*models.Item, error)
	ListItems(ctx context.Context, userID, status string, limit, offset int) ([]*models.Item, error)
	RemoveItem(ctx context.Context, userID string, id int) (int, error)
	MarkConsumed(ctx context.Context, userID string, id, amount int) (int, error)
	MarkRestored(ctx context.Context, userID string, id int) (int, error)
	MarkDiscarded(ctx context.Context, userID string, id int) (int, error)
	CountByStatus(ctx context.Context, userID string) (*models.StatusSummary, error)
}

// Evaluator описывает оценщик срока хранения.
type Evaluator interface {
	Evaluate(ctx context.Context, facts models.Facts) (*models.Evaluation, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует бизнес-логику работы с записями инвентаря.
type Service struct {
	repo      ItemRepository
	evaluator Evaluator
	cache     Cache
	log       *slog.Logger
	now       func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(repo ItemRepository, evaluator Evaluator, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		evaluator: evaluator,
		cache:     cache,
		log:       log,
		now:       time.Now,
	}
}

// Create создаёт запись инвентаря. Снимок фактов фиксируется на момент
// создания. Дата истечения с упаковки авторитетна: при её наличии обе
// абсолютные даты истечения равны ей, уверенность равна 1, а отсутствие
// подходящего правила не считается ошибкой. Без неё даты истечения
// считаются от даты покупки по диапазону из правила.
func (s *Service) Create(ctx context.Context, userID string, req models.DummyItem) (*models.Item, error) {
	now := s.now()
	facts := req.DummyFacts.Facts(now)

	purchaseDate := now.UTC().Truncate(24 * time.Hour)
	if req.PurchaseDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("invalid purchase date: %w", err)
		}
		purchaseDate = parsed
	}

	var expirationDate *time.Time
	if req.ExpirationDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpirationDate)
		if err != nil {
			return nil, fmt.Errorf("invalid expiration date: %w", err)
		}
		expirationDate = &parsed
	}

	eval, err := s.evaluator.Evaluate(ctx, facts)
	if err != nil {
		if !(errors.Is(err, shelflife.ErrNoRuleMatch) && expirationDate != nil) {
			return nil, err
		}
		eval = nil
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	entry := models.Item{
		UserID:         userID,
		Barcode:        req.Barcode,
		Name:           req.Name,
		Brand:          req.Brand,
		ItemKey:        facts.ItemKey,
		StorageMode:    facts.StorageMode,
		State:          facts.State,
		Container:      facts.Container,
		Season:         facts.Season,
		Locale:         facts.Locale,
		Quantity:       quantity,
		PurchaseDate:   purchaseDate,
		Location:       req.Location,
		Source:         req.Source,
		Notes:          req.Notes,
		AcquiredAt:     purchaseDate,
		ExpirationDate: expirationDate,
		Lifecycle:      models.LifecycleActive,
	}
	if eval != nil {
		entry.DaysMin = eval.DaysMin
		entry.DaysMax = eval.DaysMax
		entry.Tips = eval.Tips
		entry.Confidence = eval.Confidence
		ruleID := eval.RuleID
		entry.RuleID = &ruleID
	}
	if expirationDate != nil {
		entry.ExpiresMinAt = *expirationDate
		entry.ExpiresMaxAt = *expirationDate
		entry.Confidence = 1.0
	} else {
		entry.ExpiresMinAt = purchaseDate.AddDate(0, 0, eval.DaysMin)
		entry.ExpiresMaxAt = purchaseDate.AddDate(0, 0, eval.DaysMax)
	}

	id, err := s.repo.CreateItem(ctx, entry)
	if err != nil {
		return nil, err
	}
	entry.ID = id
	entry.Status = DeriveStatus(&entry, now)

	s.log.Info("created new item", slog.Int("id", id), slog.String("item_key", entry.ItemKey))

	if err := s.cache.Set(s.cacheKey(userID, id), entry, itemCacheTTL); err != nil {
		s.log.Warn("failed to cache item", sl.Err(err))
	}

	return &entry, nil
}

// Read возвращает запись с актуальным выведенным статусом, используя
// кеш или хранилище. Статус выводится заново при каждом чтении, даже
// если запись пришла из кеша.
func (s *Service) Read(ctx context.Context, userID string, id int) (*models.Item, error) {
	var result *models.Item
	cacheKey := s.cacheKey(userID, id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read item from cache", sl.Err(err))
		found = false
	}
	if !found {
		result, err = s.repo.ReadItem(ctx, userID, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrItemNotFound
			}
			return nil, err
		}
		if err := s.cache.Set(cacheKey, result, itemCacheTTL); err != nil {
			s.log.Warn("failed to cache item", sl.Err(err))
		}
	}
	result.Status = DeriveStatus(result, s.now())
	return result, nil
}

// List возвращает записи пользователя, ближайшие к истечению первыми.
// Непустой status фильтрует по выведенному статусу.
func (s *Service) List(ctx context.Context, userID, status string, limit, offset int) ([]*models.Item, error) {
	entries, err := s.repo.ListItems(ctx, userID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, entry := range entries {
		entry.Status = DeriveStatus(entry, now)
	}
	return entries, nil
}

// Summary возвращает количество записей пользователя по каждому статусу
// через агрегирующий запрос хранилища.
func (s *Service) Summary(ctx context.Context, userID string) (*models.StatusSummary, error) {
	return s.repo.CountByStatus(ctx, userID)
}

// Remove удаляет запись и инвалидирует кеш.
func (s *Service) Remove(ctx context.Context, userID string, id int) error {
	if err := s.cache.Invalidate(s.cacheKey(userID, id)); err != nil {
		s.log.Warn("failed to remove item from cache", sl.Err(err))
	}
	count, err := s.repo.RemoveItem(ctx, userID, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Consume переводит запись в поглощающее состояние consumed.
func (s *Service) Consume(ctx context.Context, userID string, id, amount int) (*models.Item, error) {
	count, err := s.repo.MarkConsumed(ctx, userID, id, amount)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, s.transitionError(ctx, userID, id)
	}
	s.log.Info("item consumed", slog.Int("id", id), slog.Int("amount", amount))
	return s.reload(ctx, userID, id)
}

// Restore возвращает употреблённую запись в активное состояние. Это
// явный откат поглощающего состояния, поэтому он логируется как
// переопределение, а не обычный переход.
func (s *Service) Restore(ctx context.Context, userID string, id int) (*models.Item, error) {
	count, err := s.repo.MarkRestored(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, s.transitionError(ctx, userID, id)
	}
	s.log.Warn("consumed item restored by explicit override",
		slog.String("user_id", userID), slog.Int("id", id))
	return s.reload(ctx, userID, id)
}

// Discard переводит запись в поглощающее состояние discarded.
func (s *Service) Discard(ctx context.Context, userID string, id int) (*models.Item, error) {
	count, err := s.repo.MarkDiscarded(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, s.transitionError(ctx, userID, id)
	}
	s.log.Info("item discarded", slog.Int("id", id))
	return s.reload(ctx, userID, id)
}

// reload перечитывает запись после изменения и обновляет кеш.
func (s *Service) reload(ctx context.Context, userID string, id int) (*models.Item, error) {
	result, err := s.repo.ReadItem(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	if err := s.cache.Set(s.cacheKey(userID, id), result, itemCacheTTL); err != nil {
		s.log.Warn("failed to cache item", sl.Err(err))
	}
	result.Status = DeriveStatus(result, s.now())
	return result, nil
}

// transitionError различает отсутствующую запись и запись в состоянии,
// из которого действие недопустимо.
func (s *Service) transitionError(ctx context.Context, userID string, id int) error {
	if _, err := s.repo.ReadItem(ctx, userID, id); err != nil {
		return ErrItemNotFound
	}
	return ErrInvalidTransition
}

func (s *Service) cacheKey(userID string, id int) string {
	return fmt.Sprintf("item:%s:%d", userID, id)
}
