package shelflife

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/xqopxcat/food-keeper-sub000/internal/lib/sl"
	"github.com/xqopxcat/food-keeper-sub000/internal/models"
)

// ErrNoRuleMatch ни одно правило не набрало ни одного очка совпадения.
var ErrNoRuleMatch = errors.New("no shelf-life rule matched")

// summerRoomCoefficient сокращает срок хранения летом при комнатной
// температуре. Применяется только при season == summer и storageMode == room.
const summerRoomCoefficient = 0.85

const (
	rulesCacheKey = "rules:enabled"
	rulesCacheTTL = 5 * time.Minute
)

// EvaluateFacts чистая оценка: подбирает правило и применяет сезонный
// коэффициент. daysMin не опускается ниже нуля, daysMax не опускается
// ниже daysMin; уверенность = min(1, baseConfidence + score/3).
func EvaluateFacts(facts models.Facts, rules []*models.Rule) (*models.Evaluation, error) {
	cand, ok := Match(facts, rules)
	if !ok {
		return nil, ErrNoRuleMatch
	}

	k := 1.0
	if facts.Season == models.SeasonSummer && facts.StorageMode == models.StorageModeRoom {
		k = summerRoomCoefficient
	}
	daysMin := int(math.Round(float64(cand.Rule.DaysMin) * k))
	if daysMin < 0 {
		daysMin = 0
	}
	daysMax := int(math.Round(float64(cand.Rule.DaysMax) * k))
	if daysMax < daysMin {
		daysMax = daysMin
	}
	confidence := cand.Rule.BaseConfidence + cand.Score/3
	if confidence > 1 {
		confidence = 1
	}

	return &models.Evaluation{
		DaysMin:    daysMin,
		DaysMax:    daysMax,
		Tips:       cand.Rule.Tips,
		Confidence: confidence,
		RuleID:     cand.Rule.ID,
	}, nil
}

// RuleRepository определяет доступ к правилам в хранилище.
type RuleRepository interface {
	ListEnabledRules(ctx context.Context) ([]*models.Rule, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// Service загружает правила (через кеш) и выполняет оценку срока хранения.
type Service struct {
	repo  RuleRepository
	cache Cache
	log   *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo RuleRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Evaluate подбирает правило для нормализованных фактов и возвращает
// оценку срока хранения либо ErrNoRuleMatch.
func (s *Service) Evaluate(ctx context.Context, facts models.Facts) (*models.Evaluation, error) {
	rules, err := s.enabledRules(ctx)
	if err != nil {
		return nil, err
	}
	return EvaluateFacts(facts, rules)
}

// enabledRules возвращает снимок включённых правил. Набор правил меняется
// редко, поэтому держится в Redis; ошибки кеша не фатальны — запрос
// уходит в хранилище.
func (s *Service) enabledRules(ctx context.Context) ([]*models.Rule, error) {
	var rules []*models.Rule
	found, err := s.cache.Get(rulesCacheKey, &rules)
	if err != nil {
		s.log.Warn("failed to read rules from cache", sl.Err(err))
	}
	if found {
		return rules, nil
	}

	rules, err = s.repo.ListEnabledRules(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(rulesCacheKey, rules, rulesCacheTTL); err != nil {
		s.log.Warn("failed to cache rules", sl.Err(err))
	}
	return rules, nil
}
