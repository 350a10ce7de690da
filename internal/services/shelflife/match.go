// Package shelflife реализует подбор правила срока хранения по фактам
// о продукте и вычисление итоговой оценки (диапазон дней, советы,
// уверенность). Подбор и оценка — чистые функции: одинаковые входы
// всегда дают одинаковый результат, синхронизация не нужна.
package shelflife

import (
	"slices"

	"github.com/xqopxcat/food-keeper-sub000/internal/models"
)

// Веса измерений при подсчёте очков совпадения.
const (
	weightItemKey     = 1.0
	weightStorageMode = 1.0
	weightState       = 0.5
	weightContainer   = 0.25
	weightSeason      = 0.25
	weightLocale      = 0.25
)

// Candidate выбранное правило вместе с набранными очками совпадения
// и итоговым рангом (priority + score).
type Candidate struct {
	Rule  *models.Rule
	Score float64
	Rank  float64
}

// Match выбирает лучшее правило для вектора фактов.
//
// Непустой набор условий по измерению обязан содержать значение факта,
// иначе правило выбывает; пустой набор подходит любому значению, но
// очков не приносит. Побеждает максимальный ранг; правило, не набравшее
// ни одного очка (включая правило из одних пустых наборов), выиграть
// не может, какой бы ни была его priority. При равном ранге побеждает
// правило с большей priority, затем с меньшим ID.
func Match(facts models.Facts, rules []*models.Rule) (Candidate, bool) {
	var best Candidate
	for _, rule := range rules {
		if rule == nil || !rule.Enabled {
			continue
		}
		score, ok := scoreRule(facts, rule.Conditions)
		if !ok {
			continue
		}
		cand := Candidate{
			Rule:  rule,
			Score: score,
			Rank:  float64(rule.Priority) + score,
		}
		if best.Rule == nil || better(cand, best) {
			best = cand
		}
	}
	if best.Rule == nil || best.Score <= 0 {
		return Candidate{}, false
	}
	return best, true
}

func better(a, b Candidate) bool {
	if a.Rank != b.Rank {
		return a.Rank > b.Rank
	}
	if a.Rule.Priority != b.Rule.Priority {
		return a.Rule.Priority > b.Rule.Priority
	}
	return a.Rule.ID < b.Rule.ID
}

func scoreRule(facts models.Facts, c models.RuleConditions) (float64, bool) {
	var score float64
	dims := []struct {
		set    []string
		value  string
		weight float64
	}{
		{c.ItemKeys, facts.ItemKey, weightItemKey},
		{c.StorageModes, facts.StorageMode, weightStorageMode},
		{c.States, facts.State, weightState},
		{c.Containers, facts.Container, weightContainer},
		{c.Seasons, facts.Season, weightSeason},
		{c.Locales, facts.Locale, weightLocale},
	}
	for _, d := range dims {
		if len(d.set) == 0 {
			continue
		}
		if !slices.Contains(d.set, d.value) {
			return 0, false
		}
		score += d.weight
	}
	return score, true
}
