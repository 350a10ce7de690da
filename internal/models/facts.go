package models

import "time"

// DefaultLocale используется, когда запрос не указывает регион.
const DefaultLocale = "tw"

// DefaultContainer используется, когда запрос не указывает упаковку.
const DefaultContainer = "none"

// Facts ситуационный вектор, по которому подбирается правило срока хранения.
// ItemKey, StorageMode и State обязательны; Container, Season и Locale
// заполняются значениями по умолчанию через Normalize.
type Facts struct {
	ItemKey     string `json:"item_key"`
	StorageMode string `json:"storage_mode"`
	State       string `json:"state"`
	Container   string `json:"container"`
	Season      string `json:"season"`
	Locale      string `json:"locale"`
}

// DummyFacts используется для приёма фактов из JSON-запроса.
type DummyFacts struct {
	ItemKey     string `json:"item_key" validate:"required"`
	StorageMode string `json:"storage_mode" validate:"required,oneof=room fridge freezer"`
	State       string `json:"state" validate:"required,oneof=whole cut opened cooked"`
	Container   string `json:"container"`
	Season      string `json:"season" validate:"omitempty,oneof=spring summer autumn winter"`
	Locale      string `json:"locale"`
}

// Facts конвертирует запрос в нормализованный вектор фактов.
func (d DummyFacts) Facts(now time.Time) Facts {
	f := Facts{
		ItemKey:     d.ItemKey,
		StorageMode: d.StorageMode,
		State:       d.State,
		Container:   d.Container,
		Season:      d.Season,
		Locale:      d.Locale,
	}
	f.Normalize(now)
	return f
}

// Normalize заполняет необязательные измерения значениями по умолчанию.
// Сезон выводится из текущего месяца, если не задан явно.
func (f *Facts) Normalize(now time.Time) {
	if f.Container == "" {
		f.Container = DefaultContainer
	}
	if f.Season == "" {
		f.Season = SeasonOf(now)
	}
	if f.Locale == "" {
		f.Locale = DefaultLocale
	}
}

// SeasonOf возвращает сезон по месяцу: март-май весна, июнь-август лето,
// сентябрь-ноябрь осень, декабрь-февраль зима.
func SeasonOf(t time.Time) string {
	switch t.Month() {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}
