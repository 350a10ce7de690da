// Package models содержит доменные структуры: правила срока хранения,
// факты о продукте, записи инвентаря и push-подписки, а также
// вспомогательные типы для приёма данных из JSON-запросов.
package models

// Возможные значения способа хранения.
const (
	StorageModeRoom    = "room"
	StorageModeFridge  = "fridge"
	StorageModeFreezer = "freezer"
)

// Возможные значения состояния продукта.
const (
	StateWhole  = "whole"
	StateCut    = "cut"
	StateOpened = "opened"
	StateCooked = "cooked"
)

// Возможные значения сезона.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// Rule описывает правило подбора срока хранения: наборы условий по
// шести измерениям и результат (диапазон дней, советы, базовая уверенность).
// Пустой набор по измерению означает "подходит любое значение".
type Rule struct {
	ID             int
	Enabled        bool
	Priority       int
	Conditions     RuleConditions
	DaysMin        int
	DaysMax        int
	Tips           string
	BaseConfidence float64
}

// RuleConditions наборы допустимых значений фактов по измерениям.
// Хранится в базе как JSONB.
type RuleConditions struct {
	ItemKeys     []string `json:"item_keys,omitempty"`
	StorageModes []string `json:"storage_modes,omitempty"`
	States       []string `json:"states,omitempty"`
	Containers   []string `json:"containers,omitempty"`
	Seasons      []string `json:"seasons,omitempty"`
	Locales      []string `json:"locales,omitempty"`
}

// Evaluation результат работы оценщика срока хранения.
type Evaluation struct {
	DaysMin    int     `json:"days_min"`
	DaysMax    int     `json:"days_max"`
	Tips       string  `json:"tips"`
	Confidence float64 `json:"confidence"`
	RuleID     int     `json:"rule_id"`
}
