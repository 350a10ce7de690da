package models

import "time"

// Статусы записи инвентаря. В базе хранятся только lifecycle-значения
// active/consumed/discarded; fresh, warning и expired выводятся из
// expires_max_at при каждом чтении.
const (
	StatusFresh     = "fresh"
	StatusWarning   = "warning"
	StatusExpired   = "expired"
	StatusConsumed  = "consumed"
	StatusDiscarded = "discarded"
)

// Lifecycle-значения, допустимые в колонке items.lifecycle.
const (
	LifecycleActive    = "active"
	LifecycleConsumed  = "consumed"
	LifecycleDiscarded = "discarded"
)

// Item запись инвентаря. Снимок фактов фиксируется при создании и не
// пересчитывается задним числом. Status заполняется при чтении и не
// сохраняется в базе.
type Item struct {
	ID     int    `json:"id"`
	UserID string `json:"user_id"`

	Barcode string `json:"barcode,omitempty"`
	Name    string `json:"name"`
	Brand   string `json:"brand,omitempty"`

	ItemKey     string `json:"item_key"`
	StorageMode string `json:"storage_mode"`
	State       string `json:"state"`
	Container   string `json:"container"`
	Season      string `json:"season"`
	Locale      string `json:"locale"`

	Quantity     int       `json:"quantity"`
	PurchaseDate time.Time `json:"purchase_date"`
	Location     string    `json:"location,omitempty"`
	Source       string    `json:"source,omitempty"`
	Notes        string    `json:"notes,omitempty"`

	DaysMin    int     `json:"days_min"`
	DaysMax    int     `json:"days_max"`
	Tips       string  `json:"tips,omitempty"`
	Confidence float64 `json:"confidence"`
	RuleID     *int    `json:"rule_id,omitempty"`

	AcquiredAt     time.Time  `json:"acquired_at"`
	ExpiresMinAt   time.Time  `json:"expires_min_at"`
	ExpiresMaxAt   time.Time  `json:"expires_max_at"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`

	Lifecycle      string     `json:"lifecycle"`
	Status         string     `json:"status"`
	ConsumedAt     *time.Time `json:"consumed_at,omitempty"`
	ConsumedAmount int        `json:"consumed_amount,omitempty"`
}

// DummyItem используется для приёма данных о новой записи из JSON-запроса.
// Даты приходят строками в формате 2006-01-02.
type DummyItem struct {
	DummyFacts

	Barcode        string `json:"barcode"`
	Name           string `json:"name" validate:"required"`
	Brand          string `json:"brand"`
	Quantity       int    `json:"quantity" validate:"omitempty,gt=0"`
	PurchaseDate   string `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	ExpirationDate string `json:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	Location       string `json:"location"`
	Source         string `json:"source"`
	Notes          string `json:"notes"`
}

// DummyConsume параметры действия "употреблено".
type DummyConsume struct {
	Amount int `json:"amount" validate:"omitempty,gt=0"`
}

// StatusSummary количество записей пользователя по каждому выведенному статусу.
type StatusSummary struct {
	Fresh     int `json:"fresh"`
	Warning   int `json:"warning"`
	Expired   int `json:"expired"`
	Consumed  int `json:"consumed"`
	Discarded int `json:"discarded"`
}
