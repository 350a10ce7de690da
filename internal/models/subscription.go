package models

// PushSubscription браузерная push-подписка пользователя. Endpoint уникален;
// подписка удаляется либо по явному запросу, либо планировщиком, когда
// транспорт сообщает, что endpoint навсегда недоступен.
type PushSubscription struct {
	ID               int    `json:"id"`
	UserID           string `json:"user_id"`
	Endpoint         string `json:"endpoint"`
	P256dh           string `json:"p256dh"`
	Auth             string `json:"auth"`
	Enabled          bool   `json:"enabled"`
	NotifyBeforeDays int    `json:"notify_before_days"`
	NotifyTime       string `json:"notify_time"`
}

// DummySubscription используется для приёма подписки из JSON-запроса.
type DummySubscription struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
	Enabled          *bool  `json:"enabled"`
	NotifyBeforeDays int    `json:"notify_before_days" validate:"omitempty,gte=1,lte=30"`
	NotifyTime       string `json:"notify_time" validate:"omitempty,datetime=15:04"`
}

// DummyUnsubscribe используется для явной отписки по endpoint.
type DummyUnsubscribe struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
}
