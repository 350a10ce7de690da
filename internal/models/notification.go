package models

// PushPayload содержимое push-уведомления, сериализуется в JSON
// и доставляется браузеру как есть.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

// NotificationJob сообщение, которое планировщик публикует в очередь,
// а отправитель доставляет через push-транспорт.
type NotificationJob struct {
	JobID        string           `json:"job_id"`
	Subscription PushSubscription `json:"subscription"`
	Payload      PushPayload      `json:"payload"`
}
