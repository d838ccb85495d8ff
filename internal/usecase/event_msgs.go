package usecase

// CreatedMsg rides RabbitMQ on the order.created routing key.
type CreatedMsg struct {
	OrderNumber string `json:"orderNumber"`
	UserSeq     int64  `json:"userSeq"`
	OrderTotal  int64  `json:"orderTotal"`
	Status      string `json:"status"`
}

// StatusChangedMsg is the outbox payload relayed to Kafka after every
// settlement transition.
type StatusChangedMsg struct {
	OrderNumber string `json:"orderNumber"`
	UserSeq     int64  `json:"userSeq"`
	Status      string `json:"status"`
	PGProvider  string `json:"pgProvider,omitempty"`
	PaidAt      string `json:"paidAt,omitempty"`
}
