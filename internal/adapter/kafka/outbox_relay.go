package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/minshop/order-api/internal/adapter/repo"
)

// OutboxSource is the slice of the outbox repo the relay needs.
type OutboxSource interface {
	ClaimBatch(ctx context.Context, limit int) ([]repo.OutboxEvent, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string, backoff time.Duration) error
	RequeueStale(ctx context.Context, olderThan time.Duration) error
}

// OutboxRelay drains PENDING outbox rows to Kafka. Settlement
// transactions write events and this loop publishes them, which keeps
// the event durable iff the state flip committed. Delivery is
// at-least-once; consumers must tolerate replays.
type OutboxRelay struct {
	Source   OutboxSource
	Producer sarama.SyncProducer
	Topic    string

	Interval  time.Duration
	BatchSize int
	Backoff   time.Duration
	Logger    *slog.Logger
}

func NewOutboxRelay(src OutboxSource, producer sarama.SyncProducer, topic string, log *slog.Logger) *OutboxRelay {
	return &OutboxRelay{
		Source:    src,
		Producer:  producer,
		Topic:     topic,
		Interval:  time.Second,
		BatchSize: 100,
		Backoff:   30 * time.Second,
		Logger:    log,
	}
}

// Run blocks until ctx is done.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *OutboxRelay) drain(ctx context.Context) {
	// Recover rows a crashed relay left in SENDING.
	if err := r.Source.RequeueStale(ctx, 10*time.Minute); err != nil && r.Logger != nil {
		r.Logger.Error("outbox requeue stale", "err", err)
	}

	events, err := r.Source.ClaimBatch(ctx, r.BatchSize)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Error("outbox claim", "err", err)
		}
		return
	}

	var sent []int64
	for _, ev := range events {
		_, _, err := r.Producer.SendMessage(&sarama.ProducerMessage{
			Topic: r.Topic,
			Key:   sarama.StringEncoder(ev.Channel),
			Value: sarama.ByteEncoder(ev.Payload),
		})
		if err != nil {
			if r.Logger != nil {
				r.Logger.Error("outbox publish", "err", err, "outbox_id", ev.ID)
			}
			_ = r.Source.MarkFailed(ctx, ev.ID, err.Error(), r.Backoff)
			continue
		}
		sent = append(sent, ev.ID)
	}

	if len(sent) > 0 {
		if err := r.Source.MarkSent(ctx, sent); err != nil && r.Logger != nil {
			// Rows stay SENDING; the duplicate on restart is covered by
			// at-least-once semantics downstream.
			r.Logger.Error("outbox mark sent", "err", err)
		}
	}
}
