package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/minshop/order-api/internal/usecase"
)

// ChannelOrderStatus is the outbox channel drained to Kafka.
const ChannelOrderStatus = "orders.status.v1"

// OutboxEvent is a claimed outbox row ready for publishing.
type OutboxEvent struct {
	ID      int64
	Channel string
	Payload []byte
}

type MySQLOutboxRepo struct{ db *sql.DB }

func NewMySQLOutboxRepo(db *sql.DB) *MySQLOutboxRepo { return &MySQLOutboxRepo{db: db} }

// InsertStatusChanged records a status-changed event inside the
// caller's settlement transaction, so the event becomes durable iff
// the state flip commits.
func (r *MySQLOutboxRepo) InsertStatusChanged(ctx context.Context, tx *sql.Tx, msg usecase.StatusChangedMsg) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO outbox (channel,payload,status,retry_count,next_attempt_at,created_at)
VALUES (?,?,'PENDING',0,NOW(),NOW())`, ChannelOrderStatus, payload)
	return err
}

// ClaimBatch locks up to limit due PENDING rows and marks them SENDING
// so concurrent relays never pick the same rows.
func (r *MySQLOutboxRepo) ClaimBatch(ctx context.Context, limit int) ([]OutboxEvent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
SELECT id,channel,payload
FROM outbox
WHERE status='PENDING' AND next_attempt_at <= NOW()
ORDER BY id
LIMIT ?
FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, err
	}

	var events []OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.Channel, &ev.Payload); err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(events) == 0 {
		return nil, tx.Commit()
	}

	args := make([]any, 0, len(events))
	for _, ev := range events {
		args = append(args, ev.ID)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE outbox SET status='SENDING', next_attempt_at=NOW() WHERE id IN (`+placeholders(len(events))+`)`,
		args...); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *MySQLOutboxRepo) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET status='SENT', sent_at=NOW() WHERE id IN (`+placeholders(len(ids))+`)`,
		args...)
	return err
}

// RequeueStale returns rows stuck in SENDING (relay crashed between
// claim and mark) to PENDING so a later pass retries them.
func (r *MySQLOutboxRepo) RequeueStale(ctx context.Context, olderThan time.Duration) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox SET status='PENDING'
WHERE status='SENDING' AND next_attempt_at <= DATE_SUB(NOW(), INTERVAL ? SECOND)`,
		int64(olderThan.Seconds()))
	return err
}

// MarkFailed requeues the row with backoff; it stays PENDING so a
// later relay pass retries it.
func (r *MySQLOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string, backoff time.Duration) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox
SET status='PENDING', retry_count=retry_count+1, last_error=?,
    next_attempt_at=DATE_ADD(NOW(), INTERVAL ? SECOND)
WHERE id=?`, errMsg, int64(backoff.Seconds()), id)
	return err
}
