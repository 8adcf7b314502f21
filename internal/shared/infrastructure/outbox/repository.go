package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
)

// Repository defines the interface for outbox persistence.
type Repository interface {
	// Save stores a new outbox message.
	Save(ctx context.Context, msg *Message) error

	// SaveBatch stores multiple outbox messages atomically. It joins the
	// transaction in ctx when there is one.
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished retrieves messages that are due for publishing, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	// MarkPublished marks a message as successfully published.
	MarkPublished(ctx context.Context, id int64) error

	// MarkFailed records a publish failure and schedules the next attempt.
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error

	// MarkDead marks a message as dead-lettered.
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld removes published messages older than the retention period.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}

// SQLRepository implements Repository for both database drivers.
type SQLRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewRepository creates an outbox repository on conn.
func NewRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, now: time.Now}
}

const insertMessage = `
	INSERT INTO outbox_messages (
		event_id, aggregate_type, aggregate_id, routing_key,
		payload, metadata, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`

const selectMessage = `
	SELECT id, event_id, aggregate_type, aggregate_id, routing_key,
	       payload, metadata, created_at, published_at, next_retry_at,
	       retry_count, last_error, dead_lettered_at, dead_letter_reason
	FROM outbox_messages`

func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	return r.SaveBatch(ctx, []*Message{msg})
}

func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if database.InTx(ctx) {
		return r.insertAll(ctx, database.TxFromContext(ctx), msgs)
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.insertAll(ctx, tx, msgs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *SQLRepository) insertAll(ctx context.Context, exec database.Executor, msgs []*Message) error {
	for _, msg := range msgs {
		metadata := msg.Metadata
		if len(metadata) == 0 {
			metadata = json.RawMessage(`{}`)
		}
		err := exec.QueryRow(ctx, insertMessage,
			msg.EventID,
			msg.AggregateType,
			msg.AggregateID,
			msg.RoutingKey,
			string(msg.Payload),
			string(metadata),
			msg.CreatedAt,
		).Scan(&msg.ID)
		if err != nil {
			return fmt.Errorf("failed to insert outbox message %s: %w", msg.RoutingKey, err)
		}
	}
	return nil
}

func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := selectMessage + `
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= $1)
		ORDER BY created_at, id
		LIMIT $2`

	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, r.now(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`UPDATE outbox_messages SET published_at = $2, dead_lettered_at = NULL WHERE id = $1`,
		id, r.now(),
	)
	return err
}

func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1,
		    last_error = $2,
		    next_retry_at = $3
		WHERE id = $1`,
		id, errMsg, nextRetryAt,
	)
	return err
}

func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1,
		    dead_lettered_at = $2,
		    dead_letter_reason = $3
		WHERE id = $1`,
		id, r.now(), reason,
	)
	return err
}

func (r *SQLRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := r.now().AddDate(0, 0, -olderThanDays)
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM outbox_messages WHERE published_at IS NOT NULL AND published_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return database.RowsAffected(res), nil
}

func scanMessage(row database.Row) (*Message, error) {
	var (
		msg               Message
		payload, metadata []byte
		createdAt         database.Timestamp
		publishedAt       database.NullTimestamp
		nextRetryAt       database.NullTimestamp
		deadLetteredAt    database.NullTimestamp
		lastError         sql.NullString
		deadLetterReason  sql.NullString
	)
	err := row.Scan(
		&msg.ID, &msg.EventID, &msg.AggregateType, &msg.AggregateID, &msg.RoutingKey,
		&payload, &metadata, &createdAt, &publishedAt, &nextRetryAt,
		&msg.RetryCount, &lastError, &deadLetteredAt, &deadLetterReason,
	)
	if err != nil {
		return nil, err
	}

	msg.Payload = json.RawMessage(payload)
	msg.Metadata = json.RawMessage(metadata)
	msg.CreatedAt = createdAt.Time
	msg.PublishedAt = publishedAt.Ptr()
	msg.NextRetryAt = nextRetryAt.Ptr()
	msg.DeadLetteredAt = deadLetteredAt.Ptr()
	if lastError.Valid {
		msg.LastError = &lastError.String
	}
	if deadLetterReason.Valid {
		msg.DeadLetterReason = &deadLetterReason.String
	}
	return &msg, nil
}
