package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lyftr/internal/constants"
	"lyftr/pkg/metrics"
)

type Repository interface {
	Insert(ctx context.Context, msg *Message) (InsertOutcome, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Message, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
	Ping(ctx context.Context) error
}

type PostgresRepository struct {
	db      *sql.DB
	metrics *metrics.Metrics
}

func NewRepository(db *sql.DB, m *metrics.Metrics) *PostgresRepository {
	return &PostgresRepository{db: db, metrics: m}
}

// Insert performs an atomic insert-if-absent keyed on message_id. The
// primary-key constraint is the concurrency control: two concurrent inserts
// for the same message_id cannot both create a row, and the loser is
// reported as OutcomeDuplicate rather than an error.
func (r *PostgresRepository) Insert(ctx context.Context, msg *Message) (InsertOutcome, error) {
	msg.ReceivedAt = time.Now().UTC()

	query := `
		INSERT INTO messages (message_id, from_msisdn, to_msisdn, ts, text, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id) DO NOTHING
	`

	start := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		msg.MessageID, msg.FromMSISDN, msg.ToMSISDN,
		msg.Timestamp, nullableText(msg.Text), msg.ReceivedAt,
	)
	r.observe("insert", start, err)
	if err != nil {
		return OutcomeDuplicate, fmt.Errorf("failed to insert message: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return OutcomeDuplicate, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return OutcomeDuplicate, nil
	}
	return OutcomeCreated, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]Message, error) {
	where, args := buildWhere(filter)

	query := fmt.Sprintf(`
		SELECT message_id, from_msisdn, to_msisdn, ts, text, received_at
		FROM messages
		%s
		ORDER BY ts ASC, message_id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.observe("list", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var text sql.NullString
		if err := rows.Scan(
			&msg.MessageID, &msg.FromMSISDN, &msg.ToMSISDN,
			&msg.Timestamp, &text, &msg.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if text.Valid {
			value := text.String
			msg.Text = &value
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

func (r *PostgresRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	where, args := buildWhere(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM messages %s`, where)

	start := time.Now()
	var total int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&total)
	r.observe("count", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) Stats(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats, err := r.queryStats(ctx)
	r.observe("stats", start, err)
	return stats, err
}

func (r *PostgresRepository) queryStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{TopSenders: make([]SenderCount, 0, constants.TopSendersLimit)}

	var first, last sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT from_msisdn), MIN(ts), MAX(ts)
		FROM messages
	`).Scan(&stats.TotalMessages, &stats.SendersCount, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate messages: %w", err)
	}
	if first.Valid {
		value := first.Time
		stats.FirstMessage = &value
	}
	if last.Valid {
		value := last.Time
		stats.LastMessage = &value
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT from_msisdn, COUNT(*) AS count
		FROM messages
		GROUP BY from_msisdn
		ORDER BY count DESC, from_msisdn ASC
		LIMIT $1
	`, constants.TopSendersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top senders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sender SenderCount
		if err := rows.Scan(&sender.From, &sender.Count); err != nil {
			return nil, fmt.Errorf("failed to scan sender count: %w", err)
		}
		stats.TopSenders = append(stats.TopSenders, sender)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sender counts: %w", err)
	}

	return stats, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func buildWhere(filter Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.FromMSISDN != "" {
		args = append(args, filter.FromMSISDN)
		conds = append(conds, fmt.Sprintf("from_msisdn = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conds = append(conds, fmt.Sprintf("ts >= $%d", len(args)))
	}
	if filter.Text != "" {
		args = append(args, "%"+filter.Text+"%")
		conds = append(conds, fmt.Sprintf("text ILIKE $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func nullableText(text *string) sql.NullString {
	if text == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *text, Valid: true}
}

func (r *PostgresRepository) observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.IncDatabaseQuery(operation, status)
	r.metrics.ObserveDatabaseQueryDuration(operation, time.Since(start))
}
