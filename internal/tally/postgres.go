package tally

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/memohai/recallbot/internal/recall"
)

// PostgresPersister stores the snapshot in the recall_reasons and
// processed_messages tables created by the embedded migrations.
type PostgresPersister struct {
	pool *pgxpool.Pool
}

func NewPostgresPersister(pool *pgxpool.Pool) *PostgresPersister {
	return &PostgresPersister{pool: pool}
}

func (p *PostgresPersister) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	rows, err := p.pool.Query(ctx, `SELECT reason, count FROM recall_reasons ORDER BY position`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query recall reasons: %w", err)
	}
	snap.Reasons, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (recall.Entry, error) {
		var entry recall.Entry
		err := row.Scan(&entry.Reason, &entry.Count)
		return entry, err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("scan recall reasons: %w", err)
	}

	rows, err = p.pool.Query(ctx, `SELECT message_id FROM processed_messages ORDER BY position`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query processed messages: %w", err)
	}
	snap.ProcessedMessageIDs, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return Snapshot{}, fmt.Errorf("scan processed messages: %w", err)
	}
	return snap, nil
}

func (p *PostgresPersister) Save(ctx context.Context, snap Snapshot) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE recall_reasons, processed_messages`); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
		if len(snap.Reasons) > 0 {
			rows := make([][]any, 0, len(snap.Reasons))
			for i, entry := range snap.Reasons {
				rows = append(rows, []any{int32(i), entry.Reason, int32(entry.Count)})
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"recall_reasons"}, []string{"position", "reason", "count"}, pgx.CopyFromRows(rows)); err != nil {
				return fmt.Errorf("copy recall reasons: %w", err)
			}
		}
		if len(snap.ProcessedMessageIDs) > 0 {
			rows := make([][]any, 0, len(snap.ProcessedMessageIDs))
			for i, id := range snap.ProcessedMessageIDs {
				rows = append(rows, []any{int32(i), id})
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"processed_messages"}, []string{"position", "message_id"}, pgx.CopyFromRows(rows)); err != nil {
				return fmt.Errorf("copy processed messages: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write snapshot to postgres: %w", err)
	}
	return nil
}

// Record inserts messageID and bumps the count for reason in one
// transaction. Positions continue after the current maximum.
func (p *PostgresPersister) Record(ctx context.Context, reason, messageID string) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO processed_messages (position, message_id)
			VALUES ((SELECT COALESCE(MAX(position) + 1, 0) FROM processed_messages), $1)
			ON CONFLICT (message_id) DO NOTHING`, messageID)
		if err != nil {
			return fmt.Errorf("insert processed message: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyRecorded
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO recall_reasons (position, reason, count)
			VALUES ((SELECT COALESCE(MAX(position) + 1, 0) FROM recall_reasons), $1, 1)
			ON CONFLICT (reason) DO UPDATE SET count = recall_reasons.count + 1`, reason); err != nil {
			return fmt.Errorf("upsert recall reason: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrAlreadyRecorded) {
		return err
	}
	if err != nil {
		return fmt.Errorf("record recall in postgres: %w", err)
	}
	return nil
}
