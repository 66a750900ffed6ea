package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"fraudlens/pkg/platform/tx"
)

// PostgresStore persists audit events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL for the audit_events table.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         BIGSERIAL PRIMARY KEY,
	category   TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	action     TEXT NOT NULL,
	case_id    TEXT NOT NULL DEFAULT '',
	entity_id  TEXT NOT NULL DEFAULT '',
	actor_id   TEXT NOT NULL DEFAULT '',
	decision   TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT '',
	tags       TEXT[] NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_audit_events_case
	ON audit_events (case_id, occurred_at);
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// exec prefers a context-carried transaction so callers can append audit
// events atomically with their own writes.
func (s *PostgresStore) exec(ctx context.Context) execer {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO audit_events
			(category, occurred_at, action, case_id, entity_id, actor_id, decision, reason, request_id, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(event.Category), event.Timestamp, string(event.Action),
		event.CaseID, event.EntityID, event.ActorID,
		event.Decision, event.Reason, event.RequestID,
		pq.Array(event.Tags),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCase(ctx context.Context, caseID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, occurred_at, action, case_id, entity_id, actor_id, decision, reason, request_id, tags
		FROM audit_events
		WHERE case_id = $1
		ORDER BY occurred_at ASC, id ASC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var e Event
		var category, action string
		err := rows.Scan(&category, &e.Timestamp, &action,
			&e.CaseID, &e.EntityID, &e.ActorID,
			&e.Decision, &e.Reason, &e.RequestID,
			pq.Array(&e.Tags),
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = EventCategory(category)
		e.Action = Action(action)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
