package investigation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fraudlens/internal/investigation/models"
	"fraudlens/pkg/platform/sentinel"
)

// PostgresStore persists investigations in PostgreSQL. The structured parts
// (settings, progress, results) live in jsonb columns; version and lifecycle
// stage are first-class columns so the compare-and-swap happens in SQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore constructs a PostgreSQL-backed investigation store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

func (s *PostgresStore) Create(ctx context.Context, inv *models.Investigation) error {
	settings, progress, results, err := marshalParts(inv)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO investigations
			(id, owner_id, stage, status, settings, progress, results, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.OwnerID, string(inv.Stage), inv.Status,
		settings, progress, results, inv.Version, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert investigation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Investigation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, stage, status, settings, progress, results, version, created_at, updated_at
		FROM investigations
		WHERE id = $1`, id)
	return scanInvestigation(row)
}

// Update re-reads the row under a lock, applies the patch in Go, and writes
// back guarded by the version column. The version guard is what makes the
// write safe against a competing update that slipped in before the lock.
func (s *PostgresStore) Update(ctx context.Context, id string, expectedVersion int64, patch models.Patch) (*models.Investigation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT id, owner_id, stage, status, settings, progress, results, version, created_at, updated_at
		FROM investigations
		WHERE id = $1
		FOR UPDATE`, id)
	inv, err := scanInvestigation(row)
	if err != nil {
		return nil, err
	}

	if inv.Version != expectedVersion {
		return nil, &ConflictError{
			InvestigationID: id,
			CurrentVersion:  inv.Version,
			ProvidedVersion: expectedVersion,
		}
	}

	if err := inv.Apply(patch, s.now()); err != nil {
		return nil, err
	}
	inv.Version++

	_, progress, results, err := marshalParts(inv)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE investigations
		SET stage = $1, status = $2, progress = $3, results = $4, version = $5, updated_at = $6
		WHERE id = $7 AND version = $8`,
		string(inv.Stage), inv.Status, progress, results, inv.Version, inv.UpdatedAt,
		id, expectedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("update investigation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, &ConflictError{InvestigationID: id, ProvidedVersion: expectedVersion}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return inv, nil
}

func (s *PostgresStore) List(ctx context.Context, ownerID string) ([]*models.Investigation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, stage, status, settings, progress, results, version, created_at, updated_at
		FROM investigations
		WHERE owner_id = $1
		ORDER BY created_at DESC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list investigations: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Investigation, 0)
	for rows.Next() {
		inv, err := scanInvestigation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list investigations: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvestigation(row rowScanner) (*models.Investigation, error) {
	var (
		inv      models.Investigation
		stage    string
		settings []byte
		progress []byte
		results  []byte
	)
	err := row.Scan(&inv.ID, &inv.OwnerID, &stage, &inv.Status,
		&settings, &progress, &results, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan investigation: %w", err)
	}

	inv.Stage = models.Stage(stage)
	if err := json.Unmarshal(settings, &inv.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := json.Unmarshal(progress, &inv.Progress); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	if len(results) > 0 {
		inv.Results = &models.Results{}
		if err := json.Unmarshal(results, inv.Results); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
	}
	return &inv, nil
}

func marshalParts(inv *models.Investigation) (settings, progress, results []byte, err error) {
	settings, err = json.Marshal(inv.Settings)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode settings: %w", err)
	}
	progress, err = json.Marshal(inv.Progress)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode progress: %w", err)
	}
	if inv.Results != nil {
		results, err = json.Marshal(inv.Results)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("encode results: %w", err)
		}
	}
	return settings, progress, results, nil
}
