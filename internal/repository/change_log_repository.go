package repository

import (
	"context"

	"github.com/spec-kit/roster-service/internal/domain"
)

type changeLogRepository struct {
	db DB
}

// NewChangeLogRepository instantiates the repository.
func NewChangeLogRepository(db DB) ChangeLogRepository {
	return &changeLogRepository{db: db}
}

func (r *changeLogRepository) Append(ctx context.Context, entry *domain.ChangeLogEntry) error {
	const query = `
        INSERT INTO change_log (id, entity_type, entity_id, change_type, batch_id, actor_id, description)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING seq, created_at`

	return r.db.QueryRow(ctx, query,
		entry.ID,
		entry.EntityType,
		entry.EntityID,
		entry.ChangeType,
		entry.BatchID,
		entry.ActorID,
		entry.Description,
	).Scan(&entry.Seq, &entry.CreatedAt)
}

func (r *changeLogRepository) ListByBatch(ctx context.Context, batchID string) ([]domain.ChangeLogEntry, error) {
	// created_at is transaction-stable and identical across a batch; seq is
	// the only ordering that holds within one import.
	const query = `
        SELECT id, seq, entity_type, entity_id, change_type, batch_id, actor_id, description, created_at
        FROM change_log
        WHERE batch_id=$1
        ORDER BY seq DESC`

	rows, err := r.db.Query(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ChangeLogEntry
	for rows.Next() {
		var entry domain.ChangeLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Seq,
			&entry.EntityType,
			&entry.EntityID,
			&entry.ChangeType,
			&entry.BatchID,
			&entry.ActorID,
			&entry.Description,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *changeLogRepository) CountByBatch(ctx context.Context, batchID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM change_log WHERE batch_id=$1`, batchID).Scan(&count)
	return count, err
}

func (r *changeLogRepository) DeleteByBatch(ctx context.Context, batchID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM change_log WHERE batch_id=$1`, batchID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
