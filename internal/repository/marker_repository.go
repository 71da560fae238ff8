package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/roster-service/internal/domain"
)

// ErrVersionConflict reports that a marker write lost an optimistic
// concurrency check against a concurrent import or rollback.
var ErrVersionConflict = errors.New("import marker version conflict")

type markerRepository struct {
	db DB
}

// NewMarkerRepository instantiates the repository.
func NewMarkerRepository(db DB) MarkerRepository {
	return &markerRepository{db: db}
}

func (r *markerRepository) Get(ctx context.Context, orgID string) (*domain.ImportMarker, error) {
	const query = `
        SELECT organization_id, pending, batch_id, imported_at, imported_by,
               cancelled_at, cancelled_by, original_batch_id, version
        FROM import_markers WHERE organization_id=$1`

	var marker domain.ImportMarker
	err := r.db.QueryRow(ctx, query, orgID).Scan(
		&marker.OrganizationID,
		&marker.Pending,
		&marker.BatchID,
		&marker.ImportedAt,
		&marker.ImportedBy,
		&marker.CancelledAt,
		&marker.CancelledBy,
		&marker.OriginalBatchID,
		&marker.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &marker, nil
}

func (r *markerRepository) Upsert(ctx context.Context, marker *domain.ImportMarker) error {
	if marker.Version > 0 {
		const query = `
            UPDATE import_markers
            SET pending=$1, batch_id=$2, imported_at=$3, imported_by=$4,
                cancelled_at=$5, cancelled_by=$6, original_batch_id=$7, version=version+1
            WHERE organization_id=$8 AND version=$9`

		cmd, err := r.db.Exec(ctx, query,
			marker.Pending,
			marker.BatchID,
			marker.ImportedAt,
			marker.ImportedBy,
			marker.CancelledAt,
			marker.CancelledBy,
			marker.OriginalBatchID,
			marker.OrganizationID,
			marker.Version,
		)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		marker.Version++
		return nil
	}

	const query = `
        INSERT INTO import_markers (organization_id, pending, batch_id, imported_at, imported_by,
                                    cancelled_at, cancelled_by, original_batch_id, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,1)
        ON CONFLICT (organization_id) DO UPDATE SET
            pending=excluded.pending,
            batch_id=excluded.batch_id,
            imported_at=excluded.imported_at,
            imported_by=excluded.imported_by,
            cancelled_at=excluded.cancelled_at,
            cancelled_by=excluded.cancelled_by,
            original_batch_id=excluded.original_batch_id,
            version=import_markers.version+1`

	_, err := r.db.Exec(ctx, query,
		marker.OrganizationID,
		marker.Pending,
		marker.BatchID,
		marker.ImportedAt,
		marker.ImportedBy,
		marker.CancelledAt,
		marker.CancelledBy,
		marker.OriginalBatchID,
	)
	return err
}
