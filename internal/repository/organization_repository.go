package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/roster-service/internal/domain"
)

type organizationRepository struct {
	db DB
}

// NewOrganizationRepository instantiates the repository.
func NewOrganizationRepository(db DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	const query = `
        SELECT id, name, publication_status, scheduled_at, published_at, created_at, updated_at
        FROM organizations WHERE id=$1`

	var org domain.Organization
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.PublicationStatus,
		&org.ScheduledAt,
		&org.PublishedAt,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) ResetPublication(ctx context.Context, id string) error {
	const query = `
        UPDATE organizations
        SET publication_status=$1, scheduled_at=NULL, published_at=NULL, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.db.Exec(ctx, query, domain.PublicationDraft, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
