package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/roster-service/internal/domain"
)

type orgUnitRepository struct {
	db DB
}

// NewOrgUnitRepository instantiates the repository.
func NewOrgUnitRepository(db DB) OrgUnitRepository {
	return &orgUnitRepository{db: db}
}

const orgUnitColumns = `id, organization_id, tier, name, short_code, parent_id, manager_employee_id, created_at, updated_at`

func (r *orgUnitRepository) Create(ctx context.Context, unit *domain.OrgUnit) error {
	const query = `
        INSERT INTO org_units (id, organization_id, tier, name, short_code, parent_id, manager_employee_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		unit.ID,
		unit.OrganizationID,
		unit.Tier,
		unit.Name,
		unit.ShortCode,
		unit.ParentID,
		unit.ManagerEmployeeID,
	).Scan(&unit.CreatedAt, &unit.UpdatedAt)
}

func (r *orgUnitRepository) GetByID(ctx context.Context, id string) (*domain.OrgUnit, error) {
	const query = `SELECT ` + orgUnitColumns + ` FROM org_units WHERE id=$1`

	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *orgUnitRepository) FindByParentAndName(ctx context.Context, orgID string, tier domain.UnitTier, parentID *string, name string) (*domain.OrgUnit, error) {
	const query = `
        SELECT ` + orgUnitColumns + `
        FROM org_units
        WHERE organization_id=$1 AND tier=$2 AND name=$3
          AND parent_id IS NOT DISTINCT FROM $4`

	unit, err := r.scanOne(r.db.QueryRow(ctx, query, orgID, tier, name, parentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return unit, err
}

func (r *orgUnitRepository) scanOne(row pgx.Row) (*domain.OrgUnit, error) {
	var unit domain.OrgUnit
	if err := row.Scan(
		&unit.ID,
		&unit.OrganizationID,
		&unit.Tier,
		&unit.Name,
		&unit.ShortCode,
		&unit.ParentID,
		&unit.ManagerEmployeeID,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &unit, nil
}
