package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/roster-service/internal/domain"
)

type employeeRepository struct {
	db DB
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(db DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `
        id, organization_id, employee_no, name, name_kana, email, phone,
        position, position_code, grade, grade_code, employment_type, employment_type_code,
        top_unit_id, mid_unit_id, leaf_unit_id, active, joined_on, born_on, created_at, updated_at`

func (r *employeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	const query = `
        INSERT INTO employees (
            id, organization_id, employee_no, name, name_kana, email, phone,
            position, position_code, grade, grade_code, employment_type, employment_type_code,
            top_unit_id, mid_unit_id, leaf_unit_id, active, joined_on, born_on)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
        RETURNING created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		emp.ID,
		emp.OrganizationID,
		emp.EmployeeNo,
		emp.Name,
		emp.NameKana,
		emp.Email,
		emp.Phone,
		emp.Position,
		emp.PositionCode,
		emp.Grade,
		emp.GradeCode,
		emp.EmploymentType,
		emp.EmploymentTypeCode,
		emp.TopUnitID,
		emp.MidUnitID,
		emp.LeafUnitID,
		emp.Active,
		emp.JoinedOn,
		emp.BornOn,
	).Scan(&emp.CreatedAt, &emp.UpdatedAt)
}

func (r *employeeRepository) Update(ctx context.Context, emp *domain.Employee) error {
	const query = `
        UPDATE employees
        SET name=$1, name_kana=$2, email=$3, phone=$4,
            position=$5, position_code=$6, grade=$7, grade_code=$8,
            employment_type=$9, employment_type_code=$10,
            top_unit_id=$11, mid_unit_id=$12, leaf_unit_id=$13,
            active=$14, joined_on=$15, born_on=$16, updated_at=NOW()
        WHERE id=$17`

	cmd, err := r.db.Exec(ctx, query,
		emp.Name,
		emp.NameKana,
		emp.Email,
		emp.Phone,
		emp.Position,
		emp.PositionCode,
		emp.Grade,
		emp.GradeCode,
		emp.EmploymentType,
		emp.EmploymentTypeCode,
		emp.TopUnitID,
		emp.MidUnitID,
		emp.LeafUnitID,
		emp.Active,
		emp.JoinedOn,
		emp.BornOn,
		emp.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE employees SET active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetByEmployeeNo looks up by the stable external identifier, including
// inactive employees so a retired record reappearing in a batch is found.
func (r *employeeRepository) GetByEmployeeNo(ctx context.Context, orgID, employeeNo string) (*domain.Employee, error) {
	const query = `SELECT ` + employeeColumns + ` FROM employees WHERE organization_id=$1 AND employee_no=$2`

	emp, err := r.scanOne(r.db.QueryRow(ctx, query, orgID, employeeNo))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return emp, err
}

func (r *employeeRepository) ListActiveWithUnits(ctx context.Context, orgID string) ([]domain.EmployeeWithUnits, error) {
	const query = `
        SELECT e.id, e.organization_id, e.employee_no, e.name, e.name_kana, e.email, e.phone,
               e.position, e.position_code, e.grade, e.grade_code, e.employment_type, e.employment_type_code,
               e.top_unit_id, e.mid_unit_id, e.leaf_unit_id, e.active, e.joined_on, e.born_on,
               e.created_at, e.updated_at,
               t.name, COALESCE(m.name, ''), COALESCE(l.name, '')
        FROM employees e
        JOIN org_units t ON t.id = e.top_unit_id
        LEFT JOIN org_units m ON m.id = e.mid_unit_id
        LEFT JOIN org_units l ON l.id = e.leaf_unit_id
        WHERE e.organization_id=$1 AND e.active
        ORDER BY e.employee_no`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EmployeeWithUnits
	for rows.Next() {
		var item domain.EmployeeWithUnits
		if err := rows.Scan(
			&item.ID,
			&item.OrganizationID,
			&item.EmployeeNo,
			&item.Name,
			&item.NameKana,
			&item.Email,
			&item.Phone,
			&item.Position,
			&item.PositionCode,
			&item.Grade,
			&item.GradeCode,
			&item.EmploymentType,
			&item.EmploymentTypeCode,
			&item.TopUnitID,
			&item.MidUnitID,
			&item.LeafUnitID,
			&item.Active,
			&item.JoinedOn,
			&item.BornOn,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.TopUnitName,
			&item.MidUnitName,
			&item.LeafUnitName,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *employeeRepository) RestoreSnapshot(ctx context.Context, employeeID string, snap *domain.EmployeeSnapshot) error {
	const query = `
        UPDATE employees
        SET name=$1, name_kana=$2, email=$3, phone=$4,
            position=$5, position_code=$6, grade=$7, grade_code=$8,
            employment_type=$9, employment_type_code=$10,
            top_unit_id=$11, mid_unit_id=$12, leaf_unit_id=$13,
            active=$14, joined_on=$15, born_on=$16, updated_at=NOW()
        WHERE id=$17`

	cmd, err := r.db.Exec(ctx, query,
		snap.Name,
		snap.NameKana,
		snap.Email,
		snap.Phone,
		snap.Position,
		snap.PositionCode,
		snap.Grade,
		snap.GradeCode,
		snap.EmploymentType,
		snap.EmploymentTypeCode,
		snap.TopUnitID,
		snap.MidUnitID,
		snap.LeafUnitID,
		snap.Active,
		snap.JoinedOn,
		snap.BornOn,
		employeeID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) scanOne(row pgx.Row) (*domain.Employee, error) {
	var emp domain.Employee
	if err := row.Scan(
		&emp.ID,
		&emp.OrganizationID,
		&emp.EmployeeNo,
		&emp.Name,
		&emp.NameKana,
		&emp.Email,
		&emp.Phone,
		&emp.Position,
		&emp.PositionCode,
		&emp.Grade,
		&emp.GradeCode,
		&emp.EmploymentType,
		&emp.EmploymentTypeCode,
		&emp.TopUnitID,
		&emp.MidUnitID,
		&emp.LeafUnitID,
		&emp.Active,
		&emp.JoinedOn,
		&emp.BornOn,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &emp, nil
}
