package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/roster-service/internal/domain"
)

type historyRepository struct {
	db DB
}

// NewHistoryRepository instantiates the repository.
func NewHistoryRepository(db DB) HistoryRepository {
	return &historyRepository{db: db}
}

const snapshotColumns = `
        id, employee_id, valid_from, valid_to, change_type, reason, batch_id, actor_id,
        employee_no, name, name_kana, email, phone,
        position, position_code, grade, grade_code, employment_type, employment_type_code,
        top_unit_id, mid_unit_id, leaf_unit_id, top_unit_name, mid_unit_name, leaf_unit_name,
        active, joined_on, born_on, created_at`

func (r *historyRepository) Append(ctx context.Context, snap *domain.EmployeeSnapshot) error {
	const query = `
        INSERT INTO employee_history (
            id, employee_id, valid_from, valid_to, change_type, reason, batch_id, actor_id,
            employee_no, name, name_kana, email, phone,
            position, position_code, grade, grade_code, employment_type, employment_type_code,
            top_unit_id, mid_unit_id, leaf_unit_id, top_unit_name, mid_unit_name, leaf_unit_name,
            active, joined_on, born_on)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,
                $20,$21,$22,$23,$24,$25,$26,$27,$28)
        RETURNING created_at`

	return r.db.QueryRow(ctx, query,
		snap.ID,
		snap.EmployeeID,
		snap.ValidFrom,
		snap.ValidTo,
		snap.ChangeType,
		snap.Reason,
		snap.BatchID,
		snap.ActorID,
		snap.EmployeeNo,
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
		snap.TopUnitName,
		snap.MidUnitName,
		snap.LeafUnitName,
		snap.Active,
		snap.JoinedOn,
		snap.BornOn,
	).Scan(&snap.CreatedAt)
}

func (r *historyRepository) CloseCurrent(ctx context.Context, employeeID string, at time.Time) error {
	const query = `
        UPDATE employee_history SET valid_to=$1
        WHERE employee_id=$2 AND valid_to IS NULL`

	_, err := r.db.Exec(ctx, query, at, employeeID)
	return err
}

func (r *historyRepository) Reopen(ctx context.Context, snapshotID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE employee_history SET valid_to=NULL WHERE id=$1`, snapshotID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *historyRepository) LatestForEmployee(ctx context.Context, employeeID string) (*domain.EmployeeSnapshot, error) {
	const query = `
        SELECT ` + snapshotColumns + `
        FROM employee_history
        WHERE employee_id=$1
        ORDER BY valid_from DESC, created_at DESC
        LIMIT 1`

	snap, err := r.scanOne(r.db.QueryRow(ctx, query, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return snap, err
}

func (r *historyRepository) DeleteByBatch(ctx context.Context, employeeID, batchID string) (int64, error) {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM employee_history WHERE employee_id=$1 AND batch_id=$2`,
		employeeID, batchID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *historyRepository) DeleteByEmployee(ctx context.Context, employeeID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM employee_history WHERE employee_id=$1`, employeeID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *historyRepository) scanOne(row pgx.Row) (*domain.EmployeeSnapshot, error) {
	var snap domain.EmployeeSnapshot
	if err := row.Scan(
		&snap.ID,
		&snap.EmployeeID,
		&snap.ValidFrom,
		&snap.ValidTo,
		&snap.ChangeType,
		&snap.Reason,
		&snap.BatchID,
		&snap.ActorID,
		&snap.EmployeeNo,
		&snap.Name,
		&snap.NameKana,
		&snap.Email,
		&snap.Phone,
		&snap.Position,
		&snap.PositionCode,
		&snap.Grade,
		&snap.GradeCode,
		&snap.EmploymentType,
		&snap.EmploymentTypeCode,
		&snap.TopUnitID,
		&snap.MidUnitID,
		&snap.LeafUnitID,
		&snap.TopUnitName,
		&snap.MidUnitName,
		&snap.LeafUnitName,
		&snap.Active,
		&snap.JoinedOn,
		&snap.BornOn,
		&snap.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &snap, nil
}
