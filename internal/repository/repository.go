package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/roster-service/internal/domain"
)

// DB is the querier shared by pool- and transaction-scoped repositories.
// Both *pgxpool.Pool and pgx.Tx satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// OrganizationRepository handles persistence for organizations.
type OrganizationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	ResetPublication(ctx context.Context, id string) error
}

// OrgUnitRepository handles persistence for hierarchy units.
type OrgUnitRepository interface {
	Create(ctx context.Context, unit *domain.OrgUnit) error
	GetByID(ctx context.Context, id string) (*domain.OrgUnit, error)
	FindByParentAndName(ctx context.Context, orgID string, tier domain.UnitTier, parentID *string, name string) (*domain.OrgUnit, error)
}

// EmployeeRepository handles persistence for roster records.
type EmployeeRepository interface {
	Create(ctx context.Context, emp *domain.Employee) error
	Update(ctx context.Context, emp *domain.Employee) error
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	GetByEmployeeNo(ctx context.Context, orgID, employeeNo string) (*domain.Employee, error)
	ListActiveWithUnits(ctx context.Context, orgID string) ([]domain.EmployeeWithUnits, error)
	// RestoreSnapshot copies a snapshot's denormalized field values back onto
	// the live employee row, including hierarchy references and active flag.
	RestoreSnapshot(ctx context.Context, employeeID string, snap *domain.EmployeeSnapshot) error
}

// HistoryRepository owns the append-only employee history ledger.
type HistoryRepository interface {
	Append(ctx context.Context, snap *domain.EmployeeSnapshot) error
	// CloseCurrent sets valid_to on the employee's open snapshot, if any.
	CloseCurrent(ctx context.Context, employeeID string, at time.Time) error
	// Reopen clears valid_to on a snapshot, making it current again.
	Reopen(ctx context.Context, snapshotID string) error
	// LatestForEmployee returns the newest remaining snapshot by valid_from,
	// open or closed, or nil when the employee has no history left.
	LatestForEmployee(ctx context.Context, employeeID string) (*domain.EmployeeSnapshot, error)
	DeleteByBatch(ctx context.Context, employeeID, batchID string) (int64, error)
	DeleteByEmployee(ctx context.Context, employeeID string) (int64, error)
}

// ChangeLogRepository owns the batch-scoped rollback index.
type ChangeLogRepository interface {
	Append(ctx context.Context, entry *domain.ChangeLogEntry) error
	// ListByBatch returns entries newest first.
	ListByBatch(ctx context.Context, batchID string) ([]domain.ChangeLogEntry, error)
	CountByBatch(ctx context.Context, batchID string) (int, error)
	DeleteByBatch(ctx context.Context, batchID string) (int64, error)
}

// MarkerRepository owns the per-organization pending-import marker.
type MarkerRepository interface {
	Get(ctx context.Context, orgID string) (*domain.ImportMarker, error)
	// Upsert overwrites the marker. When marker.Version > 0 the write is
	// guarded by an optimistic version check and fails with ErrVersionConflict
	// if the stored row moved on.
	Upsert(ctx context.Context, marker *domain.ImportMarker) error
}

// Repositories bundles the repositories bound to one querier, so a service
// can run several of them inside the same transaction.
type Repositories struct {
	Organizations OrganizationRepository
	Units         OrgUnitRepository
	Employees     EmployeeRepository
	History       HistoryRepository
	ChangeLog     ChangeLogRepository
	Markers       MarkerRepository
}

// Tx is the handle passed to transactional closures.
type Tx interface {
	Repos() Repositories
	// Nested runs fn inside a savepoint: a failure rolls back only fn's own
	// writes and leaves the enclosing transaction usable. The import executor
	// relies on this for per-record error tolerance.
	Nested(ctx context.Context, fn func(r Repositories) error) error
}

// TxManager opens transactions and hands out pool-scoped repositories for
// plain reads.
type TxManager interface {
	Repos() Repositories
	WithinTx(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, tx Tx) error) error
}
