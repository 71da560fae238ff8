package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/events"
	"github.com/spec-kit/roster-service/internal/repository"
	"github.com/spec-kit/roster-service/pkg/util"
)

// RollbackResult reports what cancelling a pending import undid.
type RollbackResult struct {
	BatchID              string `json:"batch_id"`
	ChangeLogsDeleted    int    `json:"change_logs_deleted"`
	EmployeesAffected    int    `json:"employees_affected"`
	NewEmployeesDeleted  int    `json:"new_employees_deleted"`
	EmployeesRestored    int    `json:"employees_restored"`
	EmployeesReactivated int    `json:"employees_reactivated"`
	Skipped              int    `json:"skipped"`
}

// PendingImport describes the batch currently eligible for rollback, if any.
type PendingImport struct {
	Pending     bool       `json:"pending"`
	BatchID     string     `json:"batch_id,omitempty"`
	ImportedAt  *time.Time `json:"imported_at,omitempty"`
	ImportedBy  string     `json:"imported_by,omitempty"`
	ChangeCount int        `json:"change_count,omitempty"`
}

// RollbackService undoes the most recent import batch of an organization.
// Only the batch named by the pending marker is reversible; a newer import
// overwrites the marker and forecloses rollback of everything before it.
type RollbackService struct {
	tx         repository.TxManager
	lock       ImportLocker
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.ImportConfig
}

// NewRollbackService constructs the service.
func NewRollbackService(cfg config.ImportConfig, deps ImportDependencies) *RollbackService {
	locker := deps.Locker
	if locker == nil {
		locker = NewNoopLocker()
	}
	return &RollbackService{
		tx:         deps.TxManager,
		lock:       locker,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        cfg,
	}
}

// Pending reports whether the organization has a batch eligible for rollback.
func (s *RollbackService) Pending(ctx context.Context, orgID string) (*PendingImport, error) {
	if orgID == "" {
		return nil, util.NewValidationError("organization id is required", nil)
	}
	repos := s.tx.Repos()
	if _, err := repos.Organizations.GetByID(ctx, orgID); err != nil {
		return nil, orgLookupError(orgID, err)
	}

	marker, err := repos.Markers.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if marker == nil || !marker.Pending {
		return &PendingImport{Pending: false}, nil
	}

	count, err := repos.ChangeLog.CountByBatch(ctx, marker.BatchID)
	if err != nil {
		return nil, err
	}
	return &PendingImport{
		Pending:     true,
		BatchID:     marker.BatchID,
		ImportedAt:  marker.ImportedAt,
		ImportedBy:  marker.ImportedBy,
		ChangeCount: count,
	}, nil
}

// Cancel reverses the pending batch inside one transaction. Each touched
// employee is undone according to the oldest change the batch recorded for
// it; employees whose prior state cannot be recovered are skipped and
// reported rather than failing the whole rollback.
func (s *RollbackService) Cancel(ctx context.Context, orgID, actorID string) (*RollbackResult, error) {
	if orgID == "" {
		return nil, util.NewValidationError("organization id is required", nil)
	}
	if _, err := s.tx.Repos().Organizations.GetByID(ctx, orgID); err != nil {
		return nil, orgLookupError(orgID, err)
	}

	release, err := s.lock.Acquire(ctx, orgID)
	if err != nil {
		if errors.Is(err, ErrImportLocked) {
			return nil, util.NewConflict(err.Error(), map[string]any{"organization_id": orgID})
		}
		return nil, err
	}
	defer release()

	result := RollbackResult{}

	// Same deadline isolation as the import itself.
	txCtx := context.WithoutCancel(ctx)

	err = s.tx.WithinTx(txCtx, s.cfg.TxTimeout(), func(ctx context.Context, tx repository.Tx) error {
		repos := tx.Repos()

		marker, err := repos.Markers.Get(ctx, orgID)
		if err != nil {
			return err
		}
		if marker == nil || !marker.Pending {
			return util.NewNotFound("pending import", map[string]any{"organization_id": orgID})
		}
		batchID := marker.BatchID
		result.BatchID = batchID

		entries, err := repos.ChangeLog.ListByBatch(ctx, batchID)
		if err != nil {
			return err
		}

		// Entries arrive newest first. The last entry seen per employee is
		// its oldest change in the batch, which decides the undo strategy:
		// a record both created and updated by the batch must be deleted,
		// not restored.
		oldestByEmployee := make(map[string]domain.HistoryChangeType)
		order := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.EntityType != domain.EntityTypeEmployee {
				continue
			}
			if _, known := oldestByEmployee[entry.EntityID]; !known {
				order = append(order, entry.EntityID)
			}
			oldestByEmployee[entry.EntityID] = entry.ChangeType
		}

		for _, employeeID := range order {
			if err := s.undoEmployee(ctx, repos, employeeID, batchID, oldestByEmployee[employeeID], &result); err != nil {
				return fmt.Errorf("undo employee %s: %w", employeeID, err)
			}
			result.EmployeesAffected++
		}

		deleted, err := repos.ChangeLog.DeleteByBatch(ctx, batchID)
		if err != nil {
			return err
		}
		result.ChangeLogsDeleted = int(deleted)

		if err := repos.Organizations.ResetPublication(ctx, orgID); err != nil {
			return err
		}

		cancelledAt := time.Now().UTC()
		return repos.Markers.Upsert(ctx, &domain.ImportMarker{
			OrganizationID:  orgID,
			Pending:         false,
			ImportedAt:      marker.ImportedAt,
			ImportedBy:      marker.ImportedBy,
			CancelledAt:     &cancelledAt,
			CancelledBy:     actorID,
			OriginalBatchID: batchID,
			Version:         marker.Version,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, util.NewConflict("import marker changed concurrently", map[string]any{"organization_id": orgID})
		}
		return nil, err
	}

	s.logger.Info("roster import cancelled",
		zap.String("organization_id", orgID),
		zap.String("batch_id", result.BatchID),
		zap.Int("change_logs_deleted", result.ChangeLogsDeleted),
		zap.Int("employees_affected", result.EmployeesAffected),
		zap.Int("skipped", result.Skipped))

	s.publish(ctx, events.Event{
		Type:           events.EventImportCancelled,
		OrganizationID: orgID,
		BatchID:        result.BatchID,
		ActorID:        actorID,
		Payload: events.ImportCancelledPayload{
			ChangeLogsDeleted:    result.ChangeLogsDeleted,
			EmployeesAffected:    result.EmployeesAffected,
			NewEmployeesDeleted:  result.NewEmployeesDeleted,
			EmployeesRestored:    result.EmployeesRestored,
			EmployeesReactivated: result.EmployeesReactivated,
			Skipped:              result.Skipped,
		},
	})

	return &result, nil
}

// undoEmployee reverses one employee's batch changes.
func (s *RollbackService) undoEmployee(ctx context.Context, r repository.Repositories, employeeID, batchID string, oldest domain.HistoryChangeType, result *RollbackResult) error {
	switch oldest {
	case domain.ChangeTypeCreate:
		// The batch brought this employee into existence; remove every trace.
		if _, err := r.History.DeleteByEmployee(ctx, employeeID); err != nil {
			return err
		}
		if err := r.Employees.Delete(ctx, employeeID); err != nil {
			return err
		}
		result.NewEmployeesDeleted++
		return nil

	case domain.ChangeTypeRetirement:
		prev, err := s.reopenPrevious(ctx, r, employeeID, batchID)
		if err != nil {
			return err
		}
		if prev == nil {
			s.logger.Warn("rollback skipped employee with no prior history",
				zap.String("employee_id", employeeID),
				zap.String("batch_id", batchID))
			result.Skipped++
			return nil
		}
		result.EmployeesReactivated++
		return nil

	case domain.ChangeTypeUpdate, domain.ChangeTypeTransfer:
		prev, err := s.reopenPrevious(ctx, r, employeeID, batchID)
		if err != nil {
			return err
		}
		if prev == nil {
			s.logger.Warn("rollback skipped employee with no prior history",
				zap.String("employee_id", employeeID),
				zap.String("batch_id", batchID))
			result.Skipped++
			return nil
		}
		result.EmployeesRestored++
		return nil

	default:
		return fmt.Errorf("unknown change type %q", oldest)
	}
}

// reopenPrevious deletes the batch's snapshots for the employee, reopens the
// newest remaining one and copies its state back onto the live row. Returns
// nil when no prior snapshot survives.
func (s *RollbackService) reopenPrevious(ctx context.Context, r repository.Repositories, employeeID, batchID string) (*domain.EmployeeSnapshot, error) {
	if _, err := r.History.DeleteByBatch(ctx, employeeID, batchID); err != nil {
		return nil, err
	}
	prev, err := r.History.LatestForEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, nil
	}
	if err := r.History.Reopen(ctx, prev.ID); err != nil {
		return nil, err
	}
	if err := r.Employees.RestoreSnapshot(ctx, employeeID, prev); err != nil {
		return nil, err
	}
	return prev, nil
}

func (s *RollbackService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func orgLookupError(orgID string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return util.NewNotFound("organization", map[string]any{"organization_id": orgID})
	}
	return err
}
