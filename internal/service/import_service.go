package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/events"
	"github.com/spec-kit/roster-service/internal/repository"
	"github.com/spec-kit/roster-service/pkg/util"
)

// ImportOptions are the per-run flags of an import.
type ImportOptions struct {
	MarkMissingAsRetired bool
}

// ImportStatistics counts what one batch did. Errors counts rows that failed
// per-record processing and were skipped; they never abort the batch.
type ImportStatistics struct {
	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Transferred int `json:"transferred"`
	Retired     int `json:"retired"`
	Errors      int `json:"errors"`
}

// ImportResult is the outcome of an executed import.
type ImportResult struct {
	BatchID    string           `json:"batch_id"`
	Statistics ImportStatistics `json:"statistics"`
}

// ImportService coordinates the diff preview and the transactional import of
// a roster batch.
type ImportService struct {
	tx         repository.TxManager
	lock       ImportLocker
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.ImportConfig
	dedup      *Deduplicator
	diff       *DiffEngine
}

// ImportDependencies bundles collaborators for the import service.
type ImportDependencies struct {
	TxManager  repository.TxManager
	Locker     ImportLocker
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewImportService constructs the service.
func NewImportService(cfg config.ImportConfig, deps ImportDependencies) *ImportService {
	locker := deps.Locker
	if locker == nil {
		locker = NewNoopLocker()
	}
	return &ImportService{
		tx:         deps.TxManager,
		lock:       locker,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        cfg,
		dedup:      NewDeduplicator(cfg.AdvisoryUnit),
		diff:       NewDiffEngine(),
	}
}

// Preview classifies a batch against the persisted roster without mutating
// anything. Safe to call repeatedly; the result goes stale the moment another
// import commits.
func (s *ImportService) Preview(ctx context.Context, orgID string, rows []domain.ImportRow) (*PreviewResult, error) {
	if err := validateBatch(orgID, rows); err != nil {
		return nil, err
	}

	repos := s.tx.Repos()
	if _, err := s.getOrganization(ctx, repos, orgID); err != nil {
		return nil, err
	}

	deduped, exclusions := s.dedup.Apply(rows)

	roster, err := repos.Employees.ListActiveWithUnits(ctx, orgID)
	if err != nil {
		return nil, err
	}

	result := s.diff.Classify(deduped, roster)
	result.ExcludedDuplicates = exclusions
	result.Summary.Excluded = len(exclusions)
	return &result, nil
}

// Execute applies a batch inside one transaction stamped with one batch id.
// Either every surviving mutation commits together or none does; individual
// row failures are rolled back to a savepoint, counted, and skipped.
func (s *ImportService) Execute(ctx context.Context, orgID string, rows []domain.ImportRow, opts ImportOptions, actorID string) (*ImportResult, error) {
	if err := validateBatch(orgID, rows); err != nil {
		return nil, err
	}
	if _, err := s.getOrganization(ctx, s.tx.Repos(), orgID); err != nil {
		return nil, err
	}

	release, err := s.lock.Acquire(ctx, orgID)
	if err != nil {
		if errors.Is(err, ErrImportLocked) {
			return nil, util.NewConflict(err.Error(), map[string]any{"organization_id": orgID})
		}
		return nil, err
	}
	defer release()

	batchID := uuid.NewString()
	now := time.Now().UTC()
	stats := ImportStatistics{}

	// The batch runs under its own deadline. A client disconnect must not
	// abort a half-applied transaction out from under the savepoint loop.
	txCtx := context.WithoutCancel(ctx)

	err = s.tx.WithinTx(txCtx, s.cfg.TxTimeout(), func(ctx context.Context, tx repository.Tx) error {
		repos := tx.Repos()

		deduped, _ := s.dedup.Apply(rows)

		rosterBefore, err := repos.Employees.ListActiveWithUnits(ctx, orgID)
		if err != nil {
			return err
		}
		unitNamesByNo := make(map[string][3]string, len(rosterBefore))
		for _, emp := range rosterBefore {
			unitNamesByNo[emp.EmployeeNo] = [3]string{emp.TopUnitName, emp.MidUnitName, emp.LeafUnitName}
		}

		resolver := NewHierarchyResolver(orgID, repos.Units)
		seen := make(map[string]bool, len(deduped))

		for i := range deduped {
			row := deduped[i]
			// A failed row still counts as present: the retirement pass must
			// not retire an employee because their row errored.
			if row.EmployeeNo != "" {
				seen[row.EmployeeNo] = true
			}
			if err := validateRow(row); err != nil {
				stats.Errors++
				s.logger.Warn("import row rejected",
					zap.String("batch_id", batchID),
					zap.String("employee_no", row.EmployeeNo),
					zap.Error(err))
				continue
			}
			err := tx.Nested(ctx, func(r repository.Repositories) error {
				return s.processRow(ctx, r, resolver, orgID, batchID, actorID, now, row, &stats)
			})
			if err != nil {
				stats.Errors++
				s.logger.Warn("import row failed",
					zap.String("batch_id", batchID),
					zap.String("employee_no", row.EmployeeNo),
					zap.Error(err))
			}
		}

		if opts.MarkMissingAsRetired {
			for i := range rosterBefore {
				emp := rosterBefore[i]
				if seen[emp.EmployeeNo] {
					continue
				}
				names := unitNamesByNo[emp.EmployeeNo]
				if err := s.retireEmployee(ctx, repos, &emp.Employee, names, batchID, actorID, now); err != nil {
					return err
				}
				stats.Retired++
			}
		}

		summary := &domain.ChangeLogEntry{
			ID:         uuid.NewString(),
			EntityType: domain.EntityTypeImport,
			EntityID:   batchID,
			ChangeType: domain.ChangeTypeImportSummary,
			BatchID:    batchID,
			ActorID:    actorID,
			Description: fmt.Sprintf("roster import: %d created, %d updated, %d transferred, %d retired, %d errors",
				stats.Created, stats.Updated, stats.Transferred, stats.Retired, stats.Errors),
		}
		if err := repos.ChangeLog.Append(ctx, summary); err != nil {
			return err
		}

		marker, err := repos.Markers.Get(ctx, orgID)
		if err != nil {
			return err
		}
		version := 0
		if marker != nil {
			version = marker.Version
		}
		importedAt := now
		return repos.Markers.Upsert(ctx, &domain.ImportMarker{
			OrganizationID: orgID,
			Pending:        true,
			BatchID:        batchID,
			ImportedAt:     &importedAt,
			ImportedBy:     actorID,
			Version:        version,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, util.NewConflict("import marker changed concurrently", map[string]any{"organization_id": orgID})
		}
		return nil, err
	}

	s.logger.Info("roster import committed",
		zap.String("organization_id", orgID),
		zap.String("batch_id", batchID),
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("transferred", stats.Transferred),
		zap.Int("retired", stats.Retired),
		zap.Int("errors", stats.Errors))

	s.publish(ctx, events.Event{
		Type:           events.EventImportApplied,
		OrganizationID: orgID,
		BatchID:        batchID,
		ActorID:        actorID,
		Payload: events.ImportAppliedPayload{
			Created:     stats.Created,
			Updated:     stats.Updated,
			Transferred: stats.Transferred,
			Retired:     stats.Retired,
			Errors:      stats.Errors,
		},
	})

	return &ImportResult{BatchID: batchID, Statistics: stats}, nil
}

// processRow upserts one deduplicated record and its ledger rows.
func (s *ImportService) processRow(ctx context.Context, r repository.Repositories, resolver *HierarchyResolver, orgID, batchID, actorID string, now time.Time, row domain.ImportRow, stats *ImportStatistics) error {
	units, err := resolver.Resolve(ctx, row)
	if err != nil {
		return err
	}

	existing, err := r.Employees.GetByEmployeeNo(ctx, orgID, row.EmployeeNo)
	if err != nil {
		return err
	}

	if existing == nil {
		emp := employeeFromRow(orgID, row, units)
		emp.ID = uuid.NewString()
		emp.Active = true
		if err := r.Employees.Create(ctx, emp); err != nil {
			return err
		}
		snap := snapshotOf(emp, units.TopName, units.MidName, units.LeafName, domain.ChangeTypeCreate, "created by roster import", batchID, actorID, now)
		if err := r.History.Append(ctx, snap); err != nil {
			return err
		}
		if err := appendEmployeeLog(ctx, r, emp, domain.ChangeTypeCreate, batchID, actorID, "created by roster import"); err != nil {
			return err
		}
		stats.Created++
		return nil
	}

	transferred := existing.TopUnitID != units.TopID ||
		!ptrEqual(existing.MidUnitID, units.MidID) ||
		!ptrEqual(existing.LeafUnitID, units.LeafID)
	deltas := FieldDeltas(existing, &row)

	if !transferred && len(deltas) == 0 && existing.Active {
		// Unchanged: no mutation, no snapshot.
		return nil
	}

	if err := r.History.CloseCurrent(ctx, existing.ID, now); err != nil {
		return err
	}

	applyRow(existing, row, units)
	existing.Active = true
	if err := r.Employees.Update(ctx, existing); err != nil {
		return err
	}

	changeType := domain.ChangeTypeUpdate
	reason := "updated by roster import"
	if transferred {
		changeType = domain.ChangeTypeTransfer
		reason = "transferred by roster import"
	}
	snap := snapshotOf(existing, units.TopName, units.MidName, units.LeafName, changeType, reason, batchID, actorID, now)
	if err := r.History.Append(ctx, snap); err != nil {
		return err
	}
	if err := appendEmployeeLog(ctx, r, existing, changeType, batchID, actorID, reason); err != nil {
		return err
	}

	if transferred {
		stats.Transferred++
	} else {
		stats.Updated++
	}
	return nil
}

// retireEmployee soft-retires an active employee absent from the batch.
func (s *ImportService) retireEmployee(ctx context.Context, r repository.Repositories, emp *domain.Employee, unitNames [3]string, batchID, actorID string, now time.Time) error {
	if err := r.History.CloseCurrent(ctx, emp.ID, now); err != nil {
		return err
	}
	if err := r.Employees.SetActive(ctx, emp.ID, false); err != nil {
		return err
	}
	emp.Active = false
	snap := snapshotOf(emp, unitNames[0], unitNames[1], unitNames[2], domain.ChangeTypeRetirement, "absent from roster import", batchID, actorID, now)
	if err := r.History.Append(ctx, snap); err != nil {
		return err
	}
	return appendEmployeeLog(ctx, r, emp, domain.ChangeTypeRetirement, batchID, actorID, "retired: absent from roster import")
}

func (s *ImportService) getOrganization(ctx context.Context, repos repository.Repositories, orgID string) (*domain.Organization, error) {
	org, err := repos.Organizations.GetByID(ctx, orgID)
	if err != nil {
		return nil, orgLookupError(orgID, err)
	}
	return org, nil
}

func (s *ImportService) publish(ctx context.Context, event events.Event) {
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

func validateBatch(orgID string, rows []domain.ImportRow) error {
	if orgID == "" {
		return util.NewValidationError("organization id is required", nil)
	}
	if len(rows) == 0 {
		return util.NewValidationError("import batch is empty", nil)
	}
	return nil
}

func validateRow(row domain.ImportRow) error {
	if row.EmployeeNo == "" {
		return errors.New("employee number is required")
	}
	if row.Name == "" {
		return fmt.Errorf("row %s: name is required", row.EmployeeNo)
	}
	if row.TopUnit == "" {
		return fmt.Errorf("row %s: top unit is required", row.EmployeeNo)
	}
	return nil
}

func employeeFromRow(orgID string, row domain.ImportRow, units ResolvedUnits) *domain.Employee {
	emp := &domain.Employee{
		OrganizationID: orgID,
		EmployeeNo:     row.EmployeeNo,
	}
	applyRow(emp, row, units)
	return emp
}

func applyRow(emp *domain.Employee, row domain.ImportRow, units ResolvedUnits) {
	emp.Name = row.Name
	emp.NameKana = row.NameKana
	emp.Email = row.Email
	emp.Phone = row.Phone
	emp.Position = row.Position
	emp.PositionCode = row.PositionCode
	emp.Grade = row.Grade
	emp.GradeCode = row.GradeCode
	emp.EmploymentType = row.EmploymentType
	emp.EmploymentTypeCode = row.EmploymentTypeCode
	emp.TopUnitID = units.TopID
	emp.MidUnitID = units.MidID
	emp.LeafUnitID = units.LeafID
	emp.JoinedOn = row.JoinedOn
	emp.BornOn = row.BornOn
}

// snapshotOf copies the employee's state at this instant into an open ledger
// row (valid_to stays nil until the next mutation closes it).
func snapshotOf(emp *domain.Employee, topName, midName, leafName string, changeType domain.HistoryChangeType, reason, batchID, actorID string, validFrom time.Time) *domain.EmployeeSnapshot {
	return &domain.EmployeeSnapshot{
		ID:                 uuid.NewString(),
		EmployeeID:         emp.ID,
		ValidFrom:          validFrom,
		ChangeType:         changeType,
		Reason:             reason,
		BatchID:            batchID,
		ActorID:            actorID,
		EmployeeNo:         emp.EmployeeNo,
		Name:               emp.Name,
		NameKana:           emp.NameKana,
		Email:              emp.Email,
		Phone:              emp.Phone,
		Position:           emp.Position,
		PositionCode:       emp.PositionCode,
		Grade:              emp.Grade,
		GradeCode:          emp.GradeCode,
		EmploymentType:     emp.EmploymentType,
		EmploymentTypeCode: emp.EmploymentTypeCode,
		TopUnitID:          emp.TopUnitID,
		MidUnitID:          emp.MidUnitID,
		LeafUnitID:         emp.LeafUnitID,
		TopUnitName:        topName,
		MidUnitName:        midName,
		LeafUnitName:       leafName,
		Active:             emp.Active,
		JoinedOn:           emp.JoinedOn,
		BornOn:             emp.BornOn,
	}
}

func appendEmployeeLog(ctx context.Context, r repository.Repositories, emp *domain.Employee, changeType domain.HistoryChangeType, batchID, actorID, description string) error {
	return r.ChangeLog.Append(ctx, &domain.ChangeLogEntry{
		ID:          uuid.NewString(),
		EntityType:  domain.EntityTypeEmployee,
		EntityID:    emp.ID,
		ChangeType:  changeType,
		BatchID:     batchID,
		ActorID:     actorID,
		Description: description + " (" + emp.EmployeeNo + ")",
	})
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
