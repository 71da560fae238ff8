package service

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/repository"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. It keeps
// the same nil-vs-ErrNoRows conventions as the real implementations.
type fakeStore struct {
	orgs      map[string]*domain.Organization
	units     map[string]*domain.OrgUnit
	employees map[string]*domain.Employee
	history   []*domain.EmployeeSnapshot
	changeLog []*domain.ChangeLogEntry
	markers   map[string]*domain.ImportMarker
	seq       int
	logSeq    int64

	afterMarkerGet func()
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		orgs:      map[string]*domain.Organization{},
		units:     map[string]*domain.OrgUnit{},
		employees: map[string]*domain.Employee{},
		markers:   map[string]*domain.ImportMarker{},
	}
	s.orgs["org-1"] = &domain.Organization{
		ID:                "org-1",
		Name:              "Acme Holdings",
		PublicationStatus: domain.PublicationPublished,
	}
	return s
}

func (s *fakeStore) nextTime() time.Time {
	s.seq++
	return time.Date(2025, 1, 1, 0, 0, 0, s.seq, time.UTC)
}

func (s *fakeStore) repos() repository.Repositories {
	return repository.Repositories{
		Organizations: &fakeOrgRepo{s},
		Units:         &fakeUnitRepo{s},
		Employees:     &fakeEmployeeRepo{s},
		History:       &fakeHistoryRepo{s},
		ChangeLog:     &fakeChangeLogRepo{s},
		Markers:       &fakeMarkerRepo{s},
	}
}

// fakeTxManager satisfies repository.TxManager without a database. Nested
// closures run directly; tests exercise per-row failures only through rows
// that fail before any write.
type fakeTxManager struct {
	store *fakeStore
}

func newFakeTxManager(store *fakeStore) *fakeTxManager {
	return &fakeTxManager{store: store}
}

func (m *fakeTxManager) Repos() repository.Repositories {
	return m.store.repos()
}

func (m *fakeTxManager) WithinTx(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, &fakeTx{store: m.store})
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) Repos() repository.Repositories {
	return t.store.repos()
}

func (t *fakeTx) Nested(ctx context.Context, fn func(r repository.Repositories) error) error {
	return fn(t.store.repos())
}

type fakeOrgRepo struct{ s *fakeStore }

func (r *fakeOrgRepo) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	org, ok := r.s.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *org
	return &copied, nil
}

func (r *fakeOrgRepo) ResetPublication(ctx context.Context, id string) error {
	org, ok := r.s.orgs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	org.PublicationStatus = domain.PublicationDraft
	org.ScheduledAt = nil
	org.PublishedAt = nil
	return nil
}

type fakeUnitRepo struct{ s *fakeStore }

func (r *fakeUnitRepo) Create(ctx context.Context, unit *domain.OrgUnit) error {
	copied := *unit
	copied.CreatedAt = r.s.nextTime()
	copied.UpdatedAt = copied.CreatedAt
	r.s.units[unit.ID] = &copied
	return nil
}

func (r *fakeUnitRepo) GetByID(ctx context.Context, id string) (*domain.OrgUnit, error) {
	unit, ok := r.s.units[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *unit
	return &copied, nil
}

func (r *fakeUnitRepo) FindByParentAndName(ctx context.Context, orgID string, tier domain.UnitTier, parentID *string, name string) (*domain.OrgUnit, error) {
	for _, unit := range r.s.units {
		if unit.OrganizationID != orgID || unit.Tier != tier || unit.Name != name {
			continue
		}
		if !samePtr(unit.ParentID, parentID) {
			continue
		}
		copied := *unit
		return &copied, nil
	}
	return nil, nil
}

type fakeEmployeeRepo struct{ s *fakeStore }

func (r *fakeEmployeeRepo) Create(ctx context.Context, emp *domain.Employee) error {
	copied := *emp
	copied.CreatedAt = r.s.nextTime()
	copied.UpdatedAt = copied.CreatedAt
	r.s.employees[emp.ID] = &copied
	return nil
}

func (r *fakeEmployeeRepo) Update(ctx context.Context, emp *domain.Employee) error {
	stored, ok := r.s.employees[emp.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	copied := *emp
	copied.CreatedAt = stored.CreatedAt
	copied.UpdatedAt = r.s.nextTime()
	r.s.employees[emp.ID] = &copied
	return nil
}

func (r *fakeEmployeeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.s.employees[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.employees, id)
	return nil
}

func (r *fakeEmployeeRepo) SetActive(ctx context.Context, id string, active bool) error {
	emp, ok := r.s.employees[id]
	if !ok {
		return pgx.ErrNoRows
	}
	emp.Active = active
	return nil
}

func (r *fakeEmployeeRepo) GetByEmployeeNo(ctx context.Context, orgID, employeeNo string) (*domain.Employee, error) {
	for _, emp := range r.s.employees {
		if emp.OrganizationID == orgID && emp.EmployeeNo == employeeNo {
			copied := *emp
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeEmployeeRepo) ListActiveWithUnits(ctx context.Context, orgID string) ([]domain.EmployeeWithUnits, error) {
	var out []domain.EmployeeWithUnits
	for _, emp := range r.s.employees {
		if emp.OrganizationID != orgID || !emp.Active {
			continue
		}
		out = append(out, domain.EmployeeWithUnits{
			Employee:     *emp,
			TopUnitName:  r.unitName(&emp.TopUnitID),
			MidUnitName:  r.unitName(emp.MidUnitID),
			LeafUnitName: r.unitName(emp.LeafUnitID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeNo < out[j].EmployeeNo })
	return out, nil
}

func (r *fakeEmployeeRepo) RestoreSnapshot(ctx context.Context, employeeID string, snap *domain.EmployeeSnapshot) error {
	emp, ok := r.s.employees[employeeID]
	if !ok {
		return pgx.ErrNoRows
	}
	emp.Name = snap.Name
	emp.NameKana = snap.NameKana
	emp.Email = snap.Email
	emp.Phone = snap.Phone
	emp.Position = snap.Position
	emp.PositionCode = snap.PositionCode
	emp.Grade = snap.Grade
	emp.GradeCode = snap.GradeCode
	emp.EmploymentType = snap.EmploymentType
	emp.EmploymentTypeCode = snap.EmploymentTypeCode
	emp.TopUnitID = snap.TopUnitID
	emp.MidUnitID = snap.MidUnitID
	emp.LeafUnitID = snap.LeafUnitID
	emp.Active = snap.Active
	emp.JoinedOn = snap.JoinedOn
	emp.BornOn = snap.BornOn
	emp.UpdatedAt = r.s.nextTime()
	return nil
}

func (r *fakeEmployeeRepo) unitName(id *string) string {
	if id == nil {
		return ""
	}
	if unit, ok := r.s.units[*id]; ok {
		return unit.Name
	}
	return ""
}

type fakeHistoryRepo struct{ s *fakeStore }

func (r *fakeHistoryRepo) Append(ctx context.Context, snap *domain.EmployeeSnapshot) error {
	copied := *snap
	copied.CreatedAt = r.s.nextTime()
	r.s.history = append(r.s.history, &copied)
	return nil
}

func (r *fakeHistoryRepo) CloseCurrent(ctx context.Context, employeeID string, at time.Time) error {
	for _, snap := range r.s.history {
		if snap.EmployeeID == employeeID && snap.ValidTo == nil {
			closedAt := at
			snap.ValidTo = &closedAt
		}
	}
	return nil
}

func (r *fakeHistoryRepo) Reopen(ctx context.Context, snapshotID string) error {
	for _, snap := range r.s.history {
		if snap.ID == snapshotID {
			snap.ValidTo = nil
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeHistoryRepo) LatestForEmployee(ctx context.Context, employeeID string) (*domain.EmployeeSnapshot, error) {
	var latest *domain.EmployeeSnapshot
	for _, snap := range r.s.history {
		if snap.EmployeeID != employeeID {
			continue
		}
		if latest == nil || snap.ValidFrom.After(latest.ValidFrom) ||
			(snap.ValidFrom.Equal(latest.ValidFrom) && snap.CreatedAt.After(latest.CreatedAt)) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeHistoryRepo) DeleteByBatch(ctx context.Context, employeeID, batchID string) (int64, error) {
	return r.deleteWhere(func(snap *domain.EmployeeSnapshot) bool {
		return snap.EmployeeID == employeeID && snap.BatchID == batchID
	}), nil
}

func (r *fakeHistoryRepo) DeleteByEmployee(ctx context.Context, employeeID string) (int64, error) {
	return r.deleteWhere(func(snap *domain.EmployeeSnapshot) bool {
		return snap.EmployeeID == employeeID
	}), nil
}

func (r *fakeHistoryRepo) deleteWhere(match func(*domain.EmployeeSnapshot) bool) int64 {
	var kept []*domain.EmployeeSnapshot
	var deleted int64
	for _, snap := range r.s.history {
		if match(snap) {
			deleted++
			continue
		}
		kept = append(kept, snap)
	}
	r.s.history = kept
	return deleted
}

type fakeChangeLogRepo struct{ s *fakeStore }

func (r *fakeChangeLogRepo) Append(ctx context.Context, entry *domain.ChangeLogEntry) error {
	r.s.logSeq++
	copied := *entry
	copied.Seq = r.s.logSeq
	// Postgres NOW() is transaction-stable, so every entry of a batch shares
	// one created_at. Mirror that: seq is the only usable ordering.
	copied.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	entry.Seq = copied.Seq
	r.s.changeLog = append(r.s.changeLog, &copied)
	return nil
}

func (r *fakeChangeLogRepo) ListByBatch(ctx context.Context, batchID string) ([]domain.ChangeLogEntry, error) {
	var out []domain.ChangeLogEntry
	for _, entry := range r.s.changeLog {
		if entry.BatchID == batchID {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	return out, nil
}

func (r *fakeChangeLogRepo) CountByBatch(ctx context.Context, batchID string) (int, error) {
	count := 0
	for _, entry := range r.s.changeLog {
		if entry.BatchID == batchID {
			count++
		}
	}
	return count, nil
}

func (r *fakeChangeLogRepo) DeleteByBatch(ctx context.Context, batchID string) (int64, error) {
	var kept []*domain.ChangeLogEntry
	var deleted int64
	for _, entry := range r.s.changeLog {
		if entry.BatchID == batchID {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	r.s.changeLog = kept
	return deleted, nil
}

type fakeMarkerRepo struct{ s *fakeStore }

func (r *fakeMarkerRepo) Get(ctx context.Context, orgID string) (*domain.ImportMarker, error) {
	marker, ok := r.s.markers[orgID]
	if !ok {
		if r.s.afterMarkerGet != nil {
			r.s.afterMarkerGet()
		}
		return nil, nil
	}
	copied := *marker
	// Hook for tests that interleave a competing writer between the read
	// and the guarded upsert.
	if r.s.afterMarkerGet != nil {
		r.s.afterMarkerGet()
	}
	return &copied, nil
}

func (r *fakeMarkerRepo) Upsert(ctx context.Context, marker *domain.ImportMarker) error {
	stored := r.s.markers[marker.OrganizationID]
	if marker.Version > 0 {
		if stored == nil || stored.Version != marker.Version {
			return repository.ErrVersionConflict
		}
	}
	copied := *marker
	if stored != nil {
		copied.Version = stored.Version + 1
	} else {
		copied.Version = 1
	}
	r.s.markers[marker.OrganizationID] = &copied
	marker.Version = copied.Version
	return nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
