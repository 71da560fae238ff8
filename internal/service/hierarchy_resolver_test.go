package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/roster-service/internal/domain"
)

func TestResolveCreatesMissingUnitsOnce(t *testing.T) {
	store := newFakeStore()
	resolver := NewHierarchyResolver("org-1", store.repos().Units)
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, domain.ImportRow{
		EmployeeNo: "A001", TopUnit: "Sales", MidUnit: "East", LeafUnit: "Course1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.TopID)
	require.NotNil(t, first.MidID)
	require.NotNil(t, first.LeafID)
	assert.Len(t, store.units, 3)

	second, err := resolver.Resolve(ctx, domain.ImportRow{
		EmployeeNo: "A002", TopUnit: "Sales", MidUnit: "East",
	})
	require.NoError(t, err)
	assert.Equal(t, first.TopID, second.TopID)
	assert.Equal(t, *first.MidID, *second.MidID)
	assert.Nil(t, second.LeafID)
	assert.Len(t, store.units, 3)
}

func TestResolveReusesPersistedUnits(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	existing := &domain.OrgUnit{
		ID:             "unit-sales",
		OrganizationID: "org-1",
		Tier:           domain.UnitTierTop,
		Name:           "Sales",
	}
	require.NoError(t, store.repos().Units.Create(ctx, existing))

	// A fresh resolver simulates a later import transaction.
	resolver := NewHierarchyResolver("org-1", store.repos().Units)
	resolved, err := resolver.Resolve(ctx, domain.ImportRow{EmployeeNo: "A001", TopUnit: "Sales"})
	require.NoError(t, err)

	assert.Equal(t, "unit-sales", resolved.TopID)
	assert.Len(t, store.units, 1)
}

func TestResolveDistinguishesSameNameUnderDifferentParents(t *testing.T) {
	store := newFakeStore()
	resolver := NewHierarchyResolver("org-1", store.repos().Units)
	ctx := context.Background()

	a, err := resolver.Resolve(ctx, domain.ImportRow{EmployeeNo: "A001", TopUnit: "Sales", MidUnit: "Planning"})
	require.NoError(t, err)
	b, err := resolver.Resolve(ctx, domain.ImportRow{EmployeeNo: "A002", TopUnit: "HR", MidUnit: "Planning"})
	require.NoError(t, err)

	assert.NotEqual(t, *a.MidID, *b.MidID)
	assert.Len(t, store.units, 4)
}

func TestResolveRequiresTopUnit(t *testing.T) {
	store := newFakeStore()
	resolver := NewHierarchyResolver("org-1", store.repos().Units)

	_, err := resolver.Resolve(context.Background(), domain.ImportRow{EmployeeNo: "A001"})
	require.Error(t, err)
}

func TestResolveRejectsLeafWithoutMid(t *testing.T) {
	store := newFakeStore()
	resolver := NewHierarchyResolver("org-1", store.repos().Units)

	_, err := resolver.Resolve(context.Background(), domain.ImportRow{
		EmployeeNo: "A001", TopUnit: "Sales", LeafUnit: "Course1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a mid unit")
}
