package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/spec-kit/roster-service/internal/domain"
	"github.com/spec-kit/roster-service/internal/repository"
)

// ResolvedUnits carries the unit ids and names a row was placed under.
type ResolvedUnits struct {
	TopID    string
	MidID    *string
	LeafID   *string
	TopName  string
	MidName  string
	LeafName string
}

// HierarchyResolver resolves or creates the Top/Mid/Leaf units referenced by
// incoming rows. The cache is scoped to one import transaction: hundreds of
// rows usually share a handful of units, and looking each one up once is
// enough. Existing units are reused as-is, never renamed.
type HierarchyResolver struct {
	orgID string
	units repository.OrgUnitRepository
	cache map[string]string
}

// NewHierarchyResolver builds a resolver bound to one organization and one
// transaction's unit repository.
func NewHierarchyResolver(orgID string, units repository.OrgUnitRepository) *HierarchyResolver {
	return &HierarchyResolver{
		orgID: orgID,
		units: units,
		cache: make(map[string]string),
	}
}

// Resolve returns the unit ids for a row's placement, creating missing units.
// The Top unit is required; Mid and Leaf are optional, but a Leaf needs a Mid.
func (h *HierarchyResolver) Resolve(ctx context.Context, row domain.ImportRow) (ResolvedUnits, error) {
	var resolved ResolvedUnits

	if row.TopUnit == "" {
		return resolved, fmt.Errorf("row %s: top unit is required", row.EmployeeNo)
	}

	topID, err := h.resolveUnit(ctx, domain.UnitTierTop, nil, row.TopUnit, row.TopUnitCode)
	if err != nil {
		return resolved, err
	}
	resolved.TopID = topID
	resolved.TopName = row.TopUnit

	if row.MidUnit != "" {
		midID, err := h.resolveUnit(ctx, domain.UnitTierMid, &topID, row.MidUnit, "")
		if err != nil {
			return resolved, err
		}
		resolved.MidID = &midID
		resolved.MidName = row.MidUnit

		if row.LeafUnit != "" {
			leafID, err := h.resolveUnit(ctx, domain.UnitTierLeaf, &midID, row.LeafUnit, "")
			if err != nil {
				return resolved, err
			}
			resolved.LeafID = &leafID
			resolved.LeafName = row.LeafUnit
		}
	} else if row.LeafUnit != "" {
		return resolved, fmt.Errorf("row %s: leaf unit %q without a mid unit", row.EmployeeNo, row.LeafUnit)
	}

	return resolved, nil
}

func (h *HierarchyResolver) resolveUnit(ctx context.Context, tier domain.UnitTier, parentID *string, name, shortCode string) (string, error) {
	key := cacheKey(tier, parentID, name)
	if id, ok := h.cache[key]; ok {
		return id, nil
	}

	existing, err := h.units.FindByParentAndName(ctx, h.orgID, tier, parentID, name)
	if err != nil {
		return "", err
	}
	if existing != nil {
		h.cache[key] = existing.ID
		return existing.ID, nil
	}

	unit := &domain.OrgUnit{
		ID:             uuid.NewString(),
		OrganizationID: h.orgID,
		Tier:           tier,
		Name:           name,
		ShortCode:      shortCode,
		ParentID:       parentID,
	}
	if err := h.units.Create(ctx, unit); err != nil {
		return "", err
	}
	h.cache[key] = unit.ID
	return unit.ID, nil
}

func cacheKey(tier domain.UnitTier, parentID *string, name string) string {
	parent := ""
	if parentID != nil {
		parent = *parentID
	}
	return string(tier) + "|" + parent + "|" + name
}
