package domain

import "time"

// UnitTier identifies the level of an organizational unit.
type UnitTier string

const (
	UnitTierTop  UnitTier = "TOP"
	UnitTierMid  UnitTier = "MID"
	UnitTierLeaf UnitTier = "LEAF"
)

// OrgUnit is one node of the three-tier hierarchy (department/section/course).
// Units are created on first reference during import and never deleted by the
// import path. A Leaf's parent is a Mid, a Mid's parent is a Top.
type OrgUnit struct {
	ID                string
	OrganizationID    string
	Tier              UnitTier
	Name              string
	ShortCode         string
	ParentID          *string
	ManagerEmployeeID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
