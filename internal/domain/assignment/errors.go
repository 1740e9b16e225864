package assignment

import "errors"

var (
	ErrScope             = errors.New("exactly one of sectorId or subsectorId is required")
	ErrUnresolved        = errors.New("referenced sector, subsector, KRA or KPI does not exist")
	ErrHierarchyMismatch = errors.New("KPI does not belong to the given KRA or goal")
	ErrSubsectorSector   = errors.New("subsector does not belong to the given sector")
	ErrYearRange         = errors.New("startYear must be less than or equal to endYear")
	ErrDuplicate         = errors.New("assignment already exists")
	ErrNotFound          = errors.New("assignment not found")
)
