package assignment

import "strings"

// ValidateScope enforces that a KPI assignment names a sector or a subsector,
// never both and never neither.
func ValidateScope(sectorID, subsectorID string) error {
	hasSector := strings.TrimSpace(sectorID) != ""
	hasSubsector := strings.TrimSpace(subsectorID) != ""
	if hasSector == hasSubsector {
		return ErrScope
	}
	return nil
}

func ValidateYearRange(start, end int) error {
	if start > end {
		return ErrYearRange
	}
	return nil
}

// checkHierarchy compares caller supplied KRA and goal ids against the KPI's
// own. Empty values are filled in from the KPI.
func checkHierarchy(h kpiHierarchy, kraID, goalID string) (string, string, error) {
	if kraID == "" {
		kraID = h.KRAID
	}
	if goalID == "" {
		goalID = h.GoalID
	}
	if kraID != h.KRAID || goalID != h.GoalID {
		return "", "", ErrHierarchyMismatch
	}
	return kraID, goalID, nil
}
