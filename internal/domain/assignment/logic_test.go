package assignment

import (
	"errors"
	"testing"
)

func TestValidateScope(t *testing.T) {
	tests := []struct {
		name        string
		sectorID    string
		subsectorID string
		wantErr     bool
	}{
		{name: "sector only", sectorID: "s1"},
		{name: "subsector only", subsectorID: "ss1"},
		{name: "both", sectorID: "s1", subsectorID: "ss1", wantErr: true},
		{name: "neither", wantErr: true},
		{name: "blank strings count as missing", sectorID: "  ", subsectorID: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateScope(tc.sectorID, tc.subsectorID)
			if tc.wantErr && !errors.Is(err, ErrScope) {
				t.Fatalf("expected ErrScope, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateYearRange(t *testing.T) {
	if err := ValidateYearRange(2024, 2024); err != nil {
		t.Fatalf("equal years must be accepted: %v", err)
	}
	if err := ValidateYearRange(2024, 2026); err != nil {
		t.Fatalf("ascending years must be accepted: %v", err)
	}
	if err := ValidateYearRange(2026, 2024); !errors.Is(err, ErrYearRange) {
		t.Fatalf("expected ErrYearRange, got %v", err)
	}
}

func TestCheckHierarchy(t *testing.T) {
	h := kpiHierarchy{KRAID: "kra", GoalID: "goal"}
	kra, goal, err := checkHierarchy(h, "", "")
	if err != nil || kra != "kra" || goal != "goal" {
		t.Fatalf("expected derived ids, got %q %q %v", kra, goal, err)
	}
	if _, _, err := checkHierarchy(h, "kra", "other"); !errors.Is(err, ErrHierarchyMismatch) {
		t.Fatalf("expected ErrHierarchyMismatch, got %v", err)
	}
}
