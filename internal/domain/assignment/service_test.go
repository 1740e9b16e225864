package assignment

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	StoreAPI
	sectors    map[string]bool
	subsectors map[string]string
	kpis       map[string]kpiHierarchy

	inserted    []AssignKPIInput
	byID        map[string]YearRangeInput
	byKey       map[string]YearRangeInput
	nextID      int
	insertedKey map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sectors:     map[string]bool{"s1": true},
		subsectors:  map[string]string{"ss1": "s1"},
		kpis:        map[string]kpiHierarchy{"kpi1": {KRAID: "kra1", GoalID: "goal1"}},
		byID:        map[string]YearRangeInput{},
		byKey:       map[string]YearRangeInput{},
		insertedKey: map[string]bool{},
	}
}

func (f *fakeStore) kpiHierarchy(ctx context.Context, kpiID string) (kpiHierarchy, error) {
	h, ok := f.kpis[kpiID]
	if !ok {
		return h, ErrUnresolved
	}
	return h, nil
}

func (f *fakeStore) sectorExists(ctx context.Context, sectorID string) error {
	if !f.sectors[sectorID] {
		return ErrUnresolved
	}
	return nil
}

func (f *fakeStore) subsectorSector(ctx context.Context, subsectorID string) (string, error) {
	sector, ok := f.subsectors[subsectorID]
	if !ok {
		return "", ErrUnresolved
	}
	return sector, nil
}

func (f *fakeStore) insertKpiAssignment(ctx context.Context, in AssignKPIInput) (string, error) {
	for _, existing := range f.inserted {
		if existing.SectorID == in.SectorID && existing.SubsectorID == in.SubsectorID && existing.KPIID == in.KPIID && existing.KRAID == in.KRAID {
			return "", ErrDuplicate
		}
	}
	f.inserted = append(f.inserted, in)
	return "a1", nil
}

func naturalKey(in YearRangeInput) string {
	return in.SectorID + "|" + in.SubsectorID + "|" + in.KPIID + "|" + in.KRAID + "|" + in.GoalID
}

func (f *fakeStore) updateYearAssignment(ctx context.Context, in YearRangeInput) (bool, error) {
	if _, ok := f.byID[in.ID]; !ok {
		return false, nil
	}
	f.byID[in.ID] = in
	return true, nil
}

func (f *fakeStore) upsertYearAssignment(ctx context.Context, in YearRangeInput) (string, bool, error) {
	key := naturalKey(in)
	if existing, ok := f.byKey[key]; ok {
		in.ID = existing.ID
		f.byKey[key] = in
		f.byID[in.ID] = in
		return in.ID, false, nil
	}
	f.nextID++
	in.ID = "y" + string(rune('0'+f.nextID))
	f.byKey[key] = in
	f.byID[in.ID] = in
	return in.ID, true, nil
}

func TestAssignKPI(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	if _, err := svc.AssignKPI(ctx, AssignKPIInput{SubsectorID: "ss1", KRAID: "kra1", KPIID: "kpi1"}); err != nil {
		t.Fatalf("assign to subsector: %v", err)
	}
	if got := store.inserted[0].SectorID; got != "s1" {
		t.Fatalf("expected parent sector to be recorded, got %q", got)
	}

	if _, err := svc.AssignKPI(ctx, AssignKPIInput{SubsectorID: "ss1", KRAID: "kra1", KPIID: "kpi1"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := svc.AssignKPI(ctx, AssignKPIInput{SectorID: "s1", SubsectorID: "ss1", KRAID: "kra1", KPIID: "kpi1"}); !errors.Is(err, ErrScope) {
		t.Fatalf("expected ErrScope, got %v", err)
	}
	if _, err := svc.AssignKPI(ctx, AssignKPIInput{SectorID: "missing", KRAID: "kra1", KPIID: "kpi1"}); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("expected ErrUnresolved for unknown sector, got %v", err)
	}
	if _, err := svc.AssignKPI(ctx, AssignKPIInput{SectorID: "s1", KRAID: "other", KPIID: "kpi1"}); !errors.Is(err, ErrHierarchyMismatch) {
		t.Fatalf("expected ErrHierarchyMismatch, got %v", err)
	}
	if _, err := svc.AssignKPI(ctx, AssignKPIInput{SectorID: "s1", KRAID: "kra1", KPIID: "nope"}); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("expected ErrUnresolved for unknown KPI, got %v", err)
	}
}

func TestAssignYearRangeUpserts(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	id, created, err := svc.AssignYearRange(ctx, YearRangeInput{SectorID: "s1", KPIID: "kpi1", StartYear: 2024, EndYear: 2026})
	if err != nil || !created {
		t.Fatalf("expected creation, got %q %v %v", id, created, err)
	}
	if store.byID[id].KRAID != "kra1" || store.byID[id].GoalID != "goal1" {
		t.Fatalf("expected KRA and goal derived from KPI, got %+v", store.byID[id])
	}

	again, created, err := svc.AssignYearRange(ctx, YearRangeInput{SectorID: "s1", KPIID: "kpi1", StartYear: 2025, EndYear: 2027})
	if err != nil || created || again != id {
		t.Fatalf("expected natural-key update of %q, got %q %v %v", id, again, created, err)
	}

	byID, created, err := svc.AssignYearRange(ctx, YearRangeInput{ID: id, SectorID: "s1", KPIID: "kpi1", StartYear: 2030, EndYear: 2031})
	if err != nil || created || byID != id || store.byID[id].StartYear != 2030 {
		t.Fatalf("expected update by id, got %q %v %v %+v", byID, created, err, store.byID[id])
	}

	if _, _, err := svc.AssignYearRange(ctx, YearRangeInput{SectorID: "s1", KPIID: "kpi1", StartYear: 2027, EndYear: 2026}); !errors.Is(err, ErrYearRange) {
		t.Fatalf("expected ErrYearRange, got %v", err)
	}
	if _, _, err := svc.AssignYearRange(ctx, YearRangeInput{SectorID: "s2", SubsectorID: "ss1", KPIID: "kpi1", StartYear: 2024, EndYear: 2024}); !errors.Is(err, ErrSubsectorSector) {
		t.Fatalf("expected ErrSubsectorSector, got %v", err)
	}
}
