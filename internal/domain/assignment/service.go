package assignment

import (
	"context"
	"strings"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// AssignKPI binds a KPI to a sector or a subsector. A subsector assignment
// records the subsector's parent sector as well.
func (s *Service) AssignKPI(ctx context.Context, in AssignKPIInput) (string, error) {
	in.SectorID = strings.TrimSpace(in.SectorID)
	in.SubsectorID = strings.TrimSpace(in.SubsectorID)
	if err := ValidateScope(in.SectorID, in.SubsectorID); err != nil {
		return "", err
	}

	if in.SubsectorID != "" {
		sectorID, err := s.store.subsectorSector(ctx, in.SubsectorID)
		if err != nil {
			return "", err
		}
		in.SectorID = sectorID
	} else if err := s.store.sectorExists(ctx, in.SectorID); err != nil {
		return "", err
	}

	h, err := s.store.kpiHierarchy(ctx, in.KPIID)
	if err != nil {
		return "", err
	}
	if h.KRAID != in.KRAID {
		return "", ErrHierarchyMismatch
	}
	return s.store.insertKpiAssignment(ctx, in)
}

// AssignYearRange upserts a KPI's valid year range: by id when the id names
// an existing row, otherwise by (sector, subsector, kpi, kra, goal). It
// reports whether a new row was created.
func (s *Service) AssignYearRange(ctx context.Context, in YearRangeInput) (string, bool, error) {
	if err := ValidateYearRange(in.StartYear, in.EndYear); err != nil {
		return "", false, err
	}
	in.SectorID = strings.TrimSpace(in.SectorID)
	in.SubsectorID = strings.TrimSpace(in.SubsectorID)

	if in.SubsectorID != "" {
		parent, err := s.store.subsectorSector(ctx, in.SubsectorID)
		if err != nil {
			return "", false, err
		}
		if in.SectorID != "" && in.SectorID != parent {
			return "", false, ErrSubsectorSector
		}
		in.SectorID = parent
	} else if in.SectorID == "" {
		return "", false, ErrScope
	} else if err := s.store.sectorExists(ctx, in.SectorID); err != nil {
		return "", false, err
	}

	h, err := s.store.kpiHierarchy(ctx, in.KPIID)
	if err != nil {
		return "", false, err
	}
	if in.KRAID, in.GoalID, err = checkHierarchy(h, in.KRAID, in.GoalID); err != nil {
		return "", false, err
	}

	if in.ID != "" {
		updated, err := s.store.updateYearAssignment(ctx, in)
		if err != nil {
			return "", false, err
		}
		if updated {
			return in.ID, false, nil
		}
	}
	return s.store.upsertYearAssignment(ctx, in)
}

func (s *Service) ScopeForKPI(ctx context.Context, kpiID string) (Scope, error) {
	return s.store.ScopeForKPI(ctx, kpiID)
}

func (s *Service) GetKpiAssignment(ctx context.Context, id string) (KpiAssignment, error) {
	return s.store.GetKpiAssignment(ctx, id)
}

func (s *Service) ListKpiAssignments(ctx context.Context, f Filter) ([]KpiAssignment, error) {
	return s.store.ListKpiAssignments(ctx, f)
}

func (s *Service) DeleteKpiAssignment(ctx context.Context, id string) error {
	return s.store.DeleteKpiAssignment(ctx, id)
}

func (s *Service) GetYearAssignment(ctx context.Context, id string) (KpiYearAssignment, error) {
	return s.store.GetYearAssignment(ctx, id)
}

func (s *Service) ListYearAssignments(ctx context.Context, f Filter) ([]KpiYearAssignment, error) {
	return s.store.ListYearAssignments(ctx, f)
}

func (s *Service) DeleteYearAssignment(ctx context.Context, id string) error {
	return s.store.DeleteYearAssignment(ctx, id)
}
