package assignment

import "context"

type StoreAPI interface {
	kpiHierarchy(ctx context.Context, kpiID string) (kpiHierarchy, error)
	sectorExists(ctx context.Context, sectorID string) error
	subsectorSector(ctx context.Context, subsectorID string) (string, error)
	insertKpiAssignment(ctx context.Context, in AssignKPIInput) (string, error)
	updateYearAssignment(ctx context.Context, in YearRangeInput) (bool, error)
	upsertYearAssignment(ctx context.Context, in YearRangeInput) (string, bool, error)

	ScopeForKPI(ctx context.Context, kpiID string) (Scope, error)
	GetKpiAssignment(ctx context.Context, id string) (KpiAssignment, error)
	ListKpiAssignments(ctx context.Context, f Filter) ([]KpiAssignment, error)
	DeleteKpiAssignment(ctx context.Context, id string) error
	GetYearAssignment(ctx context.Context, id string) (KpiYearAssignment, error)
	ListYearAssignments(ctx context.Context, f Filter) ([]KpiYearAssignment, error)
	DeleteYearAssignment(ctx context.Context, id string) error
}

var _ StoreAPI = (*Store)(nil)
