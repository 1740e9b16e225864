package catalog

import "context"

type StoreAPI interface {
	ListSectors(ctx context.Context) ([]Sector, error)
	GetSector(ctx context.Context, id string) (Sector, error)
	CreateSector(ctx context.Context, name string) (string, error)
	UpdateSector(ctx context.Context, id, name string) error
	DeleteSector(ctx context.Context, id string) error

	ListSubsectors(ctx context.Context, sectorID string) ([]Subsector, error)
	GetSubsector(ctx context.Context, id string) (Subsector, error)
	CreateSubsector(ctx context.Context, sectorID, name string) (string, error)
	UpdateSubsector(ctx context.Context, id, sectorID, name string) error
	DeleteSubsector(ctx context.Context, id string) error

	ListGoals(ctx context.Context) ([]Goal, error)
	GetGoal(ctx context.Context, id string) (Goal, error)
	CreateGoal(ctx context.Context, description string) (string, error)
	UpdateGoal(ctx context.Context, id, description string) error
	DeleteGoal(ctx context.Context, id string) error

	ListKRAs(ctx context.Context, goalID string) ([]KRA, error)
	GetKRA(ctx context.Context, id string) (KRA, error)
	CreateKRA(ctx context.Context, goalID, name string) (string, error)
	UpdateKRA(ctx context.Context, id, goalID, name string) error
	DeleteKRA(ctx context.Context, id string) error

	ListKPIs(ctx context.Context, kraID, goalID string) ([]KPI, error)
	GetKPI(ctx context.Context, id string) (KPI, error)
	KPIByName(ctx context.Context, name string) (KPI, error)
	CreateKPI(ctx context.Context, kraID, name string) (string, error)
	UpdateKPI(ctx context.Context, id, kraID, name string) error
	DeleteKPI(ctx context.Context, id string) error

	ListMeasures(ctx context.Context, kpiID string) ([]Measure, error)
	GetMeasure(ctx context.Context, id string) (Measure, error)
	CreateMeasure(ctx context.Context, kpiID, name string) (string, error)
	UpdateMeasure(ctx context.Context, id, kpiID, name string) error
	DeleteMeasure(ctx context.Context, id string) error
}

var _ StoreAPI = (*Store)(nil)
