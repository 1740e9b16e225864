package planning

import (
	"context"

	"pms/internal/domain/assignment"
)

type StoreAPI interface {
	InTx(ctx context.Context, fn func(StoreAPI) error) error

	KPIByName(ctx context.Context, name string) (KPIRef, error)
	KPIByID(ctx context.Context, id string) (KPIRef, error)
	ScopeForKPI(ctx context.Context, kpiID string) (assignment.Scope, error)

	UpsertPlanValue(ctx context.Context, key PlanKey, kpi KPIRef, userID, column string, value float64, description *string) (string, error)
	FindPlanID(ctx context.Context, key PlanKey) (string, error)
	GetPlan(ctx context.Context, id string) (Plan, error)
	ListPlans(ctx context.Context, q ListQuery) ([]Plan, int, error)
	DeletePlan(ctx context.Context, id string) error

	LockPlan(ctx context.Context, id string) error
	PerformanceValues(ctx context.Context, planID string) (PerformanceValues, error)
	PriorPerformanceYear(ctx context.Context, key PlanKey) (float64, error)
	UpsertPerformance(ctx context.Context, planID string, v PerformanceValues) (string, error)
	GetPerformance(ctx context.Context, id string) (Performance, error)
	ListPerformances(ctx context.Context, q ListQuery) ([]Performance, int, error)
	DeletePerformance(ctx context.Context, id string) error

	MeasureKPI(ctx context.Context, measureID string) (string, error)
	Worker(ctx context.Context, userID string) (WorkerInfo, error)
	LockRollup(ctx context.Context, key RollupKey) error
	UpsertMeasureAssignment(ctx context.Context, in MeasureInput, kpiID string, worker WorkerInfo) (string, error)
	GetMeasureAssignment(ctx context.Context, id string) (MeasureAssignment, error)
	ListMeasureAssignments(ctx context.Context, f MeasureFilter) ([]MeasureAssignment, error)
	DeleteMeasureAssignment(ctx context.Context, id string) error
	QuarterTargets(ctx context.Context, key RollupKey) ([4]float64, error)
	UpsertRollupPlan(ctx context.Context, key PlanKey, kpi KPIRef, userID string, quarters [4]float64, total float64) (string, error)
	SetPlanTargets(ctx context.Context, planID string, quarters [4]float64, total float64) error
	RollupKeys(ctx context.Context, year int) ([]RollupKey, error)
}

var _ StoreAPI = (*Store)(nil)
