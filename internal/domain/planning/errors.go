package planning

import "errors"

var (
	ErrKPINotFound               = errors.New("kpi not found")
	ErrHierarchyMismatch         = errors.New("kraId or goalId does not match the KPI")
	ErrSectorUnresolved          = errors.New("sector could not be resolved for this KPI")
	ErrInvalidQuarter            = errors.New("quarter must be between 1 and 4")
	ErrQuarterRegression         = errors.New("quarterly performance must not decrease across quarters")
	ErrYearRegression            = errors.New("performance must not fall below the previous year")
	ErrPlanNotFound              = errors.New("plan not found")
	ErrPerformanceNotFound       = errors.New("performance not found")
	ErrNoKpiAssignment           = errors.New("kpi has no sector assignment")
	ErrMeasureNotFound           = errors.New("measure not found")
	ErrMeasureAssignmentNotFound = errors.New("measure assignment not found")
	ErrWorkerNotFound            = errors.New("worker not found")
	ErrNotWorker                 = errors.New("assignee is not a worker")
	ErrOutOfScope                = errors.New("outside the caller's scope")
	ErrRoleNotPlanner            = errors.New("role cannot own plans")
)
