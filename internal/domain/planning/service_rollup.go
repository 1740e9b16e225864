package planning

import (
	"context"
	"errors"
	"fmt"

	"pms/internal/domain/assignment"
	"pms/internal/domain/auth"
)

// AssignMeasure upserts a worker's measure target and re-aggregates the CEO
// plan for the measure's KPI and year. Both happen in one transaction, held
// under a per-KPI-year lock so concurrent roll-ups never read a stale sum.
func (s *Service) AssignMeasure(ctx context.Context, in MeasureInput) (RollupResult, error) {
	if in.Quarter < 1 || in.Quarter > 4 {
		return RollupResult{}, ErrInvalidQuarter
	}
	var result RollupResult
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		kpiID, err := tx.MeasureKPI(ctx, in.MeasureID)
		if err != nil {
			return err
		}
		worker, err := tx.Worker(ctx, in.WorkerID)
		if err != nil {
			return err
		}
		if worker.Role != auth.RoleWorker {
			return ErrNotWorker
		}
		if in.ActorRole == auth.RoleCEO && worker.SubsectorID != in.ActorSub {
			return ErrOutOfScope
		}

		key := RollupKey{KPIID: kpiID, Year: in.Year}
		if err := tx.LockRollup(ctx, key); err != nil {
			return err
		}
		maID, err := tx.UpsertMeasureAssignment(ctx, in, kpiID, worker)
		if err != nil {
			return err
		}
		result, err = recompute(ctx, tx, key, in.ActorID)
		result.MeasureAssignmentID = maID
		return err
	})
	if err != nil {
		return RollupResult{}, err
	}
	return result, nil
}

// recompute re-aggregates all measure targets of key into the CEO plan. With
// an empty userID it only updates an existing plan.
func recompute(ctx context.Context, tx StoreAPI, key RollupKey, userID string) (RollupResult, error) {
	quarters, err := tx.QuarterTargets(ctx, key)
	if err != nil {
		return RollupResult{}, err
	}
	scope, err := tx.ScopeForKPI(ctx, key.KPIID)
	if errors.Is(err, assignment.ErrNotFound) {
		return RollupResult{}, ErrNoKpiAssignment
	}
	if err != nil {
		return RollupResult{}, err
	}
	kpi, err := tx.KPIByID(ctx, key.KPIID)
	if err != nil {
		return RollupResult{}, err
	}

	planKey := PlanKey{
		KPIID:       key.KPIID,
		Year:        key.Year,
		Role:        auth.RoleCEO,
		SectorID:    scope.SectorID,
		SubsectorID: scope.SubsectorID,
	}
	total := SumQuarters(quarters)
	var planID string
	if userID == "" {
		if planID, err = tx.FindPlanID(ctx, planKey); err != nil {
			return RollupResult{}, err
		}
		err = tx.SetPlanTargets(ctx, planID, quarters, total)
	} else {
		planID, err = tx.UpsertRollupPlan(ctx, planKey, kpi, userID, quarters, total)
	}
	if err != nil {
		return RollupResult{}, err
	}
	return RollupResult{PlanID: planID, KPIID: key.KPIID, Year: key.Year, Quarters: quarters, Total: total}, nil
}

// DeleteMeasureAssignment removes one target and re-runs the roll-up it fed.
func (s *Service) DeleteMeasureAssignment(ctx context.Context, actor auth.UserContext, id string) error {
	return s.store.InTx(ctx, func(tx StoreAPI) error {
		ma, err := tx.GetMeasureAssignment(ctx, id)
		if err != nil {
			return err
		}
		if actor.Role == auth.RoleCEO && ma.SubsectorID != actor.SubsectorID {
			return ErrOutOfScope
		}
		key := RollupKey{KPIID: ma.KPIID, Year: ma.Year}
		if err := tx.LockRollup(ctx, key); err != nil {
			return err
		}
		if err := tx.DeleteMeasureAssignment(ctx, id); err != nil {
			return err
		}
		_, err = recompute(ctx, tx, key, actor.UserID)
		if errors.Is(err, ErrNoKpiAssignment) {
			return nil
		}
		return err
	})
}

func (s *Service) ListMeasureAssignments(ctx context.Context, viewer auth.UserContext, f MeasureFilter) ([]MeasureAssignment, error) {
	switch viewer.Role {
	case auth.RoleWorker:
		f.WorkerID = viewer.UserID
	case auth.RoleCEO:
		f.SubsectorID = viewer.SubsectorID
	}
	return s.store.ListMeasureAssignments(ctx, f)
}

// Reconcile recomputes every CEO plan from measure assignments. Keys without
// a KPI assignment or an existing CEO plan are skipped.
func (s *Service) Reconcile(ctx context.Context, year int) (ReconcileReport, error) {
	keys, err := s.store.RollupKeys(ctx, year)
	if err != nil {
		return ReconcileReport{}, err
	}
	var report ReconcileReport
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		err := s.store.InTx(ctx, func(tx StoreAPI) error {
			if err := tx.LockRollup(ctx, key); err != nil {
				return err
			}
			_, err := recompute(ctx, tx, key, "")
			return err
		})
		switch {
		case err == nil:
			report.Recomputed++
		case errors.Is(err, ErrNoKpiAssignment), errors.Is(err, ErrPlanNotFound):
			report.Skipped++
		default:
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s/%d: %v", key.KPIID, key.Year, err))
		}
	}
	return report, nil
}
