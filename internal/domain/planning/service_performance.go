package planning

import (
	"context"

	"pms/internal/domain/approval"
	"pms/internal/domain/auth"
)

// SavePerformance records an actual against the caller's plan. Quarter values
// must not decrease within the year and the yearly figure must not fall below
// the previous year's.
func (s *Service) SavePerformance(ctx context.Context, in WriteInput) (Performance, error) {
	if in.Quarter < 0 || in.Quarter > 4 {
		return Performance{}, ErrInvalidQuarter
	}
	var id string
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		key, _, err := resolveKey(ctx, tx, in)
		if err != nil {
			return err
		}
		planID, err := tx.FindPlanID(ctx, key)
		if err != nil {
			return err
		}
		if err := tx.LockPlan(ctx, planID); err != nil {
			return err
		}
		current, err := tx.PerformanceValues(ctx, planID)
		if err != nil {
			return err
		}
		next, err := ApplyPerformance(current, in.Quarter, in.Value, in.Description)
		if err != nil {
			return err
		}
		prior, err := tx.PriorPerformanceYear(ctx, key)
		if err != nil {
			return err
		}
		if err := CheckYearMonotonic(next.Year, prior); err != nil {
			return err
		}
		id, err = tx.UpsertPerformance(ctx, planID, next)
		return err
	})
	if err != nil {
		return Performance{}, err
	}
	return s.performance(ctx, id)
}

func (s *Service) performance(ctx context.Context, id string) (Performance, error) {
	p, err := s.store.GetPerformance(ctx, id)
	if err != nil {
		return Performance{}, err
	}
	chains, err := s.loadChains(ctx, approval.RecordPerformance, []string{id})
	if err != nil {
		return Performance{}, err
	}
	p.Validation = chains[id]
	return p, nil
}

func (s *Service) GetPerformance(ctx context.Context, viewer auth.UserContext, id string) (Performance, error) {
	p, err := s.performance(ctx, id)
	if err != nil {
		return Performance{}, err
	}
	if !canView(viewer, p.Header) {
		return Performance{}, ErrOutOfScope
	}
	return p, nil
}

func (s *Service) DeletePerformance(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx StoreAPI) error {
		return tx.DeletePerformance(ctx, id)
	})
}
