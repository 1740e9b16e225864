package planning

import (
	"context"

	"pms/internal/domain/approval"
	"pms/internal/domain/auth"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// BuildListQuery routes a list request by the viewer's role. Approval stages
// see a bucket only once the previous stage approved it, limited to their own
// subsector (CEO) or sector (Chief CEO). Workers see their own rows.
func BuildListQuery(viewer auth.UserContext, f ListFilter) (ListQuery, error) {
	q := ListQuery{
		Year:   f.Year,
		Role:   f.Role,
		KPIID:  f.KPIID,
		Bucket: f.Bucket,
		Limit:  f.Limit,
		Offset: f.Offset,
	}
	if q.Bucket == "" {
		q.Bucket = approval.BucketYear
	}
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	switch viewer.Role {
	case auth.RoleSystemAdmin:
		return q, nil
	case auth.RoleWorker:
		q.UserID = viewer.UserID
		return q, nil
	}

	stage, ok := approval.StageForRole(viewer.Role)
	if !ok {
		return ListQuery{}, ErrOutOfScope
	}
	switch stage.Visibility() {
	case approval.VisibleSubsector:
		if viewer.SubsectorID == "" {
			return ListQuery{}, ErrOutOfScope
		}
		q.SubsectorID = viewer.SubsectorID
	case approval.VisibleSector:
		if viewer.SectorID == "" {
			return ListQuery{}, ErrOutOfScope
		}
		q.SectorID = viewer.SectorID
	}
	if prev, ok := stage.Previous(); ok {
		q.GateStage = prev
		q.GateSkipsSectorLevel = prev.Visibility() == approval.VisibleSubsector
	}
	return q, nil
}

func (s *Service) ListPlans(ctx context.Context, viewer auth.UserContext, f ListFilter) ([]Plan, int, error) {
	q, err := BuildListQuery(viewer, f)
	if err != nil {
		return nil, 0, err
	}
	plans, total, err := s.store.ListPlans(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
	}
	chains, err := s.loadChains(ctx, approval.RecordPlan, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range plans {
		plans[i].Validation = chains[plans[i].ID]
	}
	return plans, total, nil
}

func (s *Service) ListPerformances(ctx context.Context, viewer auth.UserContext, f ListFilter) ([]Performance, int, error) {
	q, err := BuildListQuery(viewer, f)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.ListPerformances(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, len(items))
	for i, p := range items {
		ids[i] = p.ID
	}
	chains, err := s.loadChains(ctx, approval.RecordPerformance, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].Validation = chains[items[i].ID]
	}
	return items, total, nil
}
