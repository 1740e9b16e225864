package planning

import (
	"context"
	"errors"
	"strings"

	"pms/internal/domain/approval"
	"pms/internal/domain/assignment"
	"pms/internal/domain/auth"
)

// ChainLoader attaches approval chains to listed records.
type ChainLoader interface {
	Chains(ctx context.Context, rt approval.RecordType, ids []string) (map[string]approval.Chain, error)
}

type Service struct {
	store  StoreAPI
	chains ChainLoader
}

func NewService(store StoreAPI, chains ChainLoader) *Service {
	return &Service{store: store, chains: chains}
}

// resolveKey turns a write request into the plan's natural key. KRA and goal
// come from the KPI; a missing sector comes from the KPI's assignment.
func resolveKey(ctx context.Context, store StoreAPI, in WriteInput) (PlanKey, KPIRef, error) {
	if !auth.HasRole(in.Role, auth.PlanningRoles...) {
		return PlanKey{}, KPIRef{}, ErrRoleNotPlanner
	}
	kpi, err := store.KPIByName(ctx, in.KPIName)
	if err != nil {
		return PlanKey{}, KPIRef{}, err
	}
	if (in.KRAID != "" && in.KRAID != kpi.KRAID) || (in.GoalID != "" && in.GoalID != kpi.GoalID) {
		return PlanKey{}, KPIRef{}, ErrHierarchyMismatch
	}

	sectorID := strings.TrimSpace(in.SectorID)
	subsectorID := strings.TrimSpace(in.SubsectorID)
	if sectorID == "" {
		scope, err := store.ScopeForKPI(ctx, kpi.ID)
		switch {
		case errors.Is(err, assignment.ErrNotFound):
		case err != nil:
			return PlanKey{}, KPIRef{}, err
		default:
			sectorID = scope.SectorID
			if subsectorID == "" {
				subsectorID = scope.SubsectorID
			}
		}
	}
	if sectorID == "" {
		return PlanKey{}, KPIRef{}, ErrSectorUnresolved
	}

	return PlanKey{
		KPIID:       kpi.ID,
		Year:        in.Year,
		Role:        in.Role,
		SectorID:    sectorID,
		SubsectorID: subsectorID,
		OwnerKey:    OwnerKey(in.Role, in.UserID),
	}, kpi, nil
}

// SavePlan writes the yearly target or one quarterly target. Other buckets on
// the row are left untouched.
func (s *Service) SavePlan(ctx context.Context, in WriteInput) (Plan, error) {
	column, err := planColumn(in.Quarter)
	if err != nil {
		return Plan{}, err
	}
	key, kpi, err := resolveKey(ctx, s.store, in)
	if err != nil {
		return Plan{}, err
	}
	id, err := s.store.UpsertPlanValue(ctx, key, kpi, in.UserID, column, in.Value, in.Description)
	if err != nil {
		return Plan{}, err
	}
	return s.plan(ctx, id)
}

func (s *Service) plan(ctx context.Context, id string) (Plan, error) {
	p, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return Plan{}, err
	}
	chains, err := s.loadChains(ctx, approval.RecordPlan, []string{id})
	if err != nil {
		return Plan{}, err
	}
	p.Validation = chains[id]
	return p, nil
}

func (s *Service) GetPlan(ctx context.Context, viewer auth.UserContext, id string) (Plan, error) {
	p, err := s.plan(ctx, id)
	if err != nil {
		return Plan{}, err
	}
	if !canView(viewer, p.Header) {
		return Plan{}, ErrOutOfScope
	}
	return p, nil
}

func (s *Service) DeletePlan(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx StoreAPI) error {
		return tx.DeletePlan(ctx, id)
	})
}

func (s *Service) loadChains(ctx context.Context, rt approval.RecordType, ids []string) (map[string]approval.Chain, error) {
	if s.chains == nil || len(ids) == 0 {
		out := make(map[string]approval.Chain, len(ids))
		for _, id := range ids {
			out[id] = approval.NewChain()
		}
		return out, nil
	}
	return s.chains.Chains(ctx, rt, ids)
}

// canView applies ownership and organisational scope to a direct fetch.
func canView(viewer auth.UserContext, h Header) bool {
	switch viewer.Role {
	case auth.RoleSystemAdmin, auth.RoleMinister, auth.RoleStrategicUnit:
		return true
	case auth.RoleChiefCEO:
		return h.SectorID == viewer.SectorID
	case auth.RoleCEO:
		return h.SubsectorID == viewer.SubsectorID || h.UserID == viewer.UserID
	case auth.RoleWorker:
		return h.UserID == viewer.UserID
	}
	return false
}
