package catalog

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

func cleanName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

func (s *Service) ListSectors(ctx context.Context) ([]Sector, error) {
	return s.store.ListSectors(ctx)
}

func (s *Service) GetSector(ctx context.Context, id string) (Sector, error) {
	return s.store.GetSector(ctx, id)
}

func (s *Service) CreateSector(ctx context.Context, name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return s.store.CreateSector(ctx, name)
}

func (s *Service) UpdateSector(ctx context.Context, id, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return s.store.UpdateSector(ctx, id, name)
}

func (s *Service) DeleteSector(ctx context.Context, id string) error {
	return s.store.DeleteSector(ctx, id)
}

func (s *Service) ListSubsectors(ctx context.Context, sectorID string) ([]Subsector, error) {
	return s.store.ListSubsectors(ctx, sectorID)
}

func (s *Service) GetSubsector(ctx context.Context, id string) (Subsector, error) {
	return s.store.GetSubsector(ctx, id)
}

func (s *Service) CreateSubsector(ctx context.Context, sectorID, name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return s.store.CreateSubsector(ctx, sectorID, name)
}

func (s *Service) UpdateSubsector(ctx context.Context, id, sectorID, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return s.store.UpdateSubsector(ctx, id, sectorID, name)
}

func (s *Service) DeleteSubsector(ctx context.Context, id string) error {
	return s.store.DeleteSubsector(ctx, id)
}

func (s *Service) ListGoals(ctx context.Context) ([]Goal, error) {
	return s.store.ListGoals(ctx)
}

func (s *Service) GetGoal(ctx context.Context, id string) (Goal, error) {
	return s.store.GetGoal(ctx, id)
}

func (s *Service) CreateGoal(ctx context.Context, description string) (string, error) {
	description, err := cleanName(description)
	if err != nil {
		return "", err
	}
	return s.store.CreateGoal(ctx, description)
}

func (s *Service) UpdateGoal(ctx context.Context, id, description string) error {
	description, err := cleanName(description)
	if err != nil {
		return err
	}
	return s.store.UpdateGoal(ctx, id, description)
}

func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	return s.store.DeleteGoal(ctx, id)
}

func (s *Service) ListKRAs(ctx context.Context, goalID string) ([]KRA, error) {
	return s.store.ListKRAs(ctx, goalID)
}

func (s *Service) GetKRA(ctx context.Context, id string) (KRA, error) {
	return s.store.GetKRA(ctx, id)
}

func (s *Service) CreateKRA(ctx context.Context, goalID, name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return s.store.CreateKRA(ctx, goalID, name)
}

func (s *Service) UpdateKRA(ctx context.Context, id, goalID, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return s.store.UpdateKRA(ctx, id, goalID, name)
}

func (s *Service) DeleteKRA(ctx context.Context, id string) error {
	return s.store.DeleteKRA(ctx, id)
}

func (s *Service) ListKPIs(ctx context.Context, kraID, goalID string) ([]KPI, error) {
	return s.store.ListKPIs(ctx, kraID, goalID)
}

func (s *Service) GetKPI(ctx context.Context, id string) (KPI, error) {
	return s.store.GetKPI(ctx, id)
}

func (s *Service) KPIByName(ctx context.Context, name string) (KPI, error) {
	name, err := cleanName(name)
	if err != nil {
		return KPI{}, err
	}
	return s.store.KPIByName(ctx, name)
}

func (s *Service) CreateKPI(ctx context.Context, kraID, name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return s.store.CreateKPI(ctx, kraID, name)
}

func (s *Service) UpdateKPI(ctx context.Context, id, kraID, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return s.store.UpdateKPI(ctx, id, kraID, name)
}

func (s *Service) DeleteKPI(ctx context.Context, id string) error {
	return s.store.DeleteKPI(ctx, id)
}

func (s *Service) ListMeasures(ctx context.Context, kpiID string) ([]Measure, error) {
	return s.store.ListMeasures(ctx, kpiID)
}

func (s *Service) GetMeasure(ctx context.Context, id string) (Measure, error) {
	return s.store.GetMeasure(ctx, id)
}

func (s *Service) CreateMeasure(ctx context.Context, kpiID, name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return s.store.CreateMeasure(ctx, kpiID, name)
}

func (s *Service) UpdateMeasure(ctx context.Context, id, kpiID, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return s.store.UpdateMeasure(ctx, id, kpiID, name)
}

func (s *Service) DeleteMeasure(ctx context.Context, id string) error {
	return s.store.DeleteMeasure(ctx, id)
}
