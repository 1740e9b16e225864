package assignment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"pms/internal/platform/db"
	"pms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) kpiHierarchy(ctx context.Context, kpiID string) (kpiHierarchy, error) {
	var h kpiHierarchy
	err := s.DB.QueryRow(ctx, `
    SELECT p.kra_id, k.goal_id
    FROM kpis p
    JOIN kras k ON k.id = p.kra_id
    WHERE p.id = $1
  `, kpiID).Scan(&h.KRAID, &h.GoalID)
	if errors.Is(err, pgx.ErrNoRows) {
		return h, ErrUnresolved
	}
	return h, err
}

func (s *Store) sectorExists(ctx context.Context, sectorID string) error {
	var ok bool
	if err := s.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sectors WHERE id = $1)`, sectorID).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return ErrUnresolved
	}
	return nil
}

func (s *Store) subsectorSector(ctx context.Context, subsectorID string) (string, error) {
	var sectorID string
	err := s.DB.QueryRow(ctx, `SELECT sector_id FROM subsectors WHERE id = $1`, subsectorID).Scan(&sectorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUnresolved
	}
	return sectorID, err
}

func (s *Store) insertKpiAssignment(ctx context.Context, in AssignKPIInput) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO kpi_assignments (sector_id, subsector_id, kra_id, kpi_id, created_by)
    VALUES ($1, NULLIF($2, '')::uuid, $3, $4, NULLIF($5, '')::uuid)
    RETURNING id
  `, in.SectorID, in.SubsectorID, in.KRAID, in.KPIID, in.CreatedBy).Scan(&id)
	if db.IsUniqueViolation(err) {
		return "", ErrDuplicate
	}
	if db.IsForeignKeyViolation(err) {
		return "", ErrUnresolved
	}
	return id, err
}

// ScopeForKPI returns the sector and subsector of the KPI's earliest
// assignment.
func (s *Store) ScopeForKPI(ctx context.Context, kpiID string) (Scope, error) {
	var out Scope
	err := s.DB.QueryRow(ctx, `
    SELECT sector_id, COALESCE(subsector_id::text, '')
    FROM kpi_assignments
    WHERE kpi_id = $1
    ORDER BY created_at, id
    LIMIT 1
  `, kpiID).Scan(&out.SectorID, &out.SubsectorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrNotFound
	}
	return out, err
}

const kpiAssignmentSelect = `
    SELECT a.id, a.sector_id, s.name, COALESCE(a.subsector_id::text, ''), COALESCE(ss.name, ''),
           k.goal_id, g.description, a.kra_id, k.name, a.kpi_id, p.name, a.created_at
    FROM kpi_assignments a
    JOIN sectors s ON s.id = a.sector_id
    LEFT JOIN subsectors ss ON ss.id = a.subsector_id
    JOIN kras k ON k.id = a.kra_id
    JOIN goals g ON g.id = k.goal_id
    JOIN kpis p ON p.id = a.kpi_id`

func scanKpiAssignment(row pgx.Row) (KpiAssignment, error) {
	var a KpiAssignment
	err := row.Scan(&a.ID, &a.SectorID, &a.SectorName, &a.SubsectorID, &a.SubsectorName,
		&a.GoalID, &a.GoalDescription, &a.KRAID, &a.KRAName, &a.KPIID, &a.KPIName, &a.CreatedAt)
	return a, err
}

func (s *Store) GetKpiAssignment(ctx context.Context, id string) (KpiAssignment, error) {
	a, err := scanKpiAssignment(s.DB.QueryRow(ctx, kpiAssignmentSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

func (s *Store) ListKpiAssignments(ctx context.Context, f Filter) ([]KpiAssignment, error) {
	rows, err := s.DB.Query(ctx, kpiAssignmentSelect+`
    WHERE ($1 = '' OR a.sector_id::text = $1)
      AND ($2 = '' OR a.subsector_id::text = $2)
      AND ($3 = '' OR a.kpi_id::text = $3)
    ORDER BY s.name, ss.name NULLS FIRST, p.name`, f.SectorID, f.SubsectorID, f.KPIID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []KpiAssignment{}
	for rows.Next() {
		a, err := scanKpiAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) DeleteKpiAssignment(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM kpi_assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// updateYearAssignment rewrites an existing row by id. It reports false when
// no row has that id.
func (s *Store) updateYearAssignment(ctx context.Context, in YearRangeInput) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE kpi_year_assignments
    SET sector_id = $2, subsector_id = NULLIF($3, '')::uuid, kpi_id = $4, kra_id = $5, goal_id = $6,
        start_year = $7, end_year = $8
    WHERE id = $1
  `, in.ID, in.SectorID, in.SubsectorID, in.KPIID, in.KRAID, in.GoalID, in.StartYear, in.EndYear)
	if db.IsUniqueViolation(err) {
		return false, ErrDuplicate
	}
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// upsertYearAssignment writes by natural key and reports whether a new row was
// created.
func (s *Store) upsertYearAssignment(ctx context.Context, in YearRangeInput) (string, bool, error) {
	var id string
	var inserted bool
	err := s.DB.QueryRow(ctx, `
    INSERT INTO kpi_year_assignments (sector_id, subsector_id, kpi_id, kra_id, goal_id, start_year, end_year)
    VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7)
    ON CONFLICT ON CONSTRAINT kpi_year_assignments_scope_key
    DO UPDATE SET start_year = EXCLUDED.start_year, end_year = EXCLUDED.end_year
    RETURNING id, (xmax = 0)
  `, in.SectorID, in.SubsectorID, in.KPIID, in.KRAID, in.GoalID, in.StartYear, in.EndYear).Scan(&id, &inserted)
	if db.IsForeignKeyViolation(err) {
		return "", false, ErrUnresolved
	}
	return id, inserted, err
}

const yearAssignmentSelect = `
    SELECT a.id, a.sector_id, s.name, COALESCE(a.subsector_id::text, ''), COALESCE(ss.name, ''),
           a.goal_id, g.description, a.kra_id, k.name, a.kpi_id, p.name, a.start_year, a.end_year, a.created_at
    FROM kpi_year_assignments a
    JOIN sectors s ON s.id = a.sector_id
    LEFT JOIN subsectors ss ON ss.id = a.subsector_id
    JOIN kras k ON k.id = a.kra_id
    JOIN goals g ON g.id = a.goal_id
    JOIN kpis p ON p.id = a.kpi_id`

func scanYearAssignment(row pgx.Row) (KpiYearAssignment, error) {
	var a KpiYearAssignment
	err := row.Scan(&a.ID, &a.SectorID, &a.SectorName, &a.SubsectorID, &a.SubsectorName,
		&a.GoalID, &a.GoalDescription, &a.KRAID, &a.KRAName, &a.KPIID, &a.KPIName,
		&a.StartYear, &a.EndYear, &a.CreatedAt)
	return a, err
}

func (s *Store) GetYearAssignment(ctx context.Context, id string) (KpiYearAssignment, error) {
	a, err := scanYearAssignment(s.DB.QueryRow(ctx, yearAssignmentSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

func (s *Store) ListYearAssignments(ctx context.Context, f Filter) ([]KpiYearAssignment, error) {
	rows, err := s.DB.Query(ctx, yearAssignmentSelect+`
    WHERE ($1 = '' OR a.sector_id::text = $1)
      AND ($2 = '' OR a.subsector_id::text = $2)
      AND ($3 = '' OR a.kpi_id::text = $3)
      AND ($4 = 0 OR $4 BETWEEN a.start_year AND a.end_year)
    ORDER BY s.name, ss.name NULLS FIRST, p.name`, f.SectorID, f.SubsectorID, f.KPIID, f.Year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []KpiYearAssignment{}
	for rows.Next() {
		a, err := scanYearAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) DeleteYearAssignment(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM kpi_year_assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
