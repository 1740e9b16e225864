package reports

import (
	"context"
	"fmt"

	"pms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// Scorecard aggregates plans of one role per KPI with their performance and
// the number of yearly approvals recorded at each stage.
func (s *Store) Scorecard(ctx context.Context, f ScorecardFilter) ([]ScorecardRow, error) {
	args := []any{f.Year, f.Role}
	where := "p.year = $1 AND p.role = $2"
	if f.SectorID != "" {
		args = append(args, f.SectorID)
		where += fmt.Sprintf(" AND p.sector_id = $%d", len(args))
	}
	if f.SubsectorID != "" {
		args = append(args, f.SubsectorID)
		where += fmt.Sprintf(" AND p.subsector_id = $%d", len(args))
	}

	rows, err := s.DB.Query(ctx, `
    SELECT k.id, k.name, kr.name, g.description,
           COUNT(p.id),
           COALESCE(SUM(p.target), 0),
           COALESCE(SUM(pf.performance_year), 0),
           COUNT(p.id) FILTER (WHERE `+approvedAt("ceo")+`),
           COUNT(p.id) FILTER (WHERE `+approvedAt("chiefCeo")+`),
           COUNT(p.id) FILTER (WHERE `+approvedAt("strategic")+`),
           COUNT(p.id) FILTER (WHERE `+approvedAt("minister")+`)
    FROM plans p
    JOIN kpis k ON k.id = p.kpi_id
    JOIN kras kr ON kr.id = k.kra_id
    JOIN goals g ON g.id = kr.goal_id
    LEFT JOIN performances pf ON pf.plan_id = p.id
    WHERE `+where+`
    GROUP BY k.id, k.name, kr.name, g.description
    ORDER BY g.description, kr.name, k.name
  `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScorecardRow
	for rows.Next() {
		var r ScorecardRow
		if err := rows.Scan(&r.KPIID, &r.KPIName, &r.KRAName, &r.GoalDescription, &r.Plans, &r.Target, &r.Actual,
			&r.Approved.CEO, &r.Approved.ChiefCEO, &r.Approved.Strategic, &r.Approved.Minister); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func approvedAt(stage string) string {
	return `EXISTS (
      SELECT 1 FROM validations v
      WHERE v.record_type = 'plan' AND v.record_id = p.id AND v.bucket = 'year'
        AND v.stage = '` + stage + `' AND v.status = 'Approved')`
}
