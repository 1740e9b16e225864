package planning

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/auth"
)

func (s *Store) MeasureKPI(ctx context.Context, measureID string) (string, error) {
	var kpiID string
	err := s.DB.QueryRow(ctx, `SELECT kpi_id FROM measures WHERE id = $1`, measureID).Scan(&kpiID)
	if isMissing(err) {
		return "", ErrMeasureNotFound
	}
	return kpiID, err
}

func (s *Store) Worker(ctx context.Context, userID string) (WorkerInfo, error) {
	var w WorkerInfo
	err := s.DB.QueryRow(ctx, `
    SELECT role, COALESCE(sector_id::text, ''), COALESCE(subsector_id::text, '')
    FROM users
    WHERE id = $1 AND status = $2
  `, userID, auth.UserStatusActive).Scan(&w.Role, &w.SectorID, &w.SubsectorID)
	if isMissing(err) {
		return w, ErrWorkerNotFound
	}
	return w, err
}

// LockRollup serializes roll-ups of one KPI and year until the surrounding
// transaction ends.
func (s *Store) LockRollup(ctx context.Context, key RollupKey) error {
	_, err := s.DB.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, fmt.Sprintf("rollup:%s:%d", key.KPIID, key.Year))
	return err
}

func (s *Store) UpsertMeasureAssignment(ctx context.Context, in MeasureInput, kpiID string, worker WorkerInfo) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO measure_assignments (measure_id, kpi_id, worker_id, sector_id, subsector_id, year, quarter, target, created_by)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid)
    ON CONFLICT ON CONSTRAINT measure_assignments_scope_key
    DO UPDATE SET target = EXCLUDED.target
    RETURNING id
  `, in.MeasureID, kpiID, in.WorkerID, worker.SectorID, worker.SubsectorID, in.Year, in.Quarter, in.Target, in.ActorID).Scan(&id)
	return id, mapFK(err, ErrWorkerNotFound)
}

const measureAssignmentSelect = `
    SELECT ma.id, ma.measure_id, m.name, ma.kpi_id, p.name, ma.worker_id, u.full_name,
           ma.sector_id, ma.subsector_id, ma.year, ma.quarter, ma.target, ma.created_at
    FROM measure_assignments ma
    JOIN measures m ON m.id = ma.measure_id
    JOIN kpis p ON p.id = ma.kpi_id
    JOIN users u ON u.id = ma.worker_id`

func scanMeasureAssignment(row pgx.Row) (MeasureAssignment, error) {
	var m MeasureAssignment
	err := row.Scan(&m.ID, &m.MeasureID, &m.MeasureName, &m.KPIID, &m.KPIName, &m.WorkerID, &m.WorkerName,
		&m.SectorID, &m.SubsectorID, &m.Year, &m.Quarter, &m.Target, &m.CreatedAt)
	return m, err
}

func (s *Store) GetMeasureAssignment(ctx context.Context, id string) (MeasureAssignment, error) {
	m, err := scanMeasureAssignment(s.DB.QueryRow(ctx, measureAssignmentSelect+` WHERE ma.id = $1`, id))
	if isMissing(err) {
		return m, ErrMeasureAssignmentNotFound
	}
	return m, err
}

func (s *Store) ListMeasureAssignments(ctx context.Context, f MeasureFilter) ([]MeasureAssignment, error) {
	where := []string{"1=1"}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.WorkerID != "" {
		add("ma.worker_id = ?", f.WorkerID)
	}
	if f.SubsectorID != "" {
		add("ma.subsector_id = ?", f.SubsectorID)
	}
	if f.KPIID != "" {
		add("ma.kpi_id = ?", f.KPIID)
	}
	if f.Year != 0 {
		add("ma.year = ?", f.Year)
	}
	if f.Quarter != 0 {
		add("ma.quarter = ?", f.Quarter)
	}
	rows, err := s.DB.Query(ctx, measureAssignmentSelect+` WHERE `+strings.Join(where, " AND ")+`
    ORDER BY ma.year DESC, ma.quarter, p.name, m.name, u.full_name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MeasureAssignment{}
	for rows.Next() {
		m, err := scanMeasureAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) DeleteMeasureAssignment(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM measure_assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMeasureAssignmentNotFound
	}
	return nil
}

// QuarterTargets sums every worker's measure targets for the KPI and year,
// grouped by quarter.
func (s *Store) QuarterTargets(ctx context.Context, key RollupKey) ([4]float64, error) {
	var out [4]float64
	rows, err := s.DB.Query(ctx, `
    SELECT quarter, COALESCE(SUM(target), 0)
    FROM measure_assignments
    WHERE kpi_id = $1 AND year = $2
    GROUP BY quarter
  `, key.KPIID, key.Year)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var quarter int
		var sum float64
		if err := rows.Scan(&quarter, &sum); err != nil {
			return out, err
		}
		if quarter >= 1 && quarter <= 4 {
			out[quarter-1] = sum
		}
	}
	return out, rows.Err()
}

// UpsertRollupPlan overwrites the CEO plan's targets with the aggregated
// values. The submitting user becomes the plan's user.
func (s *Store) UpsertRollupPlan(ctx context.Context, key PlanKey, kpi KPIRef, userID string, quarters [4]float64, total float64) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO plans (user_id, role, owner_key, sector_id, subsector_id, goal_id, kra_id, kpi_id, year, target, q1, q2, q3, q4)
    VALUES ($1, $2, $3, NULLIF($4, '')::uuid, NULLIF($5, '')::uuid, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    ON CONFLICT ON CONSTRAINT plans_scope_key
    DO UPDATE SET user_id = EXCLUDED.user_id,
                  target = EXCLUDED.target,
                  q1 = EXCLUDED.q1, q2 = EXCLUDED.q2, q3 = EXCLUDED.q3, q4 = EXCLUDED.q4,
                  updated_at = now()
    RETURNING id
  `, userID, key.Role, key.OwnerKey, key.SectorID, key.SubsectorID, kpi.GoalID, kpi.KRAID, kpi.ID, key.Year,
		total, quarters[0], quarters[1], quarters[2], quarters[3]).Scan(&id)
	return id, err
}

func (s *Store) SetPlanTargets(ctx context.Context, planID string, quarters [4]float64, total float64) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE plans
    SET target = $2, q1 = $3, q2 = $4, q3 = $5, q4 = $6, updated_at = now()
    WHERE id = $1
  `, planID, total, quarters[0], quarters[1], quarters[2], quarters[3])
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// RollupKeys lists every KPI and year that has measure assignments or a CEO
// plan. A zero year means all years.
func (s *Store) RollupKeys(ctx context.Context, year int) ([]RollupKey, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT kpi_id, year FROM measure_assignments WHERE ($1 = 0 OR year = $1)
    UNION
    SELECT kpi_id, year FROM plans WHERE role = $2 AND owner_key = '' AND ($1 = 0 OR year = $1)
    ORDER BY 2, 1
  `, year, auth.RoleCEO)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RollupKey
	for rows.Next() {
		var k RollupKey
		if err := rows.Scan(&k.KPIID, &k.Year); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
