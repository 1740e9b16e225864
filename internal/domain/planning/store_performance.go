package planning

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/approval"
)

// PerformanceValues returns the stored values for a plan, zero when nothing
// has been reported yet.
func (s *Store) PerformanceValues(ctx context.Context, planID string) (PerformanceValues, error) {
	var v PerformanceValues
	err := s.DB.QueryRow(ctx, `
    SELECT performance_year, year_description, q1, q2, q3, q4,
           q1_description, q2_description, q3_description, q4_description
    FROM performances
    WHERE plan_id = $1
  `, planID).Scan(&v.Year, &v.YearDescription,
		&v.Quarters[0], &v.Quarters[1], &v.Quarters[2], &v.Quarters[3],
		&v.Descriptions[0], &v.Descriptions[1], &v.Descriptions[2], &v.Descriptions[3])
	if isMissing(err) {
		return PerformanceValues{}, nil
	}
	return v, err
}

// PriorPerformanceYear is the performanceYear recorded for the same scope one
// year earlier, zero when there is none.
func (s *Store) PriorPerformanceYear(ctx context.Context, key PlanKey) (float64, error) {
	var value float64
	err := s.DB.QueryRow(ctx, `
    SELECT pf.performance_year
    FROM performances pf
    JOIN plans p ON p.id = pf.plan_id
    WHERE p.kpi_id = $1 AND p.year = $2 AND p.role = $3
      AND p.sector_id IS NOT DISTINCT FROM NULLIF($4, '')::uuid
      AND p.subsector_id IS NOT DISTINCT FROM NULLIF($5, '')::uuid
      AND p.owner_key = $6
  `, key.KPIID, key.Year-1, key.Role, key.SectorID, key.SubsectorID, key.OwnerKey).Scan(&value)
	if isMissing(err) {
		return 0, nil
	}
	return value, err
}

func (s *Store) UpsertPerformance(ctx context.Context, planID string, v PerformanceValues) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO performances (plan_id, performance_year, year_description, q1, q2, q3, q4,
                              q1_description, q2_description, q3_description, q4_description)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    ON CONFLICT (plan_id)
    DO UPDATE SET performance_year = EXCLUDED.performance_year,
                  year_description = EXCLUDED.year_description,
                  q1 = EXCLUDED.q1, q2 = EXCLUDED.q2, q3 = EXCLUDED.q3, q4 = EXCLUDED.q4,
                  q1_description = EXCLUDED.q1_description,
                  q2_description = EXCLUDED.q2_description,
                  q3_description = EXCLUDED.q3_description,
                  q4_description = EXCLUDED.q4_description,
                  updated_at = now()
    RETURNING id
  `, planID, v.Year, v.YearDescription,
		v.Quarters[0], v.Quarters[1], v.Quarters[2], v.Quarters[3],
		v.Descriptions[0], v.Descriptions[1], v.Descriptions[2], v.Descriptions[3]).Scan(&id)
	if err != nil {
		return "", err
	}
	// Evidence uploaded before the first performance write links up now.
	_, err = s.DB.Exec(ctx, `
    UPDATE performance_files f
    SET performance_id = $1
    FROM plans p
    WHERE p.id = $2 AND f.worker_id = p.user_id AND f.kpi_id = p.kpi_id
      AND f.year = p.year AND f.performance_id IS NULL
  `, id, planID)
	return id, err
}

const performanceSelect = `SELECT pf.id, pf.plan_id,` + headerColumns + `,
    pf.performance_year, pf.year_description, pf.q1, pf.q2, pf.q3, pf.q4,
    pf.q1_description, pf.q2_description, pf.q3_description, pf.q4_description,
    pf.created_at, pf.updated_at
    FROM performances pf
    JOIN plans p ON p.id = pf.plan_id` + headerJoins

func scanPerformance(row pgx.Row) (Performance, error) {
	var p Performance
	var v PerformanceValues
	dest := append([]any{&p.ID, &p.PlanID}, headerDest(&p.Header)...)
	dest = append(dest, &v.Year, &v.YearDescription,
		&v.Quarters[0], &v.Quarters[1], &v.Quarters[2], &v.Quarters[3],
		&v.Descriptions[0], &v.Descriptions[1], &v.Descriptions[2], &v.Descriptions[3],
		&p.CreatedAt, &p.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return p, err
	}
	v.apply(&p)
	return p, nil
}

func (s *Store) GetPerformance(ctx context.Context, id string) (Performance, error) {
	p, err := scanPerformance(s.DB.QueryRow(ctx, performanceSelect+` WHERE pf.id = $1`, id))
	if isMissing(err) {
		return p, ErrPerformanceNotFound
	}
	return p, err
}

func (s *Store) ListPerformances(ctx context.Context, q ListQuery) ([]Performance, int, error) {
	cond, args := listWhere(q, approval.RecordPerformance, "pf")

	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM performances pf JOIN plans p ON p.id = pf.plan_id
    WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, q.Limit, q.Offset)
	rows, err := s.DB.Query(ctx, performanceSelect+` WHERE `+cond+`
    ORDER BY p.year DESC, kp.name, p.role
    LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Performance{}
	for rows.Next() {
		p, err := scanPerformance(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (s *Store) DeletePerformance(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM performances WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPerformanceNotFound
	}
	_, err = s.DB.Exec(ctx, `DELETE FROM validations WHERE record_type = $1 AND record_id = $2`, string(approval.RecordPerformance), id)
	return err
}
