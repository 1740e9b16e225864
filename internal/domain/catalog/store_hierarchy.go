package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func (s *Store) ListGoals(ctx context.Context) ([]Goal, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, description, created_at FROM goals ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Goal{}
	for rows.Next() {
		var item Goal
		if err := rows.Scan(&item.ID, &item.Description, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) GetGoal(ctx context.Context, id string) (Goal, error) {
	var item Goal
	err := s.DB.QueryRow(ctx, `SELECT id, description, created_at FROM goals WHERE id = $1`, id).
		Scan(&item.ID, &item.Description, &item.CreatedAt)
	return item, notFound(err)
}

func (s *Store) CreateGoal(ctx context.Context, description string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `INSERT INTO goals (description) VALUES ($1) RETURNING id`, description).Scan(&id)
	return id, mapWriteErr(err)
}

func (s *Store) UpdateGoal(ctx context.Context, id, description string) error {
	return mapUpdate(s.DB.Exec(ctx, `UPDATE goals SET description = $2 WHERE id = $1`, id, description))
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	return mapDeleteErr(s.DB.Exec(ctx, `DELETE FROM goals WHERE id = $1`, id))
}

const kraSelect = `
    SELECT k.id, k.name, k.goal_id, g.description, k.created_at
    FROM kras k
    JOIN goals g ON g.id = k.goal_id`

func scanKRA(row pgx.Row) (KRA, error) {
	var item KRA
	err := row.Scan(&item.ID, &item.Name, &item.GoalID, &item.GoalDescription, &item.CreatedAt)
	return item, err
}

func (s *Store) ListKRAs(ctx context.Context, goalID string) ([]KRA, error) {
	rows, err := s.DB.Query(ctx, kraSelect+`
    WHERE ($1 = '' OR k.goal_id::text = $1)
    ORDER BY k.name`, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []KRA{}
	for rows.Next() {
		item, err := scanKRA(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) GetKRA(ctx context.Context, id string) (KRA, error) {
	item, err := scanKRA(s.DB.QueryRow(ctx, kraSelect+` WHERE k.id = $1`, id))
	return item, notFound(err)
}

func (s *Store) CreateKRA(ctx context.Context, goalID, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `INSERT INTO kras (goal_id, name) VALUES ($1, $2) RETURNING id`, goalID, name).Scan(&id)
	return id, mapWriteErr(err)
}

func (s *Store) UpdateKRA(ctx context.Context, id, goalID, name string) error {
	return mapUpdate(s.DB.Exec(ctx, `UPDATE kras SET goal_id = $2, name = $3 WHERE id = $1`, id, goalID, name))
}

func (s *Store) DeleteKRA(ctx context.Context, id string) error {
	return mapDeleteErr(s.DB.Exec(ctx, `DELETE FROM kras WHERE id = $1`, id))
}

const kpiSelect = `
    SELECT p.id, p.name, p.kra_id, k.name, k.goal_id, g.description, p.created_at
    FROM kpis p
    JOIN kras k ON k.id = p.kra_id
    JOIN goals g ON g.id = k.goal_id`

func scanKPI(row pgx.Row) (KPI, error) {
	var item KPI
	err := row.Scan(&item.ID, &item.Name, &item.KRAID, &item.KRAName, &item.GoalID, &item.GoalDescription, &item.CreatedAt)
	return item, err
}

func (s *Store) ListKPIs(ctx context.Context, kraID, goalID string) ([]KPI, error) {
	rows, err := s.DB.Query(ctx, kpiSelect+`
    WHERE ($1 = '' OR p.kra_id::text = $1)
      AND ($2 = '' OR k.goal_id::text = $2)
    ORDER BY p.name`, kraID, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []KPI{}
	for rows.Next() {
		item, err := scanKPI(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) GetKPI(ctx context.Context, id string) (KPI, error) {
	item, err := scanKPI(s.DB.QueryRow(ctx, kpiSelect+` WHERE p.id = $1`, id))
	return item, notFound(err)
}

func (s *Store) KPIByName(ctx context.Context, name string) (KPI, error) {
	item, err := scanKPI(s.DB.QueryRow(ctx, kpiSelect+` WHERE p.name = $1`, name))
	return item, notFound(err)
}

func (s *Store) CreateKPI(ctx context.Context, kraID, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `INSERT INTO kpis (kra_id, name) VALUES ($1, $2) RETURNING id`, kraID, name).Scan(&id)
	return id, mapWriteErr(err)
}

func (s *Store) UpdateKPI(ctx context.Context, id, kraID, name string) error {
	return mapUpdate(s.DB.Exec(ctx, `UPDATE kpis SET kra_id = $2, name = $3 WHERE id = $1`, id, kraID, name))
}

func (s *Store) DeleteKPI(ctx context.Context, id string) error {
	return mapDeleteErr(s.DB.Exec(ctx, `DELETE FROM kpis WHERE id = $1`, id))
}

const measureSelect = `
    SELECT m.id, m.name, m.kpi_id, p.name, m.created_at
    FROM measures m
    JOIN kpis p ON p.id = m.kpi_id`

func scanMeasure(row pgx.Row) (Measure, error) {
	var item Measure
	err := row.Scan(&item.ID, &item.Name, &item.KPIID, &item.KPIName, &item.CreatedAt)
	return item, err
}

func (s *Store) ListMeasures(ctx context.Context, kpiID string) ([]Measure, error) {
	rows, err := s.DB.Query(ctx, measureSelect+`
    WHERE ($1 = '' OR m.kpi_id::text = $1)
    ORDER BY p.name, m.name`, kpiID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Measure{}
	for rows.Next() {
		item, err := scanMeasure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) GetMeasure(ctx context.Context, id string) (Measure, error) {
	item, err := scanMeasure(s.DB.QueryRow(ctx, measureSelect+` WHERE m.id = $1`, id))
	return item, notFound(err)
}

func (s *Store) CreateMeasure(ctx context.Context, kpiID, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `INSERT INTO measures (kpi_id, name) VALUES ($1, $2) RETURNING id`, kpiID, name).Scan(&id)
	return id, mapWriteErr(err)
}

func (s *Store) UpdateMeasure(ctx context.Context, id, kpiID, name string) error {
	return mapUpdate(s.DB.Exec(ctx, `UPDATE measures SET kpi_id = $2, name = $3 WHERE id = $1`, id, kpiID, name))
}

func (s *Store) DeleteMeasure(ctx context.Context, id string) error {
	return mapDeleteErr(s.DB.Exec(ctx, `DELETE FROM measures WHERE id = $1`, id))
}
