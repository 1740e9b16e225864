package planning

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"pms/internal/domain/approval"
	"pms/internal/domain/assignment"
	"pms/internal/platform/db"
	"pms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		return fn(NewStore(q))
	})
}

const kpiRefSelect = `
    SELECT p.id, p.name, p.kra_id, k.goal_id
    FROM kpis p
    JOIN kras k ON k.id = p.kra_id`

func (s *Store) KPIByName(ctx context.Context, name string) (KPIRef, error) {
	var out KPIRef
	err := s.DB.QueryRow(ctx, kpiRefSelect+` WHERE p.name = $1`, strings.TrimSpace(name)).
		Scan(&out.ID, &out.Name, &out.KRAID, &out.GoalID)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrKPINotFound
	}
	return out, err
}

func (s *Store) KPIByID(ctx context.Context, id string) (KPIRef, error) {
	var out KPIRef
	err := s.DB.QueryRow(ctx, kpiRefSelect+` WHERE p.id = $1`, id).
		Scan(&out.ID, &out.Name, &out.KRAID, &out.GoalID)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrKPINotFound
	}
	return out, err
}

func (s *Store) ScopeForKPI(ctx context.Context, kpiID string) (assignment.Scope, error) {
	return assignment.NewStore(s.DB).ScopeForKPI(ctx, kpiID)
}

// UpsertPlanValue writes one bucket column of the plan addressed by key,
// creating the row on first write. column is one of target, q1..q4.
func (s *Store) UpsertPlanValue(ctx context.Context, key PlanKey, kpi KPIRef, userID, column string, value float64, description *string) (string, error) {
	if _, err := planColumnCheck(column); err != nil {
		return "", err
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO plans (user_id, role, owner_key, sector_id, subsector_id, goal_id, kra_id, kpi_id, year, `+column+`, description)
    VALUES ($1, $2, $3, NULLIF($4, '')::uuid, NULLIF($5, '')::uuid, $6, $7, $8, $9, $10, COALESCE($11, ''))
    ON CONFLICT ON CONSTRAINT plans_scope_key
    DO UPDATE SET `+column+` = EXCLUDED.`+column+`,
                  description = COALESCE($11, plans.description),
                  updated_at = now()
    RETURNING id
  `, userID, key.Role, key.OwnerKey, key.SectorID, key.SubsectorID, kpi.GoalID, kpi.KRAID, kpi.ID, key.Year, value, description).Scan(&id)
	return id, mapFK(err, ErrSectorUnresolved)
}

func planColumnCheck(column string) (string, error) {
	switch column {
	case "target", "q1", "q2", "q3", "q4":
		return column, nil
	}
	return "", ErrInvalidQuarter
}

func (s *Store) FindPlanID(ctx context.Context, key PlanKey) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id FROM plans
    WHERE kpi_id = $1 AND year = $2 AND role = $3
      AND sector_id IS NOT DISTINCT FROM NULLIF($4, '')::uuid
      AND subsector_id IS NOT DISTINCT FROM NULLIF($5, '')::uuid
      AND owner_key = $6
  `, key.KPIID, key.Year, key.Role, key.SectorID, key.SubsectorID, key.OwnerKey).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrPlanNotFound
	}
	return id, err
}

const headerColumns = `
    p.user_id, u.full_name, p.role,
    COALESCE(p.sector_id::text, ''), COALESCE(s.name, ''),
    COALESCE(p.subsector_id::text, ''), COALESCE(ss.name, ''),
    p.goal_id, g.description, p.kra_id, k.name, p.kpi_id, kp.name, p.year`

const headerJoins = `
    JOIN users u ON u.id = p.user_id
    LEFT JOIN sectors s ON s.id = p.sector_id
    LEFT JOIN subsectors ss ON ss.id = p.subsector_id
    JOIN goals g ON g.id = p.goal_id
    JOIN kras k ON k.id = p.kra_id
    JOIN kpis kp ON kp.id = p.kpi_id`

func headerDest(h *Header) []any {
	return []any{
		&h.UserID, &h.UserName, &h.Role,
		&h.SectorID, &h.SectorName,
		&h.SubsectorID, &h.SubsectorName,
		&h.GoalID, &h.GoalDescription, &h.KRAID, &h.KRAName, &h.KPIID, &h.KPIName, &h.Year,
	}
}

const planSelect = `SELECT p.id,` + headerColumns + `,
    p.target, p.q1, p.q2, p.q3, p.q4, p.description, p.created_at, p.updated_at
    FROM plans p` + headerJoins

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	dest := append([]any{&p.ID}, headerDest(&p.Header)...)
	dest = append(dest, &p.Target, &p.Q1, &p.Q2, &p.Q3, &p.Q4, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	err := row.Scan(dest...)
	return p, err
}

func (s *Store) GetPlan(ctx context.Context, id string) (Plan, error) {
	p, err := scanPlan(s.DB.QueryRow(ctx, planSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrPlanNotFound
	}
	return p, err
}

// listWhere renders the shared filter of plan and performance lists. The gate
// subquery checks the prior stage's decision on the record itself.
func listWhere(q ListQuery, rt approval.RecordType, recordAlias string) (string, []any) {
	where := []string{"1=1"}
	args := []any{}
	add := func(clause string, values ...any) {
		for _, v := range values {
			args = append(args, v)
			clause = strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1)
		}
		where = append(where, clause)
	}
	if q.Year != 0 {
		add("p.year = ?", q.Year)
	}
	if q.Role != "" {
		add("p.role = ?", q.Role)
	}
	if q.KPIID != "" {
		add("p.kpi_id = ?", q.KPIID)
	}
	if q.UserID != "" {
		add("p.user_id = ?", q.UserID)
	}
	if q.SectorID != "" {
		add("p.sector_id = ?", q.SectorID)
	}
	if q.SubsectorID != "" {
		add("p.subsector_id = ?", q.SubsectorID)
	}
	if q.GateStage != "" {
		gate := "EXISTS"
		if q.GateSkipsSectorLevel {
			gate = "p.subsector_id IS NULL OR EXISTS"
		}
		add(`(`+gate+` (
      SELECT 1 FROM validations v
      WHERE v.record_type = ? AND v.record_id = `+recordAlias+`.id
        AND v.stage = ? AND v.bucket = ? AND v.status = ?))`,
			string(rt), string(q.GateStage), string(q.Bucket), string(approval.StatusApproved))
	}
	return strings.Join(where, " AND "), args
}

func (s *Store) ListPlans(ctx context.Context, q ListQuery) ([]Plan, int, error) {
	cond, args := listWhere(q, approval.RecordPlan, "p")

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM plans p WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, q.Limit, q.Offset)
	rows, err := s.DB.Query(ctx, planSelect+` WHERE `+cond+`
    ORDER BY p.year DESC, kp.name, p.role
    LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// DeletePlan removes the plan, its performance and every recorded decision on
// either. Callers run it inside InTx.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	if _, err := s.DB.Exec(ctx, `
    DELETE FROM validations
    WHERE record_type = $1 AND record_id IN (SELECT id FROM performances WHERE plan_id = $2)
  `, string(approval.RecordPerformance), id); err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	_, err = s.DB.Exec(ctx, `DELETE FROM validations WHERE record_type = $1 AND record_id = $2`, string(approval.RecordPlan), id)
	return err
}

func (s *Store) LockPlan(ctx context.Context, id string) error {
	var locked string
	err := s.DB.QueryRow(ctx, `SELECT id FROM plans WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPlanNotFound
	}
	return err
}

func isMissing(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func mapFK(err error, target error) error {
	if db.IsForeignKeyViolation(err) {
		return target
	}
	return err
}
