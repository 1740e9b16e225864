package approval

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

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

var lockQueries = map[RecordType]string{
	RecordPlan: `
    SELECT p.user_id, p.role, COALESCE(p.sector_id::text, ''), COALESCE(p.subsector_id::text, ''), p.kpi_id, p.year
    FROM plans p
    WHERE p.id = $1
    FOR UPDATE`,
	RecordPerformance: `
    SELECT p.user_id, p.role, COALESCE(p.sector_id::text, ''), COALESCE(p.subsector_id::text, ''), p.kpi_id, p.year
    FROM performances pf
    JOIN plans p ON p.id = pf.plan_id
    WHERE pf.id = $1
    FOR UPDATE OF pf`,
}

// LockRecord row-locks the plan or performance so concurrent decisions on the
// same record serialize.
func (s *Store) LockRecord(ctx context.Context, rt RecordType, id string) (RecordScope, error) {
	query, ok := lockQueries[rt]
	if !ok {
		return RecordScope{}, ErrRecordNotFound
	}
	var out RecordScope
	err := s.DB.QueryRow(ctx, query, id).Scan(&out.UserID, &out.Role, &out.SectorID, &out.SubsectorID, &out.KPIID, &out.Year)
	if errors.Is(err, pgx.ErrNoRows) {
		return RecordScope{}, ErrRecordNotFound
	}
	return out, err
}

func (s *Store) Load(ctx context.Context, rt RecordType, id string) (Chain, error) {
	chains, err := s.LoadMany(ctx, rt, []string{id})
	if err != nil {
		return nil, err
	}
	return chains[id], nil
}

// LoadMany returns a full chain for each id, Pending where nothing was recorded.
func (s *Store) LoadMany(ctx context.Context, rt RecordType, ids []string) (map[string]Chain, error) {
	out := make(map[string]Chain, len(ids))
	for _, id := range ids {
		out[id] = NewChain()
	}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT record_id::text, stage, bucket, status, description, COALESCE(decided_by::text, ''), decided_at
    FROM validations
    WHERE record_type = $1 AND record_id::text = ANY($2)
  `, string(rt), ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var recordID, stage, bucket, status string
		var d Decision
		if err := rows.Scan(&recordID, &stage, &bucket, &status, &d.Description, &d.DecidedBy, &d.DecidedAt); err != nil {
			return nil, err
		}
		d.Status = Status(status)
		chain, ok := out[recordID]
		if !ok {
			continue
		}
		chain.Set(Stage(stage), Bucket(bucket), d)
	}
	return out, rows.Err()
}

func (s *Store) Save(ctx context.Context, rt RecordType, id string, stage Stage, bucket Bucket, d Decision) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO validations (record_type, record_id, stage, bucket, status, description, decided_by, decided_at)
    VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, COALESCE($8, now()))
    ON CONFLICT (record_type, record_id, stage, bucket)
    DO UPDATE SET status = EXCLUDED.status,
                  description = EXCLUDED.description,
                  decided_by = EXCLUDED.decided_by,
                  decided_at = EXCLUDED.decided_at
  `, string(rt), id, string(stage), string(bucket), string(d.Status), d.Description, d.DecidedBy, d.DecidedAt)
	return err
}
