package evidence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"pms/internal/platform/db"
	"pms/internal/platform/querier"
	"pms/internal/platform/storage"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const fileSelect = `
    SELECT f.id, f.performance_id::text, f.worker_id, COALESCE(u.full_name, ''), COALESCE(u.sector_id::text, ''),
           COALESCE(u.subsector_id::text, ''), f.kpi_id, f.measure_id, COALESCE(m.name, ''), f.year, f.quarter, f.description, f.filename, f.filepath,
           f.content_type, f.size_bytes, f.confirmed, COALESCE(f.confirmed_by::text, ''), f.confirmed_at,
           f.created_at, f.updated_at
    FROM performance_files f
    JOIN users u ON u.id = f.worker_id
    JOIN measures m ON m.id = f.measure_id`

// workerPerformance picks the worker's performance row for the measure's KPI
// and year. It expects the upload's worker as $1, the year as $3 and the
// measures row as m.
const workerPerformance = `
      SELECT pf.id FROM performances pf
      JOIN plans p ON p.id = pf.plan_id
      WHERE p.user_id = $1::uuid AND p.kpi_id = m.kpi_id AND p.year = $3::int
      ORDER BY pf.updated_at DESC
      LIMIT 1`

func scanFile(row pgx.Row) (File, error) {
	var f File
	err := row.Scan(&f.ID, &f.PerformanceID, &f.WorkerID, &f.WorkerName, &f.SectorID,
		&f.SubsectorID, &f.KPIID, &f.MeasureID, &f.MeasureName, &f.Year, &f.Quarter, &f.Description, &f.FileName, &f.Path,
		&f.ContentType, &f.Size, &f.Confirmed, &f.ConfirmedBy, &f.ConfirmedAt,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return f, err
	}
	f.URL = DownloadURL(f.ID)
	return f, nil
}

// DownloadURL is the API path serving the stored bytes of a file.
func DownloadURL(id string) string {
	return "/api/v1/performance-files/" + id + "/download"
}

func (s *Store) Upsert(ctx context.Context, in UploadInput, obj storage.Object) (File, string, error) {
	var previous string
	err := querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		err := q.QueryRow(ctx, `
      SELECT filepath FROM performance_files
      WHERE worker_id = $1 AND measure_id = $2 AND year = $3 AND quarter = $4
      FOR UPDATE
    `, in.WorkerID, in.MeasureID, in.Year, in.Quarter).Scan(&previous)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		tag, err := q.Exec(ctx, `
      INSERT INTO performance_files (worker_id, measure_id, kpi_id, performance_id, year, quarter, description, filename, filepath, content_type, size_bytes)
      SELECT $1::uuid, m.id, m.kpi_id, (`+workerPerformance+`), $3::int, $4::int, $5::text, $6::text, $7::text, $8::text, $9::bigint
      FROM measures m
      WHERE m.id = $2::uuid
      ON CONFLICT ON CONSTRAINT performance_files_scope_key DO UPDATE
      SET description = EXCLUDED.description,
          filename = EXCLUDED.filename,
          filepath = EXCLUDED.filepath,
          content_type = EXCLUDED.content_type,
          size_bytes = EXCLUDED.size_bytes,
          performance_id = EXCLUDED.performance_id,
          confirmed = false,
          confirmed_by = NULL,
          confirmed_at = NULL,
          updated_at = now()
    `, in.WorkerID, in.MeasureID, in.Year, in.Quarter, in.Description, obj.Name, obj.Path, obj.ContentType, obj.Size)
		if db.IsForeignKeyViolation(err) {
			return ErrMeasureNotFound
		}
		if err == nil && tag.RowsAffected() == 0 {
			return ErrMeasureNotFound
		}
		return err
	})
	if err != nil {
		return File{}, "", err
	}

	f, err := scanFile(s.DB.QueryRow(ctx, fileSelect+`
    WHERE f.worker_id = $1 AND f.measure_id = $2 AND f.year = $3 AND f.quarter = $4
  `, in.WorkerID, in.MeasureID, in.Year, in.Quarter))
	if err != nil {
		return File{}, "", err
	}
	return f, previous, nil
}

func (s *Store) Get(ctx context.Context, id string) (File, error) {
	f, err := scanFile(s.DB.QueryRow(ctx, fileSelect+` WHERE f.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return File{}, ErrNotFound
	}
	return f, err
}

func (s *Store) List(ctx context.Context, f Filter) ([]File, error) {
	var where []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.WorkerID != "" {
		add("f.worker_id = $%d", f.WorkerID)
	}
	if f.SectorID != "" {
		add("u.sector_id = $%d", f.SectorID)
	}
	if f.SubsectorID != "" {
		add("u.subsector_id = $%d", f.SubsectorID)
	}
	if f.MeasureID != "" {
		add("f.measure_id = $%d", f.MeasureID)
	}
	if f.KPIID != "" {
		add("f.kpi_id = $%d", f.KPIID)
	}
	if f.PerformanceID != "" {
		add("f.performance_id = $%d", f.PerformanceID)
	}
	if f.Year != 0 {
		add("f.year = $%d", f.Year)
	}
	if f.Quarter != 0 {
		add("f.quarter = $%d", f.Quarter)
	}
	if f.Confirmed != nil {
		add("f.confirmed = $%d", *f.Confirmed)
	}

	query := fileSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY f.year DESC, f.quarter DESC, f.created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		item, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) Confirm(ctx context.Context, id, actorID string) (File, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE performance_files
    SET confirmed = true, confirmed_by = $2, confirmed_at = now(), updated_at = now()
    WHERE id = $1
  `, id, actorID)
	if err != nil {
		return File{}, err
	}
	if tag.RowsAffected() == 0 {
		return File{}, ErrNotFound
	}
	return s.Get(ctx, id)
}
