package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pms/internal/platform/db"
	"pms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// mapWriteErr turns constraint violations into catalog errors.
func mapWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return ErrDuplicate
	case db.IsForeignKeyViolation(err):
		return ErrParent
	}
	return err
}

// mapDeleteErr is mapWriteErr for deletes, where a foreign key violation means
// another row still points at the one being removed.
func mapDeleteErr(tag pgconn.CommandTag, err error) error {
	if db.IsForeignKeyViolation(err) {
		return ErrInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapUpdate(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Store) ListSectors(ctx context.Context) ([]Sector, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, name, created_at FROM sectors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Sector{}
	for rows.Next() {
		var item Sector
		if err := rows.Scan(&item.ID, &item.Name, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) GetSector(ctx context.Context, id string) (Sector, error) {
	var item Sector
	err := s.DB.QueryRow(ctx, `SELECT id, name, created_at FROM sectors WHERE id = $1`, id).
		Scan(&item.ID, &item.Name, &item.CreatedAt)
	return item, notFound(err)
}

func (s *Store) CreateSector(ctx context.Context, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `INSERT INTO sectors (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, mapWriteErr(err)
}

func (s *Store) UpdateSector(ctx context.Context, id, name string) error {
	return mapUpdate(s.DB.Exec(ctx, `UPDATE sectors SET name = $2 WHERE id = $1`, id, name))
}

func (s *Store) DeleteSector(ctx context.Context, id string) error {
	return mapDeleteErr(s.DB.Exec(ctx, `DELETE FROM sectors WHERE id = $1`, id))
}

const subsectorSelect = `
    SELECT ss.id, ss.name, ss.sector_id, s.name, ss.created_at
    FROM subsectors ss
    JOIN sectors s ON s.id = ss.sector_id`

func scanSubsector(row pgx.Row) (Subsector, error) {
	var item Subsector
	err := row.Scan(&item.ID, &item.Name, &item.SectorID, &item.SectorName, &item.CreatedAt)
	return item, err
}

func (s *Store) ListSubsectors(ctx context.Context, sectorID string) ([]Subsector, error) {
	rows, err := s.DB.Query(ctx, subsectorSelect+`
    WHERE ($1 = '' OR ss.sector_id::text = $1)
    ORDER BY s.name, ss.name`, sectorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Subsector{}
	for rows.Next() {
		item, err := scanSubsector(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) GetSubsector(ctx context.Context, id string) (Subsector, error) {
	item, err := scanSubsector(s.DB.QueryRow(ctx, subsectorSelect+` WHERE ss.id = $1`, id))
	return item, notFound(err)
}

func (s *Store) CreateSubsector(ctx context.Context, sectorID, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `INSERT INTO subsectors (sector_id, name) VALUES ($1, $2) RETURNING id`, sectorID, name).Scan(&id)
	return id, mapWriteErr(err)
}

func (s *Store) UpdateSubsector(ctx context.Context, id, sectorID, name string) error {
	return mapUpdate(s.DB.Exec(ctx, `UPDATE subsectors SET sector_id = $2, name = $3 WHERE id = $1`, id, sectorID, name))
}

func (s *Store) DeleteSubsector(ctx context.Context, id string) error {
	return mapDeleteErr(s.DB.Exec(ctx, `DELETE FROM subsectors WHERE id = $1`, id))
}
