package auth

import (
	"context"
	"errors"
	"strings"

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

const userColumns = `
    u.id, u.full_name, u.email, u.role,
    COALESCE(u.sector_id::text, ''), COALESCE(s.name, ''),
    COALESCE(u.subsector_id::text, ''), COALESCE(ss.name, ''),
    u.status, u.last_login, u.created_at`

const userJoins = `
    FROM users u
    LEFT JOIN sectors s ON s.id = u.sector_id
    LEFT JOIN subsectors ss ON ss.id = u.subsector_id`

func scanUser(row pgx.Row, extra ...any) (User, error) {
	var u User
	dest := []any{
		&u.ID, &u.FullName, &u.Email, &u.Role,
		&u.SectorID, &u.SectorName,
		&u.SubsectorID, &u.SubsectorName,
		&u.Status, &u.LastLogin, &u.CreatedAt,
	}
	dest = append(dest, extra...)
	err := row.Scan(dest...)
	return u, err
}

func (s *Store) findCredentials(ctx context.Context, email string) (credentials, error) {
	var out credentials
	row := s.DB.QueryRow(ctx, `SELECT `+userColumns+`, u.password_hash`+userJoins+`
    WHERE lower(u.email) = lower($1) AND u.status = $2`, strings.TrimSpace(email), UserStatusActive)
	user, err := scanUser(row, &out.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrInvalidCredentials
	}
	out.User = user
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	user, err := scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+userJoins+` WHERE u.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

type UserFilter struct {
	Role        string
	SectorID    string
	SubsectorID string
	Limit       int
	Offset      int
}

func (s *Store) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	where := []string{"1=1"}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, strings.ReplaceAll(clause, "?", "$"+itoa(len(args))))
	}
	if filter.Role != "" {
		add("u.role = ?", filter.Role)
	}
	if filter.SectorID != "" {
		add("u.sector_id = ?", filter.SectorID)
	}
	if filter.SubsectorID != "" {
		add("u.subsector_id = ?", filter.SubsectorID)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM users u WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, `SELECT `+userColumns+userJoins+` WHERE `+cond+`
    ORDER BY u.full_name
    LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, user)
	}
	return out, total, rows.Err()
}

// UsersInScope returns active users holding role whose sector and subsector
// match when those are non-empty.
func (s *Store) UsersInScope(ctx context.Context, role, sectorID, subsectorID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM users
    WHERE role = $1 AND status = $2
      AND ($3 = '' OR sector_id::text = $3)
      AND ($4 = '' OR subsector_id::text = $4)
  `, role, UserStatusActive, sectorID, subsectorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, in NewUser, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (full_name, email, password_hash, role, sector_id, subsector_id, status)
    VALUES ($1, lower($2), $3, $4, NULLIF($5, '')::uuid, NULLIF($6, '')::uuid, $7)
    RETURNING id
  `, in.FullName, strings.TrimSpace(in.Email), passwordHash, in.Role, in.SectorID, in.SubsectorID, UserStatusActive).Scan(&id)
	if db.IsUniqueViolation(err) {
		return "", ErrEmailTaken
	}
	return id, err
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd UserUpdate) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET
      full_name = COALESCE($2, full_name),
      role = COALESCE($3, role),
      sector_id = CASE WHEN $4::text IS NULL THEN sector_id ELSE NULLIF($4, '')::uuid END,
      subsector_id = CASE WHEN $5::text IS NULL THEN subsector_id ELSE NULLIF($5, '')::uuid END,
      status = COALESCE($6, status)
    WHERE id = $1
  `, id, upd.FullName, upd.Role, upd.SectorID, upd.SubsectorID, upd.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", hash, id)
	return err
}

func (s *Store) PasswordHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := s.DB.QueryRow(ctx, "SELECT password_hash FROM users WHERE id = $1", id).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return hash, err
}

// SubsectorInSector reports whether subsectorID belongs to sectorID.
func (s *Store) SubsectorInSector(ctx context.Context, sectorID, subsectorID string) (bool, error) {
	var ok bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM subsectors WHERE id = $1 AND sector_id = $2)
  `, subsectorID, sectorID).Scan(&ok)
	return ok, err
}

// SectorOfSubsector returns the parent sector of subsectorID.
func (s *Store) SectorOfSubsector(ctx context.Context, subsectorID string) (string, error) {
	var sectorID string
	err := s.DB.QueryRow(ctx, `
    SELECT sector_id::text FROM subsectors WHERE id = $1
  `, subsectorID).Scan(&sectorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidScope
	}
	return sectorID, err
}
