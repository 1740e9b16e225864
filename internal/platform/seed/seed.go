package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"gopkg.in/yaml.v3"

	"pms/internal/domain/auth"
	"pms/internal/platform/config"
	"pms/internal/platform/querier"
)

// Data is the reference data loaded from SEED_FILE.
type Data struct {
	Sectors []Sector `yaml:"sectors"`
	Goals   []Goal   `yaml:"goals"`
}

type Sector struct {
	Name       string   `yaml:"name"`
	Subsectors []string `yaml:"subsectors"`
}

type Goal struct {
	Description string `yaml:"description"`
	KRAs        []KRA  `yaml:"kras"`
}

type KRA struct {
	Name string `yaml:"name"`
	KPIs []KPI  `yaml:"kpis"`
}

type KPI struct {
	Name     string   `yaml:"name"`
	Measures []string `yaml:"measures"`
}

func Parse(raw []byte) (Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Data{}, fmt.Errorf("parse seed file: %w", err)
	}
	for _, s := range d.Sectors {
		if strings.TrimSpace(s.Name) == "" {
			return Data{}, errors.New("seed file: sector without name")
		}
	}
	for _, g := range d.Goals {
		if strings.TrimSpace(g.Description) == "" {
			return Data{}, errors.New("seed file: goal without description")
		}
	}
	return d, nil
}

func LoadFile(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	return Parse(raw)
}

// Run creates the bootstrap admin and loads SEED_FILE when set. Every step is
// idempotent so it can run on each start.
func Run(ctx context.Context, q querier.Querier, cfg config.Config) error {
	if err := ensureAdminUser(ctx, q, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.SeedFile) == "" {
		return nil
	}
	data, err := LoadFile(cfg.SeedFile)
	if err != nil {
		return err
	}
	return querier.InTx(ctx, q, func(tx querier.Querier) error {
		return Apply(ctx, tx, data)
	})
}

func Apply(ctx context.Context, q querier.Querier, d Data) error {
	for _, s := range d.Sectors {
		sectorID, err := ensure(ctx, q,
			"SELECT id FROM sectors WHERE name = $1",
			"INSERT INTO sectors (name) VALUES ($1) RETURNING id",
			strings.TrimSpace(s.Name))
		if err != nil {
			return err
		}
		for _, name := range s.Subsectors {
			if _, err := ensure(ctx, q,
				"SELECT id FROM subsectors WHERE sector_id = $1 AND name = $2",
				"INSERT INTO subsectors (sector_id, name) VALUES ($1, $2) RETURNING id",
				sectorID, strings.TrimSpace(name)); err != nil {
				return err
			}
		}
	}

	for _, g := range d.Goals {
		goalID, err := ensure(ctx, q,
			"SELECT id FROM goals WHERE description = $1",
			"INSERT INTO goals (description) VALUES ($1) RETURNING id",
			strings.TrimSpace(g.Description))
		if err != nil {
			return err
		}
		for _, k := range g.KRAs {
			kraID, err := ensure(ctx, q,
				"SELECT id FROM kras WHERE goal_id = $1 AND name = $2",
				"INSERT INTO kras (goal_id, name) VALUES ($1, $2) RETURNING id",
				goalID, strings.TrimSpace(k.Name))
			if err != nil {
				return err
			}
			for _, p := range k.KPIs {
				kpiID, err := ensure(ctx, q,
					"SELECT id FROM kpis WHERE name = $2 AND kra_id = $1",
					"INSERT INTO kpis (kra_id, name) VALUES ($1, $2) RETURNING id",
					kraID, strings.TrimSpace(p.Name))
				if err != nil {
					return err
				}
				for _, m := range p.Measures {
					if _, err := ensure(ctx, q,
						"SELECT id FROM measures WHERE kpi_id = $1 AND name = $2",
						"INSERT INTO measures (kpi_id, name) VALUES ($1, $2) RETURNING id",
						kpiID, strings.TrimSpace(m)); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// ensure returns the id found by lookup, inserting with the same arguments
// when nothing matches.
func ensure(ctx context.Context, q querier.Querier, lookup, insert string, args ...any) (string, error) {
	var id string
	err := q.QueryRow(ctx, lookup, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	if err := q.QueryRow(ctx, insert, args...).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func ensureAdminUser(ctx context.Context, q querier.Querier, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := q.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
    INSERT INTO users (full_name, email, password_hash, role, status)
    VALUES ($1, $2, $3, $4, $5)
  `, "System Administrator", email, hash, auth.RoleSystemAdmin, auth.UserStatusActive)
	return err
}
