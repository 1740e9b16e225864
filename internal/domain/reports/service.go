package reports

import (
	"context"
	"errors"
	"math"
	"time"

	"pms/internal/domain/auth"
)

var ErrOutOfScope = errors.New("report is outside the caller's scope")

type Service struct {
	Store *Store
	now   func() time.Time
}

func NewService(store *Store) *Service {
	return &Service{Store: store, now: time.Now}
}

// ScopeFilter narrows a scorecard to the viewer's organisation. CEOs see
// their subsector and Chief CEOs their sector. Role defaults to CEO plans,
// which carry the rolled-up worker targets.
func ScopeFilter(viewer auth.UserContext, year int, role string) (ScorecardFilter, error) {
	if role == "" {
		role = auth.RoleCEO
	}
	f := ScorecardFilter{Year: year, Role: role}
	switch viewer.Role {
	case auth.RoleCEO:
		if viewer.SubsectorID == "" {
			return f, ErrOutOfScope
		}
		f.SubsectorID = viewer.SubsectorID
	case auth.RoleChiefCEO:
		if viewer.SectorID == "" {
			return f, ErrOutOfScope
		}
		f.SectorID = viewer.SectorID
	case auth.RoleMinister, auth.RoleStrategicUnit, auth.RoleSystemAdmin:
	default:
		return f, ErrOutOfScope
	}
	return f, nil
}

func (s *Service) Scorecard(ctx context.Context, viewer auth.UserContext, year int, role string) (Scorecard, error) {
	f, err := ScopeFilter(viewer, year, role)
	if err != nil {
		return Scorecard{}, err
	}
	rows, err := s.Store.Scorecard(ctx, f)
	if err != nil {
		return Scorecard{}, err
	}
	return Summarize(f, rows, s.now()), nil
}

// Summarize fills per-row and overall achievement percentages.
func Summarize(f ScorecardFilter, rows []ScorecardRow, at time.Time) Scorecard {
	sc := Scorecard{
		Year:        f.Year,
		Role:        f.Role,
		SectorID:    f.SectorID,
		SubsectorID: f.SubsectorID,
		Rows:        rows,
		GeneratedAt: at.UTC(),
	}
	if sc.Rows == nil {
		sc.Rows = []ScorecardRow{}
	}
	for i := range sc.Rows {
		sc.Rows[i].Achievement = achievement(sc.Rows[i].Actual, sc.Rows[i].Target)
		sc.Target += sc.Rows[i].Target
		sc.Actual += sc.Rows[i].Actual
	}
	sc.Achievement = achievement(sc.Actual, sc.Target)
	return sc
}

func achievement(actual, target float64) float64 {
	if target == 0 {
		return 0
	}
	return math.Round(actual/target*10000) / 100
}
