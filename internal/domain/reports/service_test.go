package reports

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"pms/internal/domain/auth"
)

func TestScopeFilter(t *testing.T) {
	f, err := ScopeFilter(auth.UserContext{Role: auth.RoleCEO, SubsectorID: "ss1"}, 2024, "")
	if err != nil || f.SubsectorID != "ss1" || f.Role != auth.RoleCEO {
		t.Fatalf("unexpected CEO filter %+v err=%v", f, err)
	}
	f, err = ScopeFilter(auth.UserContext{Role: auth.RoleChiefCEO, SectorID: "s1"}, 2024, auth.RoleWorker)
	if err != nil || f.SectorID != "s1" || f.Role != auth.RoleWorker {
		t.Fatalf("unexpected Chief CEO filter %+v err=%v", f, err)
	}
	f, err = ScopeFilter(auth.UserContext{Role: auth.RoleMinister}, 2024, "")
	if err != nil || f.SectorID != "" || f.SubsectorID != "" {
		t.Fatalf("unexpected Minister filter %+v err=%v", f, err)
	}
	if _, err := ScopeFilter(auth.UserContext{Role: auth.RoleWorker}, 2024, ""); !errors.Is(err, ErrOutOfScope) {
		t.Fatalf("expected ErrOutOfScope for worker, got %v", err)
	}
}

func TestSummarizeComputesAchievement(t *testing.T) {
	rows := []ScorecardRow{
		{KPIName: "Roads", Target: 200, Actual: 150},
		{KPIName: "Bridges", Target: 0, Actual: 3},
	}
	sc := Summarize(ScorecardFilter{Year: 2024, Role: auth.RoleCEO}, rows, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if sc.Rows[0].Achievement != 75 {
		t.Fatalf("expected 75%%, got %v", sc.Rows[0].Achievement)
	}
	if sc.Rows[1].Achievement != 0 {
		t.Fatalf("zero target should give 0%%, got %v", sc.Rows[1].Achievement)
	}
	if sc.Target != 200 || sc.Actual != 153 || sc.Achievement != 76.5 {
		t.Fatalf("unexpected totals %+v", sc)
	}
}

func TestWritePDF(t *testing.T) {
	sc := Summarize(ScorecardFilter{Year: 2024, Role: auth.RoleCEO}, []ScorecardRow{{KRAName: "Infrastructure", KPIName: "Roads", Plans: 2, Target: 10, Actual: 5}}, time.Now())
	var buf bytes.Buffer
	if err := WritePDF(&buf, sc); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected PDF header")
	}
}
