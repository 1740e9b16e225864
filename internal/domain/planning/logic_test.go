package planning

import (
	"errors"
	"testing"

	"pms/internal/domain/approval"
	"pms/internal/domain/auth"
)

func TestOwnerKeyOnlyForWorkers(t *testing.T) {
	if got := OwnerKey(auth.RoleWorker, "u1"); got != "u1" {
		t.Fatalf("expected worker owner key u1, got %q", got)
	}
	if got := OwnerKey(auth.RoleCEO, "u1"); got != "" {
		t.Fatalf("expected empty owner key for CEO, got %q", got)
	}
}

func TestLatestNonZero(t *testing.T) {
	cases := []struct {
		in   [4]float64
		want float64
	}{
		{[4]float64{}, 0},
		{[4]float64{10, 0, 0, 0}, 10},
		{[4]float64{10, 20, 0, 0}, 20},
		{[4]float64{10, 0, 30, 0}, 30},
		{[4]float64{0, 0, 0, 40}, 40},
	}
	for _, tc := range cases {
		if got := LatestNonZero(tc.in); got != tc.want {
			t.Fatalf("LatestNonZero(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCheckQuarterMonotonic(t *testing.T) {
	cases := []struct {
		name    string
		q       [4]float64
		quarter int
		value   float64
		want    error
	}{
		{"first entry", [4]float64{}, 1, 10, nil},
		{"increase", [4]float64{10}, 2, 15, nil},
		{"equal", [4]float64{10}, 2, 10, nil},
		{"decrease", [4]float64{10}, 2, 5, ErrQuarterRegression},
		{"skips unreported quarter", [4]float64{10, 0}, 3, 12, nil},
		{"below earlier across gap", [4]float64{10, 0}, 3, 8, ErrQuarterRegression},
		{"above later quarter", [4]float64{10, 0, 20}, 2, 25, ErrQuarterRegression},
		{"between neighbours", [4]float64{10, 0, 20}, 2, 15, nil},
		{"clearing later quarter allowed", [4]float64{10, 20}, 1, 0, nil},
		{"bad quarter", [4]float64{}, 5, 1, ErrInvalidQuarter},
	}
	for _, tc := range cases {
		err := CheckQuarterMonotonic(tc.q, tc.quarter, tc.value)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCheckYearMonotonic(t *testing.T) {
	if err := CheckYearMonotonic(0, 50); err != nil {
		t.Fatalf("unreported year should pass, got %v", err)
	}
	if err := CheckYearMonotonic(40, 50); !errors.Is(err, ErrYearRegression) {
		t.Fatalf("expected ErrYearRegression, got %v", err)
	}
	if err := CheckYearMonotonic(50, 50); err != nil {
		t.Fatalf("equal year should pass, got %v", err)
	}
}

func TestApplyPerformanceDerivesYear(t *testing.T) {
	desc := "on track"
	v, err := ApplyPerformance(PerformanceValues{}, 1, 10, &desc)
	if err != nil {
		t.Fatalf("apply q1: %v", err)
	}
	v, err = ApplyPerformance(v, 3, 30, nil)
	if err != nil {
		t.Fatalf("apply q3: %v", err)
	}
	if v.Year != 30 {
		t.Fatalf("expected yearly figure 30, got %v", v.Year)
	}
	if v.Descriptions[0] != "on track" {
		t.Fatalf("expected q1 description kept, got %q", v.Descriptions[0])
	}

	v, err = ApplyPerformance(v, 0, 99, nil)
	if err != nil {
		t.Fatalf("apply year: %v", err)
	}
	if v.Year != 99 || v.Quarters[2] != 30 {
		t.Fatalf("yearly write should only set the year, got %+v", v)
	}
}

func TestPlanColumn(t *testing.T) {
	if col, _ := planColumn(0); col != "target" {
		t.Fatalf("expected target, got %q", col)
	}
	if col, _ := planColumn(4); col != "q4" {
		t.Fatalf("expected q4, got %q", col)
	}
	if _, err := planColumn(7); !errors.Is(err, ErrInvalidQuarter) {
		t.Fatalf("expected ErrInvalidQuarter, got %v", err)
	}
}

func TestBuildListQueryRoutesByRole(t *testing.T) {
	f := ListFilter{Year: 2024}

	q, err := BuildListQuery(auth.UserContext{UserID: "w1", Role: auth.RoleWorker}, f)
	if err != nil || q.UserID != "w1" || q.GateStage != "" {
		t.Fatalf("worker query unexpected: %+v err=%v", q, err)
	}

	q, err = BuildListQuery(auth.UserContext{Role: auth.RoleCEO, SectorID: "s1", SubsectorID: "ss1"}, f)
	if err != nil || q.SubsectorID != "ss1" || q.SectorID != "" || q.GateStage != "" {
		t.Fatalf("ceo query unexpected: %+v err=%v", q, err)
	}
	if q.Bucket != approval.BucketYear || q.Limit != defaultListLimit {
		t.Fatalf("expected defaults, got %+v", q)
	}

	q, err = BuildListQuery(auth.UserContext{Role: auth.RoleChiefCEO, SectorID: "s1"}, ListFilter{Bucket: approval.BucketQ2})
	if err != nil || q.SectorID != "s1" || q.GateStage != approval.StageCEO || !q.GateSkipsSectorLevel || q.Bucket != approval.BucketQ2 {
		t.Fatalf("chief ceo query unexpected: %+v err=%v", q, err)
	}

	q, err = BuildListQuery(auth.UserContext{Role: auth.RoleStrategicUnit}, f)
	if err != nil || q.SectorID != "" || q.GateStage != approval.StageChiefCEO || q.GateSkipsSectorLevel {
		t.Fatalf("strategic query unexpected: %+v err=%v", q, err)
	}

	q, err = BuildListQuery(auth.UserContext{Role: auth.RoleMinister}, f)
	if err != nil || q.GateStage != approval.StageStrategicUnit {
		t.Fatalf("minister query unexpected: %+v err=%v", q, err)
	}

	q, err = BuildListQuery(auth.UserContext{Role: auth.RoleSystemAdmin}, ListFilter{Limit: 5000})
	if err != nil || q.GateStage != "" || q.Limit != maxListLimit {
		t.Fatalf("admin query unexpected: %+v err=%v", q, err)
	}

	if _, err := BuildListQuery(auth.UserContext{Role: auth.RoleChiefCEO}, f); !errors.Is(err, ErrOutOfScope) {
		t.Fatalf("chief ceo without sector should be rejected, got %v", err)
	}
}
