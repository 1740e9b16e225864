package planninghandler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/auth"
	"pms/internal/domain/planning"
	"pms/internal/transport/http/middleware"
)

func serve(method, path, body, role string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	NewHandler(planning.NewService(nil, nil), nil, nil, nil).RegisterRoutes(router)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", Role: role}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSavePlanRequiresPlannerRole(t *testing.T) {
	rec := serve(http.MethodPost, "/plans", `{"kpiName":"x","year":2025,"quarter":0,"target":1}`, auth.RoleSystemAdmin)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSavePlanValidation(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing target", `{"kpiName":"Roads","year":2025,"quarter":1}`, "target"},
		{"blank kpi", `{"kpiName":"  ","year":2025,"quarter":1,"target":3}`, "kpiName"},
		{"quarter range", `{"kpiName":"Roads","year":2025,"quarter":7,"target":3}`, "quarter"},
		{"bad kra id", `{"kpiName":"Roads","year":2025,"quarter":1,"target":3,"kraId":"nope"}`, "kraId"},
	}
	for _, tc := range cases {
		rec := serve(http.MethodPost, "/plans", tc.body, auth.RoleMinister)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tc.field) {
			t.Fatalf("%s: expected issue for %s, got %s", tc.name, tc.field, rec.Body.String())
		}
	}
}

func TestSavePerformanceRequiresValue(t *testing.T) {
	rec := serve(http.MethodPost, "/performances", `{"kpiName":"Roads","year":2025,"quarter":2,"target":4}`, auth.RoleCEO)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"value"`) {
		t.Fatalf("expected value issue, got %s", rec.Body.String())
	}
}

func TestListRejectsBadQuarter(t *testing.T) {
	rec := serve(http.MethodGet, "/plans?year=2025&quarter=9", ``, auth.RoleMinister)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = serve(http.MethodGet, "/performances?bucket=q9", ``, auth.RoleMinister)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad bucket, got %d", rec.Code)
	}
}

func TestDeletePlanAdminOnly(t *testing.T) {
	rec := serve(http.MethodDelete, "/plans/abc", ``, auth.RoleMinister)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAssignMeasureGuards(t *testing.T) {
	rec := serve(http.MethodPost, "/measure-assignment", `{}`, auth.RoleChiefCEO)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for chief ceo, got %d", rec.Code)
	}

	body := `{"measureId":"1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d","workerId":"0f5e2b1c-6b2d-4a3e-9c4f-5d6e7f8a9b0c","target":5,"year":2025,"quarter":5}`
	rec = serve(http.MethodPost, "/measure-assignment", body, auth.RoleCEO)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for quarter 5, got %d", rec.Code)
	}
}

func TestListMeasureAssignmentsRoleGuard(t *testing.T) {
	rec := serve(http.MethodGet, "/measure-assignments", ``, auth.RoleMinister)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestMalformedPathIDsAreRejected(t *testing.T) {
	cases := []struct {
		method string
		path   string
		role   string
		field  string
	}{
		{http.MethodGet, "/plans/abc", auth.RoleMinister, "planID"},
		{http.MethodGet, "/performances/abc", auth.RoleMinister, "performanceID"},
		{http.MethodDelete, "/plans/abc", auth.RoleSystemAdmin, "planID"},
		{http.MethodDelete, "/performances/abc", auth.RoleSystemAdmin, "performanceID"},
		{http.MethodDelete, "/measure-assignments/abc", auth.RoleCEO, "assignmentID"},
	}
	for _, tc := range cases {
		rec := serve(tc.method, tc.path, ``, tc.role)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d", tc.method, tc.path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tc.field) {
			t.Fatalf("%s %s: expected issue for %s, got %s", tc.method, tc.path, tc.field, rec.Body.String())
		}
	}
}

func TestUnknownSectorIsAValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("save plan: %w", planning.ErrSectorUnresolved), "req-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sectorId") {
		t.Fatalf("expected sectorId issue, got %s", rec.Body.String())
	}
}
