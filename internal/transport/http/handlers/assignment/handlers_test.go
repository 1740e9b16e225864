package assignmenthandler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/assignment"
	"pms/internal/domain/auth"
	"pms/internal/transport/http/middleware"
)

func serve(method, path, body, role string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	NewHandler(assignment.NewService(nil), nil).RegisterRoutes(router)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", Role: role}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAssignKPIRoleGuard(t *testing.T) {
	for _, role := range []string{auth.RoleCEO, auth.RoleWorker, auth.RoleChiefCEO} {
		rec := serve(http.MethodPost, "/assign-kpi", `{}`, role)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", role, rec.Code)
		}
	}
}

func TestAssignKPIBothScopesRejected(t *testing.T) {
	body := `{"sectorId":"7d8c3a56-31d5-4c8e-9ef1-1a4f4bde2d11","subsectorId":"5a6f9c10-1b7d-4b4a-8b0e-2f3b1c9d7e21",` +
		`"kraId":"0f5e2b1c-6b2d-4a3e-9c4f-5d6e7f8a9b0c","kpiId":"1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"}`
	rec := serve(http.MethodPost, "/assign-kpi", body, auth.RoleMinister)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestYearRangeRequiresIntegerYears(t *testing.T) {
	body := `{"kpiId":"1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d","startYear":"2024","endYear":2025}`
	rec := serve(http.MethodPost, "/kpi-year-assignments", body, auth.RoleChiefCEO)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestYearRangeOrderRejected(t *testing.T) {
	body := `{"sectorId":"7d8c3a56-31d5-4c8e-9ef1-1a4f4bde2d11","kpiId":"1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d","startYear":2026,"endYear":2024}`
	rec := serve(http.MethodPost, "/kpi-year-assignments", body, auth.RoleStrategicUnit)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "startYear") {
		t.Fatalf("expected startYear issue, got %s", rec.Body.String())
	}
}

func TestDeleteAssignmentAdminOnly(t *testing.T) {
	rec := serve(http.MethodDelete, "/kpi-assignments/abc", ``, auth.RoleMinister)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
