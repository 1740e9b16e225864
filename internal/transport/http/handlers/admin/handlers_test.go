package adminhandler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/auth"
	"pms/internal/transport/http/middleware"
)

func serve(method, path, role string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	NewHandler(nil, nil, nil, nil, nil).RegisterRoutes(router)
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", Role: role}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesRequireSystemAdmin(t *testing.T) {
	for _, role := range []string{auth.RoleMinister, auth.RoleCEO} {
		if rec := serve(http.MethodPost, "/admin/rollups/recompute?year=2025", role); rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", role, rec.Code)
		}
		if rec := serve(http.MethodGet, "/admin/jobs/runs", role); rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403 on runs, got %d", role, rec.Code)
		}
	}
}

func TestRecomputeValidatesYear(t *testing.T) {
	for _, path := range []string{"/admin/rollups/recompute?year=abc", "/admin/rollups/recompute?year=12"} {
		if rec := serve(http.MethodPost, path, auth.RoleSystemAdmin); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}
