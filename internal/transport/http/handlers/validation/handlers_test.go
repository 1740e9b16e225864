package validationhandler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/approval"
	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/transport/http/middleware"
)

func serve(method, path, body, role string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	NewHandler(approval.NewService(nil), nil, nil, nil, nil).RegisterRoutes(router)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", Role: role}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestValidationRoutesRequireStageRole(t *testing.T) {
	for _, role := range []string{auth.RoleWorker, auth.RoleSystemAdmin} {
		rec := serve(http.MethodGet, "/target-validation?year=2025", ``, role)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", role, rec.Code)
		}
		rec = serve(http.MethodPatch, "/performance-validation/validate/4b6f0c1e-2d3a-4f5b-8c7d-9e0f1a2b3c4d", `{"type":"year","status":"Approved"}`, role)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403 on decide, got %d", role, rec.Code)
		}
	}
}

func TestDecidePayloadValidation(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"bad bucket", `{"type":"q5","status":"Approved"}`, "type"},
		{"bad status", `{"type":"q1","status":"Maybe"}`, "status"},
		{"missing type", `{"status":"Approved"}`, "type"},
	}
	for _, tc := range cases {
		rec := serve(http.MethodPatch, "/target-validation/validate/4b6f0c1e-2d3a-4f5b-8c7d-9e0f1a2b3c4d", tc.body, auth.RoleCEO)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tc.field) {
			t.Fatalf("%s: expected %s issue, got %s", tc.name, tc.field, rec.Body.String())
		}
	}
}

func TestDecideRejectsRoleMismatch(t *testing.T) {
	rec := serve(http.MethodPatch, "/target-validation/validate/4b6f0c1e-2d3a-4f5b-8c7d-9e0f1a2b3c4d", `{"type":"year","status":"Approved","role":"Minister"}`, auth.RoleCEO)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestQueueRejectsBadQuarter(t *testing.T) {
	rec := serve(http.MethodGet, "/performance-validation?year=2025&quarter=6", ``, auth.RoleMinister)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuditActionForStatus(t *testing.T) {
	cases := map[approval.Status]string{
		approval.StatusApproved: audit.ActionApprove,
		approval.StatusRejected: audit.ActionReject,
		approval.StatusPending:  audit.ActionReset,
	}
	for status, want := range cases {
		if got := auditAction(status); got != want {
			t.Fatalf("%s: expected %s, got %s", status, want, got)
		}
	}
}

func TestDecideRejectsMalformedRecordID(t *testing.T) {
	rec := serve(http.MethodPatch, "/target-validation/validate/abc", `{"type":"year","status":"Approved"}`, auth.RoleCEO)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "recordID") {
		t.Fatalf("expected recordID issue, got %s", rec.Body.String())
	}
}
