package evidencehandler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/auth"
	"pms/internal/domain/evidence"
	"pms/internal/transport/http/middleware"
)

func router() chi.Router {
	r := chi.NewRouter()
	NewHandler(evidence.NewService(nil, nil), nil).RegisterRoutes(r)
	return r
}

func uploadRequest(t *testing.T, fields map[string]string, withFile bool, role string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if withFile {
		part, err := mw.CreateFormFile("file", "report.pdf")
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		part.Write([]byte("%PDF-1.4"))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/performance-files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "w1", Role: role}))
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, req)
	return rec
}

func TestUploadWorkerOnly(t *testing.T) {
	rec := uploadRequest(t, map[string]string{}, true, auth.RoleCEO)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestUploadValidation(t *testing.T) {
	fields := map[string]string{
		"measureId": "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d",
		"year":      "2025",
		"quarter":   "0",
	}
	rec := uploadRequest(t, fields, false, auth.RoleWorker)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, field := range []string{"quarter", "file"} {
		if !strings.Contains(body, field) {
			t.Fatalf("expected %s issue, got %s", field, body)
		}
	}
}

func TestUploadRejectsNonMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/performance-files", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "w1", Role: auth.RoleWorker}))
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestConfirmCEOOnly(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/performance-files/4b6f0c1e-2d3a-4f5b-8c7d-9e0f1a2b3c4d/confirm", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "w1", Role: auth.RoleWorker}))
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestMalformedFileIDIsRejected(t *testing.T) {
	for _, path := range []string{"/performance-files/abc", "/performance-files/abc/download", "/performance-files/abc/confirm"} {
		method := http.MethodGet
		if strings.HasSuffix(path, "/confirm") {
			method = http.MethodPatch
		}
		req := httptest.NewRequest(method, path, nil)
		req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "c1", Role: auth.RoleCEO}))
		rec := httptest.NewRecorder()
		router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d", method, path, rec.Code)
		}
	}
}

func TestListRejectsMalformedFilterIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/performance-files?performanceId=abc", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "m1", Role: auth.RoleMinister}))
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "performanceId") {
		t.Fatalf("expected 400 with performanceId issue, got %d %s", rec.Code, rec.Body.String())
	}
}
