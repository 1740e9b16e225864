package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pms/internal/domain/auth"
)

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", Role: auth.RoleCEO, SectorID: "s1", SubsectorID: "ss1"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	called := false
	handler := Auth(secret, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.UserID != "u1" || user.Role != auth.RoleCEO || user.SubsectorID != "ss1" {
			t.Fatalf("unexpected user: %+v", user)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(HeaderSubsectorID, "other")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := Auth("secret", false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestAuthMiddlewareOverlaysTrustedScopeHeaders(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", Role: auth.RoleCEO, SectorID: "s1", SubsectorID: "ss1"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	var got auth.UserContext
	handler := Auth(secret, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(HeaderUserRole, auth.RoleChiefCEO)
	req.Header.Set(HeaderSectorID, "s2")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.Role != auth.RoleChiefCEO || got.SectorID != "s2" || got.SubsectorID != "ss1" {
		t.Fatalf("unexpected overlay result: %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(HeaderUserRole, "Emperor")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got.Role != auth.RoleCEO {
		t.Fatalf("unknown role should be ignored, got %q", got.Role)
	}
}

func TestAuthMiddlewareAcceptsWebsocketQueryToken(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u9", Role: auth.RoleWorker}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	var ok bool
	handler := Auth(secret, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/ws?access_token="+token, nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if ok {
		t.Fatal("query token must be ignored on plain requests")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/chat/ws?access_token="+token, nil)
	req.Header.Set("Upgrade", "websocket")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !ok {
		t.Fatal("expected query token to authenticate websocket upgrade")
	}
}

func TestRequireRoles(t *testing.T) {
	handler := RequireRoles(auth.RoleSystemAdmin, auth.RoleMinister)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		user   *auth.UserContext
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"wrong role", &auth.UserContext{UserID: "u1", Role: auth.RoleWorker}, http.StatusForbidden},
		{"allowed", &auth.UserContext{UserID: "u2", Role: auth.RoleMinister}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}
