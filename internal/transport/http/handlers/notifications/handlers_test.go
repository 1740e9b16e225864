package notificationshandler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestNotificationsRequireUser(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(nil).RegisterRoutes(router)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/notifications"},
		{http.MethodPost, "/notifications/n1/read"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
	}
}
