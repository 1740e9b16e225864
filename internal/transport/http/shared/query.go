package shared

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// QueryInt parses an integer query parameter. A missing parameter yields
// fallback; a malformed one yields ok=false.
func QueryInt(r *http.Request, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

func QueryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// QueryBool returns nil when the parameter is absent or malformed.
func QueryBool(r *http.Request, name string) *bool {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

// PathUUID reads a route parameter that must be a UUID and returns it in
// canonical form. A malformed id fails validation before it reaches the store.
func PathUUID(w http.ResponseWriter, r *http.Request, name, requestID string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		FailValidation(w, requestID, []ValidationIssue{{Field: name, Reason: "must be a valid UUID"}})
		return "", false
	}
	return parsed.String(), true
}
