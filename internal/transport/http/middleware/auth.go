package middleware

import (
	"net/http"
	"strings"

	"pms/internal/domain/auth"
	"pms/internal/transport/http/api"
)

// Scope override headers, honoured only when the deployment trusts an
// upstream gateway to set them.
const (
	HeaderUserRole    = "X-User-Role"
	HeaderSectorID    = "X-Sector-ID"
	HeaderSubsectorID = "X-Subsector-ID"
)

func Auth(secret string, trustScopeHeaders bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user := claims.UserContext()
			if trustScopeHeaders {
				user = overlayScope(user, r.Header)
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// a websocket handshake, so upgrade requests may carry the token in the
// access_token query parameter instead.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return ""
		}
		return parts[1]
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func overlayScope(user auth.UserContext, h http.Header) auth.UserContext {
	if role := strings.TrimSpace(h.Get(HeaderUserRole)); role != "" && auth.IsValidRole(role) {
		user.Role = role
	}
	if sector := strings.TrimSpace(h.Get(HeaderSectorID)); sector != "" {
		user.SectorID = sector
	}
	if subsector := strings.TrimSpace(h.Get(HeaderSubsectorID)); subsector != "" {
		user.SubsectorID = subsector
	}
	return user
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles admits callers whose role is one of roles.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !auth.HasRole(user.Role, roles...) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
