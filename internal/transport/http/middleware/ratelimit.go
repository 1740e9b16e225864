package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"pms/internal/domain/approval"
	"pms/internal/domain/auth"
	"pms/internal/transport/http/api"
)

// sweepEvery bounds the window map: expired windows are dropped after this
// many hits.
const sweepEvery = 1024

type rateWindow struct {
	count int
	reset time.Time
}

type rateCounter struct {
	mu      sync.Mutex
	window  time.Duration
	windows map[string]*rateWindow
	hits    int
	now     func() time.Time
}

func newRateCounter(window time.Duration) *rateCounter {
	return &rateCounter{window: window, windows: map[string]*rateWindow{}, now: time.Now}
}

// hit counts one request against key and returns the count in the current
// window and when that window closes.
func (c *rateCounter) hit(key string) (int, time.Time) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hits++
	if c.hits%sweepEvery == 0 {
		for k, win := range c.windows {
			if now.After(win.reset) {
				delete(c.windows, k)
			}
		}
	}
	win, ok := c.windows[key]
	if !ok || now.After(win.reset) {
		win = &rateWindow{reset: now.Add(c.window)}
		c.windows[key] = win
	}
	win.count++
	return win.count, win.reset
}

// allow charges key against limit and writes the 429 when it is exhausted.
func (c *rateCounter) allow(w http.ResponseWriter, r *http.Request, budget, key string, limit int) bool {
	count, reset := c.hit(budget + "|" + key)
	resetIn := secondsUntil(reset, c.now())

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(limit-count, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetIn))
	if count <= limit {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	slog.Warn("rate limit exceeded",
		"budget", budget,
		"key", key,
		"path", r.URL.Path,
		"method", r.Method,
		"limit", limit,
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func secondsUntil(t, now time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return max(int(d.Seconds()), 1)
}

// roleWeights scales the general budget. System admins bulk-load the catalog
// and user directory; Strategic Unit and Minister page through every sector's
// queue.
var roleWeights = map[string]int{
	auth.RoleSystemAdmin:   4,
	auth.RoleStrategicUnit: 2,
	auth.RoleMinister:      2,
}

func roleLimit(base int, role string) int {
	if weight, ok := roleWeights[role]; ok {
		return base * weight
	}
	return base
}

// RateLimit applies the general per-window budget: per user once the token is
// parsed, per client IP before that.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	counter := newRateCounter(window)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			key, budget := "ip:"+ClientIP(r), limit
			if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
				key, budget = "user:"+user.UserID, roleLimit(limit, user.Role)
			}
			if !counter.allow(w, r, "general", key, budget) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// mutationRule is a write endpoint with its own budget of base/divisor per
// window, charged to every key the rule derives from the request.
type mutationRule struct {
	budget  string
	method  string
	pattern string
	divisor int
	keys    func(r *http.Request, user auth.UserContext, path string) []string
}

var mutationRules = []mutationRule{
	{budget: "login", method: http.MethodPost, pattern: "/auth/login", divisor: 4, keys: loginKeys},
	{budget: "password", method: http.MethodPut, pattern: "/me/password", divisor: 4, keys: actorKeys},
	{budget: "decision", method: http.MethodPatch, pattern: "/target-validation/validate/*", divisor: 2, keys: decisionKeys},
	{budget: "decision", method: http.MethodPatch, pattern: "/performance-validation/validate/*", divisor: 2, keys: decisionKeys},
	{budget: "rollup", method: http.MethodPost, pattern: "/measure-assignment", divisor: 2, keys: actorKeys},
	{budget: "rollup", method: http.MethodDelete, pattern: "/measure-assignments/*", divisor: 2, keys: actorKeys},
	{budget: "recompute", method: http.MethodPost, pattern: "/admin/rollups/recompute", divisor: 20, keys: actorKeys},
	{budget: "assignment", method: http.MethodPost, pattern: "/assign-kpi", divisor: 2, keys: actorKeys},
	{budget: "assignment", method: http.MethodPost, pattern: "/kpi-year-assignments", divisor: 2, keys: actorKeys},
	{budget: "evidence", method: http.MethodPost, pattern: "/performance-files", divisor: 2, keys: actorKeys},
	{budget: "evidence", method: http.MethodPatch, pattern: "/performance-files/*/confirm", divisor: 2, keys: actorKeys},
	{budget: "chat", method: http.MethodPost, pattern: "/chat/conversations/*/messages", divisor: 1, keys: actorKeys},
}

// SensitiveMutationRateLimit charges login, approval decisions, roll-up
// writes and uploads against budgets smaller than the general one.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	counter := newRateCounter(window)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, path, ok := matchMutationRule(r)
			if !ok || baseLimit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			user, _ := GetUser(r.Context())
			limit := max(baseLimit/rule.divisor, 1)
			for _, key := range rule.keys(r, user, path) {
				if !counter.allow(w, r, rule.budget, key, limit) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func matchMutationRule(r *http.Request) (mutationRule, string, bool) {
	path := normalizedAPIPath(r.URL.Path)
	for _, rule := range mutationRules {
		if r.Method == rule.method && pathMatches(rule.pattern, path) {
			return rule, path, true
		}
	}
	return mutationRule{}, path, false
}

// pathMatches compares segment by segment; "*" matches any one segment.
func pathMatches(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "*" && want[i] != got[i] {
			return false
		}
	}
	return true
}

func actorKey(r *http.Request, user auth.UserContext) string {
	if user.UserID != "" {
		return "user:" + user.UserID
	}
	return "ip:" + ClientIP(r)
}

func actorKeys(r *http.Request, user auth.UserContext, _ string) []string {
	return []string{actorKey(r, user)}
}

// loginKeys charges both the client address and the submitted email, so
// spreading guesses over many accounts or many addresses hits a limit.
func loginKeys(r *http.Request, _ auth.UserContext, _ string) []string {
	keys := []string{"ip:" + ClientIP(r)}
	if email := extractJSONField(r, "email"); email != "" {
		keys = append(keys, "email:"+strings.ToLower(email))
	}
	return keys
}

// decisionKeys splits a reviewer's decision budget by approval stage and
// record type, so a burst on target validation leaves performance
// validation open.
func decisionKeys(r *http.Request, user auth.UserContext, path string) []string {
	stage, ok := approval.StageForRole(user.Role)
	if !ok {
		return actorKeys(r, user, path)
	}
	record := approval.RecordPerformance
	if strings.HasPrefix(path, "/target-validation/") {
		record = approval.RecordPlan
	}
	return []string{string(stage) + ":" + string(record) + ":" + actorKey(r, user)}
}

// ClientIP is the first X-Forwarded-For hop or the remote address.
func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// extractJSONField peeks at a string field of a JSON body and rewinds it for
// the handler.
func extractJSONField(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

func normalizedAPIPath(path string) string {
	cleaned := strings.TrimPrefix(strings.TrimSpace(path), "/api/v1")
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}
