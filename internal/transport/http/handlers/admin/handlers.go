package adminhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/planning"
	"pms/internal/platform/jobs"
	"pms/internal/platform/metrics"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

const recomputeEndpoint = "admin-rollups-recompute"

type Handler struct {
	Planning    *planning.Service
	Jobs        *jobs.Service
	Audit       *audit.Service
	Idempotency *middleware.IdempotencyStore
	Metrics     *metrics.Collector
}

func NewHandler(planningSvc *planning.Service, jobSvc *jobs.Service, auditSvc *audit.Service, idem *middleware.IdempotencyStore, collector *metrics.Collector) *Handler {
	return &Handler{Planning: planningSvc, Jobs: jobSvc, Audit: auditSvc, Idempotency: idem, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRoles(auth.RoleSystemAdmin))
		r.Post("/rollups/recompute", h.handleRecompute)
		r.Get("/jobs/runs", h.handleListRuns)
	})
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	year, ok := shared.QueryInt(r, "year", time.Now().Year())
	v := shared.NewValidator()
	if !ok {
		v.Add("year", "must be an integer")
	} else {
		v.Year("year", year)
	}
	if v.Reject(w, reqID) {
		return
	}

	idempotencyKey := middleware.IdempotencyKey(r.Header)
	requestHash := middleware.RequestHash([]byte(strconv.Itoa(year)))
	stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, recomputeEndpoint, idempotencyKey, requestHash)
	if errors.Is(err, middleware.ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), reqID)
		return
	}
	if err != nil {
		slog.Warn("idempotency check failed", "err", err)
	}
	if found {
		api.Success(w, stored, reqID)
		return
	}

	report, err := h.Jobs.RunNow(r.Context(), jobs.JobRollupReconcile, func(ctx context.Context) (any, error) {
		return h.Planning.Reconcile(ctx, year)
	})
	if err != nil {
		slog.Error("rollup recompute failed", "err", err, "year", year)
		api.Fail(w, http.StatusInternalServerError, "recompute_failed", "failed to recompute roll-ups", reqID)
		return
	}
	h.Metrics.Inc("rollups.reconciled")
	shared.Audit(r, h.Audit, audit.ActionRecompute, "rollup", strconv.Itoa(year), nil, report)

	response := map[string]any{"year": year, "report": report}
	if encoded, err := shared.MarshalResponse(response); err != nil {
		slog.Warn("recompute response marshal failed", "err", err)
	} else if err := h.Idempotency.Save(r.Context(), user.UserID, recomputeEndpoint, idempotencyKey, requestHash, encoded); err != nil {
		slog.Warn("idempotency save failed", "err", err)
	}
	api.Success(w, response, reqID)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 20, 100)
	runs, err := h.Jobs.ListRuns(r.Context(), shared.QueryString(r, "jobType"), page.Limit)
	if err != nil {
		slog.Error("job run list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", reqID)
		return
	}
	api.Success(w, runs, reqID)
}
