package planninghandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/approval"
	"pms/internal/domain/assignment"
	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/planning"
	"pms/internal/platform/metrics"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

type Handler struct {
	Service     *planning.Service
	Audit       *audit.Service
	Idempotency *middleware.IdempotencyStore
	Metrics     *metrics.Collector
}

func NewHandler(service *planning.Service, auditSvc *audit.Service, idem *middleware.IdempotencyStore, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Idempotency: idem, Metrics: collector}
}

// writeRequest addresses one bucket of a plan or performance. Quarter 0 is
// the yearly bucket.
type writeRequest struct {
	KPIName     string   `json:"kpiName" validate:"notblank,max=300"`
	Year        int      `json:"year" validate:"required,gte=1900,lte=9999"`
	Quarter     int      `json:"quarter" validate:"gte=0,lte=4"`
	Target      *float64 `json:"target" validate:"omitempty,gte=0"`
	Value       *float64 `json:"value" validate:"omitempty,gte=0"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	KRAID       string   `json:"kraId" validate:"omitempty,uuid"`
	GoalID      string   `json:"goalId" validate:"omitempty,uuid"`
	SectorID    string   `json:"sectorId" validate:"omitempty,uuid"`
	SubsectorID string   `json:"subsectorId" validate:"omitempty,uuid"`
}

type measureRequest struct {
	MeasureID string  `json:"measureId" validate:"required,uuid"`
	WorkerID  string  `json:"workerId" validate:"required,uuid"`
	Target    float64 `json:"target" validate:"gte=0"`
	Year      int     `json:"year" validate:"required,gte=1900,lte=9999"`
	Quarter   int     `json:"quarter" validate:"required,gte=1,lte=4"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	planners := middleware.RequireRoles(auth.PlanningRoles...)
	admin := middleware.RequireRoles(auth.RoleSystemAdmin)

	r.Route("/plans", func(r chi.Router) {
		r.Get("/", h.handleListPlans)
		r.With(planners).Post("/", h.handleSavePlan)
		r.Get("/{planID}", h.handleGetPlan)
		r.With(admin).Delete("/{planID}", h.handleDeletePlan)
	})
	r.Route("/performances", func(r chi.Router) {
		r.Get("/", h.handleListPerformances)
		r.With(planners).Post("/", h.handleSavePerformance)
		r.Get("/{performanceID}", h.handleGetPerformance)
		r.With(admin).Delete("/{performanceID}", h.handleDeletePerformance)
	})

	r.With(middleware.RequireRoles(auth.RoleCEO)).Post("/measure-assignment", h.handleAssignMeasure)
	r.Route("/measure-assignments", func(r chi.Router) {
		r.With(middleware.RequireRoles(auth.RoleCEO, auth.RoleWorker)).Get("/", h.handleListMeasureAssignments)
		r.With(middleware.RequireRoles(auth.RoleCEO)).Delete("/{assignmentID}", h.handleDeleteMeasureAssignment)
	})
}

func (p writeRequest) input(user auth.UserContext, value float64) planning.WriteInput {
	return planning.WriteInput{
		UserID:      user.UserID,
		Role:        user.Role,
		KPIName:     p.KPIName,
		Year:        p.Year,
		Quarter:     p.Quarter,
		Value:       value,
		Description: p.Description,
		KRAID:       p.KRAID,
		GoalID:      p.GoalID,
		SectorID:    p.SectorID,
		SubsectorID: p.SubsectorID,
	}
}

func (h *Handler) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload writeRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	if payload.Target == nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "target", Reason: "is required"}})
		return
	}

	plan, err := h.Service.SavePlan(r.Context(), payload.input(user, *payload.Target))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionUpdate, "plan", plan.ID, nil, map[string]any{
		"quarter": payload.Quarter,
		"target":  *payload.Target,
	})
	api.Success(w, plan, reqID)
}

func (h *Handler) handleSavePerformance(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload writeRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	if payload.Value == nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "value", Reason: "is required"}})
		return
	}

	perf, err := h.Service.SavePerformance(r.Context(), payload.input(user, *payload.Value))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionUpdate, "performance", perf.ID, nil, map[string]any{
		"quarter": payload.Quarter,
		"value":   *payload.Value,
	})
	api.Success(w, perf, reqID)
}

// listFilter reads year, quarter (or bucket), role, kpiId and paging.
func listFilter(w http.ResponseWriter, r *http.Request) (planning.ListFilter, bool) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	year, ok := shared.QueryInt(r, "year", 0)
	if !ok {
		v.Add("year", "must be an integer")
	}
	bucket := approval.BucketYear
	if raw := shared.QueryString(r, "quarter"); raw != "" {
		quarter, err := strconv.Atoi(raw)
		b, valid := approval.BucketForQuarter(quarter)
		if err != nil || !valid {
			v.Add("quarter", "must be between 0 and 4")
		}
		bucket = b
	} else if raw := shared.QueryString(r, "bucket"); raw != "" {
		b, valid := approval.ParseBucket(raw)
		if !valid {
			v.Add("bucket", "must be one of year, q1, q2, q3, q4")
		}
		bucket = b
	}
	if v.Reject(w, reqID) {
		return planning.ListFilter{}, false
	}
	page := shared.ParsePagination(r, 50, 200)
	return planning.ListFilter{
		Year:   year,
		Bucket: bucket,
		Role:   shared.QueryString(r, "role"),
		KPIID:  shared.QueryString(r, "kpiId"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}, true
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	filter, ok := listFilter(w, r)
	if !ok {
		return
	}
	plans, total, err := h.Service.ListPlans(r.Context(), user, filter)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, plans, reqID)
}

func (h *Handler) handleListPerformances(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	filter, ok := listFilter(w, r)
	if !ok {
		return
	}
	perfs, total, err := h.Service.ListPerformances(r.Context(), user, filter)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, perfs, reqID)
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	planID, ok := shared.PathUUID(w, r, "planID", reqID)
	if !ok {
		return
	}
	plan, err := h.Service.GetPlan(r.Context(), user, planID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, plan, reqID)
}

func (h *Handler) handleGetPerformance(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	performanceID, ok := shared.PathUUID(w, r, "performanceID", reqID)
	if !ok {
		return
	}
	perf, err := h.Service.GetPerformance(r.Context(), user, performanceID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, perf, reqID)
}

func (h *Handler) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathUUID(w, r, "planID", reqID)
	if !ok {
		return
	}
	if err := h.Service.DeletePlan(r.Context(), id); err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionDelete, "plan", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) handleDeletePerformance(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathUUID(w, r, "performanceID", reqID)
	if !ok {
		return
	}
	if err := h.Service.DeletePerformance(r.Context(), id); err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionDelete, "performance", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) handleAssignMeasure(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	body, ok := shared.ReadBody(w, r, reqID)
	if !ok {
		return
	}
	idempotencyKey := middleware.IdempotencyKey(r.Header)
	requestHash := middleware.RequestHash(body)
	stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, "measure-assignment", idempotencyKey, requestHash)
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

	var payload measureRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}

	result, err := h.Service.AssignMeasure(r.Context(), planning.MeasureInput{
		MeasureID: payload.MeasureID,
		WorkerID:  payload.WorkerID,
		Target:    payload.Target,
		Year:      payload.Year,
		Quarter:   payload.Quarter,
		ActorID:   user.UserID,
		ActorRole: user.Role,
		ActorSub:  user.SubsectorID,
	})
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	h.Metrics.Inc("rollups")
	shared.Audit(r, h.Audit, audit.ActionUpdate, "measure_assignment", result.MeasureAssignmentID, nil, payload)
	shared.Audit(r, h.Audit, audit.ActionRecompute, "plan", result.PlanID, nil, result)

	if encoded, err := shared.MarshalResponse(result); err != nil {
		slog.Warn("measure assignment response marshal failed", "err", err)
	} else if err := h.Idempotency.Save(r.Context(), user.UserID, "measure-assignment", idempotencyKey, requestHash, encoded); err != nil {
		slog.Warn("idempotency save failed", "err", err)
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleListMeasureAssignments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	year, okYear := shared.QueryInt(r, "year", 0)
	quarter, okQuarter := shared.QueryInt(r, "quarter", 0)
	if !okYear || !okQuarter {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "year", Reason: "year and quarter must be integers"}})
		return
	}

	items, err := h.Service.ListMeasureAssignments(r.Context(), user, planning.MeasureFilter{
		WorkerID: shared.QueryString(r, "workerId"),
		KPIID:    shared.QueryString(r, "kpiId"),
		Year:     year,
		Quarter:  quarter,
	})
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handleDeleteMeasureAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathUUID(w, r, "assignmentID", reqID)
	if !ok {
		return
	}
	if err := h.Service.DeleteMeasureAssignment(r.Context(), user, id); err != nil {
		writeError(w, err, reqID)
		return
	}
	h.Metrics.Inc("rollups")
	shared.Audit(r, h.Audit, audit.ActionDelete, "measure_assignment", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, planning.ErrKPINotFound),
		errors.Is(err, planning.ErrPlanNotFound),
		errors.Is(err, planning.ErrPerformanceNotFound),
		errors.Is(err, planning.ErrMeasureNotFound),
		errors.Is(err, planning.ErrMeasureAssignmentNotFound),
		errors.Is(err, planning.ErrWorkerNotFound),
		errors.Is(err, planning.ErrNoKpiAssignment),
		errors.Is(err, assignment.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, planning.ErrOutOfScope),
		errors.Is(err, planning.ErrRoleNotPlanner):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, planning.ErrInvalidQuarter):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "quarter", Reason: err.Error()}})
	case errors.Is(err, planning.ErrQuarterRegression):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "value", Reason: err.Error()}})
	case errors.Is(err, planning.ErrYearRegression):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "value", Reason: err.Error()}})
	case errors.Is(err, planning.ErrSectorUnresolved):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "sectorId", Reason: err.Error()}})
	case errors.Is(err, planning.ErrHierarchyMismatch):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "kraId", Reason: err.Error()}})
	case errors.Is(err, planning.ErrNotWorker):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "workerId", Reason: err.Error()}})
	default:
		slog.Error("planning operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "planning_failed", "planning operation failed", reqID)
	}
}
