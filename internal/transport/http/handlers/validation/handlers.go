package validationhandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/approval"
	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/notifications"
	"pms/internal/domain/planning"
	"pms/internal/platform/metrics"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

type Handler struct {
	Approvals     *approval.Service
	Planning      *planning.Service
	Notifications *notifications.Service
	Audit         *audit.Service
	Metrics       *metrics.Collector
}

func NewHandler(approvals *approval.Service, planningSvc *planning.Service, notifier *notifications.Service, auditSvc *audit.Service, collector *metrics.Collector) *Handler {
	return &Handler{
		Approvals:     approvals,
		Planning:      planningSvc,
		Notifications: notifier,
		Audit:         auditSvc,
		Metrics:       collector,
	}
}

// decideRequest carries one stage decision. Role is optional and must match
// the caller's token when given.
type decideRequest struct {
	Type        string `json:"type" validate:"required,oneof=year q1 q2 q3 q4"`
	Status      string `json:"status" validate:"required,oneof=Approved Rejected Pending"`
	Description string `json:"description" validate:"max=2000"`
	Role        string `json:"role"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	validators := middleware.RequireRoles(auth.ValidatorRoles...)
	r.With(validators).Get("/target-validation", h.handleListPlans)
	r.With(validators).Patch("/target-validation/validate/{recordID}", h.decide(approval.RecordPlan))
	r.With(validators).Get("/performance-validation", h.handleListPerformances)
	r.With(validators).Patch("/performance-validation/validate/{recordID}", h.decide(approval.RecordPerformance))
}

func queueFilter(w http.ResponseWriter, r *http.Request) (planning.ListFilter, bool) {
	reqID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	year, okYear := shared.QueryInt(r, "year", 0)
	quarter, okQuarter := shared.QueryInt(r, "quarter", 0)
	if !okYear {
		v.Add("year", "must be an integer")
	} else if year != 0 {
		v.Year("year", year)
	}
	bucket, valid := approval.BucketForQuarter(quarter)
	if !okQuarter || !valid {
		v.Add("quarter", "must be between 0 and 4")
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
	filter, ok := queueFilter(w, r)
	if !ok {
		return
	}
	plans, total, err := h.Planning.ListPlans(r.Context(), user, filter)
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
	filter, ok := queueFilter(w, r)
	if !ok {
		return
	}
	items, total, err := h.Planning.ListPerformances(r.Context(), user, filter)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, items, reqID)
}

func (h *Handler) decide(recordType approval.RecordType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		user, _ := middleware.GetUser(r.Context())
		recordID, ok := shared.PathUUID(w, r, "recordID", reqID)
		if !ok {
			return
		}

		var payload decideRequest
		if !shared.DecodeAndValidate(w, r, &payload, reqID) {
			return
		}
		if role := strings.TrimSpace(payload.Role); role != "" && role != user.Role {
			api.Fail(w, http.StatusForbidden, "forbidden", "role does not match the authenticated user", reqID)
			return
		}
		bucket, _ := approval.ParseBucket(payload.Type)
		status, _ := approval.ParseStatus(payload.Status)

		result, err := h.Approvals.Decide(r.Context(), approval.DecideInput{
			RecordType:  recordType,
			RecordID:    recordID,
			ActorID:     user.UserID,
			ActorRole:   user.Role,
			SectorID:    user.SectorID,
			SubsectorID: user.SubsectorID,
			Bucket:      bucket,
			Status:      status,
			Description: strings.TrimSpace(payload.Description),
		})
		if err != nil {
			writeError(w, err, reqID)
			return
		}

		shared.Audit(r, h.Audit, auditAction(status), string(recordType), recordID, result.Previous, map[string]any{
			"stage":    result.Stage,
			"bucket":   result.Bucket,
			"decision": result.Decision,
		})
		if h.Notifications != nil {
			if err := h.Notifications.NotifyDecision(r.Context(), result); err != nil {
				slog.Warn("approval notification failed", "err", err, "record_id", recordID)
			}
		}
		h.Metrics.Inc("approvals." + strings.ToLower(string(status)))
		api.Success(w, result, reqID)
	}
}

func auditAction(status approval.Status) string {
	switch status {
	case approval.StatusApproved:
		return audit.ActionApprove
	case approval.StatusRejected:
		return audit.ActionReject
	}
	return audit.ActionReset
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, approval.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, approval.ErrStagePrecondition):
		api.Fail(w, http.StatusConflict, "stage_precondition_failed", err.Error(), reqID)
	case errors.Is(err, approval.ErrStageLocked):
		api.Fail(w, http.StatusConflict, "stage_locked", err.Error(), reqID)
	case errors.Is(err, approval.ErrOutOfScope),
		errors.Is(err, approval.ErrUnknownStage),
		errors.Is(err, planning.ErrOutOfScope):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, approval.ErrInvalidBucket):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "type", Reason: err.Error()}})
	case errors.Is(err, approval.ErrInvalidStatus):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "status", Reason: err.Error()}})
	default:
		slog.Error("validation operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "validation_failed", "validation operation failed", reqID)
	}
}
