package assignmenthandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/assignment"
	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

type Handler struct {
	Service *assignment.Service
	Audit   *audit.Service
}

func NewHandler(service *assignment.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

type assignKPIRequest struct {
	SectorID    string `json:"sectorId" validate:"omitempty,uuid"`
	SubsectorID string `json:"subsectorId" validate:"omitempty,uuid"`
	KRAID       string `json:"kraId" validate:"required,uuid"`
	KPIID       string `json:"kpiId" validate:"required,uuid"`
}

type yearRangeRequest struct {
	ID          string `json:"id" validate:"omitempty,uuid"`
	SectorID    string `json:"sectorId" validate:"omitempty,uuid"`
	SubsectorID string `json:"subsectorId" validate:"omitempty,uuid"`
	KPIID       string `json:"kpiId" validate:"required,uuid"`
	KRAID       string `json:"kraId" validate:"omitempty,uuid"`
	GoalID      string `json:"goalId" validate:"omitempty,uuid"`
	StartYear   int    `json:"startYear" validate:"required,gte=1900,lte=9999"`
	EndYear     int    `json:"endYear" validate:"required,gte=1900,lte=9999"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRoles(auth.RoleSystemAdmin, auth.RoleMinister, auth.RoleStrategicUnit)).
		Post("/assign-kpi", h.handleAssignKPI)

	r.Route("/kpi-assignments", func(r chi.Router) {
		r.Get("/", h.handleListKpiAssignments)
		r.Get("/{assignmentID}", h.handleGetKpiAssignment)
		r.With(middleware.RequireRoles(auth.RoleSystemAdmin)).Delete("/{assignmentID}", h.handleDeleteKpiAssignment)
	})

	r.Route("/kpi-year-assignments", func(r chi.Router) {
		r.Get("/", h.handleListYearAssignments)
		r.With(middleware.RequireRoles(auth.RoleSystemAdmin, auth.RoleMinister, auth.RoleStrategicUnit, auth.RoleChiefCEO)).
			Post("/", h.handleAssignYearRange)
		r.Get("/{assignmentID}", h.handleGetYearAssignment)
		r.With(middleware.RequireRoles(auth.RoleSystemAdmin)).Delete("/{assignmentID}", h.handleDeleteYearAssignment)
	})
}

func (h *Handler) handleAssignKPI(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload assignKPIRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}

	id, err := h.Service.AssignKPI(r.Context(), assignment.AssignKPIInput{
		SectorID:    payload.SectorID,
		SubsectorID: payload.SubsectorID,
		KRAID:       payload.KRAID,
		KPIID:       payload.KPIID,
		CreatedBy:   user.UserID,
	})
	if err != nil {
		writeError(w, err, reqID)
		return
	}

	created, err := h.Service.GetKpiAssignment(r.Context(), id)
	if err != nil {
		slog.Warn("reload kpi assignment failed", "id", id, "err", err)
		api.Created(w, map[string]string{"id": id}, reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionCreate, "kpi_assignment", id, nil, created)
	api.Created(w, created, reqID)
}

func (h *Handler) handleListKpiAssignments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	items, err := h.Service.ListKpiAssignments(r.Context(), assignment.Filter{
		SectorID:    shared.QueryString(r, "sectorId"),
		SubsectorID: shared.QueryString(r, "subsectorId"),
		KPIID:       shared.QueryString(r, "kpiId"),
	})
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handleGetKpiAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	assignmentID, ok := shared.PathUUID(w, r, "assignmentID", reqID)
	if !ok {
		return
	}
	item, err := h.Service.GetKpiAssignment(r.Context(), assignmentID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, item, reqID)
}

func (h *Handler) handleDeleteKpiAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathUUID(w, r, "assignmentID", reqID)
	if !ok {
		return
	}
	before, err := h.Service.GetKpiAssignment(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if err := h.Service.DeleteKpiAssignment(r.Context(), id); err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionDelete, "kpi_assignment", id, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) handleAssignYearRange(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload yearRangeRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}

	id, created, err := h.Service.AssignYearRange(r.Context(), assignment.YearRangeInput{
		ID:          payload.ID,
		SectorID:    payload.SectorID,
		SubsectorID: payload.SubsectorID,
		KPIID:       payload.KPIID,
		KRAID:       payload.KRAID,
		GoalID:      payload.GoalID,
		StartYear:   payload.StartYear,
		EndYear:     payload.EndYear,
	})
	if err != nil {
		writeError(w, err, reqID)
		return
	}

	item, err := h.Service.GetYearAssignment(r.Context(), id)
	if err != nil {
		slog.Warn("reload year assignment failed", "id", id, "err", err)
	}
	action := audit.ActionUpdate
	if created {
		action = audit.ActionCreate
	}
	shared.Audit(r, h.Audit, action, "kpi_year_assignment", id, nil, item)
	if created {
		api.Created(w, item, reqID)
		return
	}
	api.Success(w, item, reqID)
}

func (h *Handler) handleListYearAssignments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	year, ok := shared.QueryInt(r, "year", 0)
	if !ok {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "year", Reason: "must be an integer"}})
		return
	}
	items, err := h.Service.ListYearAssignments(r.Context(), assignment.Filter{
		SectorID:    shared.QueryString(r, "sectorId"),
		SubsectorID: shared.QueryString(r, "subsectorId"),
		KPIID:       shared.QueryString(r, "kpiId"),
		Year:        year,
	})
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handleGetYearAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	assignmentID, ok := shared.PathUUID(w, r, "assignmentID", reqID)
	if !ok {
		return
	}
	item, err := h.Service.GetYearAssignment(r.Context(), assignmentID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, item, reqID)
}

func (h *Handler) handleDeleteYearAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathUUID(w, r, "assignmentID", reqID)
	if !ok {
		return
	}
	before, err := h.Service.GetYearAssignment(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if err := h.Service.DeleteYearAssignment(r.Context(), id); err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionDelete, "kpi_year_assignment", id, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, assignment.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, assignment.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate", err.Error(), reqID)
	case errors.Is(err, assignment.ErrScope):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "sectorId", Reason: err.Error()}})
	case errors.Is(err, assignment.ErrYearRange):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "startYear", Reason: err.Error()}})
	case errors.Is(err, assignment.ErrUnresolved),
		errors.Is(err, assignment.ErrHierarchyMismatch),
		errors.Is(err, assignment.ErrSubsectorSector):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "", Reason: err.Error()}})
	default:
		slog.Error("assignment operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "assignment_failed", "assignment operation failed", reqID)
	}
}
