package cataloghandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/catalog"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

type Handler struct {
	Service *catalog.Service
	Audit   *audit.Service
}

func NewHandler(service *catalog.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

// entryRequest carries every catalog field; each resource reads the ones it
// owns.
type entryRequest struct {
	Name        string `json:"name" validate:"max=300"`
	Description string `json:"description" validate:"max=1000"`
	SectorID    string `json:"sectorId" validate:"omitempty,uuid"`
	GoalID      string `json:"goalId" validate:"omitempty,uuid"`
	KRAID       string `json:"kraId" validate:"omitempty,uuid"`
	KPIID       string `json:"kpiId" validate:"omitempty,uuid"`
}

// resource binds one catalog table to its service calls.
type resource struct {
	entity      string
	parentField string
	label       func(p entryRequest) string
	parent      func(p entryRequest) string
	list        func(ctx context.Context, r *http.Request) (any, error)
	get         func(ctx context.Context, id string) (any, error)
	create      func(ctx context.Context, parentID, label string) (string, error)
	update      func(ctx context.Context, id, parentID, label string) error
	remove      func(ctx context.Context, id string) error
}

func (h *Handler) resources() map[string]resource {
	name := func(p entryRequest) string { return p.Name }
	return map[string]resource{
		"/sectors": {
			entity: "sector",
			label:  name,
			list: func(ctx context.Context, r *http.Request) (any, error) {
				return h.Service.ListSectors(ctx)
			},
			get: func(ctx context.Context, id string) (any, error) { return h.Service.GetSector(ctx, id) },
			create: func(ctx context.Context, _, label string) (string, error) {
				return h.Service.CreateSector(ctx, label)
			},
			update: func(ctx context.Context, id, _, label string) error {
				return h.Service.UpdateSector(ctx, id, label)
			},
			remove: h.Service.DeleteSector,
		},
		"/subsectors": {
			entity:      "subsector",
			parentField: "sectorId",
			label:       name,
			parent:      func(p entryRequest) string { return p.SectorID },
			list: func(ctx context.Context, r *http.Request) (any, error) {
				return h.Service.ListSubsectors(ctx, shared.QueryString(r, "sectorId"))
			},
			get:    func(ctx context.Context, id string) (any, error) { return h.Service.GetSubsector(ctx, id) },
			create: h.Service.CreateSubsector,
			update: h.Service.UpdateSubsector,
			remove: h.Service.DeleteSubsector,
		},
		"/goals": {
			entity: "goal",
			label:  func(p entryRequest) string { return p.Description },
			list: func(ctx context.Context, r *http.Request) (any, error) {
				return h.Service.ListGoals(ctx)
			},
			get: func(ctx context.Context, id string) (any, error) { return h.Service.GetGoal(ctx, id) },
			create: func(ctx context.Context, _, label string) (string, error) {
				return h.Service.CreateGoal(ctx, label)
			},
			update: func(ctx context.Context, id, _, label string) error {
				return h.Service.UpdateGoal(ctx, id, label)
			},
			remove: h.Service.DeleteGoal,
		},
		"/kras": {
			entity:      "kra",
			parentField: "goalId",
			label:       name,
			parent:      func(p entryRequest) string { return p.GoalID },
			list: func(ctx context.Context, r *http.Request) (any, error) {
				return h.Service.ListKRAs(ctx, shared.QueryString(r, "goalId"))
			},
			get:    func(ctx context.Context, id string) (any, error) { return h.Service.GetKRA(ctx, id) },
			create: h.Service.CreateKRA,
			update: h.Service.UpdateKRA,
			remove: h.Service.DeleteKRA,
		},
		"/kpis": {
			entity:      "kpi",
			parentField: "kraId",
			label:       name,
			parent:      func(p entryRequest) string { return p.KRAID },
			list: func(ctx context.Context, r *http.Request) (any, error) {
				return h.Service.ListKPIs(ctx, shared.QueryString(r, "kraId"), shared.QueryString(r, "goalId"))
			},
			get:    func(ctx context.Context, id string) (any, error) { return h.Service.GetKPI(ctx, id) },
			create: h.Service.CreateKPI,
			update: h.Service.UpdateKPI,
			remove: h.Service.DeleteKPI,
		},
		"/measures": {
			entity:      "measure",
			parentField: "kpiId",
			label:       name,
			parent:      func(p entryRequest) string { return p.KPIID },
			list: func(ctx context.Context, r *http.Request) (any, error) {
				return h.Service.ListMeasures(ctx, shared.QueryString(r, "kpiId"))
			},
			get:    func(ctx context.Context, id string) (any, error) { return h.Service.GetMeasure(ctx, id) },
			create: h.Service.CreateMeasure,
			update: h.Service.UpdateMeasure,
			remove: h.Service.DeleteMeasure,
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	for path, res := range h.resources() {
		r.Route(path, func(r chi.Router) {
			r.Get("/", h.handleList(res))
			r.Get("/{id}", h.handleGet(res))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(auth.RoleSystemAdmin))
				r.Post("/", h.handleCreate(res))
				r.Put("/{id}", h.handleUpdate(res))
				r.Delete("/{id}", h.handleDelete(res))
			})
		})
	}
}

func (h *Handler) handleList(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := res.list(r.Context(), r)
		if err != nil {
			writeError(w, res, err, middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, items, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleGet(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		id, ok := shared.PathUUID(w, r, "id", reqID)
		if !ok {
			return
		}
		item, err := res.get(r.Context(), id)
		if err != nil {
			writeError(w, res, err, reqID)
			return
		}
		api.Success(w, item, reqID)
	}
}

// decode reads and checks the payload for a write. It returns false after
// writing the error response.
func decode(w http.ResponseWriter, r *http.Request, res resource) (entryRequest, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload entryRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return payload, false
	}
	if res.parentField != "" {
		v := shared.NewValidator()
		v.Required(res.parentField, res.parent(payload), "is required")
		if v.Reject(w, reqID) {
			return payload, false
		}
	}
	return payload, true
}

func parentOf(res resource, p entryRequest) string {
	if res.parent == nil {
		return ""
	}
	return res.parent(p)
}

func (h *Handler) handleCreate(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		payload, ok := decode(w, r, res)
		if !ok {
			return
		}

		id, err := res.create(r.Context(), parentOf(res, payload), res.label(payload))
		if err != nil {
			writeError(w, res, err, reqID)
			return
		}
		item, err := res.get(r.Context(), id)
		if err != nil {
			slog.Warn("reload catalog entry failed", "entity", res.entity, "id", id, "err", err)
			item = map[string]string{"id": id}
		}
		shared.Audit(r, h.Audit, audit.ActionCreate, res.entity, id, nil, item)
		api.Created(w, item, reqID)
	}
}

func (h *Handler) handleUpdate(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		id, ok := shared.PathUUID(w, r, "id", reqID)
		if !ok {
			return
		}
		payload, ok := decode(w, r, res)
		if !ok {
			return
		}

		before, err := res.get(r.Context(), id)
		if err != nil {
			writeError(w, res, err, reqID)
			return
		}
		if err := res.update(r.Context(), id, parentOf(res, payload), res.label(payload)); err != nil {
			writeError(w, res, err, reqID)
			return
		}
		after, err := res.get(r.Context(), id)
		if err != nil {
			writeError(w, res, err, reqID)
			return
		}
		shared.Audit(r, h.Audit, audit.ActionUpdate, res.entity, id, before, after)
		api.Success(w, after, reqID)
	}
}

func (h *Handler) handleDelete(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		id, ok := shared.PathUUID(w, r, "id", reqID)
		if !ok {
			return
		}
		before, err := res.get(r.Context(), id)
		if err != nil {
			writeError(w, res, err, reqID)
			return
		}
		if err := res.remove(r.Context(), id); err != nil {
			writeError(w, res, err, reqID)
			return
		}
		shared.Audit(r, h.Audit, audit.ActionDelete, res.entity, id, before, nil)
		api.Success(w, map[string]string{"status": "deleted"}, reqID)
	}
}

func writeError(w http.ResponseWriter, res resource, err error, reqID string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", res.entity+" not found", reqID)
	case errors.Is(err, catalog.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate", res.entity+" already exists", reqID)
	case errors.Is(err, catalog.ErrInUse):
		api.Fail(w, http.StatusConflict, "in_use", res.entity+" is still referenced", reqID)
	case errors.Is(err, catalog.ErrParent):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: res.parentField, Reason: "does not exist"}})
	case errors.Is(err, catalog.ErrEmptyName):
		field := "name"
		if res.entity == "goal" {
			field = "description"
		}
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: field, Reason: "is required"}})
	default:
		slog.Error("catalog operation failed", "entity", res.entity, "err", err)
		api.Fail(w, http.StatusInternalServerError, "catalog_failed", "catalog operation failed", reqID)
	}
}
