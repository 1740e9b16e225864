package evidencehandler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/evidence"
	"pms/internal/platform/storage"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

const multipartMemory = 8 << 20

type Handler struct {
	Service *evidence.Service
	Audit   *audit.Service
}

func NewHandler(service *evidence.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/performance-files", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.With(middleware.RequireRoles(auth.RoleWorker)).Post("/", h.handleUpload)
		r.Get("/{fileID}", h.handleGet)
		r.With(middleware.RequireRoles(auth.RoleCEO)).Patch("/{fileID}/confirm", h.handleConfirm)
		r.Get("/{fileID}/download", h.handleDownload)
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload too large", reqID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "expected multipart form data", reqID)
		return
	}
	defer r.MultipartForm.RemoveAll()

	v := shared.NewValidator()
	measureID := strings.TrimSpace(r.FormValue("measureId"))
	v.Required("measureId", measureID, "is required")
	v.UUID("measureId", measureID)
	year, err := strconv.Atoi(strings.TrimSpace(r.FormValue("year")))
	if err != nil {
		v.Add("year", "must be an integer")
	} else {
		v.Year("year", year)
	}
	quarter, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quarter")))
	if err != nil {
		v.Add("quarter", "must be an integer")
	} else {
		v.Quarter("quarter", quarter, false)
	}
	description := strings.TrimSpace(r.FormValue("description"))
	if len(description) > 2000 {
		v.Add("description", "must be at most 2000 characters")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		v.Add("file", "is required")
	}
	if v.Reject(w, reqID) {
		if file != nil {
			file.Close()
		}
		return
	}
	defer file.Close()

	saved, err := h.Service.Upload(r.Context(), user, evidence.UploadInput{
		MeasureID:   measureID,
		Year:        year,
		Quarter:     quarter,
		Description: description,
		FileName:    header.Filename,
		Body:        file,
	})
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionCreate, "performance_file", saved.ID, nil, saved)
	api.Created(w, saved, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	year, okYear := shared.QueryInt(r, "year", 0)
	quarter, okQuarter := shared.QueryInt(r, "quarter", 0)
	if !okYear || !okQuarter {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "year", Reason: "year and quarter must be integers"}})
		return
	}

	filter := evidence.Filter{
		WorkerID:      shared.QueryString(r, "workerId"),
		SectorID:      shared.QueryString(r, "sectorId"),
		SubsectorID:   shared.QueryString(r, "subsectorId"),
		MeasureID:     shared.QueryString(r, "measureId"),
		KPIID:         shared.QueryString(r, "kpiId"),
		PerformanceID: shared.QueryString(r, "performanceId"),
		Year:          year,
		Quarter:       quarter,
		Confirmed:     shared.QueryBool(r, "confirmed"),
	}
	v := shared.NewValidator()
	v.UUID("workerId", filter.WorkerID)
	v.UUID("sectorId", filter.SectorID)
	v.UUID("subsectorId", filter.SubsectorID)
	v.UUID("measureId", filter.MeasureID)
	v.UUID("kpiId", filter.KPIID)
	v.UUID("performanceId", filter.PerformanceID)
	if v.Reject(w, reqID) {
		return
	}

	files, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(files)))
	api.Success(w, files, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	fileID, ok := shared.PathUUID(w, r, "fileID", reqID)
	if !ok {
		return
	}
	f, err := h.Service.Get(r.Context(), user, fileID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, f, reqID)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.PathUUID(w, r, "fileID", reqID)
	if !ok {
		return
	}
	f, err := h.Service.Confirm(r.Context(), user, id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionConfirm, "performance_file", id, nil, map[string]any{"confirmed": true})
	api.Success(w, f, reqID)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	fileID, ok := shared.PathUUID(w, r, "fileID", reqID)
	if !ok {
		return
	}
	f, handle, err := h.Service.Open(r.Context(), user, fileID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	defer handle.Close()

	if f.ContentType != "" {
		w.Header().Set("Content-Type", f.ContentType)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.FileName}))
	http.ServeContent(w, r, f.FileName, f.UpdatedAt, handle)
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, evidence.ErrNotFound),
		errors.Is(err, evidence.ErrMeasureNotFound),
		errors.Is(err, storage.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, evidence.ErrOutOfScope),
		errors.Is(err, evidence.ErrNotWorker):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, evidence.ErrInvalidQuarter):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "quarter", Reason: err.Error()}})
	case errors.Is(err, evidence.ErrMissingFile),
		errors.Is(err, storage.ErrEmptyFile),
		errors.Is(err, storage.ErrInvalidPath):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "file", Reason: err.Error()}})
	case errors.Is(err, storage.ErrTooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error(), reqID)
	default:
		slog.Error("performance file operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "evidence_failed", "performance file operation failed", reqID)
	}
}
