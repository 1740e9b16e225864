package reportshandler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/auth"
	"pms/internal/domain/reports"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireRoles(auth.RoleMinister, auth.RoleStrategicUnit, auth.RoleChiefCEO, auth.RoleCEO))
		r.Get("/scorecard", h.handleScorecard)
		r.Get("/scorecard.pdf", h.handleScorecardPDF)
	})
}

func (h *Handler) scorecard(w http.ResponseWriter, r *http.Request) (reports.Scorecard, bool) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	v := shared.NewValidator()
	year, ok := shared.QueryInt(r, "year", 0)
	if !ok {
		v.Add("year", "must be an integer")
	} else {
		v.Year("year", year)
	}
	role := shared.QueryString(r, "role")
	if role != "" && !auth.HasRole(role, auth.PlanningRoles...) {
		v.Add("role", "must be a planning role")
	}
	if v.Reject(w, reqID) {
		return reports.Scorecard{}, false
	}

	sc, err := h.Service.Scorecard(r.Context(), user, year, role)
	if err != nil {
		if errors.Is(err, reports.ErrOutOfScope) {
			api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
			return reports.Scorecard{}, false
		}
		slog.Error("scorecard failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build scorecard", reqID)
		return reports.Scorecard{}, false
	}
	return sc, true
}

func (h *Handler) handleScorecard(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scorecard(w, r)
	if !ok {
		return
	}
	api.Success(w, sc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleScorecardPDF(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scorecard(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := reports.WritePDF(&buf, sc); err != nil {
		slog.Error("scorecard pdf failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render scorecard", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=scorecard-%d.pdf", sc.Year))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("scorecard pdf write failed", "err", err)
	}
}
