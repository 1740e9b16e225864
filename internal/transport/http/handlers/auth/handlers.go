package authhandler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"unicode"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Audit   *audit.Service
}

func NewHandler(service *auth.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type createUserRequest struct {
	FullName    string `json:"fullName" validate:"notblank,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Role        string `json:"role" validate:"required"`
	SectorID    string `json:"sectorId" validate:"omitempty,uuid"`
	SubsectorID string `json:"subsectorId" validate:"omitempty,uuid"`
}

type updateUserRequest struct {
	FullName    *string `json:"fullName" validate:"omitempty,notblank,max=200"`
	Role        *string `json:"role"`
	SectorID    *string `json:"sectorId" validate:"omitempty,uuid"`
	SubsectorID *string `json:"subsectorId" validate:"omitempty,uuid"`
	Status      *string `json:"status" validate:"omitempty,oneof=active disabled"`
}

// RegisterPublic mounts the routes reachable without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Put("/me/password", h.handleChangePassword)
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireRoles(auth.RoleSystemAdmin))
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
		r.Get("/{userID}", h.handleGetUser)
		r.Put("/{userID}", h.handleUpdateUser)
		r.Delete("/{userID}", h.handleDeleteUser)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}

	token, user, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}
	if err != nil && token == "" {
		slog.Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}
	if err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}

	if recErr := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    user.ID,
		ActorRole:  user.Role,
		Action:     audit.ActionLogin,
		EntityType: "user",
		EntityID:   user.ID,
		RequestID:  reqID,
		IP:         middleware.ClientIP(r),
	}); recErr != nil {
		slog.Warn("audit log failed", "action", audit.ActionLogin, "err", recErr)
	}

	api.Success(w, map[string]any{"token": token, "user": user}, reqID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	profile, err := h.Service.GetUser(r.Context(), user.UserID)
	if err != nil {
		if auth.IsNotFound(err) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "profile_failed", "failed to load profile", reqID)
		return
	}
	api.Success(w, map[string]any{
		"user": profile,
		"scope": map[string]string{
			"role":        user.Role,
			"sectorId":    user.SectorID,
			"subsectorId": user.SubsectorID,
		},
	}, reqID)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload passwordRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	if err := validatePassword(payload.NewPassword); err != nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "newPassword", Reason: err.Error()}})
		return
	}

	if err := h.Service.ChangePassword(r.Context(), user.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "password_update_failed", "failed to update password", reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionUpdate, "user_password", user.UserID, nil, nil)
	api.Success(w, map[string]string{"status": "password_changed"}, reqID)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	filter := auth.UserFilter{
		Role:        shared.QueryString(r, "role"),
		SectorID:    shared.QueryString(r, "sectorId"),
		SubsectorID: shared.QueryString(r, "subsectorId"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}

	users, total, err := h.Service.ListUsers(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to list users", reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, users, reqID)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	userID, ok := shared.PathUUID(w, r, "userID", reqID)
	if !ok {
		return
	}
	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		writeUserError(w, err, reqID)
		return
	}
	api.Success(w, user, reqID)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload createUserRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	if err := validatePassword(payload.Password); err != nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "password", Reason: err.Error()}})
		return
	}

	id, err := h.Service.CreateUser(r.Context(), auth.NewUser{
		FullName:    payload.FullName,
		Email:       payload.Email,
		Password:    payload.Password,
		Role:        payload.Role,
		SectorID:    payload.SectorID,
		SubsectorID: payload.SubsectorID,
	})
	if err != nil {
		writeUserError(w, err, reqID)
		return
	}

	created, err := h.Service.GetUser(r.Context(), id)
	if err != nil {
		slog.Warn("reload created user failed", "userId", id, "err", err)
		created = auth.User{ID: id, FullName: payload.FullName, Email: payload.Email, Role: payload.Role}
	}
	shared.Audit(r, h.Audit, audit.ActionCreate, "user", id, nil, created)
	api.Created(w, created, reqID)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	userID, ok := shared.PathUUID(w, r, "userID", reqID)
	if !ok {
		return
	}
	var payload updateUserRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}

	before, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		writeUserError(w, err, reqID)
		return
	}
	if err := h.Service.UpdateUser(r.Context(), userID, auth.UserUpdate{
		FullName:    payload.FullName,
		Role:        payload.Role,
		SectorID:    payload.SectorID,
		SubsectorID: payload.SubsectorID,
		Status:      payload.Status,
	}); err != nil {
		writeUserError(w, err, reqID)
		return
	}

	after, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		writeUserError(w, err, reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionUpdate, "user", userID, before, after)
	api.Success(w, after, reqID)
}

// handleDeleteUser disables the account. Plans and performances keep their
// owner so history stays intact.
func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	userID, ok := shared.PathUUID(w, r, "userID", reqID)
	if !ok {
		return
	}
	if userID == actor.UserID {
		api.Fail(w, http.StatusConflict, "self_delete", "cannot disable your own account", reqID)
		return
	}

	before, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		writeUserError(w, err, reqID)
		return
	}
	disabled := auth.UserStatusDisabled
	if err := h.Service.UpdateUser(r.Context(), userID, auth.UserUpdate{Status: &disabled}); err != nil {
		writeUserError(w, err, reqID)
		return
	}
	shared.Audit(r, h.Audit, audit.ActionDelete, "user", userID, before, nil)
	api.Success(w, map[string]string{"status": "disabled"}, reqID)
}

func writeUserError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
	case errors.Is(err, auth.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "email_taken", err.Error(), reqID)
	case errors.Is(err, auth.ErrInvalidRole):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "role", Reason: "must be one of the defined roles"}})
	case errors.Is(err, auth.ErrInvalidScope):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "subsectorId", Reason: err.Error()}})
	default:
		slog.Error("user operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "user_update_failed", "failed to save user", reqID)
	}
}

func validatePassword(password string) error {
	if len(password) < 10 {
		return fmt.Errorf("password must be at least 10 characters")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("password must include upper and lower case letters and a number")
	}
	return nil
}
